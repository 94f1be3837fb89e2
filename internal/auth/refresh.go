package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

// refresh exchanges the account's refresh token for a new access token and
// persists the updated record. A rotated refresh token replaces the stored
// one; losing a rotation would invalidate every future refresh.
//
// On failure the store is left untouched and the returned error wraps
// ErrRefreshFailed.
func (r *Resolver) refresh(ctx context.Context, email string, account tokenstore.Account) (tokenstore.Account, error) {
	status, body, err := postForm(ctx, r.client, tokenURL(r.authority, account.Tenant), url.Values{
		"client_id":     {account.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {account.RefreshToken},
	})
	if err != nil {
		return tokenstore.Account{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if status < 200 || status >= 300 {
		return tokenstore.Account{}, fmt.Errorf("%w: %w", ErrRefreshFailed, &ServerError{StatusCode: status, Body: string(body)})
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return tokenstore.Account{}, fmt.Errorf("%w: decoding token response: %v", ErrRefreshFailed, err)
	}

	account.AccessToken = tok.AccessToken
	account.ExpiresAt = r.now().Add(time.Duration(tok.ExpiresIn) * time.Second).Unix()
	if tok.RefreshToken != "" {
		account.RefreshToken = tok.RefreshToken
	}

	// Reload before writing so a login that completed meanwhile for another
	// account is not clobbered. The store itself stays last-writer-wins.
	accounts, err := r.store.Load(ctx)
	if err != nil {
		return tokenstore.Account{}, fmt.Errorf("loading token store: %w", err)
	}
	accounts[email] = account
	if err := r.store.Save(ctx, accounts); err != nil {
		return tokenstore.Account{}, fmt.Errorf("saving token store: %w", err)
	}

	slog.DebugContext(ctx, "access token refreshed", "account", email)
	return account, nil
}

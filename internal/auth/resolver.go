package auth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

// refreshMargin is the safety window before expiry within which a cached
// access token is treated as stale and refreshed.
const refreshMargin = 5 * time.Minute

// Resolver hands out currently valid bearer tokens for stored accounts,
// transparently refreshing tokens that are within refreshMargin of expiry.
// It is the sole integration point used by the resource clients.
type Resolver struct {
	store tokenstore.Store
	settings
}

// NewResolver creates a Resolver backed by the given token store.
func NewResolver(store tokenstore.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		settings: defaultSettings(),
	}
	for _, opt := range opts {
		opt(&r.settings)
	}
	return r
}

// AccessToken returns a valid bearer token for the given account, refreshing
// it first when it is within five minutes of expiry. A stale token is never
// returned.
//
// An empty email selects the default account: the lexicographically smallest
// stored email, so repeated invocations agree on the choice.
func (r *Resolver) AccessToken(ctx context.Context, email string) (string, error) {
	accounts, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading token store: %w", err)
	}
	if len(accounts) == 0 {
		return "", ErrNotAuthenticated
	}

	if email == "" {
		email = defaultAccount(accounts)
	}

	account, ok := accounts[email]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrAccountNotFound, email)
	}

	expiresAt := time.Unix(account.ExpiresAt, 0)
	if !r.now().Before(expiresAt.Add(-refreshMargin)) {
		refreshed, err := r.refresh(ctx, email, account)
		if err != nil {
			return "", err
		}
		return refreshed.AccessToken, nil
	}

	return account.AccessToken, nil
}

// defaultAccount picks the lexicographically smallest email so the choice is
// deterministic across processes.
func defaultAccount(accounts tokenstore.Accounts) string {
	emails := make([]string, 0, len(accounts))
	for email := range accounts {
		emails = append(emails, email)
	}
	return slices.Min(emails)
}

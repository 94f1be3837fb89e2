package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

// refreshServer scripts the token endpoint for refresh exchanges and counts
// how often it is hit.
type refreshServer struct {
	t        *testing.T
	status   int
	body     string
	requests int
}

func (s *refreshServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/consumers/oauth2/v2.0/token" {
			s.t.Errorf("Unexpected request path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			s.t.Errorf("parsing refresh form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			s.t.Errorf("Expected grant_type refresh_token, got %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "old-refresh" {
			s.t.Errorf("Expected stored refresh token, got %q", got)
		}
		s.requests++
		w.WriteHeader(s.status)
		fmt.Fprint(w, s.body)
	})
}

func newTestResolver(t *testing.T, serverURL string, clock *fakeClock, accounts tokenstore.Accounts) (*Resolver, tokenstore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := tokenstore.NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if accounts != nil {
		if err := store.Save(context.Background(), accounts); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	r := NewResolver(store,
		WithAuthority(serverURL),
		WithClock(clock.Now, clock.Sleep),
	)
	return r, store, path
}

func storedAccount(clock *fakeClock, validFor time.Duration) tokenstore.Account {
	return tokenstore.Account{
		ClientID:     "test-client",
		Tenant:       "consumers",
		AccessToken:  "cached-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    clock.Now().Add(validFor).Unix(),
	}
}

func TestAccessToken_EmptyStore(t *testing.T) {
	r, _, _ := newTestResolver(t, "http://unused.invalid", newFakeClock(), nil)

	_, err := r.AccessToken(context.Background(), "")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAccessToken_UnknownAccount(t *testing.T) {
	clock := newFakeClock()
	r, _, _ := newTestResolver(t, "http://unused.invalid", clock, tokenstore.Accounts{
		"alice@example.com": storedAccount(clock, time.Hour),
	})

	_, err := r.AccessToken(context.Background(), "bob@example.com")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccessToken_FreshTokenSkipsRefresh(t *testing.T) {
	clock := newFakeClock()
	script := &refreshServer{t: t, status: http.StatusOK, body: `{}`}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	r, _, _ := newTestResolver(t, server.URL, clock, tokenstore.Accounts{
		"alice@example.com": storedAccount(clock, time.Hour),
	})

	token, err := r.AccessToken(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != "cached-access" {
		t.Errorf("Expected cached token, got %q", token)
	}
	if script.requests != 0 {
		t.Errorf("Expected no refresh calls, got %d", script.requests)
	}
}

func TestAccessToken_NearExpiryRefreshesOnce(t *testing.T) {
	tests := []struct {
		name     string
		validFor time.Duration
	}{
		{name: "inside safety margin", validFor: 4 * time.Minute},
		{name: "exactly at margin", validFor: 5 * time.Minute},
		{name: "already expired", validFor: -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			script := &refreshServer{
				t:      t,
				status: http.StatusOK,
				body:   `{"access_token":"refreshed-access","expires_in":3600}`,
			}
			server := httptest.NewServer(script.handler())
			defer server.Close()

			r, store, _ := newTestResolver(t, server.URL, clock, tokenstore.Accounts{
				"alice@example.com": storedAccount(clock, tt.validFor),
			})

			token, err := r.AccessToken(context.Background(), "alice@example.com")
			if err != nil {
				t.Fatalf("AccessToken: %v", err)
			}
			if token != "refreshed-access" {
				t.Errorf("Expected refreshed token, got %q", token)
			}
			if script.requests != 1 {
				t.Errorf("Expected exactly one refresh call, got %d", script.requests)
			}

			accounts, err := store.Load(context.Background())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			account := accounts["alice@example.com"]
			if account.AccessToken != "refreshed-access" {
				t.Errorf("Expected updated access token persisted, got %q", account.AccessToken)
			}
			if want := clock.Now().Add(3600 * time.Second).Unix(); account.ExpiresAt != want {
				t.Errorf("Expected ExpiresAt %d, got %d", want, account.ExpiresAt)
			}
			// Response omitted refresh_token, so the stored one is retained
			if account.RefreshToken != "old-refresh" {
				t.Errorf("Expected old refresh token retained, got %q", account.RefreshToken)
			}
		})
	}
}

func TestAccessToken_RotatedRefreshTokenPersisted(t *testing.T) {
	clock := newFakeClock()
	script := &refreshServer{
		t:      t,
		status: http.StatusOK,
		body:   `{"access_token":"refreshed-access","refresh_token":"rotated-refresh","expires_in":3600}`,
	}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	r, store, _ := newTestResolver(t, server.URL, clock, tokenstore.Accounts{
		"alice@example.com": storedAccount(clock, time.Minute),
	})

	if _, err := r.AccessToken(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	accounts, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := accounts["alice@example.com"].RefreshToken; got != "rotated-refresh" {
		t.Errorf("Expected rotated refresh token persisted, got %q", got)
	}
}

func TestAccessToken_RefreshFailureLeavesStoreUnchanged(t *testing.T) {
	clock := newFakeClock()
	script := &refreshServer{
		t:      t,
		status: http.StatusBadRequest,
		body:   `{"error":"invalid_grant","error_description":"refresh token revoked"}`,
	}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	r, _, path := newTestResolver(t, server.URL, clock, tokenstore.Accounts{
		"alice@example.com": storedAccount(clock, time.Minute),
	})

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	_, err = r.AccessToken(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Expected ErrRefreshFailed, got %v", err)
	}
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected wrapped *ServerError, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(before) != string(after) {
		t.Error("Expected token file byte-for-byte unchanged after failed refresh")
	}
}

func TestAccessToken_DefaultAccountIsDeterministic(t *testing.T) {
	clock := newFakeClock()

	first := storedAccount(clock, time.Hour)
	first.AccessToken = "token-for-anna"
	second := storedAccount(clock, time.Hour)
	second.AccessToken = "token-for-zoe"

	r, _, _ := newTestResolver(t, "http://unused.invalid", clock, tokenstore.Accounts{
		"zoe@example.com":  second,
		"anna@example.com": first,
	})

	for range 5 {
		token, err := r.AccessToken(context.Background(), "")
		if err != nil {
			t.Fatalf("AccessToken: %v", err)
		}
		if token != "token-for-anna" {
			t.Fatalf("Expected default account anna@example.com, got token %q", token)
		}
	}
}

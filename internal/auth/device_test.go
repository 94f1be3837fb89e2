package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

// fakeClock simulates elapsed time: every sleep advances the clock without
// any real delay.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return nil
}

// deviceFlowServer scripts the authorization server plus the profile
// endpoint. tokenResponses is consumed one entry per poll; the last entry
// repeats once exhausted.
type deviceFlowServer struct {
	t              *testing.T
	tokenResponses []scriptedResponse
	pollCount      int
	expiresIn      int
	interval       int
}

type scriptedResponse struct {
	status int
	body   string
}

func (s *deviceFlowServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/consumers/oauth2/v2.0/devicecode", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.t.Errorf("parsing device code form: %v", err)
		}
		if got := r.PostForm.Get("client_id"); got != "test-client" {
			s.t.Errorf("Expected client_id test-client, got %q", got)
		}
		if scope := r.PostForm.Get("scope"); !strings.Contains(scope, "offline_access") {
			s.t.Errorf("Expected offline_access in scope, got %q", scope)
		}
		fmt.Fprintf(w, `{"device_code":"dev-123","user_code":"ABCD-1234","expires_in":%d,"interval":%d}`,
			s.expiresIn, s.interval)
	})
	mux.HandleFunc("/consumers/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.t.Errorf("parsing token form: %v", err)
		}
		if got := r.PostForm.Get("device_code"); got != "dev-123" {
			s.t.Errorf("Expected device_code dev-123, got %q", got)
		}
		idx := s.pollCount
		if idx >= len(s.tokenResponses) {
			idx = len(s.tokenResponses) - 1
		}
		s.pollCount++
		resp := s.tokenResponses[idx]
		w.WriteHeader(resp.status)
		fmt.Fprint(w, resp.body)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer new-access" {
			s.t.Errorf("Expected bearer header with fresh token, got %q", got)
		}
		fmt.Fprint(w, `{"mail":"alice@example.com","userPrincipalName":"alice@fallback.example.com","displayName":"Alice"}`)
	})
	return mux
}

func newTestAuthenticator(t *testing.T, server *httptest.Server, clock *fakeClock) (*Authenticator, tokenstore.Store) {
	t.Helper()
	store, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	a := NewAuthenticator(store,
		WithAuthority(server.URL),
		WithGraphBaseURL(server.URL),
		WithClock(clock.Now, clock.Sleep),
		WithPrompt(func(userCode, verificationURI string) {}),
	)
	return a, store
}

func TestLogin_PendingThenSuccess(t *testing.T) {
	script := &deviceFlowServer{
		t:         t,
		expiresIn: 900,
		interval:  5,
		tokenResponses: []scriptedResponse{
			{http.StatusBadRequest, `{"error":"authorization_pending"}`},
			{http.StatusBadRequest, `{"error":"authorization_pending"}`},
			{http.StatusBadRequest, `{"error":"authorization_pending"}`},
			{http.StatusOK, `{"access_token":"new-access","refresh_token":"new-refresh","expires_in":3600}`},
		},
	}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	clock := newFakeClock()
	start := clock.Now()
	a, store := newTestAuthenticator(t, server, clock)

	email, err := a.Login(context.Background(), "test-client", "consumers")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("Expected derived email alice@example.com, got %q", email)
	}
	if script.pollCount != 4 {
		t.Errorf("Expected 4 poll cycles (3 pending + success), got %d", script.pollCount)
	}

	accounts, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	account, ok := accounts["alice@example.com"]
	if !ok {
		t.Fatal("Expected record keyed by derived email")
	}
	if account.AccessToken != "new-access" || account.RefreshToken != "new-refresh" {
		t.Errorf("Unexpected tokens in record: %+v", account)
	}
	if account.ClientID != "test-client" || account.Tenant != "consumers" {
		t.Errorf("Unexpected identity fields in record: %+v", account)
	}
	// 4 polls at 5s spacing, then 3600s validity
	wantExpiry := start.Add(20 * time.Second).Add(3600 * time.Second).Unix()
	if account.ExpiresAt != wantExpiry {
		t.Errorf("Expected ExpiresAt %d, got %d", wantExpiry, account.ExpiresAt)
	}
	if len(account.UserInfo) == 0 {
		t.Error("Expected profile payload stored as user_info")
	}
}

func TestLogin_TerminalErrors(t *testing.T) {
	tests := []struct {
		name     string
		response scriptedResponse
		wantErr  error
	}{
		{
			name:     "declined",
			response: scriptedResponse{http.StatusBadRequest, `{"error":"authorization_declined"}`},
			wantErr:  ErrAuthorizationDeclined,
		},
		{
			name:     "expired",
			response: scriptedResponse{http.StatusBadRequest, `{"error":"expired_token"}`},
			wantErr:  ErrDeviceCodeExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := &deviceFlowServer{
				t:              t,
				expiresIn:      900,
				interval:       5,
				tokenResponses: []scriptedResponse{tt.response},
			}
			server := httptest.NewServer(script.handler())
			defer server.Close()

			a, store := newTestAuthenticator(t, server, newFakeClock())

			_, err := a.Login(context.Background(), "test-client", "consumers")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if script.pollCount != 1 {
				t.Errorf("Expected immediate terminal state after 1 poll, got %d", script.pollCount)
			}

			accounts, loadErr := store.Load(context.Background())
			if loadErr != nil {
				t.Fatalf("Load: %v", loadErr)
			}
			if len(accounts) != 0 {
				t.Errorf("Expected no record created, got %d", len(accounts))
			}
		})
	}
}

func TestLogin_Timeout(t *testing.T) {
	script := &deviceFlowServer{
		t:         t,
		expiresIn: 12,
		interval:  5,
		tokenResponses: []scriptedResponse{
			{http.StatusBadRequest, `{"error":"authorization_pending"}`},
		},
	}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	a, _ := newTestAuthenticator(t, server, newFakeClock())

	_, err := a.Login(context.Background(), "test-client", "consumers")
	if !errors.Is(err, ErrAuthorizationTimedOut) {
		t.Fatalf("Expected ErrAuthorizationTimedOut, got %v", err)
	}
}

func TestLogin_DeviceCodeRequestFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"unauthorized_client","error_description":"bad client"}`)
	}))
	defer server.Close()

	a, _ := newTestAuthenticator(t, server, newFakeClock())

	_, err := a.Login(context.Background(), "test-client", "consumers")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected *ServerError, got %v", err)
	}
	if serverErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", serverErr.StatusCode)
	}
	// The server's error body is surfaced verbatim
	if !strings.Contains(serverErr.Body, "bad client") {
		t.Errorf("Expected verbatim error body, got %q", serverErr.Body)
	}
}

func TestLogin_UnknownPollError(t *testing.T) {
	script := &deviceFlowServer{
		t:         t,
		expiresIn: 900,
		interval:  5,
		tokenResponses: []scriptedResponse{
			{http.StatusBadRequest, `{"error":"invalid_grant"}`},
		},
	}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	a, _ := newTestAuthenticator(t, server, newFakeClock())

	_, err := a.Login(context.Background(), "test-client", "consumers")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected *ServerError for unknown error code, got %v", err)
	}
}

func TestLogin_PromptReceivesFallbackVerificationURI(t *testing.T) {
	script := &deviceFlowServer{
		t:         t,
		expiresIn: 900,
		interval:  5,
		tokenResponses: []scriptedResponse{
			{http.StatusOK, `{"access_token":"new-access","refresh_token":"new-refresh","expires_in":3600}`},
		},
	}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	store, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	clock := newFakeClock()

	var gotCode, gotURI string
	a := NewAuthenticator(store,
		WithAuthority(server.URL),
		WithGraphBaseURL(server.URL),
		WithClock(clock.Now, clock.Sleep),
		WithPrompt(func(userCode, verificationURI string) {
			gotCode = userCode
			gotURI = verificationURI
		}),
	)

	if _, err := a.Login(context.Background(), "test-client", "consumers"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotCode != "ABCD-1234" {
		t.Errorf("Expected user code ABCD-1234, got %q", gotCode)
	}
	if gotURI != fallbackVerificationURI {
		t.Errorf("Expected fallback verification URI, got %q", gotURI)
	}
}

func TestLogin_ContextCancelledDuringPoll(t *testing.T) {
	script := &deviceFlowServer{
		t:         t,
		expiresIn: 900,
		interval:  5,
		tokenResponses: []scriptedResponse{
			{http.StatusBadRequest, `{"error":"authorization_pending"}`},
		},
	}
	server := httptest.NewServer(script.handler())
	defer server.Close()

	store, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	clock := newFakeClock()
	polls := 0
	a := NewAuthenticator(store,
		WithAuthority(server.URL),
		WithGraphBaseURL(server.URL),
		WithPrompt(func(string, string) {}),
		WithClock(clock.Now, func(sleepCtx context.Context, d time.Duration) error {
			polls++
			if polls > 2 {
				cancel()
			}
			if err := sleepCtx.Err(); err != nil {
				return err
			}
			return clock.Sleep(sleepCtx, d)
		}),
	)

	_, err = a.Login(ctx, "test-client", "consumers")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

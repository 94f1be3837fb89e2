package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

// FlowState is a state of the device authorization flow.
type FlowState string

const (
	StateRequestingCode FlowState = "requesting_code"
	StatePolling        FlowState = "polling"
	StateAuthenticated  FlowState = "authenticated"
	StateDeclined       FlowState = "declined"
	StateExpired        FlowState = "expired"
	StateTimedOut       FlowState = "timed_out"
	StateRequestFailed  FlowState = "request_failed"
)

// Option configures an Authenticator or a Resolver.
type Option func(*settings)

// settings holds the knobs shared by Authenticator and Resolver.
type settings struct {
	client       *http.Client
	authority    string
	graphBaseURL string
	prompt       func(userCode, verificationURI string)
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

func defaultSettings() settings {
	return settings{
		client:       http.DefaultClient,
		authority:    DefaultAuthority,
		graphBaseURL: DefaultGraphBaseURL,
		prompt:       defaultPrompt,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// WithHTTPClient sets a custom HTTP client for authorization server requests.
// If not provided, http.DefaultClient is used.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.client = client
	}
}

// WithAuthority overrides the authorization server base URL.
func WithAuthority(authority string) Option {
	return func(s *settings) {
		s.authority = strings.TrimSuffix(authority, "/")
	}
}

// WithGraphBaseURL overrides the Graph API root used for the profile lookup.
func WithGraphBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.graphBaseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithPrompt sets the callback that displays the user code and verification
// URL to the operator once the device code has been issued.
func WithPrompt(prompt func(userCode, verificationURI string)) Option {
	return func(s *settings) {
		s.prompt = prompt
	}
}

// WithClock injects the wall clock and sleep function used to pace the
// polling loop and judge token freshness. Tests use this to simulate elapsed
// time without real delays.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *settings) {
		s.now = now
		s.sleep = sleep
	}
}

// Authenticator drives the OAuth2 device-code grant and persists the
// resulting account record.
//
// Login blocks the calling goroutine for the whole flow (seconds to
// minutes). It is not designed for concurrent invocation against the same
// token store.
type Authenticator struct {
	store tokenstore.Store
	settings
}

// NewAuthenticator creates an Authenticator backed by the given token store.
func NewAuthenticator(store tokenstore.Store, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:    store,
		settings: defaultSettings(),
	}
	for _, opt := range opts {
		opt(&a.settings)
	}
	return a
}

// deviceCodeResponse is the authorization server's answer to a device-code
// request.
type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// tokenResponse is a successful token endpoint answer, shared by the
// device-code exchange and the refresh exchange.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// tokenError is the error shape of a rejected token endpoint request.
type tokenError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// Login authenticates via the device-code grant and persists a new account
// record keyed by the email derived from the user's profile. It returns that
// email.
//
// Terminal outcomes map to ErrAuthorizationDeclined, ErrDeviceCodeExpired,
// ErrAuthorizationTimedOut, or *ServerError; context cancellation aborts the
// flow with the context's error.
func (a *Authenticator) Login(ctx context.Context, clientID, tenant string) (string, error) {
	if tenant == "" {
		tenant = DefaultTenant
	}

	transition(ctx, StateRequestingCode)
	dc, err := a.requestDeviceCode(ctx, clientID, tenant)
	if err != nil {
		transition(ctx, StateRequestFailed)
		return "", err
	}

	a.prompt(dc.UserCode, dc.VerificationURI)

	transition(ctx, StatePolling)
	deadline := a.now().Add(time.Duration(dc.ExpiresIn) * time.Second)
	interval := time.Duration(dc.Interval) * time.Second

	for a.now().Before(deadline) {
		if err := a.sleep(ctx, interval); err != nil {
			return "", err
		}

		status, body, err := postForm(ctx, a.client, tokenURL(a.authority, tenant), url.Values{
			"client_id":   {clientID},
			"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
			"device_code": {dc.DeviceCode},
		})
		if err != nil {
			return "", err
		}

		if status >= 200 && status < 300 {
			var tok tokenResponse
			if err := json.Unmarshal(body, &tok); err != nil {
				return "", fmt.Errorf("decoding token response: %w", err)
			}
			email, err := a.completeLogin(ctx, clientID, tenant, &tok)
			if err != nil {
				return "", err
			}
			transition(ctx, StateAuthenticated)
			return email, nil
		}

		var tokErr tokenError
		if err := json.Unmarshal(body, &tokErr); err != nil || tokErr.Code == "" {
			transition(ctx, StateRequestFailed)
			return "", &ServerError{StatusCode: status, Body: string(body)}
		}

		switch tokErr.Code {
		case "authorization_pending":
			// Expected steady state until the user approves in the browser.
		case "authorization_declined":
			transition(ctx, StateDeclined)
			return "", ErrAuthorizationDeclined
		case "expired_token":
			transition(ctx, StateExpired)
			return "", ErrDeviceCodeExpired
		default:
			transition(ctx, StateRequestFailed)
			return "", &ServerError{StatusCode: status, Body: string(body)}
		}
	}

	transition(ctx, StateTimedOut)
	return "", ErrAuthorizationTimedOut
}

// requestDeviceCode performs the initial device-code request.
func (a *Authenticator) requestDeviceCode(ctx context.Context, clientID, tenant string) (*deviceCodeResponse, error) {
	status, body, err := postForm(ctx, a.client, deviceCodeURL(a.authority, tenant), url.Values{
		"client_id": {clientID},
		"scope":     {strings.Join(scopes, " ")},
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &ServerError{StatusCode: status, Body: string(body)}
	}

	dc := &deviceCodeResponse{}
	if err := json.Unmarshal(body, dc); err != nil {
		return nil, fmt.Errorf("decoding device code response: %w", err)
	}
	if dc.VerificationURI == "" {
		dc.VerificationURI = fallbackVerificationURI
	}
	if dc.Interval == 0 {
		dc.Interval = 5
	}
	return dc, nil
}

// completeLogin fetches the caller's profile with the fresh access token,
// derives the account email, and persists the new record.
func (a *Authenticator) completeLogin(ctx context.Context, clientID, tenant string, tok *tokenResponse) (string, error) {
	profile, email, err := a.fetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return "", err
	}

	accounts, err := a.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading token store: %w", err)
	}
	accounts[email] = tokenstore.Account{
		ClientID:     clientID,
		Tenant:       tenant,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    a.now().Add(time.Duration(tok.ExpiresIn) * time.Second).Unix(),
		UserInfo:     profile,
	}
	if err := a.store.Save(ctx, accounts); err != nil {
		return "", fmt.Errorf("saving token store: %w", err)
	}
	return email, nil
}

// fetchProfile performs one authenticated profile lookup and derives the
// account identity from the mail address, falling back to the principal
// name when mail is absent.
func (a *Authenticator) fetchProfile(ctx context.Context, accessToken string) (json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.graphBaseURL+"/me", nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("profile lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading profile response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("profile lookup returned %d: %s", resp.StatusCode, string(body))
	}

	var profile struct {
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, "", fmt.Errorf("decoding profile response: %w", err)
	}

	email := profile.Mail
	if email == "" {
		email = profile.UserPrincipalName
	}
	if email == "" {
		return nil, "", fmt.Errorf("profile has neither mail nor principal name")
	}
	return json.RawMessage(body), email, nil
}

// transition records a device flow state change.
func transition(ctx context.Context, state FlowState) {
	slog.DebugContext(ctx, "device flow transition", "state", string(state))
}

// postForm issues one form-encoded POST and returns the status code and the
// full response body.
func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// defaultPrompt prints the user code and verification URL to stderr.
func defaultPrompt(userCode, verificationURI string) {
	sep := strings.Repeat("=", 50)
	fmt.Fprintf(os.Stderr, "\n%s\n  CODE: %s\n%s\n  Go to: %s\n%s\n\nWaiting for authorization...\n",
		sep, userCode, sep, verificationURI, sep)
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

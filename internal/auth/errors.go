package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for credential resolution and device flow outcomes.
// Commands match on these with errors.Is to print actionable messages.
var (
	// ErrNotAuthenticated indicates the token store holds no accounts at all.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAccountNotFound indicates the requested email has no stored record.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRefreshFailed indicates a refresh-token exchange was rejected.
	// The stored record is left unchanged.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrAuthorizationDeclined indicates the user rejected the device code.
	ErrAuthorizationDeclined = errors.New("authorization declined")

	// ErrDeviceCodeExpired indicates the device code expired before approval.
	ErrDeviceCodeExpired = errors.New("device code expired")

	// ErrAuthorizationTimedOut indicates polling exceeded the code's lifetime
	// without reaching a terminal answer from the authorization server.
	ErrAuthorizationTimedOut = errors.New("timed out waiting for authorization")
)

// ServerError is a non-2xx response from the authorization or token
// endpoint. The response body is carried verbatim.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("authorization server returned %d: %s", e.StatusCode, e.Body)
}

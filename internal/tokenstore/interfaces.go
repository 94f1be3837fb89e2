package tokenstore

import (
	"context"
	"encoding/json"
)

// Account is one authenticated identity's credential record.
type Account struct {
	ClientID     string `json:"client_id"`
	Tenant       string `json:"tenant"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is the unix timestamp (seconds) after which AccessToken is
	// no longer valid.
	ExpiresAt int64 `json:"expires_at"`
	// UserInfo is the raw profile payload returned at login. Informational
	// only; never inspected after the account email has been derived.
	UserInfo json.RawMessage `json:"user_info,omitempty"`
}

// Accounts maps an account email to its credential record.
// At most one record exists per email; saving a record for an email that is
// already present replaces it entirely.
type Accounts map[string]Account

// Store reads and writes the account-token mapping to persistent storage.
//
// The mapping is always persisted as a whole; there are no partial or
// append writes. No cross-process locking is provided: concurrent logins or
// refreshes against the same backing storage race and the last writer wins.
type Store interface {
	// Load returns the stored mapping. Missing backing storage is not an
	// error; it yields an empty mapping.
	Load(ctx context.Context) (Accounts, error)

	// Save persists the complete mapping, replacing whatever was stored
	// before. Implementations must never let a concurrent reader observe a
	// partially written document.
	Save(ctx context.Context, accounts Accounts) error

	// Clear removes the backing storage entirely. Clearing storage that
	// does not exist is a no-op.
	Clear(ctx context.Context) error
}

package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore persists the account mapping as a single secret in the
// OS-native credential storage. Uses macOS Keychain, Windows Credential
// Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore using the given service and user
// identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Load returns the stored account mapping. A missing secret yields an empty
// mapping, never an error.
func (k *KeyringStore) Load(ctx context.Context) (Accounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return Accounts{}, nil
	}
	if err != nil {
		return nil, err
	}

	accounts := Accounts{}
	if err := json.Unmarshal([]byte(data), &accounts); err != nil {
		return nil, fmt.Errorf("corrupt keyring entry for service %s, user %s: %w", k.service, k.user, err)
	}
	return accounts, nil
}

// Save persists the complete mapping to the system keyring, overwriting any
// existing secret.
func (k *KeyringStore) Save(ctx context.Context, accounts Accounts) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encoding keyring entry: %w", err)
	}

	return keyring.Set(k.service, k.user, string(data))
}

// Clear removes the secret from the system keyring. A missing secret is a
// no-op.
func (k *KeyringStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := keyring.Delete(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Package tokenstore provides persistent storage for authenticated account
// credentials.
//
// Two storage backends are supported with different security tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// Both backends persist the same JSON document, a mapping from account email
// to its credential record. The file backend is always available and is the
// default; the keyring backend depends on a functioning OS secret service.
package tokenstore

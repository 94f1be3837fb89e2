// Package auth implements the OAuth2 device-code grant against the
// Microsoft identity platform and the token lifecycle built on top of it.
//
// Three collaborators make up the package:
//   - Authenticator drives the blocking device-code login and persists the
//     resulting account record.
//   - Resolver hands out currently valid bearer tokens, transparently
//     refreshing tokens that are within five minutes of expiry.
//   - the refresh exchange, invoked only by the Resolver, which rotates
//     refresh tokens when the server supplies a replacement.
//
// Resource clients never inspect token expiry themselves; they call
// Resolver.AccessToken once at construction and attach the returned bearer
// token to every request.
//
// # Clock Injection
//
// The device flow blocks the calling goroutine for up to the device code's
// lifetime (minutes). Wall clock and sleep are injectable so tests simulate
// elapsed time without real delays:
//
//	a := auth.NewAuthenticator(store, auth.WithClock(now, sleep))
package auth

package auth

import "fmt"

const (
	// DefaultAuthority is the Microsoft identity platform base URL. Each
	// tenant's device-code and token endpoints live under it.
	DefaultAuthority = "https://login.microsoftonline.com"

	// DefaultGraphBaseURL is the Microsoft Graph API root used for the
	// profile lookup at login.
	DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultTenant targets personal Microsoft accounts.
	DefaultTenant = "consumers"

	// fallbackVerificationURI is shown when the device-code response omits
	// verification_uri.
	fallbackVerificationURI = "https://microsoft.com/devicelogin"
)

// scopes are the delegated Graph permissions requested at login.
// offline_access is required to receive a refresh token.
var scopes = []string{
	"Mail.Read",
	"Mail.Send",
	"Calendars.ReadWrite",
	"Tasks.ReadWrite",
	"User.Read",
	"offline_access",
}

func deviceCodeURL(authority, tenant string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/devicecode", authority, tenant)
}

func tokenURL(authority, tenant string) string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", authority, tenant)
}

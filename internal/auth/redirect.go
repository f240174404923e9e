package auth

import "strings"

// localDevDefault is the base URL value that must be ignored when building
// email redirects: it is the shipped development default, not a deployment
// choice.
const localDevDefault = "http://localhost:8080"

// localSubstitute replaces any localhost request origin so emailed links hit
// the dev frontend port.
const localSubstitute = "http://localhost:3000"

// Paths appended to the resolved base for the email flows.
const (
	MagicLinkPath     = "/admin"
	PasswordResetPath = "/reset-password"
)

// ResolveRedirectBase picks the base URL for emailed links. The chain must
// stay exactly: configured base URL (unless it is the shipped localhost
// default), then a localhost substitution, then the request origin.
func ResolveRedirectBase(configuredBaseURL, requestOrigin string) string {
	if configuredBaseURL != "" && configuredBaseURL != localDevDefault {
		return strings.TrimSuffix(configuredBaseURL, "/")
	}
	if strings.Contains(requestOrigin, "localhost") {
		return localSubstitute
	}
	return strings.TrimSuffix(requestOrigin, "/")
}

// MagicLinkRedirect returns the post-redeem destination for magic-link mail.
func MagicLinkRedirect(configuredBaseURL, requestOrigin string) string {
	return ResolveRedirectBase(configuredBaseURL, requestOrigin) + MagicLinkPath
}

// PasswordResetRedirect returns the destination for password-reset mail.
func PasswordResetRedirect(configuredBaseURL, requestOrigin string) string {
	return ResolveRedirectBase(configuredBaseURL, requestOrigin) + PasswordResetPath
}

package contextutils

import (
	"net/url"
	"strings"
)

// MaskSecret masks a credential for logging purposes to prevent exposure.
// Returns a masked version that shows only the first 4 and last 4 characters.
func MaskSecret(secret string) string {
	if secret == "" {
		return "[EMPTY]"
	}

	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}

	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// MaskServiceURL reduces a notification service URL to its scheme so tokens
// embedded in the user info, host or path never reach the logs.
func MaskServiceURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "[INVALID]"
	}
	return u.Scheme + "://***"
}

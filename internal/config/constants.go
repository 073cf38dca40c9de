package config

import "time"

// Timeout constants
const (
	DefaultHTTPTimeout      = 60 * time.Second
	ServerShutdownTimeout   = 30 * time.Second
	DefaultChannelTimeout   = 10 * time.Second
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Defaults applied when the config file and environment leave a value unset
const (
	DefaultServerPort         = "8080"
	DefaultServiceName        = "ideas-central"
	DefaultMentorContactEmail = "mentorship@example.com"
	DefaultIdempotencyWindow  = time.Minute
	DefaultRateLimitRPS       = 5.0
	DefaultRateLimitBurst     = 10
)

// DefaultSignupRoles are the roles self-registration may request when none are configured
var DefaultSignupRoles = []string{"student"}

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	SessionName = "ideas-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data:;"
)

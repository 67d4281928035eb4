// Package constants provides a centralized location for configuration
// values and magic numbers used throughout the storefront application.
package constants

import "time"

// TUI update and display constants
const (
	// HeaderLines is the number of lines used for the catalog view header.
	HeaderLines = 2

	// FooterLines is the number of lines used for the catalog view footer
	// (status line + help).
	FooterLines = 3

	// TruncationSuffixWidth is the width of the "..." suffix when truncating strings.
	TruncationSuffixWidth = 3

	// StatusMessageTTL is how long transient status messages stay visible.
	StatusMessageTTL = 2 * time.Second
)

// API paths
const (
	PathLogin    = "/api/login"
	PathRegister = "/api/register"
	PathLogout   = "/api/logout"
	PathUser     = "/api/user"
	PathProducts = "/api/products/paginate"
)

// HTTP client defaults
const (
	// DefaultBaseURL is used when neither config nor environment set one.
	DefaultBaseURL = "http://localhost:4000"

	// DefaultRetries mirrors the request layer's retry count for idempotent
	// requests. The catalog cache itself never retries.
	DefaultRetries = 2

	// DefaultTimeout bounds a single HTTP request including retries.
	DefaultTimeout = 15 * time.Second

	// RetryBackoff is the base delay between retries; attempt n waits n*RetryBackoff.
	RetryBackoff = 300 * time.Millisecond

	// RequestIDHeader carries a per-request UUID for server-side correlation.
	RequestIDHeader = "X-Request-ID"
)

// Cache TTL constants
const (
	// PageCacheTTL is how long a fetched catalog page is served from the
	// on-disk request cache before it is considered stale.
	PageCacheTTL = 5 * time.Minute
)

// Catalog constants
const (
	// FirstPage is the lowest page number the API serves.
	FirstPage = 1

	// MaxConcurrentPages caps the page requests a deep link has in flight.
	MaxConcurrentPages = 4
)

package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// NATSConnectTimeout bounds connecting to a NATS server and binding a bucket.
	NATSConnectTimeout = 5 * time.Second
)

// Retry limits.
const (
	// DefaultRequestAttempts is the total number of attempts per request,
	// including the first one.
	DefaultRequestAttempts = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 250 * time.Millisecond

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// HTTP status codes outside net/http.
const (
	// StatusAuthTimeout is sent by servers when authentication timed out.
	StatusAuthTimeout = 419

	// StatusTokenExpired signals that the bearer token must be refreshed.
	StatusTokenExpired = 498
)

// Header names and media types.
const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderPublicKey     = "Public-Key"
	HeaderTimestamp     = "Timestamp"
	HeaderURL           = "URL"
	HeaderUserAgent     = "User-Agent"

	// MediaTypeHAL is the media type requested from the service.
	MediaTypeHAL = "application/hal+json"

	// MediaTypeJSON is the media type of request bodies.
	MediaTypeJSON = "application/json"

	// BearerPrefix precedes the credential in the Authorization header.
	BearerPrefix = "Bearer "
)

// HAL document keys.
const (
	KeyLinks    = "_links"
	KeyEmbedded = "_embedded"
	KeyCuries   = "curies"
	KeySelf     = "self"
	KeyNext     = "next"
	KeyPrev     = "prev"
	KeyPrevious = "previous"
	KeyTotal    = "total"
	KeyCount    = "count"
	KeyOffset   = "offset"
	KeyItems    = "items"
	KeyValue    = "value"
)

// Cache defaults.
const (
	// DefaultCacheSize is the default maximum number of cached entries.
	DefaultCacheSize = 1000

	// DefaultCacheMaxAge is how long a cached GET response stays fresh.
	DefaultCacheMaxAge = 5 * time.Minute

	// DefaultNATSBucket is the key-value bucket used when none is configured.
	DefaultNATSBucket = "hal-cache"
)

// Output formats.
const (
	// FormatJSON is the JSON output format.
	FormatJSON = "json"

	// FormatYAML is the YAML output format.
	FormatYAML = "yaml"

	// FormatTable is the table output format.
	FormatTable = "table"
)

// Display limits.
const (
	// MaxCellWidth truncates long values in table output.
	MaxCellWidth = 60

	// DefaultUserAgent identifies the client when none is configured.
	DefaultUserAgent = "hal-client/dev"
)

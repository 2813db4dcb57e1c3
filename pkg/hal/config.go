package hal

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RefreshFunc obtains a new bearer token after the service reports the
// current one as expired.
type RefreshFunc func(ctx context.Context) (string, error)

// Config configures a client. Either Endpoint or Host must be set, and so
// must one of PrivateKey, Token or RefreshToken.
type Config struct {
	// Endpoint is the service base URL such as "https://api.example.com".
	// A missing scheme defaults to https.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Host, Port and Scheme build the base URL when Endpoint is empty.
	Host   string `json:"host,omitempty"   yaml:"host,omitempty"`
	Port   int    `json:"port,omitempty"   yaml:"port,omitempty"`
	Scheme string `json:"scheme,omitempty" yaml:"scheme,omitempty"`

	// Credentials. With a token requests carry it as the bearer credential;
	// otherwise they carry an HMAC signature made with PrivateKey.
	PublicKey  string `json:"public_key,omitempty"  yaml:"public_key,omitempty"`
	PrivateKey string `json:"private_key,omitempty" yaml:"private_key,omitempty"`
	Token      string `json:"token,omitempty"       yaml:"token,omitempty"`

	// RefreshToken is called once when the service answers 498 without
	// supplying a new token itself.
	RefreshToken RefreshFunc `json:"-" yaml:"-"`

	// OnTokenRefresh observes every replacement token, e.g. to persist it.
	OnTokenRefresh func(token string) `json:"-" yaml:"-"`

	// Retry policy
	RequestAttempts int           `json:"request_attempts,omitempty" yaml:"request_attempts,omitempty"`
	RetryWaitMin    time.Duration `json:"retry_wait_min,omitempty"   yaml:"retry_wait_min,omitempty"`
	RetryWaitMax    time.Duration `json:"retry_wait_max,omitempty"   yaml:"retry_wait_max,omitempty"`
	HTTPTimeout     time.Duration `json:"http_timeout,omitempty"     yaml:"http_timeout,omitempty"`

	// HTTPClient replaces the default HTTP client.
	HTTPClient *http.Client `json:"-" yaml:"-"`

	// SkipTLSVerify disables certificate checks. Only honored when
	// HAL_DEV_MODE is set.
	SkipTLSVerify bool `json:"skip_tls_verify,omitempty" yaml:"skip_tls_verify,omitempty"`

	// Logging
	Logger    Logger `json:"-"                    yaml:"-"`
	Debug     bool   `json:"debug,omitempty"      yaml:"debug,omitempty"`
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`

	// Cache holds GET responses for CacheMaxAge.
	Cache       Cache         `json:"-"                       yaml:"-"`
	CacheMaxAge time.Duration `json:"cache_max_age,omitempty" yaml:"cache_max_age,omitempty"`

	// SkipDiscovery builds a client without the OPTIONS discovery call.
	SkipDiscovery bool `json:"skip_discovery,omitempty" yaml:"skip_discovery,omitempty"`
}

// Validate checks the configuration for contradictory or missing settings.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.When(c.Host == "", validation.Required.Error(ErrEndpointRequired.Error()))),
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.Scheme, validation.In("http", "https")),
		validation.Field(&c.PublicKey, validation.When(c.PrivateKey != "" && c.Token == "", validation.Required)),
		validation.Field(&c.PrivateKey, validation.When(c.Token == "" && c.RefreshToken == nil, validation.Required.Error(ErrCredentialsRequired.Error()))),
		validation.Field(&c.RequestAttempts, validation.Min(0)),
		validation.Field(&c.RetryWaitMin, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryWaitMax, validation.Min(c.RetryWaitMin)),
		validation.Field(&c.HTTPTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.CacheMaxAge, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// BaseURL returns the normalized service base URL without a trailing slash.
func (c *Config) BaseURL() (string, error) {
	if c.Endpoint != "" {
		endpoint := strings.TrimSuffix(c.Endpoint, "/")
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}

		return endpoint, nil
	}

	if c.Host == "" {
		return "", ErrEndpointRequired
	}

	scheme := c.Scheme
	if scheme == "" {
		scheme = "https"
	}

	host := c.Host
	if c.Port != 0 {
		host = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}

	return scheme + "://" + host, nil
}

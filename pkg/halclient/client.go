package halclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	"github.com/fivetwenty-io/hal-client/internal/client"
	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// New creates a client for the service at config.Endpoint (or Host) and
// discovers its resources.
func New(ctx context.Context, config *hal.Config) (hal.Client, error) {
	if config == nil {
		return nil, hal.ErrConfigRequired
	}

	if config.SkipTLSVerify && config.HTTPClient == nil {
		httpClient, err := createInsecureHTTPClient(config)
		if err != nil {
			return nil, err
		}

		config.HTTPClient = httpClient
	}

	client, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv("HAL_DEV_MODE")

	return devMode == "true" || devMode == "1"
}

func createInsecureHTTPClient(config *hal.Config) (*http.Client, error) {
	// Only allow insecure TLS in explicit development environments
	if !isDevelopmentEnvironment() {
		return nil, fmt.Errorf("%w (set HAL_DEV_MODE=true)", hal.ErrSkipTLSOnlyInDev)
	}

	timeout := config.HTTPTimeout
	if timeout == 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- Protected by development environment check above
		},
	}, nil
}

// NewWithToken creates a client that authenticates with a bearer token.
func NewWithToken(ctx context.Context, endpoint, token string) (hal.Client, error) {
	return New(ctx, &hal.Config{
		Endpoint: endpoint,
		Token:    token,
	})
}

// NewWithKeys creates a client that signs every request with a key pair.
func NewWithKeys(ctx context.Context, endpoint, publicKey, privateKey string) (hal.Client, error) {
	return New(ctx, &hal.Config{
		Endpoint:   endpoint,
		PublicKey:  publicKey,
		PrivateKey: privateKey,
	})
}

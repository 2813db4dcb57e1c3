package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// RefreshFunc obtains a replacement bearer token.
type RefreshFunc func(ctx context.Context) (string, error)

// Credentials holds the key pair and the current bearer token. The token may
// be replaced while requests are in flight, so it is guarded.
type Credentials struct {
	PublicKey  string
	PrivateKey string

	// Refresh is called when the service expires the token without
	// supplying a new one.
	Refresh RefreshFunc

	// OnRefresh observes every replacement token.
	OnRefresh func(token string)

	mutex sync.RWMutex
	token string
}

// NewCredentials creates credentials from a key pair and an optional token.
func NewCredentials(publicKey, privateKey, token string) *Credentials {
	return &Credentials{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		token:      token,
	}
}

// Token returns the current bearer token, or "".
func (c *Credentials) Token() string {
	if c == nil {
		return ""
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.token
}

// SetToken replaces the bearer token without notifying OnRefresh.
func (c *Credentials) SetToken(token string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.token = token
}

// RefreshToken installs a replacement token. A non-empty inBand token, sent
// by the service with the expiry response, is used directly; otherwise the
// Refresh function is called. OnRefresh is notified of the new token.
func (c *Credentials) RefreshToken(ctx context.Context, inBand string) (string, error) {
	if c == nil {
		return "", hal.ErrNoTokenRefresher
	}

	token := inBand
	if token == "" {
		if c.Refresh == nil {
			return "", hal.ErrNoTokenRefresher
		}

		refreshed, err := c.Refresh(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: %w", hal.ErrTokenRefreshFailed, err)
		}

		if refreshed == "" {
			return "", fmt.Errorf("%w: refresh returned an empty token", hal.ErrTokenRefreshFailed)
		}

		token = refreshed
	}

	c.SetToken(token)

	if c.OnRefresh != nil {
		c.OnRefresh(token)
	}

	return token, nil
}

// Package client implements hal.Client: service discovery, the affordance
// factory and the resources published at the service root.
package client

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/fivetwenty-io/hal-client/internal/auth"
	"github.com/fivetwenty-io/hal-client/internal/constants"
	halhttp "github.com/fivetwenty-io/hal-client/internal/http"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// Client implements the hal.Client interface.
type Client struct {
	transport Transport
	factory   *Factory
	logger    hal.Logger
	resources map[string]*hal.Resource
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *hal.Config) []halhttp.Option {
	var httpOpts []halhttp.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, halhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, halhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, halhttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, halhttp.WithHTTPClient(config.HTTPClient))
	} else if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, halhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.RequestAttempts > 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		attempts := constants.DefaultRequestAttempts
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RequestAttempts > 0 {
			attempts = config.RequestAttempts
		}

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, halhttp.WithRetryConfig(attempts, retryWaitMin, retryWaitMax))
	}

	if config.Cache != nil {
		maxAge := config.CacheMaxAge
		if maxAge == 0 {
			maxAge = constants.DefaultCacheMaxAge
		}

		httpOpts = append(httpOpts, halhttp.WithCache(config.Cache, maxAge))
	}

	return httpOpts
}

// createCredentials builds the request credentials from config.
func createCredentials(config *hal.Config) *auth.Credentials {
	credentials := auth.NewCredentials(config.PublicKey, config.PrivateKey, config.Token)

	if config.RefreshToken != nil {
		credentials.Refresh = auth.RefreshFunc(config.RefreshToken)
	}

	credentials.OnRefresh = config.OnTokenRefresh

	return credentials
}

// New creates a client from config and, unless config.SkipDiscovery is set,
// discovers the published resources.
func New(ctx context.Context, config *hal.Config) (*Client, error) {
	if config == nil {
		return nil, hal.ErrConfigRequired
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := config.BaseURL()
	if err != nil {
		return nil, err
	}

	transport := halhttp.NewClient(baseURL, createCredentials(config), createHTTPClientOptions(config)...)
	client := NewWithTransport(transport, config.Logger)

	if config.SkipDiscovery {
		return client, nil
	}

	if err := client.Discover(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

// NewWithTransport creates a client over a custom transport without
// performing discovery.
func NewWithTransport(transport Transport, logger hal.Logger) *Client {
	if logger == nil {
		logger = hal.NopLogger{}
	}

	return &Client{
		transport: transport,
		factory:   NewFactory(transport, logger),
		logger:    logger,
		resources: map[string]*hal.Resource{},
	}
}

// Discover sends OPTIONS to the service root and replaces the known
// resources with the ones it describes.
func (c *Client) Discover(ctx context.Context) error {
	payload, err := c.transport.Send(ctx, &halhttp.Request{Method: http.MethodOptions, Path: "/"})
	if err != nil {
		return fmt.Errorf("discovering resources: %w", err)
	}

	c.Load(payload)

	c.logger.Debug("discovered resources", map[string]interface{}{"resources": c.Names()})

	return nil
}

// Load replaces the known resources with those described by a discovery
// document: a map from resource name to its link descriptors, given as a
// list or as a map keyed by affordance name.
func (c *Client) Load(payload map[string]interface{}) {
	resources := make(map[string]*hal.Resource, len(payload))

	for name, descriptors := range payload {
		switch descriptors.(type) {
		case []interface{}, map[string]interface{}:
		default:
			continue
		}

		links := hal.ParseLinks(descriptors)
		resources[hal.NormalizeName(name)] = hal.NewResource(map[string]interface{}{"name": name}, links, c.factory)
	}

	c.resources = resources
}

// Factory returns the affordance factory.
func (c *Client) Factory() *Factory {
	return c.factory
}

// Names returns the sorted resource names.
func (c *Client) Names() []string {
	names := make([]string, 0, len(c.resources))
	for name := range c.resources {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resource returns the named resource.
func (c *Client) Resource(name string) (*hal.Resource, error) {
	if resource, ok := c.resources[name]; ok {
		return resource, nil
	}

	if resource, ok := c.resources[hal.NormalizeName(name)]; ok {
		return resource, nil
	}

	return nil, fmt.Errorf("%w: %s", hal.ErrUnknownResource, name)
}

// Invoke calls one affordance of a resource.
func (c *Client) Invoke(ctx context.Context, resource, affordance string, call hal.Call) (*hal.Resource, error) {
	target, err := c.Resource(resource)
	if err != nil {
		return nil, err
	}

	return target.Invoke(ctx, affordance, call)
}

// List calls one affordance of a resource and wraps the page in a Container.
func (c *Client) List(ctx context.Context, resource, affordance string, call hal.Call, opts ...hal.ContainerOption) (*hal.Container, error) {
	target, err := c.Resource(resource)
	if err != nil {
		return nil, err
	}

	return target.List(ctx, affordance, call, opts...)
}

// Follow performs a GET on href.
func (c *Client) Follow(ctx context.Context, href string) (*hal.Resource, error) {
	return c.factory.Invoke(ctx, hal.Link{Name: "follow", Method: http.MethodGet, Href: href}, hal.Call{})
}

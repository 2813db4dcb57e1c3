package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/hal-client/internal/http"
	"github.com/fivetwenty-io/hal-client/internal/uritemplate"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// Transport sends a request and returns the decoded JSON object.
type Transport interface {
	Send(ctx context.Context, req *http.Request) (map[string]interface{}, error)
}

// Factory turns link descriptors into affordances and performs their
// requests. It implements hal.Invoker, so every resource it unpacks can
// invoke its own links.
type Factory struct {
	transport Transport
	logger    hal.Logger
}

// NewFactory creates a factory over transport.
func NewFactory(transport Transport, logger hal.Logger) *Factory {
	if logger == nil {
		logger = hal.NopLogger{}
	}

	return &Factory{transport: transport, logger: logger}
}

// Create binds link to the factory.
func (f *Factory) Create(link hal.Link) *hal.Affordance {
	return hal.NewAffordance(link, f)
}

// Invoke resolves the link's href against the call, sends the request and
// unpacks the response. Query values the template does not declare are sent
// anyway and logged as a warning.
func (f *Factory) Invoke(ctx context.Context, link hal.Link, call hal.Call) (*hal.Resource, error) {
	resolved, err := uritemplate.Resolve(link.Href, link.Templated, call.Args, call.Query)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", link.Name, err)
	}

	if len(resolved.Unrecognized) > 0 {
		f.logger.Warn("unrecognized query parameters", map[string]interface{}{
			"affordance": link.Name,
			"href":       link.Href,
			"params":     resolved.Unrecognized,
		})
	}

	payload, err := f.transport.Send(ctx, &http.Request{
		Method: link.Method,
		Path:   resolved.Path,
		Query:  resolved.Overflow,
		Body:   call.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", link.Name, err)
	}

	return hal.Unpack(payload, f), nil
}

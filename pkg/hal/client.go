package hal

import "context"

// Client is the entry point of a discovered service. Resources are the named
// groups of affordances the service publishes at its root.
type Client interface {
	// Names returns the sorted resource names.
	Names() []string

	// Resource returns the named resource, whose affordances are the
	// operations discovery published for it.
	Resource(name string) (*Resource, error)

	// Invoke calls one affordance of a resource.
	Invoke(ctx context.Context, resource, affordance string, call Call) (*Resource, error)

	// List calls one affordance of a resource and wraps the page in a
	// Container.
	List(ctx context.Context, resource, affordance string, call Call, opts ...ContainerOption) (*Container, error)

	// Follow performs a GET on an href, e.g. a self link of an embedded item.
	Follow(ctx context.Context, href string) (*Resource, error)
}

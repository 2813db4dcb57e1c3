package hal

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/mitchellh/mapstructure"
)

// Call carries the arguments of one affordance invocation. Args fill the
// positional placeholders of a templated href in order; Query supplies
// query-string values by name; Body is JSON encoded as the request body.
type Call struct {
	Args  []any
	Query map[string]any
	Body  any
}

// Invoker performs the request a link describes and unpacks the response.
type Invoker interface {
	Invoke(ctx context.Context, link Link, call Call) (*Resource, error)
}

// Affordance is a named operation bound to an Invoker.
type Affordance struct {
	Link

	invoker Invoker
}

// NewAffordance binds link to invoker.
func NewAffordance(link Link, invoker Invoker) *Affordance {
	return &Affordance{Link: link, invoker: invoker}
}

// Call invokes the affordance and returns the resulting resource.
func (a *Affordance) Call(ctx context.Context, call Call) (*Resource, error) {
	if a.invoker == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoInvoker, a.Name)
	}

	return a.invoker.Invoke(ctx, a.Link, call)
}

// List invokes the affordance and wraps the returned page in a Container.
func (a *Affordance) List(ctx context.Context, call Call, opts ...ContainerOption) (*Container, error) {
	page, err := a.Call(ctx, call)
	if err != nil {
		return nil, err
	}

	return NewContainer(a.invoker, page, opts...), nil
}

// Resource is an unpacked HAL document: its plain state, its embedded
// resources and the affordances built from its links.
type Resource struct {
	State    map[string]any
	Embedded map[string][]*Resource

	links       []Link
	affordances map[string]*Affordance
}

// NewResource builds a resource from state and links. The first link wins
// when two links share a name.
func NewResource(state map[string]any, links []Link, invoker Invoker) *Resource {
	if state == nil {
		state = map[string]any{}
	}

	resource := &Resource{
		State:       state,
		Embedded:    map[string][]*Resource{},
		links:       make([]Link, 0, len(links)),
		affordances: make(map[string]*Affordance, len(links)),
	}

	for _, link := range links {
		if _, exists := resource.affordances[link.Name]; exists {
			continue
		}

		resource.links = append(resource.links, link)
		resource.affordances[link.Name] = NewAffordance(link, invoker)
	}

	return resource
}

// Unpack turns a decoded HAL payload into a Resource. "_links" become
// affordances, every "_embedded" entry becomes a list of child resources
// (a single embedded object is a list of one), and the remaining keys form
// the state.
func Unpack(payload map[string]any, invoker Invoker) *Resource {
	state := make(map[string]any, len(payload))

	for key, value := range payload {
		if key == constants.KeyLinks || key == constants.KeyEmbedded {
			continue
		}

		state[key] = value
	}

	resource := NewResource(state, ParseLinks(payload[constants.KeyLinks]), invoker)

	embedded, _ := payload[constants.KeyEmbedded].(map[string]any)
	for key, value := range embedded {
		switch entry := value.(type) {
		case map[string]any:
			resource.Embedded[key] = []*Resource{Unpack(entry, invoker)}
		case []any:
			children := make([]*Resource, 0, len(entry))

			for _, item := range entry {
				if object, ok := item.(map[string]any); ok {
					children = append(children, Unpack(object, invoker))
				}
			}

			resource.Embedded[key] = children
		}
	}

	return resource
}

// Links returns the resource's links in declaration order.
func (r *Resource) Links() []Link {
	return append([]Link(nil), r.links...)
}

// Affordance looks up an affordance by name. Both the name as published and
// its snake_case form are accepted.
func (r *Resource) Affordance(name string) (*Affordance, bool) {
	if affordance, ok := r.affordances[name]; ok {
		return affordance, true
	}

	affordance, ok := r.affordances[NormalizeName(name)]

	return affordance, ok
}

// Affordances returns the sorted affordance names.
func (r *Resource) Affordances() []string {
	names := make([]string, 0, len(r.affordances))
	for name := range r.affordances {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Invoke calls the named affordance.
func (r *Resource) Invoke(ctx context.Context, name string, call Call) (*Resource, error) {
	affordance, ok := r.Affordance(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAffordance, name)
	}

	return affordance.Call(ctx, call)
}

// List calls the named affordance and wraps the page in a Container.
func (r *Resource) List(ctx context.Context, name string, call Call, opts ...ContainerOption) (*Container, error) {
	affordance, ok := r.Affordance(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAffordance, name)
	}

	return affordance.List(ctx, call, opts...)
}

// Self returns the href of the self link, or "".
func (r *Resource) Self() string {
	if affordance, ok := r.affordances[constants.KeySelf]; ok {
		return affordance.Href
	}

	return ""
}

// Get returns a state value.
func (r *Resource) Get(key string) (any, bool) {
	value, ok := r.State[key]

	return value, ok
}

// Decode copies the state into target, matching json struct tags.
func (r *Resource) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	if err := decoder.Decode(r.State); err != nil {
		return fmt.Errorf("decoding resource state: %w", err)
	}

	return nil
}

// Equal reports whether two resources carry the same state.
func (r *Resource) Equal(other *Resource) bool {
	if r == nil || other == nil {
		return r == other
	}

	return reflect.DeepEqual(r.State, other.State)
}

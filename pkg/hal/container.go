package hal

import (
	"context"
	"fmt"
	"sort"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// ContainerState is the lifecycle stage of a Container.
type ContainerState int

const (
	// StatePaged means pages are still fetched on demand through links.
	StatePaged ContainerState = iota

	// StateFinished means every item is materialized and densely indexed.
	StateFinished
)

// String returns the state name.
func (s ContainerState) String() string {
	switch s {
	case StatePaged:
		return "paged"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("ContainerState(%d)", int(s))
	}
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithEmbeddedKey fixes the "_embedded" key that holds the collection items.
// Without it the first embedded key in sorted order is used.
func WithEmbeddedKey(key string) ContainerOption {
	return func(c *Container) {
		c.key = key
	}
}

// Container is a lazily materialized, paginated collection. Items are held
// by logical index; pages are fetched forward through "next" links and
// backward through "prev" links as indices are requested. A Container is not
// safe for concurrent use.
type Container struct {
	invoker Invoker
	key     string
	state   ContainerState

	total    int
	hasTotal bool

	// Materialized items occupy the contiguous window [offset, high).
	values    map[int]*Resource
	offset    int
	high      int
	batchSize int

	// next belongs to the highest page fetched, prev to the lowest.
	next *Link
	prev *Link
}

// NewContainer builds a Container from the first page of a listing. The
// page's declared "total" and "offset" place its items in the logical index
// space. A page with neither embedded items nor a total yields an empty,
// finished container.
func NewContainer(invoker Invoker, page *Resource, opts ...ContainerOption) *Container {
	container := &Container{
		invoker: invoker,
		values:  map[int]*Resource{},
	}

	for _, opt := range opts {
		opt(container)
	}

	if page == nil {
		container.state = StateFinished

		return container
	}

	if container.key == "" {
		container.key = firstKey(page.Embedded)
	}

	container.total, container.hasTotal = totalState(page.State)

	if len(page.Embedded) == 0 && !container.hasTotal {
		container.state = StateFinished

		return container
	}

	offset, _ := intState(page.State, constants.KeyOffset)
	if offset < 0 {
		offset = 0
	}

	container.offset = offset
	container.high = offset
	container.place(page.Embedded[container.key])
	container.next = pageLink(page, constants.KeyNext)

	if container.offset > 0 {
		container.prev = prevLink(page)
	}

	return container
}

// Len returns the declared total while paging and the number of items once
// finished. A paged container without a declared total reports the items
// materialized so far.
func (c *Container) Len() int {
	if c.state == StatePaged && c.hasTotal {
		return c.total
	}

	return len(c.values)
}

// State returns the lifecycle stage.
func (c *Container) State() ContainerState {
	return c.state
}

// Finished reports whether every item has been materialized.
func (c *Container) Finished() bool {
	return c.state == StateFinished
}

// Total returns the total declared by the pages while paging, and the item
// count once finished.
func (c *Container) Total() (int, bool) {
	return c.total, c.hasTotal
}

// Materialized returns how many items are held locally.
func (c *Container) Materialized() int {
	return len(c.values)
}

// Offset returns the lowest materialized logical index.
func (c *Container) Offset() int {
	return c.offset
}

// BatchSize returns the item count of the most recently fetched page.
func (c *Container) BatchSize() int {
	return c.batchSize
}

// Key returns the embedded key the container reads items from.
func (c *Container) Key() string {
	return c.key
}

// Get returns the item at index, fetching pages as needed. Negative indices
// count from the end.
func (c *Container) Get(ctx context.Context, index int) (*Resource, error) {
	idx, err := c.normalize(ctx, index)
	if err != nil {
		return nil, err
	}

	return c.fetchIndex(ctx, idx)
}

// Set replaces the item at index without finishing the container.
func (c *Container) Set(ctx context.Context, index int, item *Resource) error {
	idx, err := c.normalize(ctx, index)
	if err != nil {
		return err
	}

	if _, err := c.fetchIndex(ctx, idx); err != nil {
		return err
	}

	c.values[idx] = item

	return nil
}

// Slice returns a new finished container with the selected items. Only the
// pages covering the selection are fetched when its bounds are known without
// reaching the end of an undeclared total.
func (c *Container) Slice(ctx context.Context, spec SliceSpec) (*Container, error) {
	if spec.Step == 0 {
		return nil, ErrInvalidSlice
	}

	if c.state == StatePaged && !c.hasTotal && spec.needsTail() {
		if err := c.Finish(ctx); err != nil {
			return nil, err
		}
	}

	start, stop, step, err := spec.Indices(c.Len())
	if err != nil {
		return nil, err
	}

	out := c.empty()

	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		item, err := c.fetchIndex(ctx, i)
		if err != nil {
			return nil, err
		}

		out.values[len(out.values)] = item
	}

	out.seal()

	return out, nil
}

// Concat finishes both containers and returns a new finished container with
// the items of c followed by those of other.
func (c *Container) Concat(ctx context.Context, other *Container) (*Container, error) {
	if other == nil {
		return nil, ErrNotContainer
	}

	if err := c.Finish(ctx); err != nil {
		return nil, err
	}

	if err := other.Finish(ctx); err != nil {
		return nil, err
	}

	out := c.empty()

	for i, n := 0, c.Len(); i < n; i++ {
		out.values[i] = c.values[i]
	}

	base := c.Len()
	for i, n := 0, other.Len(); i < n; i++ {
		out.values[base+i] = other.values[i]
	}

	out.seal()

	return out, nil
}

// Delete removes the item at index, finishing the container first.
func (c *Container) Delete(ctx context.Context, index int) error {
	if err := c.Finish(ctx); err != nil {
		return err
	}

	idx, err := c.normalize(ctx, index)
	if err != nil {
		return err
	}

	last := len(c.values) - 1
	for i := idx; i < last; i++ {
		c.values[i] = c.values[i+1]
	}

	delete(c.values, last)
	c.seal()

	return nil
}

// Insert places item before index, finishing the container first. Like a
// list insert, out-of-range indices clamp to the ends.
func (c *Container) Insert(ctx context.Context, index int, item *Resource) error {
	if err := c.Finish(ctx); err != nil {
		return err
	}

	length := len(c.values)
	if index < 0 {
		index += length
	}

	index = max(0, min(index, length))

	for i := length; i > index; i-- {
		c.values[i] = c.values[i-1]
	}

	c.values[index] = item
	c.seal()

	return nil
}

// Append adds item at the end, finishing the container first.
func (c *Container) Append(ctx context.Context, item *Resource) error {
	if err := c.Finish(ctx); err != nil {
		return err
	}

	c.values[len(c.values)] = item
	c.seal()

	return nil
}

// Reverse reverses the items in place, finishing the container first.
func (c *Container) Reverse(ctx context.Context) error {
	if err := c.Finish(ctx); err != nil {
		return err
	}

	for i, j := 0, len(c.values)-1; i < j; i, j = i+1, j-1 {
		c.values[i], c.values[j] = c.values[j], c.values[i]
	}

	return nil
}

// All finishes the container and returns its items in order.
func (c *Container) All(ctx context.Context) ([]*Resource, error) {
	if err := c.Finish(ctx); err != nil {
		return nil, err
	}

	items := make([]*Resource, len(c.values))
	for i := range items {
		items[i] = c.values[i]
	}

	return items, nil
}

// ForEach finishes the container and calls fn for each item in order,
// stopping at the first error fn returns.
func (c *Container) ForEach(ctx context.Context, fn func(index int, item *Resource) error) error {
	items, err := c.All(ctx)
	if err != nil {
		return err
	}

	for i, item := range items {
		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Finish fetches every remaining page in both directions, reindexes the
// items densely from zero and drops the pagination links. It is a no-op on a
// finished container. On error the container stays paged with whatever was
// fetched so far.
func (c *Container) Finish(ctx context.Context) error {
	if c.state == StateFinished {
		return nil
	}

	for c.next != nil {
		if err := c.fetchNext(ctx); err != nil {
			return err
		}
	}

	for c.prev != nil {
		if err := c.fetchPrev(ctx); err != nil {
			return err
		}
	}

	c.reindex()
	c.seal()

	return nil
}

// normalize maps a possibly negative index onto the logical index space and
// checks it against the known length.
func (c *Container) normalize(ctx context.Context, index int) (int, error) {
	if index < 0 && c.state == StatePaged && !c.hasTotal {
		if err := c.Finish(ctx); err != nil {
			return 0, err
		}
	}

	length := c.Len()
	idx := index

	if idx < 0 {
		idx += length
	}

	bounded := c.state == StateFinished || c.hasTotal
	if idx < 0 || (bounded && idx >= length) {
		return 0, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, length)
	}

	return idx, nil
}

// fetchIndex returns the item at a normalized index, walking links toward it.
func (c *Container) fetchIndex(ctx context.Context, idx int) (*Resource, error) {
	if item, ok := c.values[idx]; ok {
		return item, nil
	}

	if c.state == StateFinished {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}

	for idx >= c.high {
		if c.next == nil {
			return nil, fmt.Errorf("%w: index %d is past the last page", ErrNoMorePages, idx)
		}

		if err := c.fetchNext(ctx); err != nil {
			return nil, err
		}
	}

	for idx < c.offset {
		if c.prev == nil {
			return nil, fmt.Errorf("%w: index %d is before the first page", ErrNoMorePages, idx)
		}

		if err := c.fetchPrev(ctx); err != nil {
			return nil, err
		}
	}

	item, ok := c.values[idx]
	if !ok {
		return nil, fmt.Errorf("%w: index %d", ErrNoMorePages, idx)
	}

	return item, nil
}

// fetchNext follows the forward link and appends the page after the window.
func (c *Container) fetchNext(ctx context.Context) error {
	page, err := c.follow(ctx, *c.next)
	if err != nil {
		return err
	}

	items := page.Embedded[c.key]
	if len(items) == 0 {
		c.next = nil

		return nil
	}

	c.place(items)
	c.next = pageLink(page, constants.KeyNext)

	if !c.hasTotal {
		c.total, c.hasTotal = totalState(page.State)
	}

	return nil
}

// fetchPrev follows the backward link and moves the window start back to the
// page's declared offset, or by one batch when the page declares none, floored
// at zero. Items are placed forward from the new start; indices already
// materialized keep their value.
func (c *Container) fetchPrev(ctx context.Context) error {
	page, err := c.follow(ctx, *c.prev)
	if err != nil {
		return err
	}

	items := page.Embedded[c.key]
	if len(items) == 0 {
		c.prev = nil

		return nil
	}

	start := max(c.offset-c.batchSize, 0)
	if declared, ok := intState(page.State, constants.KeyOffset); ok && declared >= 0 && declared < c.offset {
		start = declared
	}

	for i, item := range items {
		idx := start + i
		if idx >= c.high {
			break
		}

		if _, exists := c.values[idx]; !exists {
			c.values[idx] = item
		}
	}

	c.offset = start
	c.batchSize = len(items)

	c.prev = nil
	if c.offset > 0 {
		c.prev = prevLink(page)
	}

	return nil
}

func (c *Container) follow(ctx context.Context, link Link) (*Resource, error) {
	if c.invoker == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoInvoker, link.Name)
	}

	page, err := c.invoker.Invoke(ctx, link, Call{})
	if err != nil {
		return nil, fmt.Errorf("fetching %s page: %w", link.Name, err)
	}

	return page, nil
}

// place appends items at the high end of the window.
func (c *Container) place(items []*Resource) {
	for i, item := range items {
		c.values[c.high+i] = item
	}

	c.high += len(items)
	c.batchSize = len(items)
}

// reindex shifts the materialized items to dense indices starting at zero.
func (c *Container) reindex() {
	indices := make([]int, 0, len(c.values))
	for idx := range c.values {
		indices = append(indices, idx)
	}

	sort.Ints(indices)

	dense := make(map[int]*Resource, len(indices))
	for i, idx := range indices {
		dense[i] = c.values[idx]
	}

	c.values = dense
}

// seal marks the container finished over its current, dense values.
func (c *Container) seal() {
	c.state = StateFinished
	c.next = nil
	c.prev = nil
	c.offset = 0
	c.high = len(c.values)
	c.total = len(c.values)
	c.hasTotal = true
}

func (c *Container) empty() *Container {
	return &Container{
		invoker: c.invoker,
		key:     c.key,
		values:  map[int]*Resource{},
	}
}

func firstKey(embedded map[string][]*Resource) string {
	keys := make([]string, 0, len(embedded))
	for key := range embedded {
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return ""
	}

	sort.Strings(keys)

	return keys[0]
}

func pageLink(page *Resource, name string) *Link {
	affordance, ok := page.Affordance(name)
	if !ok {
		return nil
	}

	link := affordance.Link

	return &link
}

func prevLink(page *Resource) *Link {
	if link := pageLink(page, constants.KeyPrev); link != nil {
		return link
	}

	return pageLink(page, constants.KeyPrevious)
}

// totalState reads the declared collection size from "total", or "count"
// when a service uses that name instead.
func totalState(state map[string]any) (int, bool) {
	if total, ok := intState(state, constants.KeyTotal); ok {
		return total, true
	}

	return intState(state, constants.KeyCount)
}

// intState reads an integer from decoded JSON state.
func intState(state map[string]any, key string) (int, bool) {
	switch value := state[key].(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	case int64:
		return int(value), true
	default:
		return 0, false
	}
}

package resource

import (
	"context"
	"time"

	"github.com/specialistvlad/taskloop/internal/deps"
)

// Producer computes a resource value. in holds the producer's own declared
// needs, resolved by the caller's Hydrator.
type Producer func(ctx context.Context, in deps.Inputs) (any, error)

// Closer releases a produced value, e.g. stops a motor or closes a device.
// v is the most recently produced value.
type Closer func(ctx context.Context, v any) error

// Resource is an immutable resource definition. Build it with New.
type Resource struct {
	name    string
	produce Producer
	refresh time.Duration
	needs   []string
	close   Closer
}

// Option configures a Resource.
type Option func(*Resource)

// WithRefresh sets the minimum interval between producer invocations.
// Zero or negative means the producer runs on every read.
func WithRefresh(d time.Duration) Option {
	return func(r *Resource) { r.refresh = d }
}

// WithNeeds declares the resources (or "world") the producer reads.
func WithNeeds(needs ...string) Option {
	return func(r *Resource) { r.needs = append(r.needs, needs...) }
}

// WithClose sets the hook Registry.Close runs for a resource that has been
// produced at least once.
func WithClose(fn Closer) Option {
	return func(r *Resource) { r.close = fn }
}

// New builds a Resource definition. Validation happens at registration.
func New(name string, produce Producer, opts ...Option) Resource {
	r := Resource{name: name, produce: produce}
	for _, o := range opts {
		o(&r)
	}
	return r
}

// Value builds a Resource that always yields v.
func Value(name string, v any) Resource {
	return New(name, func(context.Context, deps.Inputs) (any, error) { return v, nil })
}

// Name returns the resource name.
func (r Resource) Name() string { return r.name }

// Refresh returns the refresh interval.
func (r Resource) Refresh() time.Duration { return r.refresh }

// Needs returns the raw need declarations of the producer.
func (r Resource) Needs() []string { return append([]string(nil), r.needs...) }

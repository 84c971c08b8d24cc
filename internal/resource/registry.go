package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/specialistvlad/taskloop/internal/deps"
)

type entry struct {
	res   Resource
	needs []deps.Need

	cached bool
	value  any
	at     time.Time

	// open is set by the first successful production and cleared by Close.
	open bool
	last any
}

// fresh reports whether the cached value may be served at now.
func (e *entry) fresh(now time.Time) bool {
	if !e.cached || e.res.refresh <= 0 {
		return false
	}
	return now.Sub(e.at) < e.res.refresh
}

func (e *entry) invalidate() {
	e.cached = false
	e.value = nil
	e.at = time.Time{}
}

// Registry maps resource names to producers and their cached values.
type Registry struct {
	clock   Clock
	entries map[string]*entry
	// opened lists resources in the order of their first production. A
	// producer's needs are produced before it, so the order respects
	// dependencies.
	opened []string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock replaces the Registry's time source.
func WithClock(c Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		clock:   SystemClock,
		entries: make(map[string]*entry),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) validate(res Resource) ([]deps.Need, error) {
	name := res.name
	if strings.TrimSpace(name) == "" || strings.Contains(name, ",") || name != strings.TrimSpace(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == deps.WorldName {
		return nil, fmt.Errorf("%w: %q is reserved for the world", ErrReservedName, name)
	}
	if res.produce == nil {
		return nil, fmt.Errorf("%w: %q has no producer", ErrInvalidResource, name)
	}
	needs, err := deps.ParseNeeds(res.needs)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidResource, name, err)
	}
	return needs, nil
}

// Register adds res. Registering a name twice is an error; use Replace for
// a deliberate override.
func (r *Registry) Register(res Resource) error {
	needs, err := r.validate(res)
	if err != nil {
		return err
	}
	if _, exists := r.entries[res.name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateResource, res.name)
	}
	slog.Debug("Registering resource.", "name", res.name, "refresh", res.refresh, "needs", res.needs)
	r.entries[res.name] = &entry{res: res, needs: needs}
	return nil
}

// MustRegister is like Register but panics on error. It is meant for static
// setup, where a duplicate is a programmer error.
func (r *Registry) MustRegister(res ...Resource) {
	for _, one := range res {
		if err := r.Register(one); err != nil {
			panic(err)
		}
	}
}

// Replace registers res, overriding any previous registration and its cache.
// The previous value is not closed.
func (r *Registry) Replace(res Resource) error {
	needs, err := r.validate(res)
	if err != nil {
		return err
	}
	if _, exists := r.entries[res.name]; exists {
		slog.Debug("Replacing resource.", "name", res.name)
	}
	r.entries[res.name] = &entry{res: res, needs: needs}
	return nil
}

// RegisterValue registers a resource that always yields v.
func (r *Registry) RegisterValue(name string, v any) error {
	return r.Register(Value(name, v))
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Needs returns the parsed needs of the named resource's producer.
func (r *Registry) Needs(name string) ([]deps.Need, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return append([]deps.Need(nil), e.needs...), nil
}

// Invalidate drops the cached value of name, forcing the next read to
// recompute. Unknown names are ignored.
func (r *Registry) Invalidate(name string) {
	if e, ok := r.entries[name]; ok {
		e.invalidate()
	}
}

// Resolve returns the current value of name, invoking the producer when the
// cache is empty or older than the refresh interval. Producer needs are
// resolved through h, which may be nil for producers without needs.
//
// A producer failure is returned as a *ProducerError and leaves the cache
// empty; the next read tries again.
func (r *Registry) Resolve(ctx context.Context, name string, h deps.Hydrator) (any, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}

	now := r.clock.Now()
	if e.fresh(now) {
		return e.value, nil
	}

	owner := "resource " + name
	var in deps.Inputs
	if len(e.needs) > 0 {
		if h == nil {
			for _, n := range e.needs {
				if !n.Optional {
					e.invalidate()
					return nil, &deps.UnresolvedError{Name: n.Name, Owner: owner}
				}
			}
		} else {
			var err error
			if in, err = h.Hydrate(ctx, owner, e.needs); err != nil {
				e.invalidate()
				return nil, err
			}
		}
	}

	v, err := produce(ctx, e.res.produce, in)
	if err != nil {
		e.invalidate()
		return nil, &ProducerError{Name: name, Err: err}
	}

	e.cached = true
	e.value = v
	e.at = now
	e.last = v
	if !e.open {
		e.open = true
		r.opened = append(r.opened, name)
	}
	return v, nil
}

// Close runs the close hook of every resource produced since the last Close,
// most recently opened first, so a resource is closed before the resources
// it was produced from. All hooks run; their failures are joined. Closed
// resources start again from an empty cache on the next read.
func (r *Registry) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.opened) - 1; i >= 0; i-- {
		name := r.opened[i]
		e, ok := r.entries[name]
		if !ok || !e.open {
			continue
		}
		if e.res.close != nil {
			slog.Debug("Closing resource.", "name", name)
			if err := closeValue(ctx, e.res.close, e.last); err != nil {
				errs = append(errs, fmt.Errorf("%w: %q: %w", ErrClose, name, err))
			}
		}
		e.open = false
		e.last = nil
		e.invalidate()
	}
	r.opened = r.opened[:0]
	return errors.Join(errs...)
}

func closeValue(ctx context.Context, c Closer, v any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("close panicked: %v", rec)
		}
	}()
	return c(ctx, v)
}

func produce(ctx context.Context, p Producer, in deps.Inputs) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrProducerPanicked, rec)
		}
	}()
	return p(ctx, in)
}

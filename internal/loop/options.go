package loop

import (
	"context"
	"time"

	"github.com/specialistvlad/taskloop/internal/observe"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
	"github.com/specialistvlad/taskloop/internal/world"
)

// Resolver reads a resource by name, hydrating its producer's needs.
type Resolver interface {
	Resolve(ctx context.Context, name string) (any, error)
}

// Check runs before every tick. A signal that ends the activation replaces
// the tick for that round; Continue lets the tick run. res reads resources
// such as an input device the check watches.
type Check func(ctx context.Context, w *world.World, res Resolver) (task.Signal, error)

type config struct {
	tasks        *task.Catalog
	registry     *resource.Registry
	bindings     map[string]any
	newWorld     func() *world.World
	observers    observe.Multi
	checks       []Check
	fresh        []string
	errorTask    string
	tickInterval time.Duration
}

// Option configures a run.
type Option func(*config)

// WithTasks sets the catalog switch targets are looked up in. The root task
// is added to it when missing.
func WithTasks(c *task.Catalog) Option {
	return func(cfg *config) { cfg.tasks = c }
}

// WithRegistry sets the resource registry. By default a run gets an empty one.
// The registry is closed when the run ends.
func WithRegistry(r *resource.Registry) Option {
	return func(cfg *config) { cfg.registry = r }
}

// WithBindings registers static resources before the run starts. A name that
// is already registered aborts the run before any task starts.
func WithBindings(values map[string]any) Option {
	return func(cfg *config) {
		if cfg.bindings == nil {
			cfg.bindings = make(map[string]any, len(values))
		}
		for k, v := range values {
			cfg.bindings[k] = v
		}
	}
}

// WithWorld uses w as the run's World.
func WithWorld(w *world.World) Option {
	return func(cfg *config) { cfg.newWorld = func() *world.World { return w } }
}

// WithWorldFactory creates the run's World with fn.
func WithWorldFactory(fn func() *world.World) Option {
	return func(cfg *config) { cfg.newWorld = fn }
}

// WithObserver adds observers notified of every transition.
func WithObserver(obs ...observe.Observer) Option {
	return func(cfg *config) { cfg.observers = append(cfg.observers, obs...) }
}

// WithChecks adds functions run before every tick.
func WithChecks(checks ...Check) Option {
	return func(cfg *config) { cfg.checks = append(cfg.checks, checks...) }
}

// WithErrorTask routes faults to the named task instead of ending the run.
// The fault is recorded on the World first. The builtin task.ExitName is
// added automatically when the catalog lacks it. Faults raised by the error
// task itself always end the run.
func WithErrorTask(name string) Option {
	return func(cfg *config) { cfg.errorTask = name }
}

// WithTickInterval waits d between consecutive ticks of a task.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *config) { cfg.tickInterval = d }
}

// WithFreshResources drops the cached values of the named resources at the
// start of every activation, so each activation reads them anew.
func WithFreshResources(names ...string) Option {
	return func(cfg *config) { cfg.fresh = append(cfg.fresh, names...) }
}

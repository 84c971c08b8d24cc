package task

import (
	"context"
	"fmt"

	"github.com/specialistvlad/taskloop/internal/deps"
)

// StartupFunc runs once per activation, before the first tick. Returning a
// signal that ends the activation skips ticking entirely.
type StartupFunc func(ctx context.Context, in deps.Inputs) (Signal, error)

// TickFunc runs repeatedly while the task is active.
type TickFunc func(ctx context.Context, in deps.Inputs) (Signal, error)

// ShutdownFunc runs once per activation, however the activation ended.
type ShutdownFunc func(ctx context.Context, in deps.Inputs) error

type callback struct {
	raw   []string
	needs []deps.Need
}

// Task is a named unit with three optional lifecycle callbacks.
type Task struct {
	name string

	startup  StartupFunc
	tick     TickFunc
	shutdown ShutdownFunc
	cb       [3]callback

	state       State
	activations uint64
	ticks       uint64
}

type config struct {
	startup  StartupFunc
	tick     TickFunc
	shutdown ShutdownFunc
	needs    [3][]string
}

// Option configures a Task.
type Option func(*config)

// WithStartup sets the startup callback and the names it needs.
func WithStartup(fn StartupFunc, needs ...string) Option {
	return func(c *config) {
		c.startup = fn
		c.needs[PhaseStartup] = needs
	}
}

// WithTick sets the tick callback and the names it needs.
func WithTick(fn TickFunc, needs ...string) Option {
	return func(c *config) {
		c.tick = fn
		c.needs[PhaseTick] = needs
	}
}

// WithShutdown sets the shutdown callback and the names it needs.
func WithShutdown(fn ShutdownFunc, needs ...string) Option {
	return func(c *config) {
		c.shutdown = fn
		c.needs[PhaseShutdown] = needs
	}
}

// New builds a Task. Every callback is optional; a task without a tick
// callback keeps the run alive doing nothing until a check or the context
// ends it.
func New(name string, opts ...Option) (*Task, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	var c config
	for _, o := range opts {
		o(&c)
	}

	t := &Task{
		name:     name,
		startup:  c.startup,
		tick:     c.tick,
		shutdown: c.shutdown,
	}
	for phase, raw := range c.needs {
		needs, err := deps.ParseNeeds(raw)
		if err != nil {
			return nil, fmt.Errorf("task %q %s: %w", name, Phase(phase), err)
		}
		t.cb[phase] = callback{raw: raw, needs: needs}
	}
	return t, nil
}

// Must panics if err is non-nil and returns t otherwise.
func Must(t *Task, err error) *Task {
	if err != nil {
		panic(err)
	}
	return t
}

// Func wraps a single tick function as a Task. It panics on an invalid name
// or need list, since those are fixed at compile time.
func Func(name string, tick TickFunc, needs ...string) *Task {
	return Must(New(name, WithTick(tick, needs...)))
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// State returns the current lifecycle state.
func (t *Task) State() State { return t.state }

// Activations counts how many times the task has been started.
func (t *Task) Activations() uint64 { return t.activations }

// Ticks counts the ticks of the current (or last) activation.
func (t *Task) Ticks() uint64 { return t.ticks }

// Needs returns the declared needs of a phase.
func (t *Task) Needs(p Phase) []deps.Need {
	return append([]deps.Need(nil), t.cb[p].needs...)
}

func (t *Task) String() string { return t.name }

// Start begins a fresh activation and runs the startup callback.
//
// The task is Running afterwards unless startup failed or ended the
// activation; in both cases the caller must still call Stop.
func (t *Task) Start(ctx context.Context, h deps.Hydrator) (Signal, error) {
	if t.state != StateIdle && t.state != StateTerminated {
		return Continue, fmt.Errorf("%w: start of %q while %s", ErrInvalidState, t.name, t.state)
	}
	t.state = StateStarting
	t.activations++
	t.ticks = 0

	sig, err := t.invoke(ctx, h, PhaseStartup, func(in deps.Inputs) (Signal, error) {
		if t.startup == nil {
			return Continue, nil
		}
		return t.startup(ctx, in)
	})
	if err == nil && !sig.Ends() {
		t.state = StateRunning
	}
	return sig, err
}

// Tick runs the tick callback once.
func (t *Task) Tick(ctx context.Context, h deps.Hydrator) (Signal, error) {
	if t.state != StateRunning {
		return Continue, fmt.Errorf("%w: tick of %q while %s", ErrInvalidState, t.name, t.state)
	}
	t.ticks++
	return t.invoke(ctx, h, PhaseTick, func(in deps.Inputs) (Signal, error) {
		if t.tick == nil {
			return Continue, nil
		}
		return t.tick(ctx, in)
	})
}

// Stop runs the shutdown callback and deactivates the task. terminal marks
// the task Terminated instead of Idle.
func (t *Task) Stop(ctx context.Context, h deps.Hydrator, terminal bool) error {
	if t.state == StateIdle || t.state == StateTerminated {
		return fmt.Errorf("%w: stop of %q while %s", ErrInvalidState, t.name, t.state)
	}
	t.state = StateStopping

	_, err := t.invoke(ctx, h, PhaseShutdown, func(in deps.Inputs) (Signal, error) {
		if t.shutdown == nil {
			return Continue, nil
		}
		return Continue, t.shutdown(ctx, in)
	})

	if terminal {
		t.state = StateTerminated
	} else {
		t.state = StateIdle
	}
	return err
}

// invoke hydrates the phase's needs and calls fn, converting panics into
// errors and raised signals back into signals.
func (t *Task) invoke(ctx context.Context, h deps.Hydrator, p Phase, fn func(deps.Inputs) (Signal, error)) (sig Signal, err error) {
	var in deps.Inputs
	if needs := t.cb[p].needs; len(needs) > 0 {
		owner := fmt.Sprintf("%s of task %q", p, t.name)
		if h == nil {
			for _, n := range needs {
				if !n.Optional {
					return Continue, &deps.UnresolvedError{Name: n.Name, Owner: owner}
				}
			}
		} else if in, err = h.Hydrate(ctx, owner, needs); err != nil {
			return Continue, err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			sig = Continue
			err = fmt.Errorf("%w: %s of %q: %v", ErrPanicked, p, t.name, r)
		}
	}()

	sig, err = fn(in.WithCounters(t.activations, t.ticks))
	if err != nil {
		if raised, ok := AsSignal(err); ok {
			if p == PhaseShutdown {
				return Continue, fmt.Errorf("%w: %s raised during shutdown", ErrInvalidSignal, raised)
			}
			return raised, nil
		}
		return Continue, err
	}
	return sig, nil
}

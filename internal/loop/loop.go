package loop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/inject"
	"github.com/specialistvlad/taskloop/internal/observe"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
	"github.com/specialistvlad/taskloop/internal/world"
)

// Run activates root and keeps driving tasks until one terminates the run,
// a fault ends it, or ctx is cancelled. It returns the terminate payload.
//
// When the terminating task's shutdown fails, the payload is returned along
// with a *ShutdownError. Shutdown failures after a switch are logged and
// the switch proceeds. On every exit path the registry is closed once the
// last shutdown ran; close failures are joined into the returned error.
//
// Configuration errors (conflicting tasks, duplicate bindings, an unknown
// error task or fresh resource) are returned before any task starts.
func Run(ctx context.Context, root *task.Task, opts ...Option) (any, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	cfg := config{newWorld: world.New}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tasks == nil {
		cfg.tasks = task.NewCatalog()
	}
	if cfg.registry == nil {
		cfg.registry = resource.NewRegistry()
	}

	if err := prepare(&cfg, root); err != nil {
		return nil, err
	}

	w := cfg.newWorld()
	if w == nil {
		return nil, ErrNilWorld
	}

	r := &runner{
		cfg:   cfg,
		world: w,
		inj:   inject.New(cfg.registry, w),
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Run loop starting.",
		"root", root.Name(), "tasks", cfg.tasks.Names(), "resources", cfg.registry.Names())
	payload, err := r.run(ctx, root)

	if cerr := cfg.registry.Close(context.WithoutCancel(ctx)); cerr != nil {
		logger.Error("Closing resources failed.", "error", cerr)
		err = errors.Join(err, cerr)
	}
	return payload, err
}

func prepare(cfg *config, root *task.Task) error {
	if existing, ok := cfg.tasks.Lookup(root.Name()); !ok {
		if err := cfg.tasks.Add(root); err != nil {
			return err
		}
	} else if existing != root {
		return fmt.Errorf("%w: catalog holds another task named %q", ErrTaskConflict, root.Name())
	}

	if cfg.errorTask != "" {
		if _, ok := cfg.tasks.Lookup(cfg.errorTask); !ok {
			if cfg.errorTask != task.ExitName {
				return fmt.Errorf("error task: %w: %q", task.ErrUnknownTask, cfg.errorTask)
			}
			if err := cfg.tasks.Add(task.Exit()); err != nil {
				return err
			}
		}
	}

	names := make([]string, 0, len(cfg.bindings))
	for name := range cfg.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cfg.registry.RegisterValue(name, cfg.bindings[name]); err != nil {
			return fmt.Errorf("binding %q: %w", name, err)
		}
	}

	for _, name := range cfg.fresh {
		if !cfg.registry.Has(name) {
			return fmt.Errorf("fresh resource: %w: %q", resource.ErrUnknownResource, name)
		}
	}
	return nil
}

type runner struct {
	cfg   config
	world *world.World
	inj   *inject.Injector
}

// outcome is how one activation ended.
type outcome struct {
	sig      task.Signal
	err      error
	canceled bool
	// shutdownErr is a failed shutdown after a clean signal.
	shutdownErr error
}

func (r *runner) run(ctx context.Context, current *task.Task) (any, error) {
	for {
		out := r.activate(ctx, current)

		if out.canceled {
			return nil, out.err
		}

		tctx := ctxlog.With(ctx, "task", current.Name())
		if out.err == nil {
			switch out.sig.Kind {
			case task.KindTerminate:
				r.notify(tctx, observe.Event{Kind: observe.EventTerminate, Task: current.Name(), Payload: out.sig.Payload})
				if out.shutdownErr != nil {
					return out.sig.Payload, &ShutdownError{Task: current.Name(), Err: out.shutdownErr}
				}
				return out.sig.Payload, nil
			case task.KindSwitch:
				next, err := r.cfg.tasks.Get(out.sig.Next)
				if err == nil {
					r.notify(tctx, observe.Event{Kind: observe.EventSwitch, Task: current.Name(), Next: next.Name()})
					current = next
					continue
				}
				out.err = fmt.Errorf("switch from %q: %w", current.Name(), err)
			}
		}

		next, err := r.handleFault(tctx, current, out.err)
		if err != nil {
			return nil, err
		}
		current = next
	}
}

// handleFault hands a fault to the error task, or returns it when there is none
// or the error task itself failed.
func (r *runner) handleFault(ctx context.Context, current *task.Task, fault error) (*task.Task, error) {
	if r.cfg.errorTask == "" || current.Name() == r.cfg.errorTask {
		return nil, fault
	}
	next, err := r.cfg.tasks.Get(r.cfg.errorTask)
	if err != nil {
		return nil, errors.Join(fault, err)
	}
	ctxlog.FromContext(ctx).Warn("Routing fault to error task.", "error_task", next.Name(), "error", fault)
	r.world.RecordFault(fault)
	r.notify(ctx, observe.Event{Kind: observe.EventSwitch, Task: current.Name(), Next: next.Name()})
	return next, nil
}

// activate runs one full activation of t: startup, ticks, shutdown.
func (r *runner) activate(ctx context.Context, t *task.Task) outcome {
	ctx = ctxlog.With(ctx, "task", t.Name())
	for _, name := range r.cfg.fresh {
		r.cfg.registry.Invalidate(name)
	}

	start := r.event(t, observe.EventStart)
	start.Activation, start.Tick = t.Activations()+1, 0
	r.notify(ctx, start)

	sig, err := t.Start(ctx, r.inj)
	if err == nil {
		err = sig.Validate()
	}

	var out outcome
	phase := task.PhaseStartup
	switch {
	case err != nil:
		out.err = err
	case sig.Ends():
		out.sig = sig
	default:
		phase = task.PhaseTick
		out = r.tick(ctx, t)
	}
	if out.err != nil && !out.canceled {
		ev := r.event(t, observe.EventFault)
		ev.Phase, ev.Err = phase, out.err
		r.notify(ctx, ev)
	}

	terminal := out.err == nil && out.sig.Kind == task.KindTerminate
	started := time.Now()
	shutdownErr := t.Stop(context.WithoutCancel(ctx), r.inj, terminal)
	if shutdownErr != nil {
		ctxlog.FromContext(ctx).Error("Task shutdown failed.", "error", shutdownErr)
		ev := r.event(t, observe.EventFault)
		ev.Phase, ev.Err = task.PhaseShutdown, shutdownErr
		r.notify(ctx, ev)
	}
	stop := r.event(t, observe.EventStop)
	stop.Duration = time.Since(started)
	r.notify(ctx, stop)

	switch {
	case out.canceled:
	case out.err != nil:
		out.err = &TaskError{Task: t.Name(), Phase: phase, Err: out.err, ShutdownErr: shutdownErr}
	default:
		out.shutdownErr = shutdownErr
	}
	return out
}

// tick runs the steady state of an activation until a signal ends it.
func (r *runner) tick(ctx context.Context, t *task.Task) outcome {
	for {
		if err := ctx.Err(); err != nil {
			return outcome{err: err, canceled: true}
		}

		sig, err := r.check(ctx)
		if err != nil {
			return outcome{err: err}
		}
		if sig.Ends() {
			return outcome{sig: sig}
		}

		started := time.Now()
		sig, err = t.Tick(ctx, r.inj)
		r.world.CountTick()
		ev := r.event(t, observe.EventTick)
		ev.Duration = time.Since(started)
		r.notify(ctx, ev)

		if err == nil {
			err = sig.Validate()
		}
		if err != nil {
			return outcome{err: err}
		}
		if sig.Ends() {
			return outcome{sig: sig}
		}

		if d := r.cfg.tickInterval; d > 0 {
			if err := sleep(ctx, d); err != nil {
				return outcome{err: err, canceled: true}
			}
		}
	}
}

func (r *runner) check(ctx context.Context) (task.Signal, error) {
	for _, c := range r.cfg.checks {
		sig, err := c(ctx, r.world, r.inj)
		if err != nil {
			return task.Continue, fmt.Errorf("check: %w", err)
		}
		if err := sig.Validate(); err != nil {
			return task.Continue, fmt.Errorf("check: %w", err)
		}
		if sig.Ends() {
			return sig, nil
		}
	}
	return task.Continue, nil
}

func (r *runner) event(t *task.Task, kind observe.Kind) observe.Event {
	return observe.Event{
		Kind:       kind,
		Task:       t.Name(),
		Activation: t.Activations(),
		Tick:       t.Ticks(),
		At:         time.Now(),
	}
}

// notify delivers ev to the observers. An observer panic is logged and
// swallowed.
func (r *runner) notify(ctx context.Context, ev observe.Event) {
	if len(r.cfg.observers) == 0 {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			ctxlog.FromContext(ctx).Warn("Observer panicked.", "event", ev.Kind.String(), "panic", rec)
		}
	}()
	r.cfg.observers.Observe(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package loop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/specialistvlad/taskloop/internal/observe"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
	"github.com/specialistvlad/taskloop/internal/testutil"
	"github.com/specialistvlad/taskloop/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spy builds a task that records every lifecycle call and delegates its tick.
func spy(rec *testutil.Recorder, name string, tick task.TickFunc, needs ...string) *task.Task {
	return task.Must(task.New(name,
		task.WithStartup(func(context.Context, deps.Inputs) (task.Signal, error) {
			rec.Record(name, "startup")
			return task.Continue, nil
		}),
		task.WithTick(func(ctx context.Context, in deps.Inputs) (task.Signal, error) {
			rec.Record(name, "tick")
			return tick(ctx, in)
		}, needs...),
		task.WithShutdown(func(context.Context, deps.Inputs) error {
			rec.Record(name, "shutdown")
			return nil
		}),
	))
}

func terminate(payload any) task.TickFunc {
	return func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Terminate(payload), nil
	}
}

func TestCounterSwitchesToReporter(t *testing.T) {
	rec := &testutil.Recorder{}
	counter := spy(rec, "Counter", func(_ context.Context, in deps.Inputs) (task.Signal, error) {
		if in.World().Add("n", 1) == 3 {
			return task.SwitchTo("Reporter"), nil
		}
		return task.Continue, nil
	}, "world")

	seenAtStart := -1
	reporter := task.Must(task.New("Reporter",
		task.WithStartup(func(_ context.Context, in deps.Inputs) (task.Signal, error) {
			seenAtStart = in.World().Int("n")
			return task.Continue, nil
		}, "world"),
		task.WithTick(terminate("report done")),
	))

	w := world.New()
	payload, err := Run(context.Background(), counter,
		WithTasks(task.NewCatalog(reporter)),
		WithWorld(w),
	)
	require.NoError(t, err)
	assert.Equal(t, "report done", payload)
	assert.Equal(t, 3, rec.Count("Counter", "tick"))
	assert.Equal(t, 3, seenAtStart)
	assert.Equal(t, uint64(4), w.Ticks())
	assert.Equal(t, task.StateIdle, counter.State())
	assert.Equal(t, task.StateTerminated, reporter.State())
}

func TestShutdownRunsOnceWhenTickFails(t *testing.T) {
	rec := &testutil.Recorder{}
	boom := errors.New("lidar unplugged")
	root := spy(rec, "scan", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Continue, boom
	})

	_, err := Run(context.Background(), root)
	require.ErrorIs(t, err, boom)
	var terr *TaskError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "scan", terr.Task)
	assert.Equal(t, task.PhaseTick, terr.Phase)
	assert.NoError(t, terr.ShutdownErr)

	// Shutdown ran before the fault left Run.
	assert.Equal(t, []string{"scan.startup", "scan.tick", "scan.shutdown"}, rec.Calls())
}

func TestShutdownFailureDoesNotMaskFault(t *testing.T) {
	boom := errors.New("tick failed")
	cleanup := errors.New("brake release failed")
	root := task.Must(task.New("drive",
		task.WithTick(func(context.Context, deps.Inputs) (task.Signal, error) { return task.Continue, boom }),
		task.WithShutdown(func(context.Context, deps.Inputs) error { return cleanup }),
	))

	_, err := Run(context.Background(), root)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, cleanup)
	var terr *TaskError
	require.True(t, errors.As(err, &terr))
	assert.ErrorIs(t, terr.ShutdownErr, cleanup)
	assert.Contains(t, err.Error(), "tick failed")
	assert.Contains(t, err.Error(), "brake release failed")
}

func TestShutdownFailureDoesNotBlockTransition(t *testing.T) {
	first := task.Must(task.New("first",
		task.WithTick(func(context.Context, deps.Inputs) (task.Signal, error) { return task.SwitchTo("second"), nil }),
		task.WithShutdown(func(context.Context, deps.Inputs) error { return errors.New("flaky cleanup") }),
	))
	second := task.Func("second", terminate(42))

	var faults []observe.Event
	payload, err := Run(context.Background(), first,
		WithTasks(task.NewCatalog(second)),
		WithObserver(observe.Func(func(_ context.Context, ev observe.Event) {
			if ev.Kind == observe.EventFault {
				faults = append(faults, ev)
			}
		})),
	)
	require.NoError(t, err)
	assert.Equal(t, 42, payload)
	require.Len(t, faults, 1)
	assert.Equal(t, task.PhaseShutdown, faults[0].Phase)
}

func TestTerminateOnFirstTick(t *testing.T) {
	rec := &testutil.Recorder{}
	root := spy(rec, "once", terminate(nil))
	payload, err := Run(context.Background(), root)
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, 1, rec.Count("once", "shutdown"))
}

func TestStartupSignalSkipsTick(t *testing.T) {
	ticked := false
	root := task.Must(task.New("preflight",
		task.WithStartup(func(context.Context, deps.Inputs) (task.Signal, error) {
			return task.SwitchTo("landed"), nil
		}),
		task.WithTick(func(context.Context, deps.Inputs) (task.Signal, error) {
			ticked = true
			return task.Continue, nil
		}),
	))
	landed := task.Func("landed", terminate("ok"))

	payload, err := Run(context.Background(), root, WithTasks(task.NewCatalog(landed)))
	require.NoError(t, err)
	assert.Equal(t, "ok", payload)
	assert.False(t, ticked)
}

func TestStartupFailureStillShutsDown(t *testing.T) {
	rec := &testutil.Recorder{}
	boom := errors.New("no motors")
	root := task.Must(task.New("arm",
		task.WithStartup(func(context.Context, deps.Inputs) (task.Signal, error) {
			rec.Record("arm", "startup")
			return task.Continue, boom
		}),
		task.WithShutdown(func(context.Context, deps.Inputs) error {
			rec.Record("arm", "shutdown")
			return nil
		}),
	))

	_, err := Run(context.Background(), root)
	var terr *TaskError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, task.PhaseStartup, terr.Phase)
	assert.Equal(t, []string{"arm.startup", "arm.shutdown"}, rec.Calls())
}

func TestSwitchBackRestartsTask(t *testing.T) {
	rec := &testutil.Recorder{}
	a := spy(rec, "A", func(_ context.Context, in deps.Inputs) (task.Signal, error) {
		if in.World().Add("visits", 1) == 2 {
			return task.Terminate(nil), nil
		}
		return task.SwitchTo("B"), nil
	}, "world")
	b := spy(rec, "B", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.SwitchTo("A"), nil
	})

	_, err := Run(context.Background(), a, WithTasks(task.NewCatalog(b)))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"A.startup", "A.tick", "A.shutdown",
		"B.startup", "B.tick", "B.shutdown",
		"A.startup", "A.tick", "A.shutdown",
	}, rec.Calls())
	assert.Equal(t, uint64(2), a.Activations())
}

func TestUnresolvedDependency(t *testing.T) {
	rec := &testutil.Recorder{}
	root := spy(rec, "drive", terminate(nil), "joystick")

	_, err := Run(context.Background(), root)
	require.ErrorIs(t, err, deps.ErrUnresolvedDependency)
	var unresolved *deps.UnresolvedError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "joystick", unresolved.Name)
	assert.Equal(t, 0, rec.Count("drive", "tick"))
	assert.Equal(t, 1, rec.Count("drive", "shutdown"))
}

func TestExpensiveResourceIsCachedAcrossTicks(t *testing.T) {
	clock := testutil.NewFakeClock()
	reg := resource.NewRegistry(resource.WithClock(clock))
	calls := 0
	reg.MustRegister(resource.New("expensive", func(context.Context, deps.Inputs) (any, error) {
		calls++
		return calls, nil
	}, resource.WithRefresh(5*time.Second)))

	var seen []int
	steps := []time.Duration{time.Second, time.Second, 4 * time.Second, 0}
	root := task.Func("sample", func(_ context.Context, in deps.Inputs) (task.Signal, error) {
		seen = append(seen, deps.MustGet[int](in, "expensive"))
		i := len(seen) - 1
		if i == len(steps)-1 {
			return task.Terminate(nil), nil
		}
		clock.Advance(steps[i])
		return task.Continue, nil
	}, "expensive")

	_, err := Run(context.Background(), root, WithRegistry(reg))
	require.NoError(t, err)
	// reads at t=0,1,2 share a value; t=6 recomputes
	assert.Equal(t, []int{1, 1, 1, 2}, seen)
	assert.Equal(t, 2, calls)
}

func TestBindings(t *testing.T) {
	root := task.Func("read", func(_ context.Context, in deps.Inputs) (task.Signal, error) {
		return task.Terminate(deps.MustGet[string](in, "robot")), nil
	}, "robot")

	payload, err := Run(context.Background(), root, WithBindings(map[string]any{"robot": "rover"}))
	require.NoError(t, err)
	assert.Equal(t, "rover", payload)

	reg := resource.NewRegistry()
	reg.MustRegister(resource.Value("robot", "other"))
	rec := &testutil.Recorder{}
	_, err = Run(context.Background(), spy(rec, "never", terminate(nil)),
		WithRegistry(reg), WithBindings(map[string]any{"robot": "rover"}))
	require.ErrorIs(t, err, resource.ErrDuplicateResource)
	assert.Empty(t, rec.Calls(), "configuration errors abort before any task starts")

	_, err = Run(context.Background(), root, WithBindings(map[string]any{"world": 1}))
	assert.ErrorIs(t, err, resource.ErrReservedName)
}

func TestErrorTaskReceivesFault(t *testing.T) {
	boom := errors.New("battery low")
	root := task.Func("patrol", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Continue, boom
	})

	payload, err := Run(context.Background(), root, WithErrorTask(task.ExitName))
	require.NoError(t, err)
	fault, ok := payload.(error)
	require.True(t, ok)
	assert.ErrorIs(t, fault, boom)

	// A custom error task sees the fault on the World.
	var seen error
	safe := task.Func("safe_stop", func(_ context.Context, in deps.Inputs) (task.Signal, error) {
		seen = in.World().Fault()
		return task.Terminate("stopped"), nil
	}, "world")
	payload, err = Run(context.Background(), task.Func("patrol2", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Continue, boom
	}), WithTasks(task.NewCatalog(safe)), WithErrorTask("safe_stop"))
	require.NoError(t, err)
	assert.Equal(t, "stopped", payload)
	assert.ErrorIs(t, seen, boom)
}

func TestErrorTaskFaultIsSurfaced(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	handler := task.Func("handler", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Continue, second
	})
	root := task.Func("root", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Continue, first
	})

	_, err := Run(context.Background(), root, WithTasks(task.NewCatalog(handler)), WithErrorTask("handler"))
	require.ErrorIs(t, err, second)

	_, err = Run(context.Background(), task.Func("x", nil), WithErrorTask("missing"))
	assert.ErrorIs(t, err, task.ErrUnknownTask)
}

func TestUnknownSwitchTarget(t *testing.T) {
	rec := &testutil.Recorder{}
	root := spy(rec, "menu", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.SwitchTo("nowhere"), nil
	})
	_, err := Run(context.Background(), root)
	require.ErrorIs(t, err, task.ErrUnknownTask)
	assert.Equal(t, 1, rec.Count("menu", "shutdown"))

	_, err = Run(context.Background(), task.Func("blank", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.SwitchTo(""), nil
	}))
	assert.ErrorIs(t, err, task.ErrInvalidSignal)
}

func TestChecksOverrideTick(t *testing.T) {
	rec := &testutil.Recorder{}
	root := spy(rec, "drive", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Continue, nil
	})
	home := task.Func("home", terminate("home"))

	reg := resource.NewRegistry()
	reg.MustRegister(resource.New("home_button", func(_ context.Context, in deps.Inputs) (any, error) {
		return in.World().Ticks() == 2, nil
	}, resource.WithNeeds("world")))

	homePressed := func(ctx context.Context, _ *world.World, res Resolver) (task.Signal, error) {
		pressed, err := res.Resolve(ctx, "home_button")
		if err != nil {
			return task.Continue, err
		}
		if pressed.(bool) {
			return task.SwitchTo("home"), nil
		}
		return task.Continue, nil
	}
	payload, err := Run(context.Background(), root,
		WithTasks(task.NewCatalog(home)), WithRegistry(reg), WithChecks(homePressed))
	require.NoError(t, err)
	assert.Equal(t, "home", payload)
	assert.Equal(t, 2, rec.Count("drive", "tick"))

	failing := func(context.Context, *world.World, Resolver) (task.Signal, error) {
		return task.Continue, errors.New("joystick disconnected")
	}
	_, err = Run(context.Background(), task.Func("idle", nil), WithChecks(failing))
	var terr *TaskError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, terr.Error(), "joystick disconnected")
}

func TestContextCancellationShutsDown(t *testing.T) {
	rec := &testutil.Recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var shutdownCtxErr error
	root := task.Must(task.New("forever",
		task.WithTick(func(_ context.Context, in deps.Inputs) (task.Signal, error) {
			rec.Record("forever", "tick")
			if in.World().Ticks() == 4 {
				cancel()
			}
			return task.Continue, nil
		}, "world"),
		task.WithShutdown(func(ctx context.Context, _ deps.Inputs) error {
			rec.Record("forever", "shutdown")
			shutdownCtxErr = ctx.Err()
			return nil
		}),
	))

	_, err := Run(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, rec.Count("forever", "tick"))
	assert.Equal(t, 1, rec.Count("forever", "shutdown"))
	assert.NoError(t, shutdownCtxErr, "shutdown gets a context that is not cancelled")
}

func TestTickInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	root := task.Func("slow", func(_ context.Context, in deps.Inputs) (task.Signal, error) {
		if in.World().Ticks() == 2 {
			return task.Terminate(nil), nil
		}
		return task.Continue, nil
	}, "world")

	started := time.Now()
	_, err := Run(ctx, root, WithTickInterval(10*time.Millisecond))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)

	// Cancelling during the wait ends the run.
	pending := task.Func("pending", func(context.Context, deps.Inputs) (task.Signal, error) {
		cancel()
		return task.Continue, nil
	})
	_, err = Run(ctx, pending, WithTickInterval(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObserverSeesTransitionsAndPanicsAreContained(t *testing.T) {
	var kinds []string
	recorder := observe.Func(func(_ context.Context, ev observe.Event) {
		kinds = append(kinds, ev.Kind.String()+":"+ev.Task)
	})
	panicky := observe.Func(func(context.Context, observe.Event) { panic("observer bug") })

	a := task.Func("a", func(context.Context, deps.Inputs) (task.Signal, error) { return task.SwitchTo("b"), nil })
	b := task.Func("b", terminate(nil))

	_, err := Run(context.Background(), a,
		WithTasks(task.NewCatalog(b)),
		WithObserver(recorder, panicky),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"start:a", "tick:a", "stop:a", "switch:a",
		"start:b", "tick:b", "stop:b", "terminate:b",
	}, kinds)
}

func TestRunConfigurationErrors(t *testing.T) {
	_, err := Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilRoot)

	_, err = Run(context.Background(), task.Func("a", nil), WithWorldFactory(func() *world.World { return nil }))
	assert.ErrorIs(t, err, ErrNilWorld)

	catalog := task.NewCatalog(task.Func("a", nil))
	_, err = Run(context.Background(), task.Func("a", nil), WithTasks(catalog))
	assert.ErrorIs(t, err, ErrTaskConflict)
}

func TestWorldFactoryIsCalledOncePerRun(t *testing.T) {
	made := 0
	factory := func() *world.World {
		made++
		return world.New()
	}
	a := task.Func("a", func(context.Context, deps.Inputs) (task.Signal, error) { return task.SwitchTo("b"), nil })
	b := task.Func("b", terminate(nil))
	_, err := Run(context.Background(), a, WithTasks(task.NewCatalog(b)), WithWorldFactory(factory))
	require.NoError(t, err)
	assert.Equal(t, 1, made)
}

func TestShutdownFailureAfterTerminateIsReturned(t *testing.T) {
	logger, buf := testutil.NewLogger(t)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	brake := errors.New("motor brake failed")
	root := task.Must(task.New("drive",
		task.WithTick(terminate("done")),
		task.WithShutdown(func(context.Context, deps.Inputs) error { return brake }),
	))

	payload, err := Run(ctx, root)
	assert.Equal(t, "done", payload)
	require.ErrorIs(t, err, brake)
	var serr *ShutdownError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "drive", serr.Task)
	assert.Contains(t, buf.String(), "Task shutdown failed.")
	assert.Contains(t, buf.String(), "motor brake failed")
}

func TestShutdownFailureAfterSwitchIsLogged(t *testing.T) {
	logger, buf := testutil.NewLogger(t)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	first := task.Must(task.New("first",
		task.WithTick(func(context.Context, deps.Inputs) (task.Signal, error) { return task.SwitchTo("second"), nil }),
		task.WithShutdown(func(context.Context, deps.Inputs) error { return errors.New("flaky cleanup") }),
	))

	payload, err := Run(ctx, first, WithTasks(task.NewCatalog(task.Func("second", terminate(7)))))
	require.NoError(t, err)
	assert.Equal(t, 7, payload)
	assert.Contains(t, buf.String(), "flaky cleanup")
	assert.Contains(t, buf.String(), "task=first")
}

// motorRegistry registers power and motors (which needs power), recording
// the order in which they are closed.
func motorRegistry(closed *[]string) *resource.Registry {
	reg := resource.NewRegistry()
	closer := func(name string) resource.Closer {
		return func(context.Context, any) error {
			*closed = append(*closed, name)
			return nil
		}
	}
	reg.MustRegister(
		resource.New("power", func(context.Context, deps.Inputs) (any, error) { return 12.0, nil },
			resource.WithClose(closer("power"))),
		resource.New("motors", func(context.Context, deps.Inputs) (any, error) { return "armed", nil },
			resource.WithNeeds("power"), resource.WithClose(closer("motors"))),
	)
	return reg
}

func TestResourcesCloseWhenRunEnds(t *testing.T) {
	var closed []string
	root := task.Func("drive", terminate("parked"), "motors")
	payload, err := Run(context.Background(), root, WithRegistry(motorRegistry(&closed)))
	require.NoError(t, err)
	assert.Equal(t, "parked", payload)
	assert.Equal(t, []string{"motors", "power"}, closed)
}

func TestResourcesCloseAfterFault(t *testing.T) {
	var closed []string
	boom := errors.New("wheel slip")
	root := task.Func("drive", func(context.Context, deps.Inputs) (task.Signal, error) {
		return task.Continue, boom
	}, "motors")

	_, err := Run(context.Background(), root, WithRegistry(motorRegistry(&closed)))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"motors", "power"}, closed)
}

func TestResourceCloseFailureIsReturned(t *testing.T) {
	reg := resource.NewRegistry()
	reg.MustRegister(resource.New("gripper", func(context.Context, deps.Inputs) (any, error) { return "closed", nil },
		resource.WithClose(func(context.Context, any) error { return errors.New("gripper jammed") })))

	payload, err := Run(context.Background(), task.Func("grab", terminate("ok"), "gripper"), WithRegistry(reg))
	assert.Equal(t, "ok", payload)
	require.ErrorIs(t, err, resource.ErrClose)
	assert.Contains(t, err.Error(), "gripper jammed")
}

func TestFreshResourcesAreReadOncePerActivation(t *testing.T) {
	clock := testutil.NewFakeClock()
	reg := resource.NewRegistry(resource.WithClock(clock))
	reads := 0
	reg.MustRegister(resource.New("calibration", func(context.Context, deps.Inputs) (any, error) {
		reads++
		return reads, nil
	}, resource.WithRefresh(time.Hour)))

	var seen []int
	a := task.Func("a", func(_ context.Context, in deps.Inputs) (task.Signal, error) {
		seen = append(seen, deps.MustGet[int](in, "calibration"))
		if len(seen) >= 4 {
			return task.Terminate(nil), nil
		}
		if len(seen)%2 == 0 {
			return task.SwitchTo("a"), nil
		}
		return task.Continue, nil
	}, "calibration")

	_, err := Run(context.Background(), a, WithRegistry(reg), WithFreshResources("calibration"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2}, seen)

	_, err = Run(context.Background(), a, WithFreshResources("missing"))
	assert.ErrorIs(t, err, resource.ErrUnknownResource)
}

func TestLogLinesNameTheTaskOnce(t *testing.T) {
	logger, buf := testutil.NewLogger(t)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	a := task.Func("a", func(context.Context, deps.Inputs) (task.Signal, error) { return task.SwitchTo("b"), nil })
	b := task.Func("b", terminate(nil))

	_, err := Run(ctx, a, WithTasks(task.NewCatalog(b)), WithObserver(observe.Logger()))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Switching task")
	assert.Contains(t, out, "Run terminated")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.LessOrEqual(t, strings.Count(line, " task="), 1, line)
	}
}

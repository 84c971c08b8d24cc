package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/deps"
	"github.com/specialistvlad/taskloop/internal/loop"
	"github.com/specialistvlad/taskloop/internal/observe"
	"go.opentelemetry.io/otel"
)

// tracerName names the tracer and meter used for run loop telemetry.
const tracerName = "github.com/specialistvlad/taskloop"

// Run drives the task loop from the root task until it terminates, fails,
// or ctx is cancelled, and returns the terminate payload. Resources are
// closed before Run returns.
func (a *App) Run(ctx context.Context) (any, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer func() {
		if err := a.closeHealthCheckServer(); err != nil {
			a.logger.Warn("Health check server did not close cleanly.", "error", err)
		}
	}()

	root, err := a.catalog.Get(a.root)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Tasks registered:", "count", a.catalog.Len(), "names", a.catalog.Names())
	a.logger.Info("Resources registered:", "names", a.registry.Names())
	for _, name := range a.registry.Names() {
		needs, err := a.registry.Needs(name)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Resource dependencies.", "resource", name, "needs", deps.Names(needs))
	}

	opts := []loop.Option{
		loop.WithTasks(a.catalog),
		loop.WithRegistry(a.registry),
		loop.WithObserver(
			observe.Logger(),
			a.metrics,
			a.otelMetrics,
			observe.NewTracing(otel.Tracer(tracerName)),
			a.heartbeat,
		),
		loop.WithTickInterval(a.config.TickInterval),
	}
	if a.config.ErrorTask != "" {
		opts = append(opts, loop.WithErrorTask(a.config.ErrorTask))
	}

	a.logger.Info("🚀 Starting task loop...", "root", root.Name())
	payload, err := loop.Run(ctx, root, opts...)
	if err != nil {
		// A shutdown or resource close failure after terminate still carries the payload.
		return payload, fmt.Errorf("task loop failed: %w", err)
	}
	a.logger.Info("🏁 Task loop finished.", "payload", payload)

	a.logger.Debug("App.Run method finished.")
	return payload, nil
}

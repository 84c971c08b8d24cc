package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/taskloop/internal/ctxlog"
	"github.com/specialistvlad/taskloop/internal/menu"
	"github.com/specialistvlad/taskloop/internal/observe"
	"github.com/specialistvlad/taskloop/internal/resource"
	"github.com/specialistvlad/taskloop/internal/task"
	"github.com/specialistvlad/taskloop/modules/env_vars"
	"go.opentelemetry.io/otel"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	outW   io.Writer
	logger *slog.Logger
	config *Config

	registry *resource.Registry
	catalog  *task.Catalog
	root     string

	metricsRegistry *prometheus.Registry
	metrics         *observe.Metrics
	otelMetrics     *observe.OTelMetrics
	heartbeat       *observe.Heartbeat
	httpServer      *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own logger, resource registry and task catalog.
// Menus are read from inR. Without modules the core modules are used.
//
// Setup failures are programmer or configuration errors and panic.
func NewApp(outW io.Writer, inR io.Reader, cfg *Config, modules ...Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	catalog := task.NewCatalog()
	root := cfg.RootTask

	var menus []menu.Menu
	if cfg.MenuPath != "" {
		var err error
		menus, err = menu.LoadPath(ctx, cfg.MenuPath, env_vars.Environ())
		if err != nil {
			panic(fmt.Errorf("failed to load menus: %w", err))
		}
		names, err := menu.Register(catalog, menus, menu.NewKeyboard(inR, outW))
		if err != nil {
			panic(fmt.Errorf("failed to register menus: %w", err))
		}
		if root == "" && len(names) > 0 {
			root = names[0]
		}
		logger.Debug("Menus registered.", "tasks", names)
	}

	reg := resource.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules(cfg, outW, root)
	}
	for _, mod := range modules {
		if err := mod.Register(reg, catalog); err != nil {
			panic(fmt.Errorf("failed to register module %T: %w", mod, err))
		}
	}
	logger.Debug("All Go modules registered.", "count", len(modules))
	for _, name := range bindingNames(cfg.Bindings) {
		if err := reg.RegisterValue(name, cfg.Bindings[name]); err != nil {
			panic(fmt.Errorf("failed to register binding: %w", err))
		}
	}

	if _, ok := catalog.Lookup(root); !ok {
		panic(fmt.Errorf("root task %q is not registered", root))
	}
	for _, name := range menu.Targets(menus) {
		if _, ok := catalog.Lookup(name); !ok {
			logger.Warn("Menu item points to an unregistered task.", "task", name)
		}
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	metrics, err := observe.NewMetrics(promReg)
	if err != nil {
		panic(fmt.Errorf("failed to register metrics: %w", err))
	}
	otelMetrics, err := observe.NewOTelMetrics(otel.Meter(tracerName))
	if err != nil {
		panic(fmt.Errorf("failed to create otel instruments: %w", err))
	}

	return &App{
		ctx:             ctx,
		outW:            outW,
		logger:          logger,
		config:          cfg,
		registry:        reg,
		catalog:         catalog,
		root:            root,
		metricsRegistry: promReg,
		metrics:         metrics,
		otelMetrics:     otelMetrics,
		heartbeat:       observe.NewHeartbeat(),
	}
}

// Registry returns the application's resource registry. This is primarily for testing.
func (a *App) Registry() *resource.Registry {
	return a.registry
}

// Catalog returns the application's tasks. This is primarily for testing.
func (a *App) Catalog() *task.Catalog {
	return a.catalog
}

// Root is the name of the task a run starts with.
func (a *App) Root() string {
	return a.root
}

package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/taskloop/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("taskloop", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Taskloop - a cooperative task-switching runtime for small robots.

Usage:
  taskloop [options] [MENU_PATH]
  taskloop -config run.hcl [options]

Arguments:
  MENU_PATH
    Path to a .hcl, .yaml or .yml menu file, or a directory of them. The
    first menu is the root task unless -root is given.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to an HCL run configuration file. Flags override its values.")
	menuFlag := flagSet.String("menu", "", "Path to the menu file.")
	mFlag := flagSet.String("m", "", "Path to the menu file (shorthand).")
	rootFlag := flagSet.String("root", "", "Name of the task to start with.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	stallFlag := flagSet.Duration("stall-timeout", 0, "Fail the liveness check when the run loop makes no progress for this long. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	tickFlag := flagSet.Duration("tick-interval", 0, "Pause between two ticks of a task.")
	errorTaskFlag := flagSet.String("error-task", "", "Task to switch to when a task fails, e.g. 'exit'. Empty stops the run with the error.")
	statusTicksFlag := flagSet.Int("status-ticks", 5, "Status lines system_status prints before returning to the root task. 0 prints forever.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *menuFlag != "" {
		path = *menuFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Menu path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg := app.Config{
		MenuPath:        path,
		RootTask:        *rootFlag,
		HealthcheckPort: *healthPortFlag,
		StallTimeout:    *stallFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		TickInterval:    *tickFlag,
		ErrorTask:       *errorTaskFlag,
		StatusTicks:     *statusTicksFlag,
	}
	if *configFlag != "" {
		file, err := app.LoadConfigFile(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		slog.Debug("Config file loaded.", "path", *configFlag)
		cfg = file.Merge(cfg)
	}

	if cfg.MenuPath == "" && cfg.RootTask == "" {
		slog.Debug("No menu path or root task provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	MenuPath string // menu file, or directory of .hcl / .yaml / .yml files
	RootTask string // defaults to the first menu

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// StallTimeout fails the liveness check when the run loop reports no
	// progress for this long. Zero disables the check.
	StallTimeout time.Duration

	TickInterval time.Duration
	ErrorTask    string
	// StatusTicks is how many lines system_status prints before returning to the root task.
	StatusTicks int

	// Bindings are registered as static resources, e.g. from a config file.
	Bindings map[string]any
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.MenuPath == "" && cfg.RootTask == "" {
		return nil, errors.New("either MenuPath or RootTask must be set")
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if !validFormat(cfg.LogFormat) {
		return nil, fmt.Errorf("unknown log format %q, want text or json", cfg.LogFormat)
	}
	if cfg.TickInterval < 0 {
		return nil, fmt.Errorf("TickInterval must not be negative, got %s", cfg.TickInterval)
	}
	if cfg.StallTimeout < 0 {
		return nil, fmt.Errorf("StallTimeout must not be negative, got %s", cfg.StallTimeout)
	}
	if cfg.StatusTicks < 0 {
		return nil, fmt.Errorf("StatusTicks must not be negative, got %d", cfg.StatusTicks)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("HealthcheckPort out of range: %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}

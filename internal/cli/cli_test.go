package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/taskloop/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{
		"-log-level", "DEBUG", "-log-format", "text",
		"-tick-interval", "50ms", "-error-task", "exit", "-status-ticks", "2",
		"-healthcheck-port", "8080", "-stall-timeout", "1m",
		"menus.yaml",
	}, &out)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, &app.Config{
		MenuPath:        "menus.yaml",
		LogFormat:       "text",
		LogLevel:        "debug",
		HealthcheckPort: 8080,
		StallTimeout:    time.Minute,
		TickInterval:    50 * time.Millisecond,
		ErrorTask:       "exit",
		StatusTicks:     2,
	}, cfg)
}

func TestParseMenuFlagsWin(t *testing.T) {
	cfg, _, err := Parse([]string{"-m", "short.hcl", "positional.yaml"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "short.hcl", cfg.MenuPath)

	cfg, _, err = Parse([]string{"-menu", "long.hcl", "-m", "short.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "long.hcl", cfg.MenuPath)

	cfg, _, err = Parse([]string{"-root", "system_status"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "system_status", cfg.RootTask)
	assert.Empty(t, cfg.MenuPath)
	assert.Equal(t, 5, cfg.StatusTicks)
}

func TestParseUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}} {
		var out bytes.Buffer
		cfg, exit, err := Parse(args, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":   {"-nope"},
		"log format":     {"-log-format", "xml", "m.yaml"},
		"log level":      {"-log-level", "loud", "m.yaml"},
		"bad duration":   {"-tick-interval", "soon", "m.yaml"},
		"negative ticks": {"-status-ticks", "-1", "m.yaml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, exit, err := Parse(args, &bytes.Buffer{})
			assert.False(t, exit)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestParseConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
run {
  menu          = "menus"
  root          = "main"
  tick_interval = "100ms"
}

bindings {
  max_speed = 0.8
}
`), 0o600))

	cfg, exit, err := Parse([]string{"-config", path, "-tick-interval", "5ms"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, filepath.Join(dir, "menus"), cfg.MenuPath)
	assert.Equal(t, "main", cfg.RootTask)
	assert.Equal(t, 5*time.Millisecond, cfg.TickInterval, "flags win over the file")
	assert.Equal(t, map[string]any{"max_speed": 0.8}, cfg.Bindings)

	_, _, err = Parse([]string{"-config", filepath.Join(dir, "missing.hcl")}, &bytes.Buffer{})
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A menu file with a syntax error makes app.NewApp panic while loading.
	invalidHCL := `
		menu "main" {
			title = "Main"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, strings.NewReader(""), args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to load menus"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(context.Background(), out, strings.NewReader(""), args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(context.Background(), out, strings.NewReader(""), args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_MenuToPrint(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	menu := `
menu "main" {
  title = "Robot"
  item "Print world" { task = "print_world" }
}
`
	filePath := filepath.Join(t.TempDir(), "menu.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(menu), 0600))
	out := &bytes.Buffer{}

	// --- Act ---
	// Select the print task, which returns to the menu, then quit.
	err := run(context.Background(), out, strings.NewReader("0\nq\n"), []string{"-log-format", "text", filePath})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "Robot\n=====\n")
	require.Contains(t, out.String(), "(1 ticks so far, visit 1)")
}

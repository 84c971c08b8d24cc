// Package cli turns command-line arguments into an app.Config and reports
// usage errors as ExitError values carrying the process exit code.
package cli

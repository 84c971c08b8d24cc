// Package app wires the task runtime into a runnable program: it loads
// menus, registers modules into a resource registry and task catalog, and
// drives the run loop with logging, metrics, tracing and a health server.
package app

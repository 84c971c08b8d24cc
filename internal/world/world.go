// Package world holds the shared, mutable context handed to every lifecycle
// callback that declares a need for it.
//
// One World exists per run. It is created when the run starts and dropped
// when the run ends; nothing in it survives across runs.
package world

import (
	"fmt"
	"sort"
)

// World is the cross-task bookkeeping record of a single run.
//
// It is not safe for concurrent use. The run loop only ever executes one
// callback at a time, so no locking is needed inside a run.
type World struct {
	vars  map[string]any
	ticks uint64
	fault error
}

// New creates an empty World.
func New() *World {
	return &World{vars: make(map[string]any)}
}

// Set stores a value under key, replacing any previous value.
func (w *World) Set(key string, v any) {
	w.vars[key] = v
}

// Get returns the value stored under key.
func (w *World) Get(key string) (any, bool) {
	v, ok := w.vars[key]
	return v, ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (w *World) Delete(key string) {
	delete(w.vars, key)
}

// Int returns the int stored under key, or 0 when the key is unset.
// It panics if the key holds a non-int value.
func (w *World) Int(key string) int {
	v, ok := w.vars[key]
	if !ok {
		return 0
	}
	n, ok := v.(int)
	if !ok {
		panic(fmt.Sprintf("world: key %q holds %T, not int", key, v))
	}
	return n
}

// Add increments the int stored under key by delta and returns the new value.
func (w *World) Add(key string, delta int) int {
	n := w.Int(key) + delta
	w.vars[key] = n
	return n
}

// Keys returns the stored keys in sorted order.
func (w *World) Keys() []string {
	keys := make([]string, 0, len(w.vars))
	for k := range w.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ticks is the number of ticks executed in this run, across all tasks.
func (w *World) Ticks() uint64 {
	return w.ticks
}

// CountTick advances the run-wide tick counter. The run loop calls it once
// per completed tick.
func (w *World) CountTick() {
	w.ticks++
}

// Fault returns the last fault recorded by the run loop before it handed
// control to an error task, or nil.
func (w *World) Fault() error {
	return w.fault
}

// RecordFault stores err as the current fault.
func (w *World) RecordFault(err error) {
	w.fault = err
}

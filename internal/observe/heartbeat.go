package observe

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

var (
	// ErrNoActivity is returned by Heartbeat checks before the first event.
	ErrNoActivity = errors.New("observe: no run loop activity yet")
	// ErrStalled is returned when the last event is older than the allowed age.
	ErrStalled = errors.New("observe: run loop stalled")
)

// Heartbeat remembers when the run loop last made progress and which task is
// active. It is safe to read from other goroutines, e.g. a health endpoint.
type Heartbeat struct {
	last   atomic.Int64
	active atomic.Value
	now    func() time.Time
}

// NewHeartbeat returns an empty Heartbeat.
func NewHeartbeat() *Heartbeat {
	h := &Heartbeat{now: time.Now}
	h.active.Store("")
	return h
}

// Observe implements Observer.
func (h *Heartbeat) Observe(_ context.Context, ev Event) {
	h.last.Store(h.now().UnixNano())
	switch ev.Kind {
	case EventStart:
		h.active.Store(ev.Task)
	case EventStop:
		h.active.Store("")
	}
}

// Active returns the currently active task, or "".
func (h *Heartbeat) Active() string {
	return h.active.Load().(string)
}

// Last returns the time of the last event, or the zero time.
func (h *Heartbeat) Last() time.Time {
	n := h.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Check returns a health check failing when no event arrived within maxAge.
func (h *Heartbeat) Check(maxAge time.Duration) func() error {
	return func() error {
		last := h.Last()
		if last.IsZero() {
			return ErrNoActivity
		}
		if age := h.now().Sub(last); age > maxAge {
			return fmt.Errorf("%w: last event %s ago", ErrStalled, age.Round(time.Millisecond))
		}
		return nil
	}
}

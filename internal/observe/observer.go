package observe

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/taskloop/internal/task"
)

// Kind is the kind of lifecycle event.
type Kind int

const (
	// EventStart is emitted when an activation begins, before startup runs.
	EventStart Kind = iota
	// EventTick is emitted after every completed tick.
	EventTick
	// EventStop is emitted after shutdown ran.
	EventStop
	// EventSwitch is emitted when the loop moves to another task.
	EventSwitch
	// EventTerminate is emitted when the run ends on request.
	EventTerminate
	// EventFault is emitted for every callback failure, including shutdown.
	EventFault
)

func (k Kind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventTick:
		return "tick"
	case EventStop:
		return "stop"
	case EventSwitch:
		return "switch"
	case EventTerminate:
		return "terminate"
	case EventFault:
		return "fault"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event describes one transition of the run loop.
type Event struct {
	Kind Kind
	// Task is the task the event belongs to.
	Task string
	// Next is the switch target (EventSwitch only).
	Next string
	// Phase is the callback that failed (EventFault only).
	Phase task.Phase
	// Activation is the task's activation number, starting at 1.
	Activation uint64
	// Tick is the tick number within the activation.
	Tick uint64
	// Duration is how long the tick or shutdown took.
	Duration time.Duration
	// Err is set for EventFault.
	Err error
	// Payload is the terminate payload (EventTerminate only).
	Payload any
	At      time.Time
}

// Observer receives lifecycle events.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// Func adapts a function to Observer.
type Func func(ctx context.Context, ev Event)

// Observe calls f.
func (f Func) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Multi fans an event out to several observers in order.
type Multi []Observer

// Observe forwards ev to every non-nil observer.
func (m Multi) Observe(ctx context.Context, ev Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(ctx, ev)
		}
	}
}

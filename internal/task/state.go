package task

import "fmt"

// State is the lifecycle state of a task.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Phase names a lifecycle callback.
type Phase int

const (
	PhaseStartup Phase = iota
	PhaseTick
	PhaseShutdown
)

func (p Phase) String() string {
	switch p {
	case PhaseStartup:
		return "startup"
	case PhaseTick:
		return "tick"
	case PhaseShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

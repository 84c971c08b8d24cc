package task

import (
	"errors"
	"fmt"
)

// Kind is the transition a Signal requests.
type Kind int

const (
	// KindContinue keeps the current task active.
	KindContinue Kind = iota
	// KindSwitch activates another task.
	KindSwitch
	// KindTerminate ends the run.
	KindTerminate
)

func (k Kind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindSwitch:
		return "switch"
	case KindTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Signal is the control-flow result of a startup or tick callback.
type Signal struct {
	Kind Kind
	// Next names the task to activate; set only for KindSwitch.
	Next string
	// Payload travels with the signal. For KindTerminate it becomes the
	// return value of the run.
	Payload any
}

// Continue keeps the current task running.
var Continue = Signal{}

// SwitchTo requests that the task named next becomes active.
func SwitchTo(next string) Signal {
	return Signal{Kind: KindSwitch, Next: next}
}

// Terminate requests the end of the run. payload is returned by the run loop.
func Terminate(payload any) Signal {
	return Signal{Kind: KindTerminate, Payload: payload}
}

// WithPayload returns a copy of s carrying payload.
func (s Signal) WithPayload(payload any) Signal {
	s.Payload = payload
	return s
}

// Ends reports whether the signal ends the current activation.
func (s Signal) Ends() bool {
	return s.Kind != KindContinue
}

func (s Signal) String() string {
	switch s.Kind {
	case KindSwitch:
		return fmt.Sprintf("switch(%s)", s.Next)
	default:
		return s.Kind.String()
	}
}

// Validate checks that a switch names a target.
func (s Signal) Validate() error {
	if s.Kind == KindSwitch && s.Next == "" {
		return fmt.Errorf("%w: switch without a target task", ErrInvalidSignal)
	}
	return nil
}

// SignalError carries a Signal through an error return. It is not a fault.
type SignalError struct {
	Signal Signal
}

func (e *SignalError) Error() string {
	return "task: signal " + e.Signal.String()
}

// Raise wraps sig so it can be returned as an error from nested helpers.
func Raise(sig Signal) error {
	return &SignalError{Signal: sig}
}

// AsSignal extracts a raised Signal from err.
func AsSignal(err error) (Signal, bool) {
	var se *SignalError
	if errors.As(err, &se) {
		return se.Signal, true
	}
	return Signal{}, false
}

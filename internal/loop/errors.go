package loop

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/taskloop/internal/task"
)

var (
	// ErrNilRoot is returned when Run is called without a root task.
	ErrNilRoot = errors.New("loop: nil root task")
	// ErrNilWorld is returned when the world factory yields nil.
	ErrNilWorld = errors.New("loop: world factory returned nil")
	// ErrTaskConflict is returned when the catalog holds a different task under the root's name.
	ErrTaskConflict = errors.New("loop: conflicting task")
)

// TaskError is a fault raised by a lifecycle callback. The active task's
// shutdown has already run when a TaskError is returned.
type TaskError struct {
	Task  string
	Phase task.Phase
	// Err is the original failure.
	Err error
	// ShutdownErr is set when the shutdown that followed also failed.
	ShutdownErr error
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("task %q %s failed: %v", e.Task, e.Phase, e.Err)
	if e.ShutdownErr != nil {
		msg += fmt.Sprintf(" (shutdown also failed: %v)", e.ShutdownErr)
	}
	return msg
}

// Unwrap returns the original failure, never the shutdown failure.
func (e *TaskError) Unwrap() error { return e.Err }

// ShutdownError reports a shutdown that failed after its task terminated the
// run cleanly. Run returns it together with the terminate payload.
type ShutdownError struct {
	Task string
	Err  error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("task %q shutdown failed after terminate: %v", e.Task, e.Err)
}

func (e *ShutdownError) Unwrap() error { return e.Err }

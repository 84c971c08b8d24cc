package task

import "errors"

var (
	// ErrInvalidName is returned when a task name is empty or uses characters
	// outside [A-Za-z0-9._-].
	ErrInvalidName = errors.New("task: invalid name")
	// ErrDuplicateTask is returned by Catalog.Add for a name already present.
	ErrDuplicateTask = errors.New("task: duplicate task")
	// ErrUnknownTask is returned when a name does not match any task.
	ErrUnknownTask = errors.New("task: unknown task")
	// ErrPanicked wraps a panic recovered from a lifecycle callback.
	ErrPanicked = errors.New("task: callback panicked")
	// ErrInvalidState is returned when a lifecycle step is called out of order.
	ErrInvalidState = errors.New("task: invalid state")
	// ErrInvalidSignal is returned for a switch signal without a target.
	ErrInvalidSignal = errors.New("task: invalid signal")
)

package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateResource is returned by Register when the name is taken.
	ErrDuplicateResource = errors.New("resource: duplicate resource")
	// ErrUnknownResource is returned by Resolve for a name that was never registered.
	ErrUnknownResource = errors.New("resource: unknown resource")
	// ErrReservedName is returned when registering under the World's reserved name.
	ErrReservedName = errors.New("resource: reserved name")
	// ErrInvalidName is returned for an empty name or one containing a comma.
	ErrInvalidName = errors.New("resource: invalid name")
	// ErrInvalidResource is returned for a resource without a producer or with bad needs.
	ErrInvalidResource = errors.New("resource: invalid resource")
	// ErrProducer is matched by every *ProducerError.
	ErrProducer = errors.New("resource: producer failed")
	// ErrProducerPanicked is wrapped when a producer panics.
	ErrProducerPanicked = errors.New("resource: producer panicked")
	// ErrClose wraps every failed close hook returned by Registry.Close.
	ErrClose = errors.New("resource: close failed")
)

// ProducerError reports a failed producer invocation. The failure is never
// cached and never retried by the Registry.
type ProducerError struct {
	Name string
	Err  error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("resource %q: producer failed: %v", e.Name, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// Is reports whether target is ErrProducer.
func (e *ProducerError) Is(target error) bool {
	return target == ErrProducer
}

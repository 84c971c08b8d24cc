package deps

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedDependency is matched by every *UnresolvedError.
	ErrUnresolvedDependency = errors.New("deps: unresolved dependency")
	// ErrDuplicateNeed is returned when a need list names the same input twice.
	ErrDuplicateNeed = errors.New("deps: duplicate need")
	// ErrInvalidNeed is returned for an empty name or an unknown need flag.
	ErrInvalidNeed = errors.New("deps: invalid need")
	// ErrTypeMismatch is returned when a resolved value does not fit the requested type.
	ErrTypeMismatch = errors.New("deps: type mismatch")
)

// UnresolvedError reports a required need that matched neither the World nor
// a registered resource.
type UnresolvedError struct {
	// Name is the need that could not be resolved.
	Name string
	// Owner names the callback or producer that declared it, if known.
	Owner string
}

func (e *UnresolvedError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("deps: unresolved dependency %q", e.Name)
	}
	return fmt.Sprintf("deps: unresolved dependency %q required by %s", e.Name, e.Owner)
}

// Is reports whether target is ErrUnresolvedDependency.
func (e *UnresolvedError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}

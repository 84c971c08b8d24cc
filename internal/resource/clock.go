package resource

import "time"

// Clock is the time source used for cache ageing.
type Clock interface {
	// Now returns the current time. Implementations must be monotonic.
	Now() time.Time
}

type systemClock struct{}

// Now returns time.Now, which carries a monotonic reading.
func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default Clock.
var SystemClock Clock = systemClock{}

// Package observe is the side channel of the run loop: it receives an Event
// for every lifecycle transition and turns it into logs, metrics, traces or
// liveness information.
//
// Observers never influence control flow. The run loop recovers a panicking
// observer and carries on.
package observe

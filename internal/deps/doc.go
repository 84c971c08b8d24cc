// Package deps describes what a lifecycle callback or resource producer
// needs, and carries the resolved values to it.
//
// A need is a name, optionally followed by ",optional":
//
//	task.WithTick(drive, "joystick", "motors", "world")
//	resource.WithNeeds("imu", "calibration,optional")
//
// The reserved name "world" resolves to the run's *world.World. Every other
// name resolves to a registered resource. Resolution itself is done by a
// Hydrator (see package inject); this package only defines the contract and
// the Inputs value handed to callbacks.
//
// Inputs can be read directly:
//
//	speed, err := deps.Get[float64](in, "speed")
//
// or bound into a struct with `dep` tags, mirroring how handlers declare
// their dependencies:
//
//	var d struct {
//		Joystick Joystick     `dep:"joystick"`
//		World    *world.World `dep:"world"`
//	}
//	if err := in.Bind(&d); err != nil { ... }
package deps

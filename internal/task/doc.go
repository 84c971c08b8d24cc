// Package task defines tasks: named units with startup, tick and shutdown
// callbacks, each of which declares the resources it needs.
//
// # Building tasks
//
//	drive := task.Must(task.New("drive",
//		task.WithStartup(armMotors, "motors"),
//		task.WithTick(steer, "joystick", "motors", "world"),
//		task.WithShutdown(stopMotors, "motors"),
//	))
//
// A task whose only behavior is a tick can be built with Func:
//
//	blink := task.Func("blink", toggleLED, "led")
//
// # Signals
//
// Startup and tick return a Signal telling the run loop what to do next:
//
//   - Continue: keep ticking this task.
//   - SwitchTo(name): shut this task down and activate another.
//   - Terminate(payload): shut this task down and end the run.
//
// Code deep inside a callback may return Raise(sig) as an error instead; the
// task converts it back into a signal at the callback boundary, so it is
// never reported as a fault.
//
// # Lifecycle
//
// Each activation runs Idle -> Starting -> Running -> Stopping -> Idle (or
// Terminated). Start, Tick and Stop drive one step each and are called by the
// run loop; they are not meant to be called concurrently.
package task

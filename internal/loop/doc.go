// Package loop drives tasks: it activates the root task, ticks it until it
// signals a switch or termination, shuts it down, and moves on.
//
//	payload, err := loop.Run(ctx, menu,
//		loop.WithTasks(catalog),
//		loop.WithRegistry(reg),
//		loop.WithObserver(observe.Logger()),
//	)
//
// Exactly one task is active at a time and every callback runs on the
// calling goroutine. A tick always runs to completion; the context is only
// consulted between ticks. Cancelling it shuts the active task down and makes
// Run return ctx.Err().
//
// Every activation gets exactly one shutdown call, including when startup or
// tick fails. A failing callback ends the run with a *TaskError after that
// shutdown, unless an error task is configured with WithErrorTask.
//
// When the run ends, however it ends, the registry is closed: every resource
// produced during the run has its close hook run, dependents first.
//
// A run never terminates by itself: with no switch or terminate signal the
// root task ticks forever.
package loop

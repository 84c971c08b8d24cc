package observe

import (
	"context"

	"github.com/specialistvlad/taskloop/internal/ctxlog"
)

type logObserver struct{}

// Logger returns an Observer that logs every event to the logger carried by
// the run's context. The run loop scopes that logger to the event's task, so
// the task name is not repeated here. Ticks are logged at debug level.
func Logger() Observer {
	return logObserver{}
}

func (logObserver) Observe(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx).With("activation", ev.Activation)
	switch ev.Kind {
	case EventStart:
		logger.Info("▶️ Starting task")
	case EventTick:
		logger.Debug("Task ticked.", "tick", ev.Tick, "duration", ev.Duration)
	case EventStop:
		logger.Info("⏹️ Task shut down", "ticks", ev.Tick, "duration", ev.Duration)
	case EventSwitch:
		logger.Info("🔀 Switching task", "next", ev.Next)
	case EventTerminate:
		logger.Info("🏁 Run terminated", "payload", ev.Payload)
	case EventFault:
		logger.Error("Task callback failed.", "phase", ev.Phase.String(), "tick", ev.Tick, "error", ev.Err)
	}
}

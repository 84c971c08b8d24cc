package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing records one span per task activation. Ticks become span events and
// faults are recorded as span errors.
type Tracing struct {
	tracer trace.Tracer
	span   trace.Span
}

// NewTracing returns a tracing observer backed by tracer.
func NewTracing(tracer trace.Tracer) *Tracing {
	return &Tracing{tracer: tracer}
}

// Observe implements Observer.
func (t *Tracing) Observe(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventStart:
		t.end()
		_, t.span = t.tracer.Start(ctx, "task "+ev.Task,
			trace.WithAttributes(
				attribute.String("task.name", ev.Task),
				attribute.Int64("task.activation", int64(ev.Activation)),
			))
	case EventTick:
		if t.span != nil {
			t.span.AddEvent("tick", trace.WithAttributes(
				attribute.Int64("task.tick", int64(ev.Tick)),
				attribute.String("task.tick_duration", ev.Duration.String()),
			))
		}
	case EventFault:
		if t.span != nil {
			t.span.RecordError(ev.Err, trace.WithAttributes(attribute.String("task.phase", ev.Phase.String())))
			t.span.SetStatus(codes.Error, fmt.Sprintf("%s failed", ev.Phase))
		}
	case EventStop:
		if t.span != nil {
			t.span.SetAttributes(attribute.Int64("task.ticks", int64(ev.Tick)))
		}
		t.end()
	}
}

func (t *Tracing) end() {
	if t.span != nil {
		t.span.End()
		t.span = nil
	}
}

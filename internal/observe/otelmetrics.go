package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics records run loop events through an OpenTelemetry meter, for
// deployments that push metrics instead of being scraped.
type OTelMetrics struct {
	activations  metric.Int64Counter
	ticks        metric.Int64Counter
	tickDuration metric.Float64Histogram
	faults       metric.Int64Counter
	active       metric.Int64UpDownCounter
}

// NewOTelMetrics creates the instruments on meter.
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	var m OTelMetrics
	var err, e error

	m.activations, e = meter.Int64Counter(namespace+".task.activations",
		metric.WithDescription("Number of task activations."))
	err = errors.Join(err, e)
	m.ticks, e = meter.Int64Counter(namespace+".task.ticks",
		metric.WithDescription("Number of completed ticks."))
	err = errors.Join(err, e)
	m.tickDuration, e = meter.Float64Histogram(namespace+".task.tick.duration",
		metric.WithDescription("Duration of a single tick."), metric.WithUnit("s"))
	err = errors.Join(err, e)
	m.faults, e = meter.Int64Counter(namespace+".task.faults",
		metric.WithDescription("Number of failed lifecycle callbacks."))
	err = errors.Join(err, e)
	m.active, e = meter.Int64UpDownCounter(namespace+".task.active",
		metric.WithDescription("Number of active tasks."))
	err = errors.Join(err, e)

	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Observe implements Observer.
func (m *OTelMetrics) Observe(ctx context.Context, ev Event) {
	byTask := metric.WithAttributes(attribute.String("task", ev.Task))
	switch ev.Kind {
	case EventStart:
		m.activations.Add(ctx, 1, byTask)
		m.active.Add(ctx, 1, byTask)
	case EventTick:
		m.ticks.Add(ctx, 1, byTask)
		m.tickDuration.Record(ctx, ev.Duration.Seconds(), byTask)
	case EventStop:
		m.active.Add(ctx, -1, byTask)
	case EventFault:
		m.faults.Add(ctx, 1, metric.WithAttributes(
			attribute.String("task", ev.Task),
			attribute.String("phase", ev.Phase.String()),
		))
	}
}

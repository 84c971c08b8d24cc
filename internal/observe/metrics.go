package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskloop"

// Metrics exports run loop events as Prometheus metrics.
type Metrics struct {
	activations  *prometheus.CounterVec
	ticks        *prometheus.CounterVec
	tickDuration *prometheus.HistogramVec
	switches     *prometheus.CounterVec
	faults       *prometheus.CounterVec
	terminations prometheus.Counter
	active       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_activations_total",
			Help:      "Number of task activations.",
		}, []string{"task"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_ticks_total",
			Help:      "Number of completed ticks.",
		}, []string{"task"}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_tick_duration_seconds",
			Help:      "Duration of a single tick.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"task"}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_switches_total",
			Help:      "Number of task switches.",
		}, []string{"from", "to"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_faults_total",
			Help:      "Number of failed lifecycle callbacks.",
		}, []string{"task", "phase"}),
		terminations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_terminations_total",
			Help:      "Number of runs ended by a terminate signal.",
		}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_active",
			Help:      "1 for the task currently active, 0 otherwise.",
		}, []string{"task"}),
	}

	for _, c := range []prometheus.Collector{
		m.activations, m.ticks, m.tickDuration, m.switches, m.faults, m.terminations, m.active,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe implements Observer.
func (m *Metrics) Observe(_ context.Context, ev Event) {
	switch ev.Kind {
	case EventStart:
		m.activations.WithLabelValues(ev.Task).Inc()
		m.active.WithLabelValues(ev.Task).Set(1)
	case EventTick:
		m.ticks.WithLabelValues(ev.Task).Inc()
		m.tickDuration.WithLabelValues(ev.Task).Observe(ev.Duration.Seconds())
	case EventStop:
		m.active.WithLabelValues(ev.Task).Set(0)
	case EventSwitch:
		m.switches.WithLabelValues(ev.Task, ev.Next).Inc()
	case EventTerminate:
		m.terminations.Inc()
	case EventFault:
		m.faults.WithLabelValues(ev.Task, ev.Phase.String()).Inc()
	}
}

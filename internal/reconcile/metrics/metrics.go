package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reconciliation pipeline.
type Metrics struct {
	// Reconciliation outcomes by result
	Outcome *prometheus.CounterVec

	// Incidents opened by severity
	IncidentsOpened *prometheus.CounterVec

	// Full processing latency per response
	ProcessLatency prometheus.Histogram
}

// New creates a new Metrics instance with all reconciliation metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talenttrack_reconcile_outcomes_total",
			Help: "Total reconciliation outcomes by result",
		}, []string{"outcome"}), // outcome: "created", "attached", "blocked", "failed", "noop"

		IncidentsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talenttrack_reconcile_incidents_total",
			Help: "Total incidents opened by the engine by severity",
		}, []string{"severity"}),

		ProcessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "talenttrack_reconcile_process_duration_seconds",
			Help:    "Duration of one reconciliation attempt including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementOutcome records one reconciliation result.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.Outcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementIncident records an incident opened by the engine.
func (m *Metrics) IncrementIncident(severity string) {
	if m != nil {
		m.IncidentsOpened.WithLabelValues(severity).Inc()
	}
}

// ObserveProcessLatency records the duration of one processing attempt.
func (m *Metrics) ObserveProcessLatency(d time.Duration) {
	if m != nil {
		m.ProcessLatency.Observe(d.Seconds())
	}
}

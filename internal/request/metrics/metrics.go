package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the request lifecycle.
type Metrics struct {
	// Transition attempts by from/to state and outcome code
	Transitions *prometheus.CounterVec

	// Full transition latency including retries
	TransitionLatency prometheus.Histogram

	// Optimistic concurrency retries
	Retries prometheus.Counter

	// Side effects queue
	EffectQueueDepth prometheus.Gauge
	EffectsDropped   *prometheus.CounterVec
	EffectsFailed    *prometheus.CounterVec
}

// New creates a new Metrics instance with all lifecycle metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigcerh_request_transitions_total",
			Help: "Request transition attempts by from state, target state and outcome",
		}, []string{"from", "to", "outcome"}), // outcome: "ok" or an error code

		TransitionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigcerh_request_transition_duration_seconds",
			Help:    "Duration of a transition including version conflict retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		Retries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigcerh_request_transition_retries_total",
			Help: "Transition attempts re-evaluated after a version conflict",
		}),

		EffectQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sigcerh_request_effect_queue_depth",
			Help: "Side effects waiting for the effect worker",
		}),

		EffectsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigcerh_request_effects_dropped_total",
			Help: "Side effects dropped because the queue was full",
		}, []string{"kind"}),

		EffectsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigcerh_request_effects_failed_total",
			Help: "Side effects whose execution failed",
		}, []string{"kind"}),
	}
}

// IncrementTransition records one transition outcome.
func (m *Metrics) IncrementTransition(from, to, outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to, outcome).Inc()
	}
}

// ObserveTransitionLatency records the total duration of a Transition call.
func (m *Metrics) ObserveTransitionLatency(d time.Duration) {
	if m != nil {
		m.TransitionLatency.Observe(d.Seconds())
	}
}

// IncrementRetry records one version conflict retry.
func (m *Metrics) IncrementRetry() {
	if m != nil {
		m.Retries.Inc()
	}
}

// QueueDepth returns the gauge the effect queue mirrors its depth into.
func (m *Metrics) QueueDepth() prometheus.Gauge {
	if m == nil {
		return nil
	}
	return m.EffectQueueDepth
}

// IncrementDropped records an effect rejected by a full queue.
func (m *Metrics) IncrementDropped(kind string) {
	if m != nil {
		m.EffectsDropped.WithLabelValues(kind).Inc()
	}
}

// IncrementFailed records an effect that failed to run.
func (m *Metrics) IncrementFailed(kind string) {
	if m != nil {
		m.EffectsFailed.WithLabelValues(kind).Inc()
	}
}

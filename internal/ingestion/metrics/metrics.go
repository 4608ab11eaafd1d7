package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ingestion pipeline.
type Metrics struct {
	Normalizations    *prometheus.CounterVec
	Rows              *prometheus.CounterVec
	NotesWritten      prometheus.Counter
	NormalizeDuration prometheus.Histogram
	LockWaits         prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Normalizations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigcerh_ingestion_normalizations_total",
			Help: "Normalization runs by partial failure mode and outcome",
		}, []string{"mode", "outcome"}),

		Rows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigcerh_ingestion_rows_total",
			Help: "Ledger rows processed by outcome",
		}, []string{"outcome"}), // linked, skipped, failed, truncated

		NotesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigcerh_ingestion_notes_written_total",
			Help: "Notes written by normalization",
		}),

		NormalizeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigcerh_ingestion_normalize_duration_seconds",
			Help:    "Duration of one record normalization",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		LockWaits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigcerh_ingestion_lock_unavailable_total",
			Help: "Normalizations rejected because the record lock could not be obtained",
		}),
	}
}

func (m *Metrics) IncrementNormalization(mode, outcome string) {
	if m != nil {
		m.Normalizations.WithLabelValues(mode, outcome).Inc()
	}
}

func (m *Metrics) AddRows(outcome string, n int) {
	if m != nil && n > 0 {
		m.Rows.WithLabelValues(outcome).Add(float64(n))
	}
}

func (m *Metrics) AddNotes(n int) {
	if m != nil && n > 0 {
		m.NotesWritten.Add(float64(n))
	}
}

func (m *Metrics) ObserveNormalizeDuration(d time.Duration) {
	if m != nil {
		m.NormalizeDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementLockUnavailable() {
	if m != nil {
		m.LockWaits.Inc()
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

const namespace = "obeya"

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

// Metrics holds the pipeline collectors
type Metrics struct {
	rowsRejected  *prometheus.CounterVec
	runs          *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	sourceRows    prometheus.Gauge
	lastRefresh   prometheus.Gauge
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		rowsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Rows dropped or flagged by the pipeline, by reason.",
		}, []string{"reason"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline executions by outcome.",
		}, []string{"outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of extract, transform and load phases.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.05,
				0.1, 0.5, 1, 2, 5, 10, 30,
			},
		}, []string{"phase"}),
		sourceRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_rows",
			Help:      "Rows read by the last ingest.",
		}),
		lastRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful source refresh.",
		}),
	}
}

// ObserveRejections counts rejections per reason
func (m *Metrics) ObserveRejections(rejections []models.Rejection) {
	for _, rej := range rejections {
		m.rowsRejected.WithLabelValues(string(rej.Reason)).Inc()
	}
}

// ObserveRun counts one pipeline execution
func (m *Metrics) ObserveRun(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
}

// ObserveCache counts one cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObservePhase records how long a phase took
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveRefresh records a successful source refresh
func (m *Metrics) ObserveRefresh(rows int, at time.Time) {
	m.sourceRows.Set(float64(rows))
	m.lastRefresh.Set(float64(at.Unix()))
}

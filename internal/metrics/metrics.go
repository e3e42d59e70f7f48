// Package metrics exposes Prometheus instruments for statement processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	documents    *prometheus.CounterVec
	transactions *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	warnings     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// New registers the statement collectors, plus Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_documents_total",
			Help: "Statements processed, by dialect and outcome.",
		}, []string{"dialect", "status"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_transactions_total",
			Help: "Transactions extracted, by dialect and kind.",
		}, []string{"dialect", "kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_skipped_candidates_total",
			Help: "Transaction candidates that could not be assembled.",
		}, []string{"dialect"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_warnings_total",
			Help: "Validation warnings, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statement_parse_duration_seconds",
			Help:    "Time spent parsing one statement.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"dialect"}),
	}
	m.registry.MustRegister(
		m.documents, m.transactions, m.skipped, m.warnings, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveDocument counts one processed statement and its parse time.
func (m *Metrics) ObserveDocument(dialect, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if dialect == "" {
		dialect = "unknown"
	}
	m.documents.WithLabelValues(dialect, status).Inc()
	if status == StatusOK {
		m.duration.WithLabelValues(dialect).Observe(elapsed.Seconds())
	}
}

// AddTransactions counts n extracted transactions.
func (m *Metrics) AddTransactions(dialect, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.transactions.WithLabelValues(dialect, kind).Add(float64(n))
}

// AddSkipped counts n candidates that failed assembly.
func (m *Metrics) AddSkipped(dialect string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(dialect).Add(float64(n))
}

// AddWarning counts one validation warning.
func (m *Metrics) AddWarning(kind string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package metrics exposes Prometheus counters for highlight extraction runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "highlights"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the extraction collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// DocumentsTotal counts processed documents.
	// Labels: result (success, error)
	DocumentsTotal *prometheus.CounterVec

	// HighlightsTotal counts highlights written across all documents.
	HighlightsTotal prometheus.Counter

	// DocumentDuration tracks how long a single document takes.
	DocumentDuration prometheus.Histogram
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Total number of processed documents by result",
			},
			[]string{"result"},
		),
		HighlightsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "highlights_total",
				Help:      "Total number of highlights written",
			},
		),
		DocumentDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_duration_seconds",
				Help:      "Duration of single document extraction in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// ObserveDocument records the outcome of one document
func (m *Metrics) ObserveDocument(highlights int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.DocumentsTotal.WithLabelValues(result).Inc()
	m.HighlightsTotal.Add(float64(highlights))
	m.DocumentDuration.Observe(elapsed.Seconds())
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package api

import (
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the Prometheus metrics of the prediction facade
type Metrics struct {
	Predictions      *prometheus.CounterVec
	Specificity      *prometheus.CounterVec
	Minutes          prometheus.Histogram
	LatencyHistogram *prometheus.HistogramVec
	registry         *prometheus.Registry
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// NewMetrics creates and registers all metrics (singleton pattern for tests).
// The prefix of the first call wins.
func NewMetrics(prefix string) *Metrics {
	metricsOnce.Do(func() {
		if prefix == "" {
			prefix = "parkbeat"
		}
		registry := prometheus.NewRegistry()

		m := &Metrics{
			Predictions: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: prefix + "_predictions_total",
					Help: "Prediction invocations by response status and error kind",
				},
				[]string{"status", "kind"},
			),
			Specificity: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: prefix + "_historical_specificity_total",
					Help: "Successful predictions by historical specificity level",
				},
				[]string{"level"},
			),
			Minutes: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    prefix + "_predicted_minutes",
					Help:    "Final predicted wait time in minutes",
					Buckets: []float64{5, 10, 15, 20, 30, 45, 60, 90, 120, 180},
				},
			),
			LatencyHistogram: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    prefix + "_invocation_duration_seconds",
					Help:    "Invocation latency in seconds, artifact loading included",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"status"},
			),
			registry: registry,
		}

		registry.MustRegister(m.Predictions)
		registry.MustRegister(m.Specificity)
		registry.MustRegister(m.Minutes)
		registry.MustRegister(m.LatencyHistogram)

		metricsInstance = m
	})

	return metricsInstance
}

// RecordSuccess counts a successful prediction
func (m *Metrics) RecordSuccess(level string, minutes float64) {
	m.Predictions.WithLabelValues("200", "").Inc()
	m.Specificity.WithLabelValues(level).Inc()
	m.Minutes.Observe(minutes)
}

// RecordFailure counts a rejected or failed invocation
func (m *Metrics) RecordFailure(status, kind string) {
	m.Predictions.WithLabelValues(status, kind).Inc()
}

// RecordLatency records invocation latency
func (m *Metrics) RecordLatency(status string, seconds float64) {
	m.LatencyHistogram.WithLabelValues(status).Observe(seconds)
}

// WriteText writes every metric in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// ResetMetricsForTesting resets the singleton for testing
func ResetMetricsForTesting() {
	metricsInstance = nil
	metricsOnce = sync.Once{}
}

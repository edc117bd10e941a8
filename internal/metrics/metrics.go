// Package metrics exposes evaluation counters and histograms to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anomalyeval"

// Evaluation modes
const (
	ModeDetect = "detect"
	ModeScore  = "score"
	ModeJob    = "job"
)

// Evaluation outcomes
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Metrics holds the evaluation collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	evaluations        *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	lastMAP            *prometheus.GaugeVec
	averagePrecision   prometheus.Histogram
	publishFailures    prometheus.Counter
	groundTruthWindows prometheus.Histogram
}

// New creates and registers the collectors. Go runtime and process
// collectors are included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total evaluations by mode and outcome.",
		}, []string{"mode", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Histogram of evaluation durations by mode.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"mode"}),
		lastMAP: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_map",
			Help:      "mAP of the most recent evaluation per detector.",
		}, []string{"detector"}),
		averagePrecision: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "average_precision",
			Help:      "Distribution of per-threshold average precision.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_failures_total",
			Help:      "Reports that could not be published to the queue.",
		}),
		groundTruthWindows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ground_truth_windows",
			Help:      "Number of ground-truth windows per evaluation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.evaluations,
		m.duration,
		m.lastMAP,
		m.averagePrecision,
		m.publishFailures,
		m.groundTruthWindows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry backing m
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEvaluation records a finished evaluation. detector is empty for
// externally scored detection tables.
func (m *Metrics) ObserveEvaluation(mode, detector string, mapScore float64, aps []float64, groundTruth int, elapsed time.Duration) {
	m.evaluations.WithLabelValues(mode, StatusOK).Inc()
	m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if detector == "" {
		detector = "external"
	}
	m.lastMAP.WithLabelValues(detector).Set(mapScore)
	for _, ap := range aps {
		m.averagePrecision.Observe(ap)
	}
	m.groundTruthWindows.Observe(float64(groundTruth))
}

// ObserveFailure records an evaluation that did not produce a report
func (m *Metrics) ObserveFailure(mode, status string) {
	m.evaluations.WithLabelValues(mode, status).Inc()
}

// ObservePublishFailure records a report that was not published
func (m *Metrics) ObservePublishFailure() {
	m.publishFailures.Inc()
}

// Handler returns the exposition handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

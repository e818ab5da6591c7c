// Package metrics exposes Prometheus instruments for the analyze pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maxpollack/Menu/internal/imagebudget"
)

// Outcome labels for analyze requests.
const (
	OutcomeOK          = "ok"
	OutcomeRaw         = "raw"
	OutcomeClientError = "client_error"
	OutcomeFailed      = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	compressionAttempts *prometheus.CounterVec
	compressedBytes     prometheus.Histogram
	analyzeRequests     *prometheus.CounterVec
	collaboratorLatency *prometheus.HistogramVec
}

// New registers every instrument on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		compressionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menu",
			Name:      "compression_attempts_total",
			Help:      "Ladder rungs tried, by quality and whether the output fit.",
		}, []string{"quality", "accepted"}),

		compressedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "menu",
			Name:      "compression_output_bytes",
			Help:      "Size of each encoded ladder attempt.",
			Buckets:   prometheus.ExponentialBuckets(64<<10, 2, 8),
		}),

		analyzeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "menu",
			Name:      "analyze_requests_total",
			Help:      "Analyze requests by outcome.",
		}, []string{"outcome"}),

		collaboratorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "menu",
			Name:      "collaborator_call_seconds",
			Help:      "Vision model call latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}, []string{"provider", "success"}),
	}

	m.registry.MustRegister(
		m.compressionAttempts,
		m.compressedBytes,
		m.analyzeRequests,
		m.collaboratorLatency,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveAttempt implements imagebudget.Observer.
func (m *Metrics) ObserveAttempt(a imagebudget.Attempt, size int, accepted bool) {
	m.compressionAttempts.WithLabelValues(strconv.Itoa(a.Quality), strconv.FormatBool(accepted)).Inc()
	m.compressedBytes.Observe(float64(size))
}

func (m *Metrics) AnalyzeOutcome(outcome string) {
	m.analyzeRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CollaboratorCall(provider string, d time.Duration, err error) {
	m.collaboratorLatency.WithLabelValues(provider, strconv.FormatBool(err == nil)).Observe(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

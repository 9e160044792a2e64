// Package metrics exposes Prometheus metrics for live sessions, generation
// calls and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-go/vai-studio/pkg/core/live"
)

// Metrics holds all Prometheus metrics for the studio.
type Metrics struct {
	registry *prometheus.Registry

	// Live session metrics
	LiveSessionsActive     prometheus.Gauge
	LiveSessionsTotal      *prometheus.CounterVec
	LiveSessionDuration    prometheus.Histogram
	UplinkChunksTotal      *prometheus.CounterVec
	PlaybackBuffersTotal   prometheus.Counter
	PlaybackSecondsTotal   prometheus.Counter
	LiveInterruptionsTotal prometheus.Counter

	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

var _ live.Recorder = (*Metrics)(nil)

// New creates a Metrics instance with every metric registered on a private
// registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "studio"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		LiveSessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions_active",
			Help:      "Number of live sessions that have started and not ended",
		}),
		LiveSessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_sessions_total",
			Help:      "Total number of finished live sessions",
		}, []string{"status"}),
		LiveSessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "live_session_duration_seconds",
			Help:      "Live session duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		UplinkChunksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_uplink_chunks_total",
			Help:      "Captured audio chunks by send outcome",
		}, []string{"outcome"}),
		PlaybackBuffersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_playback_buffers_total",
			Help:      "Model audio buffers scheduled for playback",
		}),
		PlaybackSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_playback_seconds_total",
			Help:      "Seconds of model audio scheduled for playback",
		}),
		LiveInterruptionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_interruptions_total",
			Help:      "Model turns interrupted by the user",
		}),
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation requests by kind, model and status",
		}, []string{"kind", "model", "status"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"kind", "model"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"method", "route"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by component and type",
		}, []string{"component", "error_type"}),
	}

	registry.MustRegister(
		m.LiveSessionsActive,
		m.LiveSessionsTotal,
		m.LiveSessionDuration,
		m.UplinkChunksTotal,
		m.PlaybackBuffersTotal,
		m.PlaybackSecondsTotal,
		m.LiveInterruptionsTotal,
		m.GenerationsTotal,
		m.GenerationDuration,
		m.RequestsTotal,
		m.RequestDuration,
		m.ErrorsTotal,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSessionStart records a live session starting.
func (m *Metrics) RecordSessionStart() {
	m.LiveSessionsActive.Inc()
}

// RecordSessionEnd records a live session reaching a final state.
func (m *Metrics) RecordSessionEnd(final live.SessionState, duration time.Duration) {
	m.LiveSessionsActive.Dec()
	m.LiveSessionsTotal.WithLabelValues(final.String()).Inc()
	m.LiveSessionDuration.Observe(duration.Seconds())
}

// RecordUplink records what happened to one captured chunk.
func (m *Metrics) RecordUplink(outcome live.SendOutcome) {
	m.UplinkChunksTotal.WithLabelValues(outcome.String()).Inc()
}

// RecordPlaybackScheduled records one buffer placed on the output timeline.
func (m *Metrics) RecordPlaybackScheduled(seconds float64) {
	m.PlaybackBuffersTotal.Inc()
	m.PlaybackSecondsTotal.Add(seconds)
}

// RecordInterruption records a model turn cut short.
func (m *Metrics) RecordInterruption() {
	m.LiveInterruptionsTotal.Inc()
}

// RecordGeneration records a completed search, image or video request.
func (m *Metrics) RecordGeneration(kind, model, status string, duration time.Duration) {
	m.GenerationsTotal.WithLabelValues(kind, model, status).Inc()
	m.GenerationDuration.WithLabelValues(kind, model).Observe(duration.Seconds())
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError records an error.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

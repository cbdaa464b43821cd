// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RunsTotal tracks total collaboration runs started.
	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collab_runs_total",
			Help: "Total collaboration runs started",
		},
	)

	// ParticipantsTotal tracks participant stream outcomes.
	ParticipantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_participants_total",
			Help: "Participant streams attempted, by outcome",
		},
		[]string{"provider", "status"},
	)

	// ParticipantStreamDuration tracks per-participant streaming duration.
	ParticipantStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collab_participant_stream_duration_seconds",
			Help:    "Participant streaming response duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "model", "status"},
	)

	// TokensTotal tracks vendor tokens processed.
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_tokens_total",
			Help: "Vendor tokens processed",
		},
		[]string{"provider", "model", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTokens records vendor token usage for a participant stream.
func RecordTokens(provider, model string, tokensIn, tokensOut int) {
	TokensTotal.WithLabelValues(provider, model, "in").Add(float64(tokensIn))
	TokensTotal.WithLabelValues(provider, model, "out").Add(float64(tokensOut))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

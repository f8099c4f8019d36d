// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the skizze server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference
// latencies, ranging from 100ms to 300s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// ProvisionBuckets defines histogram buckets for sandbox provisioning,
// ranging from 100ms to 60s.
var ProvisionBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skizze_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skizze_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// StreamingConnections tracks the number of active generation streams.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skizze_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// GenerationsTotal counts generation calls by provider, model, and outcome.
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skizze_generations_total",
			Help: "Generation calls",
		},
		[]string{"provider", "model", "status"},
	)

	// GenerationDuration records generation call latency in seconds.
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skizze_generation_duration_seconds",
			Help:    "Generation latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// SandboxCreationsTotal counts sandbox creations by template and outcome.
	SandboxCreationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skizze_sandbox_creations_total",
			Help: "Sandbox creations",
		},
		[]string{"template", "status"},
	)

	// ProvisionDuration records whole provisioning attempts in seconds.
	ProvisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skizze_provision_duration_seconds",
			Help:    "Provisioning latency",
			Buckets: ProvisionBuckets,
		},
		[]string{"template"},
	)

	// ArtifactViewsTotal counts recorded artifact views.
	ArtifactViewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skizze_artifact_views_total",
			Help: "Artifact view increments",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		GenerationsTotal,
		GenerationDuration,
		SandboxCreationsTotal,
		ProvisionDuration,
		ArtifactViewsTotal,
	)
}

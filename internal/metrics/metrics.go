// Package metrics provides Prometheus metrics for statushook.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "statushook"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Webhook pipeline metrics
var (
	// EventsRecorded counts successfully recorded events.
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_recorded_total",
			Help:      "Total events recorded, by event type and storage method",
		},
		[]string{"event_type", "storage_method"},
	)

	// MalformedPayloads counts rejected payloads.
	MalformedPayloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "malformed_payloads_total",
			Help:      "Total webhook payloads rejected as malformed",
		},
	)

	// AuthFailures counts rejected credentials.
	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "auth_failures_total",
			Help:      "Total webhook requests rejected for missing or invalid credentials",
		},
	)
)

// Resolver metrics
var (
	// ResolverLookups counts service resolution outcomes.
	ResolverLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "lookups_total",
			Help:      "Total service resolutions, by outcome (explicit, resolved, unresolved, timeout, error)",
		},
		[]string{"outcome"},
	)
)

// Sink metrics
var (
	// SinkWrites counts sink write attempts by sink and outcome.
	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "writes_total",
			Help:      "Total sink writes, by sink and outcome (ok, duplicate, error)",
		},
		[]string{"sink", "outcome"},
	)
)

// Replay metrics
var (
	// ReplayProcessed counts archive entries re-driven through the pipeline.
	ReplayProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "processed_total",
			Help:      "Total archived payloads successfully replayed",
		},
	)

	// ReplaySkipped counts archive entries skipped during replay.
	ReplaySkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "skipped_total",
			Help:      "Total archived payloads skipped (corrupt or already processed)",
		},
	)
)

// Package metrics holds the Prometheus instruments shared by both services.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live stream registry
	StreamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carrec_stream_connections",
			Help: "Live websocket connections registered on this instance",
		},
	)

	StreamBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrec_stream_broadcasts_total",
			Help: "Broadcasts issued to the local registry",
		},
		[]string{"source"}, // "local", "relay"
	)

	StreamDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_stream_deliveries_total",
			Help: "Frames enqueued to individual connections",
		},
	)

	StreamEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_stream_evictions_total",
			Help: "Connections evicted after a failed send",
		},
	)

	// Comment ingestion
	CommentsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_comments_stored_total",
			Help: "Comments persisted through live connections",
		},
	)

	CommentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrec_comments_rejected_total",
			Help: "Comment submissions that were not stored",
		},
		[]string{"reason"}, // "validation", "storage"
	)

	// Bus
	BusPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_bus_published_total",
			Help: "Comment events published to the bus",
		},
	)

	BusPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_bus_publish_failures_total",
			Help: "Comment events that could not be published",
		},
	)

	RelayReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_relay_received_total",
			Help: "Messages received by the relay listener",
		},
	)

	RelayDecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_relay_decode_failures_total",
			Help: "Bus messages discarded because they could not be decoded",
		},
	)

	RelaySubscriptions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carrec_relay_subscriptions_total",
			Help: "Bus subscriptions opened by the relay (restarts included)",
		},
	)

	// Bounded concurrency gates
	GateInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "carrec_gate_in_flight",
			Help: "Callers currently holding a gate slot",
		},
		[]string{"gate"},
	)

	GateWaiting = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "carrec_gate_waiting",
			Help: "Callers suspended waiting for a gate slot",
		},
		[]string{"gate"},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carrec_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrec_upstream_requests_total",
			Help: "Calls from the user service to the post service",
		},
		[]string{"outcome"}, // "ok", "error", "timeout", "open"
	)
)

// RecordHTTPRequest observes a finished request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

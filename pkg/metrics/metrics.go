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

	// MessagesIngested tracks accepted messages per channel.
	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Messages accepted by the ingestion pipeline",
		},
		[]string{"channel"},
	)

	// DuplicateMessages tracks idempotency conflicts per channel.
	DuplicateMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_duplicates_total",
			Help: "Ingestion attempts rejected as already-delivered",
		},
		[]string{"channel"},
	)

	// IngestFailures tracks rejected messages per channel and error code.
	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_failures_total",
			Help: "Ingestion attempts rejected before persistence",
		},
		[]string{"channel", "code"},
	)

	// ConversationPriority observes computed conversation priorities.
	ConversationPriority = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conversation_priority",
			Help:    "Computed conversation priority scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"channel"},
	)

	// ConversationsCreated tracks conversations created per channel.
	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_created_total",
			Help: "Conversations created lazily by ingestion",
		},
		[]string{"channel"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// BusEventsTotal tracks events published on the change notifier.
	BusEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_events_total",
			Help: "Events published on the change notifier",
		},
		[]string{"type"},
	)

	// BusSubscribersDropped tracks subscribers dropped for falling behind.
	BusSubscribersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_subscribers_dropped_total",
			Help: "Subscribers dropped because their event queue was full",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordIngest records a successful ingestion and its computed priority.
func RecordIngest(channel string, priority int) {
	MessagesIngested.WithLabelValues(channel).Inc()
	ConversationPriority.WithLabelValues(channel).Observe(float64(priority))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

// Fleetwatch - Yacht Fleet AIS Position Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry through promauto.
// Call sites use the Record* helpers rather than touching label values
// directly, so label sets stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed connection states as exported by AISConnectionState.
const (
	ConnStateDisconnected = 0
	ConnStateConnecting   = 1
	ConnStateSubscribed   = 2
)

var (
	// AIS feed
	AISFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_frames_total",
			Help: "Inbound feed frames by processing result",
		},
		[]string{"result"}, // position, ignored, undecodable, missing_identifier, panic
	)

	AISConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ais_connection_state",
			Help: "Feed connection state (0=disconnected, 1=connecting, 2=subscribed)",
		},
	)

	AISConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_connect_attempts_total",
			Help: "Feed dial attempts by result",
		},
		[]string{"result"},
	)

	AISReconnectsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ais_reconnects_scheduled_total",
			Help: "Reconnect attempts scheduled after a feed close",
		},
	)

	AISIdleCloses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ais_idle_closes_total",
			Help: "Feed connections closed by the idle reaper",
		},
	)

	PositionCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ais_position_cache_entries",
			Help: "Vessels with a cached live position",
		},
	)

	// Persistence
	PersistenceWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_persistence_writes_total",
			Help: "Position writes to the vessel store by result",
		},
		[]string{"result"}, // updated, no_match, error
	)

	PersistenceQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ais_persistence_queue_depth",
			Help: "Position updates waiting for the persistence worker",
		},
	)

	PersistenceQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ais_persistence_queue_dropped_total",
			Help: "Position updates dropped because the persistence queue was full",
		},
	)

	// Upstream REST
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_upstream_requests_total",
			Help: "Upstream vessel API requests by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ais_upstream_request_duration_seconds",
			Help:    "Upstream vessel API latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Query surface
	FallbackServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_fallback_served_total",
			Help: "Responses served from sample or synthetic data",
		},
		[]string{"kind"}, // sample, synthetic, default_details, fleet_sample
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "DuckDB query errors",
		},
		[]string{"operation"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "HTTP requests in flight",
		},
	)

	// Live position stream
	LiveClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_clients_connected",
			Help: "Browser clients subscribed to the live position stream",
		},
	)

	LiveMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "live_messages_dropped_total",
			Help: "Live position messages dropped for slow clients",
		},
	)

	// Position events (NATS)
	PositionEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "position_events_published_total",
			Help: "Position events published to the message bus by result",
		},
		[]string{"result"},
	)

	// Write spool
	WALOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wal_operations_total",
			Help: "Write spool operations by type and result",
		},
		[]string{"operation", "result"}, // write/confirm/retry/expire
	)

	WALPendingEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wal_pending_entries",
			Help: "Spooled position writes awaiting retry",
		},
	)
)

// RecordFrame counts one processed feed frame.
func RecordFrame(result string) {
	AISFramesTotal.WithLabelValues(result).Inc()
}

// SetConnectionState exports the feed state.
func SetConnectionState(state int) {
	AISConnectionState.Set(float64(state))
}

// RecordConnectAttempt counts a dial attempt.
func RecordConnectAttempt(err error) {
	if err != nil {
		AISConnectAttempts.WithLabelValues("failure").Inc()
		return
	}
	AISConnectAttempts.WithLabelValues("success").Inc()
}

// RecordPersistence counts a vessel store write.
func RecordPersistence(result string) {
	PersistenceWrites.WithLabelValues(result).Inc()
}

// RecordUpstreamRequest records one upstream REST call.
func RecordUpstreamRequest(endpoint string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	UpstreamRequests.WithLabelValues(endpoint, result).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWAL counts a write spool operation.
func RecordWAL(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	WALOperations.WithLabelValues(operation, result).Inc()
}

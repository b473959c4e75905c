// Package observability holds Prometheus collectors and OpenTelemetry setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formstack_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formstack_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formstack_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})

	// RecordsWritten counts successful writes per entity and operation.
	RecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formstack_records_written_total",
		Help: "Successful writes by entity and operation",
	}, []string{"entity", "operation"})

	// AuthEvents counts authentication outcomes (login_success, login_failure, refresh, revoked).
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formstack_auth_events_total",
		Help: "Authentication events by outcome",
	}, []string{"event"})
)

// RecordWrite increments the write counter for entity/operation.
func RecordWrite(entity, operation string) {
	RecordsWritten.WithLabelValues(entity, operation).Inc()
}

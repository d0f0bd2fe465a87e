// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agora_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// NotificationsDispatched counts notifications handed to a dispatcher.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_notifications_dispatched_total",
		Help: "Total number of notifications delivered by event type",
	}, []string{"event_type"})

	// NotificationsFailed counts notifications whose delivery returned an error.
	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_notifications_failed_total",
		Help: "Total number of failed notification deliveries by event type",
	}, []string{"event_type"})

	// NotificationsDropped counts fanout jobs dropped because the queue was full or closed.
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_notifications_dropped_total",
		Help: "Total number of notification fanout jobs dropped",
	}, []string{"reason"})

	// CascadeSize observes how many replies a single delete soft-deleted.
	CascadeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agora_cascade_delete_size",
		Help:    "Number of replies removed by a cascading delete",
		Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000, 5000},
	})

	// CounterAdjustments counts denormalized counter mutations by column and direction.
	CounterAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_counter_adjustments_total",
		Help: "Total number of denormalized counter adjustments",
	}, []string{"table", "column", "direction"})

	// IdentityCacheLookups counts identity cache hits and misses.
	IdentityCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_identity_cache_lookups_total",
		Help: "Identity cache lookups by result",
	}, []string{"result"})
)

// DatabaseMetrics records query latency for one table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

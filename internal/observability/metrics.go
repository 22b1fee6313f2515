// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indexer.
type Metrics struct {
	// Engine metrics
	EventsProcessed    *prometheus.CounterVec
	EventsSkipped      *prometheus.CounterVec
	DuplicateEvents    prometheus.Counter
	HandlerErrors      *prometheus.CounterVec
	HandlerLatency     *prometheus.HistogramVec

	// Domain metrics
	TokensCreated   prometheus.Counter
	TokensMigrated  prometheus.Counter
	TradesIndexed   *prometheus.CounterVec
	PositionsClosed prometheus.Counter

	// Feed metrics
	FeedMessages    prometheus.Counter
	FeedReconnects  prometheus.Counter
	FeedDecodeErrors prometheus.Counter

	// Storage metrics
	StoreErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "launch_indexer"
	}

	return &Metrics{
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_processed_total",
			Help:      "Total number of feed events applied, by kind",
		}, []string{"kind"}),
		EventsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_skipped_total",
			Help:      "Total number of feed events skipped, by reason",
		}, []string{"reason"}),
		DuplicateEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "duplicate_events_total",
			Help:      "Total number of redelivered events dropped as idempotent no-ops",
		}),
		HandlerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "handler_errors_total",
			Help:      "Total number of handler failures, by kind",
		}, []string{"kind"}),
		HandlerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "handler_duration_seconds",
			Help:      "Event handler latency by kind",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"kind"}),

		TokensCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "domain",
			Name:      "tokens_created_total",
			Help:      "Total number of token aggregates created",
		}),
		TokensMigrated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "domain",
			Name:      "tokens_migrated_total",
			Help:      "Total number of tokens migrated to open liquidity",
		}),
		TradesIndexed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "domain",
			Name:      "trades_indexed_total",
			Help:      "Total number of trades written to the bonding event log, by type",
		}, []string{"type"}),
		PositionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "domain",
			Name:      "positions_closed_total",
			Help:      "Total number of positions whose balance returned to zero",
		}),

		FeedMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Total number of feed messages received",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnect attempts",
		}),
		FeedDecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "decode_errors_total",
			Help:      "Total number of feed messages that failed to decode",
		}),

		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total number of storage errors, by store",
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics defines Prometheus metrics for the market history collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mhc"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Market API metrics.
var (
	MarketRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_requests_total",
		Help:      "Total marketplace API requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	MarketRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "market_request_duration_seconds",
		Help:      "Duration of marketplace API requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	ThrottleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "throttle_responses_total",
		Help:      "Total number of throttle responses received from the marketplace API.",
	})
)

// Rate budget metrics.
var (
	BudgetDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "budget_denials_total",
		Help:      "Total budget acquisition denials by scope and operation.",
	}, []string{"scope", "operation"})

	BudgetPenaltiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "budget_penalties_total",
		Help:      "Total penalties applied to budget windows.",
	}, []string{"scope", "operation"})

	BudgetDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "budget_daily_usage",
		Help:      "Requests consumed within the rolling daily window.",
	})

	BudgetDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "budget_daily_limit_hits_total",
		Help:      "Total number of times the daily request limit was reached.",
	})
)

// Work queue metrics.
var (
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current number of items waiting in the work queue.",
	})

	QueueEnqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_enqueued_total",
		Help:      "Total items enqueued by priority tier.",
	}, []string{"priority"})

	QueueDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_dropped_total",
		Help:      "Total items dropped because the queue was at capacity.",
	})

	QueueDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_duplicates_total",
		Help:      "Total enqueue attempts rejected because the key was already queued.",
	})
)

// Collection metrics.
var (
	ItemsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_discovered_total",
		Help:      "Total items seen by the discovery walk.",
	})

	ObservationsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_written_total",
		Help:      "Total observation rows written to the store.",
	})

	ObservationsInvalidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_invalid_total",
		Help:      "Total observation rows dropped by row-level validation.",
	})

	FreshSkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fresh_skips_total",
		Help:      "Total items skipped because their history was still fresh.",
	})

	FetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_retries_total",
		Help:      "Total transient-failure retries during history fetches.",
	})

	ItemsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_dropped_total",
		Help:      "Total items dropped for the cycle after exhausting retries.",
	})

	DiscoveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "discovery_duration_seconds",
		Help:      "Duration of discovery walks in seconds.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Health metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Whether the last /healthz check succeeded (1) or failed (0).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Whether the last /readyz check succeeded (1) or failed (0).",
	})
)

// Notification metrics.
var (
	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures.",
	})
)

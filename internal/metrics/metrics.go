// Package metrics defines the Prometheus collectors used across the explorer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feature cache metrics, labelled by entity kind.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_feature_cache_hits_total",
			Help: "Total number of feature cache hits",
		},
		[]string{"kind"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_feature_cache_misses_total",
			Help: "Total number of feature cache misses",
		},
		[]string{"kind"},
	)

	CacheFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_feature_fetch_failures_total",
			Help: "Total number of cache misses whose provider fetch failed",
		},
		[]string{"kind"},
	)

	CachePersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_feature_cache_persist_failures_total",
			Help: "Total number of failed full-map cache writes",
		},
		[]string{"kind"},
	)

	CacheRestores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_feature_cache_restores_total",
			Help: "Total number of in-memory caches replaced from backup after a failed write",
		},
		[]string{"kind"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "explorer_feature_cache_entries",
			Help: "Current number of records held in memory",
		},
		[]string{"kind"},
	)

	// Provider metrics, labelled by operation.
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_provider_requests_total",
			Help: "Total number of catalog provider requests",
		},
		[]string{"operation", "status"}, // status: "ok", "error", "open"
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_provider_request_duration_seconds",
			Help:    "Duration of catalog provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Recommendation metrics, labelled by entity kind.
	RecommendFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_recommend_fallbacks_total",
			Help: "Total number of recommendation requests that fell back to the single popular query",
		},
		[]string{"kind"},
	)
)

// Package metrics declares the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinereco_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinereco_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinereco_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "error"
	)

	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinereco_strategy_duration_seconds",
			Help:    "Duration of a single recommendation strategy",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"strategy"},
	)

	StrategyResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinereco_strategy_results",
			Help:    "Number of movies returned by a strategy",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"strategy"},
	)

	StrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinereco_strategy_failures_total",
			Help: "Strategies that failed and degraded to an empty list",
		},
		[]string{"strategy"},
	)

	GenreFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinereco_genre_fallbacks_total",
			Help: "Genre strategy runs that relaxed to the first genre only",
		},
	)

	SearchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinereco_search_results_total",
			Help: "Title searches by result status",
		},
		[]string{"status"},
	)

	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinereco_search_cache_hits_total",
			Help: "Title searches served from cache",
		},
	)

	SearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinereco_search_cache_misses_total",
			Help: "Title searches computed against the catalog",
		},
	)

	SnapshotMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinereco_snapshot_movies",
			Help: "Number of movies in the loaded snapshot",
		},
	)

	SnapshotBuildDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinereco_snapshot_build_seconds",
			Help: "Time spent loading the snapshot and building the similarity index",
		},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordStrategy records the outcome of one strategy run.
func RecordStrategy(strategy string, results int, duration time.Duration, failed bool) {
	StrategyDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	StrategyResults.WithLabelValues(strategy).Observe(float64(results))
	if failed {
		StrategyFailures.WithLabelValues(strategy).Inc()
	}
}

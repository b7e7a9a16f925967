package metrics

import "github.com/prometheus/client_golang/prometheus"

// Case search and cache Prometheus metrics.
var (
	RemoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casefinder",
			Name:      "remote_requests_total",
			Help:      "Outbound case repository requests by outcome",
		},
		// ok, no_results, rate_limited, blocked, http_error, network_error, parse_error
		[]string{"outcome"},
	)

	RemoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casefinder",
			Name:      "remote_request_duration_seconds",
			Help:      "Duration of a single outbound search attempt in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"outcome"},
	)

	SearchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "casefinder",
			Name:      "search_retries_total",
			Help:      "Search attempts that were retried after a failure",
		},
	)

	SearchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "casefinder",
			Name:      "search_failures_total",
			Help:      "Searches that exhausted their retry budget",
		},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casefinder",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "expired" / "error"
	)

	CacheSweepRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casefinder",
			Name:      "cache_sweep_removed_total",
			Help:      "Cache records removed by the sweeper",
		},
		[]string{"reason"}, // "expired" / "corrupt"
	)

	CacheSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casefinder",
			Name:      "cache_sweeps_total",
			Help:      "Sweeper passes by status",
		},
		[]string{"status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(RemoteRequestsTotal)
	prometheus.MustRegister(RemoteRequestDuration)
	prometheus.MustRegister(SearchRetriesTotal)
	prometheus.MustRegister(SearchFailuresTotal)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(CacheSweepRemovedTotal)
	prometheus.MustRegister(CacheSweepsTotal)
	searchMetricsRegistered = true
}

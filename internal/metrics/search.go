package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "status"},
	)

	SearchSignalDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "search_signal_degraded_total",
			Help:      "Retrieval signals that failed and were degraded to absent",
		},
		[]string{"signal"},
	)

	SearchDroppedCandidatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bazaar",
			Name:      "search_dropped_candidates_total",
			Help:      "Candidates dropped by the sanitizer for failing schema validation",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchSignalDegradedTotal)
	prometheus.MustRegister(SearchDroppedCandidatesTotal)
	searchMetricsRegistered = true
}

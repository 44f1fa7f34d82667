package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and suggestion Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suggestd",
			Name:      "search_requests_total",
			Help:      "Similarity searches by serving path",
		},
		[]string{"collection", "source"}, // source: local / remote / fallback
	)

	SearchResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "suggestd",
			Name:      "search_results_returned",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
		},
		[]string{"collection"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suggestd",
			Name:      "search_cache_total",
			Help:      "Remote search result cache hits and misses",
		},
		[]string{"result"},
	)

	SuggestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suggestd",
			Name:      "suggestions_total",
			Help:      "Composed suggestion sets by kind and category",
		},
		[]string{"kind", "category"},
	)
)

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and similarity Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "searches_total",
			Help:      "Total number of searches by mode",
		},
		[]string{"mode"}, // "vector" / "keyword" / "hybrid"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docdex",
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "search_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "search_degraded_total",
			Help:      "Hybrid searches degraded to keyword-only after an embedding failure",
		},
	)

	SimilarityChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "similarity_checks_total",
			Help:      "Document pairs scored by the similarity detector",
		},
		[]string{"outcome"}, // "flagged" / "clean" / "failed"
	)

	SimilarityRecordsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "similarity_records_swept_total",
			Help:      "Stale unprocessed similarity records deleted by the retention sweep",
		},
	)

	MigrationDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docdex",
			Name:      "migration_documents_total",
			Help:      "Documents processed by embedding migration",
		},
		[]string{"status"}, // "regenerated" / "skipped" / "failed"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(SearchDegradedTotal)
	prometheus.MustRegister(SimilarityChecksTotal)
	prometheus.MustRegister(SimilarityRecordsSwept)
	prometheus.MustRegister(MigrationDocumentsTotal)
	searchMetricsRegistered = true
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviescout",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	CatalogRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "catalog_requests_total",
		Help:      "Total requests to the movie catalog by operation and result status.",
	}, []string{"op", "status"})

	CatalogRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviescout",
		Name:      "catalog_request_duration_seconds",
		Help:      "Movie catalog request duration in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"op"})

	SearchRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "search_records_total",
		Help:      "Search-count write outcomes (created, incremented, error, dropped).",
	}, []string{"outcome"})

	StaleFetchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "stale_fetches_total",
		Help:      "Catalog responses discarded because a newer term settled first.",
	})

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "moviescout",
		Name:      "search_sessions_active",
		Help:      "Currently connected live search sessions.",
	})

	TrendingBroadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "trending_broadcasts_total",
		Help:      "Trending list updates pushed to live sessions.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CatalogRequestsTotal,
		CatalogRequestDuration,
		SearchRecordsTotal,
		StaleFetchesTotal,
		SessionsActive,
		TrendingBroadcastsTotal,
	)
}

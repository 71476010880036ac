package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpdash_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lpdash_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// GA4 runReport calls labelled by outcome
	GA4Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpdash_ga4_requests_total",
			Help: "Total GA4 Data API runReport calls",
		},
		[]string{"outcome"},
	)

	// Latency of GA4 runReport calls
	GA4Latency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lpdash_ga4_request_duration_seconds",
			Help:    "Duration of GA4 Data API runReport calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// facets served from heuristic data instead of live reports
	FacetFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpdash_facet_fallback_total",
			Help: "Total dashboard facets served from fallback data",
		},
		[]string{"facet"},
	)

	// OAuth access token refreshes labelled by outcome
	SessionRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpdash_sessions_refreshed_total",
			Help: "Total OAuth access token refresh attempts",
		},
		[]string{"outcome"},
	)

	// dashboard loads rejected by the per-session limiter
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpdash_rate_limited_total",
			Help: "Total requests rejected by rate limiting",
		},
		[]string{"endpoint"},
	)

	RateLimitBuckets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lpdash_rate_limit_buckets",
			Help: "Sessions currently tracked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		GA4Requests,
		GA4Latency,
		FacetFallbacks,
		SessionRefreshes,
		RateLimitHits,
		RateLimitBuckets,
	)
}

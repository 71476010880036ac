package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// This replaces direct access to global Prometheus metrics with dependency injection
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// GA4 upstream metrics
	IncrementGA4Requests(outcome string)
	RecordGA4Latency(duration time.Duration)

	// Dashboard facet metrics
	IncrementFacetFallbacks(facet string)

	// Session metrics
	IncrementSessionRefreshes(outcome string)

	// Rate limiting metrics
	IncrementRateLimitHits(endpoint string)
	SetRateLimitBuckets(endpoint string, n int)
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

// HTTP Request metrics
func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// GA4 upstream metrics
func (r *PrometheusRegistry) IncrementGA4Requests(outcome string) {
	GA4Requests.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordGA4Latency(duration time.Duration) {
	GA4Latency.Observe(duration.Seconds())
}

// Dashboard facet metrics
func (r *PrometheusRegistry) IncrementFacetFallbacks(facet string) {
	FacetFallbacks.WithLabelValues(facet).Inc()
}

// Session metrics
func (r *PrometheusRegistry) IncrementSessionRefreshes(outcome string) {
	SessionRefreshes.WithLabelValues(outcome).Inc()
}

// Rate limiting metrics
func (r *PrometheusRegistry) IncrementRateLimitHits(endpoint string) {
	RateLimitHits.WithLabelValues(endpoint).Inc()
}

func (r *PrometheusRegistry) SetRateLimitBuckets(endpoint string, n int) {
	RateLimitBuckets.WithLabelValues(endpoint).Set(float64(n))
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementGA4Requests(outcome string)                                  {}
func (r *NoOpRegistry) RecordGA4Latency(duration time.Duration)                              {}
func (r *NoOpRegistry) IncrementFacetFallbacks(facet string)                                 {}
func (r *NoOpRegistry) IncrementSessionRefreshes(outcome string)                             {}
func (r *NoOpRegistry) IncrementRateLimitHits(endpoint string)                               {}
func (r *NoOpRegistry) SetRateLimitBuckets(endpoint string, n int)                           {}

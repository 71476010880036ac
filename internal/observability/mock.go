package observability

import (
	"sync"
	"time"
)

var _ MetricsRegistry = (*MockMetricsRegistry)(nil)

// MockMetricsRegistry records counter increments so tests can assert on them.
type MockMetricsRegistry struct {
	mu          sync.Mutex
	Requests    map[string]int
	GA4         map[string]int
	Fallbacks   map[string]int
	Refreshes   map[string]int
	RateLimited map[string]int
	Buckets     map[string]int
}

// NewMockMetricsRegistry returns an empty MockMetricsRegistry.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{
		Requests:    make(map[string]int),
		GA4:         make(map[string]int),
		Fallbacks:   make(map[string]int),
		Refreshes:   make(map[string]int),
		RateLimited: make(map[string]int),
		Buckets:     make(map[string]int),
	}
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[endpoint+" "+method+" "+status]++
}

func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

func (m *MockMetricsRegistry) IncrementGA4Requests(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GA4[outcome]++
}

func (m *MockMetricsRegistry) RecordGA4Latency(duration time.Duration) {}

func (m *MockMetricsRegistry) IncrementFacetFallbacks(facet string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fallbacks[facet]++
}

func (m *MockMetricsRegistry) IncrementSessionRefreshes(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshes[outcome]++
}

func (m *MockMetricsRegistry) IncrementRateLimitHits(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateLimited[endpoint]++
}

func (m *MockMetricsRegistry) SetRateLimitBuckets(endpoint string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Buckets[endpoint] = n
}

// FallbackCount returns the number of recorded fallbacks for facet.
func (m *MockMetricsRegistry) FallbackCount(facet string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Fallbacks[facet]
}

// GA4Count returns the number of GA4 calls recorded with outcome.
func (m *MockMetricsRegistry) GA4Count(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GA4[outcome]
}

package provider

import (
	"sync"
	"time"
)

const (
	// latencySmoothing weights the running latency average toward
	// history; a new sample contributes 1-latencySmoothing.
	latencySmoothing = 0.8

	// healthMinRequests is how many requests a provider must have seen
	// before its success rate can mark it unhealthy.
	healthMinRequests = 10

	// healthMinSuccessRate is the success rate below which a provider
	// with enough history is considered unhealthy.
	healthMinSuccessRate = 0.5
)

type providerStats struct {
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	averageLatencyMs    float64
	totalAudioProcessed float64
	errorBreakdown      map[string]int64
	lastUsed            time.Time
}

// DefaultProviderMetrics keeps in-process per-provider statistics.
// All mutations happen under the write lock; readers get copies.
type DefaultProviderMetrics struct {
	mu    sync.RWMutex
	stats map[string]*providerStats
}

// NewProviderMetrics creates an empty metrics store.
func NewProviderMetrics() *DefaultProviderMetrics {
	return &DefaultProviderMetrics{
		stats: make(map[string]*providerStats),
	}
}

func (m *DefaultProviderMetrics) RecordSuccess(provider string, latencyMs int64, audioSeconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getOrCreate(provider)
	s.totalRequests++
	s.successfulRequests++
	s.totalAudioProcessed += audioSeconds
	s.lastUsed = time.Now()

	if s.averageLatencyMs == 0 {
		s.averageLatencyMs = float64(latencyMs)
	} else {
		s.averageLatencyMs = latencySmoothing*s.averageLatencyMs + (1-latencySmoothing)*float64(latencyMs)
	}
}

func (m *DefaultProviderMetrics) RecordFailure(provider string, errorCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.getOrCreate(provider)
	s.totalRequests++
	s.failedRequests++
	s.errorBreakdown[errorCode]++
	s.lastUsed = time.Now()
}

// GetProviderMetrics returns a snapshot for one provider. Unknown
// providers yield zero-valued stats.
func (m *DefaultProviderMetrics) GetProviderMetrics(provider string) ProviderStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stats[provider]
	if !ok {
		return ProviderStats{ErrorBreakdown: map[string]int64{}}
	}
	return snapshotStats(s)
}

func (m *DefaultProviderMetrics) GetOverallMetrics() OverallStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := OverallStats{TotalProviders: len(m.stats)}
	for _, s := range m.stats {
		overall.TotalRequests += s.totalRequests
		overall.SuccessfulRequests += s.successfulRequests
		overall.FailedRequests += s.failedRequests
		overall.TotalAudioSeconds += s.totalAudioProcessed
	}
	if overall.TotalRequests > 0 {
		overall.OverallSuccessRate = float64(overall.SuccessfulRequests) / float64(overall.TotalRequests)
	}
	return overall
}

// IsProviderHealthy reports whether a provider's observed success rate
// is acceptable. Providers with little history are presumed healthy.
func (m *DefaultProviderMetrics) IsProviderHealthy(provider string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stats[provider]
	if !ok || s.totalRequests < healthMinRequests {
		return true
	}
	return float64(s.successfulRequests)/float64(s.totalRequests) >= healthMinSuccessRate
}

// getOrCreate must be called with the write lock held.
func (m *DefaultProviderMetrics) getOrCreate(provider string) *providerStats {
	s, ok := m.stats[provider]
	if !ok {
		s = &providerStats{errorBreakdown: make(map[string]int64)}
		m.stats[provider] = s
	}
	return s
}

func snapshotStats(s *providerStats) ProviderStats {
	breakdown := make(map[string]int64, len(s.errorBreakdown))
	for code, n := range s.errorBreakdown {
		breakdown[code] = n
	}

	stats := ProviderStats{
		TotalRequests:       s.totalRequests,
		SuccessfulRequests:  s.successfulRequests,
		FailedRequests:      s.failedRequests,
		AverageLatencyMs:    s.averageLatencyMs,
		TotalAudioProcessed: s.totalAudioProcessed,
		ErrorBreakdown:      breakdown,
		LastUsed:            s.lastUsed,
	}
	if s.totalRequests > 0 {
		stats.SuccessRate = float64(s.successfulRequests) / float64(s.totalRequests)
	}
	return stats
}

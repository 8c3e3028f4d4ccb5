// Package stats aggregates in-process search counters for the stats endpoint.
// Prometheus collectors cover operations; this service covers the API-facing
// rollup the platform polls.
package stats

import (
	"sync"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain/search/mode"
)

// Snapshot is a point-in-time view of the search counters.
type Snapshot struct {
	TotalSearches   int64
	VectorSearches  int64
	KeywordSearches int64
	HybridSearches  int64
	CacheHits       int64
	CacheHitRate    float64
	AvgLatencyMs    float64
}

// Service accumulates search statistics. Safe for concurrent use.
type Service struct {
	mu             sync.Mutex
	total          int64
	byMode         map[string]int64
	cacheHits      int64
	totalLatencyMs float64
}

// New creates a stats service.
func New() *Service {
	return &Service{byMode: make(map[string]int64, 3)}
}

// RecordSearch counts one finished search.
func (s *Service) RecordSearch(searchMode string, duration time.Duration, cacheHit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byMode[searchMode]++
	if cacheHit {
		s.cacheHits++
	}
	s.totalLatencyMs += float64(duration.Microseconds()) / 1000
}

// Snapshot returns the current counters. Rates are 0 when nothing has been
// recorded yet.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalSearches:   s.total,
		VectorSearches:  s.byMode[string(mode.Vector)],
		KeywordSearches: s.byMode[string(mode.Keyword)],
		HybridSearches:  s.byMode[string(mode.Hybrid)],
		CacheHits:       s.cacheHits,
	}
	if s.total > 0 {
		snap.CacheHitRate = float64(s.cacheHits) / float64(s.total)
		snap.AvgLatencyMs = s.totalLatencyMs / float64(s.total)
	}
	return snap
}

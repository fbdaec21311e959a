// Package metrics collects local query telemetry: latency distribution,
// frequent terms, and zero-result queries. Nothing leaves the process.
package metrics

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/semidex/semidex/internal/store"
)

// LatencyBucket is a latency histogram bucket.
type LatencyBucket string

const (
	BucketUnder10ms  LatencyBucket = "lt_10ms"
	BucketUnder50ms  LatencyBucket = "lt_50ms"
	BucketUnder100ms LatencyBucket = "lt_100ms"
	BucketUnder500ms LatencyBucket = "lt_500ms"
	BucketSlow       LatencyBucket = "gte_500ms"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketUnder10ms
	case ms < 50:
		return BucketUnder50ms
	case ms < 100:
		return BucketUnder100ms
	case ms < 500:
		return BucketUnder500ms
	default:
		return BucketSlow
	}
}

// QueryEvent is one search observation.
type QueryEvent struct {
	Query       string
	ResultCount int
	Latency     time.Duration
}

// TermCount pairs a query term with its frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable view of collected metrics.
type Snapshot struct {
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	TopTerms            []TermCount             `json:"top_terms"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of queries with no hits.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

const (
	defaultTopTermsCapacity   = 100
	defaultZeroResultCapacity = 50
)

// SearchMetrics accumulates query telemetry. Safe for concurrent use.
type SearchMetrics struct {
	mu sync.RWMutex

	totalQueries    int64
	zeroResultCount int64
	zeroResults     []string // ring, newest overwrites oldest
	zeroHead        int
	topTerms        *lru.Cache[string, int64]
	latencies       map[LatencyBucket]int64
	startTime       time.Time
}

// New creates a metrics collector.
func New() *SearchMetrics {
	topTerms, _ := lru.New[string, int64](defaultTopTermsCapacity)
	return &SearchMetrics{
		zeroResults: make([]string, 0, defaultZeroResultCapacity),
		topTerms:    topTerms,
		latencies:   make(map[LatencyBucket]int64),
		startTime:   time.Now(),
	}
}

// Record captures one query observation.
func (m *SearchMetrics) Record(event QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries++
	m.latencies[LatencyToBucket(event.Latency)]++

	for _, term := range store.Tokenize(event.Query) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}

	if event.ResultCount == 0 {
		m.zeroResultCount++
		if len(m.zeroResults) < defaultZeroResultCapacity {
			m.zeroResults = append(m.zeroResults, event.Query)
		} else {
			m.zeroResults[m.zeroHead] = event.Query
			m.zeroHead = (m.zeroHead + 1) % defaultZeroResultCapacity
		}
	}
}

// Snapshot returns current metrics for reporting.
func (m *SearchMetrics) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var topTerms []TermCount
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	// Highest counts first; term breaks ties for stable output.
	for i := 0; i < len(topTerms); i++ {
		for j := i + 1; j < len(topTerms); j++ {
			if topTerms[j].Count > topTerms[i].Count ||
				(topTerms[j].Count == topTerms[i].Count && topTerms[j].Term < topTerms[i].Term) {
				topTerms[i], topTerms[j] = topTerms[j], topTerms[i]
			}
		}
	}

	zeroResults := make([]string, len(m.zeroResults))
	copy(zeroResults, m.zeroResults[m.zeroHead:])
	copy(zeroResults[len(m.zeroResults)-m.zeroHead:], m.zeroResults[:m.zeroHead])

	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	return &Snapshot{
		TotalQueries:        m.totalQueries,
		ZeroResultCount:     m.zeroResultCount,
		ZeroResultQueries:   zeroResults,
		TopTerms:            topTerms,
		LatencyDistribution: latencies,
		Since:               m.startTime,
	}
}

// Package search fuses vector and keyword retrieval into a single
// ranked result list.
//
// The two retrieval modes score on incompatible scales (cosine
// similarity vs tf-idf), so fusion works on ranks, not raw scores: each
// candidate list contributes (1 - rank/n) * weight per hit, and a chunk
// surfaced by both lists sums its contributions. Both lists are
// over-fetched at twice the requested depth so a chunk ranked just
// outside the top k in each mode can still win on the combined score.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/semidex/semidex/internal/metrics"
	"github.com/semidex/semidex/internal/store"
)

// Embedder turns query text into a vector. Satisfied by *embed.Client.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Engine runs hybrid queries against a chunk store.
type Engine struct {
	store    *store.Store
	embedder Embedder

	keywordWeight float64
	vectorWeight  float64

	logger  *slog.Logger
	metrics *metrics.SearchMetrics
}

// Config holds the fusion weights. Weights need not sum to 1; they are
// relative contribution multipliers.
type Config struct {
	KeywordWeight float64
	VectorWeight  float64
}

// DefaultConfig weights both modes equally.
func DefaultConfig() Config {
	return Config{KeywordWeight: 0.5, VectorWeight: 0.5}
}

// NewEngine creates a hybrid engine over st, embedding queries with em.
func NewEngine(st *store.Store, em Embedder, cfg Config, logger *slog.Logger) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if em == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.KeywordWeight < 0 || cfg.VectorWeight < 0 {
		return nil, fmt.Errorf("fusion weights must be non-negative (keyword=%v, vector=%v)",
			cfg.KeywordWeight, cfg.VectorWeight)
	}
	if cfg.KeywordWeight == 0 && cfg.VectorWeight == 0 {
		return nil, fmt.Errorf("at least one fusion weight must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:         st,
		embedder:      em,
		keywordWeight: cfg.KeywordWeight,
		vectorWeight:  cfg.VectorWeight,
		logger:        logger,
	}, nil
}

// SetMetrics attaches a telemetry collector. Every completed query is
// recorded with its result count and latency.
func (e *Engine) SetMetrics(m *metrics.SearchMetrics) {
	e.metrics = m
}

// Search runs query through both retrieval modes and returns the top k
// fused results. An embedding failure fails the whole query; keyword
// retrieval alone is not a substitute for the requested hybrid ranking.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]store.SearchResult, error) {
	return e.search(ctx, "", query, k)
}

// SearchDocument is Search restricted to one document's chunks. An
// unknown document ID returns empty results, not an error.
func (e *Engine) SearchDocument(ctx context.Context, documentID, query string, k int) ([]store.SearchResult, error) {
	return e.search(ctx, documentID, query, k)
}

func (e *Engine) search(ctx context.Context, documentID, query string, k int) ([]store.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	start := time.Now()

	// Over-fetch both candidate lists.
	fetchK := 2 * k

	var vectorHits, keywordHits []store.SearchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		queryVector, err := e.embedder.GetEmbedding(gctx, query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		if documentID != "" {
			vectorHits, err = e.store.SearchByDocument(documentID, queryVector, fetchK)
		} else {
			vectorHits, err = e.store.Search(queryVector, fetchK)
		}
		return err
	})
	g.Go(func() error {
		if documentID != "" {
			keywordHits = e.store.KeywordSearchByDocument(documentID, query, fetchK)
		} else {
			keywordHits = e.store.KeywordSearch(query, fetchK)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := e.fuse(vectorHits, keywordHits, k)

	if e.metrics != nil {
		e.metrics.Record(metrics.QueryEvent{
			Query:       query,
			ResultCount: len(results),
			Latency:     time.Since(start),
		})
	}

	e.logger.Debug("hybrid_search_complete",
		"query_len", len(query),
		"document_id", documentID,
		"vector_candidates", len(vectorHits),
		"keyword_candidates", len(keywordHits),
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds())

	return results, nil
}

// candidate accumulates rank contributions for one chunk.
type candidate struct {
	result      store.SearchResult
	score       float64
	vectorRank  int // 1-based, 0 if absent
	keywordRank int
}

// fuse merges the two ranked lists by chunk ID and returns the top k by
// combined score. Ties break on chunk ID so repeated queries over the
// same state order identically.
func (e *Engine) fuse(vectorHits, keywordHits []store.SearchResult, k int) []store.SearchResult {
	merged := make(map[string]*candidate, len(vectorHits)+len(keywordHits))

	accumulate := func(hits []store.SearchResult, weight float64, isVector bool) {
		n := len(hits)
		for i, hit := range hits {
			contribution := (1 - float64(i)/float64(n)) * weight
			c, ok := merged[hit.ChunkID]
			if !ok {
				c = &candidate{result: hit}
				merged[hit.ChunkID] = c
			}
			c.score += contribution
			if isVector {
				c.vectorRank = i + 1
			} else {
				c.keywordRank = i + 1
			}
		}
	}
	accumulate(vectorHits, e.vectorWeight, true)
	accumulate(keywordHits, e.keywordWeight, false)

	candidates := make([]*candidate, 0, len(merged))
	for _, c := range merged {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].result.ChunkID < candidates[j].result.ChunkID
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]store.SearchResult, len(candidates))
	for i, c := range candidates {
		r := c.result
		r.Score = c.score
		r.Explanation = explainFusion(c)
		results[i] = r
	}
	return results
}

func explainFusion(c *candidate) string {
	switch {
	case c.vectorRank > 0 && c.keywordRank > 0:
		return fmt.Sprintf("hybrid match, combined score %.4f (vector rank %d, keyword rank %d)",
			c.score, c.vectorRank, c.keywordRank)
	case c.vectorRank > 0:
		return fmt.Sprintf("vector match, combined score %.4f (vector rank %d)", c.score, c.vectorRank)
	default:
		return fmt.Sprintf("keyword match, combined score %.4f (keyword rank %d)", c.score, c.keywordRank)
	}
}

// Package embed turns text into embedding vectors via an external
// provider, with an LRU cache, usage accounting, and a hard per-call
// timeout. No retries happen at this layer: a provider failure is
// surfaced to the caller unmodified, and retry policy belongs to the
// calling orchestration layer.
package embed

import (
	"context"
	"time"
)

// Timeout bounds for one provider call.
const (
	// DefaultTimeout is the hard timeout applied when none is configured.
	DefaultTimeout = 10 * time.Second

	// MaxTimeout caps the configurable timeout. The cap bounds the
	// caller's wait only; the provider-side request may still run on.
	MaxTimeout = 20 * time.Second
)

// DefaultCacheSize is the default number of embeddings kept in the LRU.
const DefaultCacheSize = 1000

// DefaultBatchSize is the suggested number of texts per provider request.
const DefaultBatchSize = 32

// Backend is one embedding provider variant. Implementations must return
// vectors ordered to match the request, fail fast when no credential is
// configured, and classify provider failures via the errors package.
type Backend interface {
	// Embed requests vectors for texts, in order.
	Embed(ctx context.Context, texts []string) (*BackendResult, error)

	// ModelName returns the model identifier used for cache keys.
	ModelName() string

	// ProviderName returns the provider identifier ("openai", "voyage").
	ProviderName() string
}

// BackendResult carries one provider response.
type BackendResult struct {
	// Vectors holds one embedding per requested text, request order.
	Vectors [][]float32

	// TotalTokens is the provider-reported token usage for the request.
	TotalTokens int
}

// UsageStats accumulates client-side usage counters. All counters are
// monotonically increasing for the lifetime of the client.
type UsageStats struct {
	// TotalRequests counts provider calls actually made (cache-only
	// lookups do not count).
	TotalRequests int64 `json:"total_requests"`

	// TotalTokens sums provider-reported token usage.
	TotalTokens int64 `json:"total_tokens"`

	// CacheHits counts texts served from the cache.
	CacheHits int64 `json:"cache_hits"`

	// Errors counts failed provider calls.
	Errors int64 `json:"errors"`
}

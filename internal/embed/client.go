package embed

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

// Client is the embedding client: it partitions requests between an LRU
// cache and a provider backend, enforces a hard timeout on the provider
// call, and tracks usage statistics. Cache and statistics each sit behind
// their own lock, independent of any index locks.
type Client struct {
	backend Backend
	timeout time.Duration
	cache   *lru.Cache[string, []float32]

	statsMu sync.Mutex
	stats   UsageStats
}

// NewClient creates an embedding client around the given backend.
// timeout is clamped to (0, MaxTimeout]; cacheSize <= 0 selects the default.
func NewClient(backend Backend, timeout time.Duration, cacheSize int) (*Client, error) {
	if backend == nil {
		return nil, sxerrors.Newf(sxerrors.ErrCodeInvalidInput, "backend is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &Client{
		backend: backend,
		timeout: timeout,
		cache:   cache,
	}, nil
}

// cacheKey builds the cache key from model name, text length, and an
// FNV-1a hash of the text. Length is included so hash collisions between
// different-length texts cannot alias.
func (c *Client) cacheKey(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%s:%d:%x", c.backend.ModelName(), len(text), h.Sum64())
}

// GetEmbeddings returns one vector per input text, order- and
// length-preserving. Cached texts are served without a provider call; the
// remainder goes to the backend in a single request and the results are
// spliced back into their original positions.
func (c *Client) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missedIndices := make([]int, 0, len(texts))
	missedTexts := make([]string, 0, len(texts))
	var hits int64

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
			hits++
		} else {
			missedIndices = append(missedIndices, i)
			missedTexts = append(missedTexts, text)
		}
	}

	if len(missedTexts) == 0 {
		c.recordHits(hits)
		return results, nil
	}

	res, err := c.callBackend(ctx, missedTexts)
	if err != nil {
		c.recordError()
		return nil, err
	}

	if len(res.Vectors) != len(missedTexts) {
		c.recordError()
		return nil, sxerrors.Newf(sxerrors.ErrCodeProviderHTTP,
			"provider returned %d embeddings for %d inputs", len(res.Vectors), len(missedTexts))
	}

	for j, idx := range missedIndices {
		results[idx] = res.Vectors[j]
		c.cache.Add(c.cacheKey(texts[idx]), res.Vectors[j])
	}

	c.recordRequest(hits, int64(res.TotalTokens))
	return results, nil
}

// GetEmbedding is the single-text convenience wrapper.
func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.GetEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// callBackend wraps the provider call in the hard timeout. An elapsed
// timeout is reported as ErrEmbeddingTimeout so callers can tell "slow or
// unreachable" apart from "provider rejected the input"; the underlying
// network request is not cancelled provider-side, only abandoned.
func (c *Client) callBackend(ctx context.Context, texts []string) (*BackendResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.backend.Embed(callCtx, texts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			slog.Warn("embedding_timeout",
				slog.String("provider", c.backend.ProviderName()),
				slog.Duration("timeout", c.timeout),
				slog.Int("texts", len(texts)))
			return nil, sxerrors.Newf(sxerrors.ErrCodeEmbeddingTimeout,
				"provider %s did not respond within %s", c.backend.ProviderName(), c.timeout)
		}
		return nil, err
	}

	slog.Debug("embedding_request",
		slog.String("provider", c.backend.ProviderName()),
		slog.Int("texts", len(texts)),
		slog.Int("tokens", res.TotalTokens),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// ModelName returns the backend's model identifier.
func (c *Client) ModelName() string {
	return c.backend.ModelName()
}

// Stats returns a copy of the usage counters.
func (c *Client) Stats() UsageStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *Client) recordHits(hits int64) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.CacheHits += hits
}

func (c *Client) recordRequest(hits, tokens int64) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.CacheHits += hits
	c.stats.TotalRequests++
	c.stats.TotalTokens += tokens
}

func (c *Client) recordError() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats.Errors++
}

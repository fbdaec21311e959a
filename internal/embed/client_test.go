package embed

import (
	"context"
	"fmt"
	"testing"
	"time"

	stderrors "errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

// mockBackend returns deterministic per-text vectors and counts calls.
type mockBackend struct {
	calls     int
	lastTexts []string
	err       error
	delay     time.Duration
	tokens    int
}

func (m *mockBackend) Embed(ctx context.Context, texts []string) (*BackendResult, error) {
	m.calls++
	m.lastTexts = texts

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return nil, m.err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		// Vector derived from the text so splicing mistakes are visible.
		vectors[i] = []float32{float32(len(text)), float32(text[0])}
	}
	return &BackendResult{Vectors: vectors, TotalTokens: m.tokens}, nil
}

func (m *mockBackend) ModelName() string    { return "mock-model" }
func (m *mockBackend) ProviderName() string { return "mock" }

func TestGetEmbeddings_OrderAndLengthPreserving(t *testing.T) {
	backend := &mockBackend{tokens: 7}
	client, err := NewClient(backend, time.Second, 10)
	require.NoError(t, err)

	texts := []string{"alpha", "bee", "gamma ray"}
	vecs, err := client.GetEmbeddings(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vecs[i][0], "vector %d belongs to its text", i)
	}
}

func TestGetEmbeddings_CacheDeterminism(t *testing.T) {
	backend := &mockBackend{tokens: 3}
	client, err := NewClient(backend, time.Second, 10)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := client.GetEmbedding(ctx, "same text")
	require.NoError(t, err)
	second, err := client.GetEmbedding(ctx, "same text")
	require.NoError(t, err)

	// Bit-identical vectors, one provider call, one cache hit.
	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.calls)

	stats := client.Stats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(3), stats.TotalTokens)
	assert.Equal(t, int64(0), stats.Errors)
}

func TestGetEmbeddings_PartialCacheSplicesMisses(t *testing.T) {
	backend := &mockBackend{}
	client, err := NewClient(backend, time.Second, 10)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.GetEmbeddings(ctx, []string{"cached one", "cached two"})
	require.NoError(t, err)
	require.Equal(t, 1, backend.calls)

	// Mixed batch: only the misses reach the provider.
	vecs, err := client.GetEmbeddings(ctx, []string{"fresh a", "cached one", "fresh b", "cached two"})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls)
	assert.Equal(t, []string{"fresh a", "fresh b"}, backend.lastTexts)

	assert.Equal(t, float32(len("fresh a")), vecs[0][0])
	assert.Equal(t, float32(len("cached one")), vecs[1][0])
	assert.Equal(t, float32(len("fresh b")), vecs[2][0])
	assert.Equal(t, float32(len("cached two")), vecs[3][0])
}

func TestGetEmbeddings_AllCachedSkipsProvider(t *testing.T) {
	backend := &mockBackend{}
	client, err := NewClient(backend, time.Second, 10)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.GetEmbeddings(ctx, []string{"x1", "x2"})
	require.NoError(t, err)

	_, err = client.GetEmbeddings(ctx, []string{"x2", "x1"})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls, "all-hit batch must not call the provider")

	stats := client.Stats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(2), stats.CacheHits)
}

func TestGetEmbeddings_TimeoutIsDistinctError(t *testing.T) {
	backend := &mockBackend{delay: 200 * time.Millisecond}
	client, err := NewClient(backend, 20*time.Millisecond, 10)
	require.NoError(t, err)

	_, err = client.GetEmbeddings(context.Background(), []string{"slow"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sxerrors.ErrEmbeddingTimeout))
	assert.False(t, stderrors.Is(err, sxerrors.ErrProviderHTTP))

	assert.Equal(t, int64(1), client.Stats().Errors)
}

func TestGetEmbeddings_ParentCancellationNotReportedAsTimeout(t *testing.T) {
	backend := &mockBackend{delay: time.Second}
	client, err := NewClient(backend, 10*time.Second, 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = client.GetEmbeddings(ctx, []string{"abandoned"})
	require.Error(t, err)
	assert.False(t, stderrors.Is(err, sxerrors.ErrEmbeddingTimeout))
}

func TestGetEmbeddings_ProviderErrorSurfacedUnmodified(t *testing.T) {
	providerErr := sxerrors.ProviderHTTPError(400, "bad input")
	backend := &mockBackend{err: providerErr}
	client, err := NewClient(backend, time.Second, 10)
	require.NoError(t, err)

	_, err = client.GetEmbeddings(context.Background(), []string{"text"})
	assert.True(t, stderrors.Is(err, sxerrors.ErrProviderHTTP))
	assert.Equal(t, int64(1), client.Stats().Errors)
}

func TestGetEmbeddings_CountMismatchRejected(t *testing.T) {
	backend := &shortBackend{}
	client, err := NewClient(backend, time.Second, 10)
	require.NoError(t, err)

	_, err = client.GetEmbeddings(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 inputs")
}

func TestGetEmbeddings_EmptyInput(t *testing.T) {
	backend := &mockBackend{}
	client, err := NewClient(backend, time.Second, 10)
	require.NoError(t, err)

	vecs, err := client.GetEmbeddings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Equal(t, 0, backend.calls)
}

func TestNewClient_ClampsTimeout(t *testing.T) {
	client, err := NewClient(&mockBackend{}, time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, MaxTimeout, client.timeout)

	client, err = NewClient(&mockBackend{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.timeout)
}

func TestNewClient_NilBackend(t *testing.T) {
	_, err := NewClient(nil, time.Second, 10)
	assert.Error(t, err)
}

func TestCacheKey_DistinguishesModelLengthAndContent(t *testing.T) {
	client, err := NewClient(&mockBackend{}, time.Second, 10)
	require.NoError(t, err)

	k1 := client.cacheKey("hello")
	k2 := client.cacheKey("hellO")
	k3 := client.cacheKey("hello there")
	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Equal(t, k1, client.cacheKey("hello"))
}

// shortBackend returns fewer vectors than requested.
type shortBackend struct{}

func (s *shortBackend) Embed(ctx context.Context, texts []string) (*BackendResult, error) {
	if len(texts) < 2 {
		return nil, fmt.Errorf("want at least 2 texts")
	}
	return &BackendResult{Vectors: [][]float32{{1}}}, nil
}

func (s *shortBackend) ModelName() string    { return "short" }
func (s *shortBackend) ProviderName() string { return "short" }

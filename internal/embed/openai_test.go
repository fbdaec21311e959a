package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

func TestOpenAIBackend_MissingCredential(t *testing.T) {
	backend := NewOpenAIBackend(OpenAIConfig{Model: "text-embedding-3-small"})
	_, err := backend.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sxerrors.ErrMissingCredential))
}

func TestOpenAIBackend_ReordersByIndexField(t *testing.T) {
	// Provider returns items out of order; the backend must reassemble
	// by the explicit index field.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "float", req.EncodingFormat)
		require.Len(t, req.Input, 3)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{2, 2}, "index": 2},
				{"embedding": []float32{0, 0}, "index": 0},
				{"embedding": []float32{1, 1}, "index": 1},
			},
			"usage": map[string]int{"total_tokens": 12},
		})
	}))
	defer srv.Close()

	backend := NewOpenAIBackend(OpenAIConfig{
		APIKey:  "sk-test",
		Model:   "text-embedding-3-small",
		BaseURL: srv.URL,
	})

	res, err := backend.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 0}, {1, 1}, {2, 2}}, res.Vectors)
	assert.Equal(t, 12, res.TotalTokens)
}

func TestOpenAIBackend_SendsDimensionsWhenConfigured(t *testing.T) {
	var gotDimensions int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotDimensions = req.Dimensions

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":  []map[string]any{{"embedding": []float32{1}, "index": 0}},
			"usage": map[string]int{"total_tokens": 1},
		})
	}))
	defer srv.Close()

	backend := NewOpenAIBackend(OpenAIConfig{
		APIKey: "sk-test", Model: "m", BaseURL: srv.URL, Dimensions: 256,
	})
	_, err := backend.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 256, gotDimensions)
}

func TestOpenAIBackend_NonSuccessStatusIsProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limit exceeded"))
	}))
	defer srv.Close()

	backend := NewOpenAIBackend(OpenAIConfig{APIKey: "sk-test", Model: "m", BaseURL: srv.URL})
	_, err := backend.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, sxerrors.ErrProviderHTTP))
	assert.Contains(t, err.Error(), "429")
}

func TestOrderByIndex_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []embedDataItem
	}{
		{"count mismatch", []embedDataItem{{Embedding: []float32{1}, Index: 0}}},
		{"out of range", []embedDataItem{
			{Embedding: []float32{1}, Index: 0},
			{Embedding: []float32{1}, Index: 5},
		}},
		{"duplicate index", []embedDataItem{
			{Embedding: []float32{1}, Index: 0},
			{Embedding: []float32{1}, Index: 0},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orderByIndex(tt.data, 2, "test", 0)
			assert.Error(t, err)
		})
	}
}

func TestVoyageBackend_MissingCredential(t *testing.T) {
	backend := NewVoyageBackend(VoyageConfig{Model: "voyage-3"})
	_, err := backend.Embed(context.Background(), []string{"text"})
	assert.True(t, stderrors.Is(err, sxerrors.ErrMissingCredential))
}

func TestVoyageBackend_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer vk-test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{9, 9}, "index": 1},
				{"embedding": []float32{4, 4}, "index": 0},
			},
			"usage": map[string]int{"total_tokens": 6},
		})
	}))
	defer srv.Close()

	backend := NewVoyageBackend(VoyageConfig{APIKey: "vk-test", Model: "voyage-3", BaseURL: srv.URL})
	res, err := backend.Embed(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{4, 4}, {9, 9}}, res.Vectors)
	assert.Equal(t, 6, res.TotalTokens)
}

func TestNewFromOptions(t *testing.T) {
	client, err := NewFromOptions(Options{Provider: "openai", Model: "m", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "m", client.ModelName())

	client, err = NewFromOptions(Options{Provider: "voyage", Model: "voyage-3", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "voyage-3", client.ModelName())

	_, err = NewFromOptions(Options{Provider: "cohere", Model: "m"})
	assert.Error(t, err)
}

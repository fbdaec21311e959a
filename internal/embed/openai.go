package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

// DefaultOpenAIBaseURL is the hosted OpenAI API endpoint. Override it to
// point at any OpenAI-compatible local service.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// maxErrorBodyBytes bounds how much of an error response body is kept.
const maxErrorBodyBytes = 2048

// OpenAIBackend calls an OpenAI-compatible /embeddings HTTP API.
type OpenAIBackend struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

var _ Backend = (*OpenAIBackend)(nil)

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	// APIKey is the bearer credential. Required.
	APIKey string
	// Model is the embedding model name. Required.
	Model string
	// BaseURL overrides the endpoint. Empty uses the hosted API.
	BaseURL string
	// Dimensions requests reduced-dimension embeddings when > 0.
	Dimensions int
}

// NewOpenAIBackend creates the backend. The API key is checked per call,
// not here, so construction never fails on missing credentials alone.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIBackend{
		// No client-level timeout: the caller controls deadlines through
		// the request context.
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

type openAIEmbedRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

// embedDataItem is one embedding entry in a provider response. Both
// supported providers return the same {embedding, index} shape.
type embedDataItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type openAIEmbedResponse struct {
	Data  []embedDataItem `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed implements Backend. Response vectors are placed by the provider's
// explicit index field; response order is never assumed to match request
// order.
func (b *OpenAIBackend) Embed(ctx context.Context, texts []string) (*BackendResult, error) {
	if b.apiKey == "" {
		return nil, sxerrors.MissingCredentialError(b.ProviderName())
	}
	if len(texts) == 0 {
		return &BackendResult{Vectors: [][]float32{}}, nil
	}

	body, err := json.Marshal(openAIEmbedRequest{
		Input:          texts,
		Model:          b.model,
		EncodingFormat: "float",
		Dimensions:     b.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, sxerrors.Wrap(sxerrors.ErrCodeProviderHTTP, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, sxerrors.ProviderHTTPError(resp.StatusCode, string(respBody))
	}

	var result openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, sxerrors.Wrap(sxerrors.ErrCodeProviderHTTP, fmt.Errorf("failed to decode response: %w", err))
	}

	return orderByIndex(result.Data, len(texts), b.ProviderName(), result.Usage.TotalTokens)
}

// ModelName implements Backend.
func (b *OpenAIBackend) ModelName() string {
	return b.model
}

// ProviderName implements Backend.
func (b *OpenAIBackend) ProviderName() string {
	return "openai"
}

// orderByIndex reassembles provider data items into request order using
// their explicit index fields.
func orderByIndex(data []embedDataItem, want int, provider string, totalTokens int) (*BackendResult, error) {
	if len(data) != want {
		return nil, sxerrors.Newf(sxerrors.ErrCodeProviderHTTP,
			"%s returned %d embeddings for %d inputs", provider, len(data), want)
	}

	vectors := make([][]float32, want)
	for _, item := range data {
		if item.Index < 0 || item.Index >= want {
			return nil, sxerrors.Newf(sxerrors.ErrCodeProviderHTTP,
				"%s returned out-of-range embedding index %d", provider, item.Index)
		}
		if vectors[item.Index] != nil {
			return nil, sxerrors.Newf(sxerrors.ErrCodeProviderHTTP,
				"%s returned duplicate embedding index %d", provider, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	return &BackendResult{Vectors: vectors, TotalTokens: totalTokens}, nil
}

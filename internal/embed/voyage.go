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

// DefaultVoyageBaseURL is the Voyage AI API endpoint.
const DefaultVoyageBaseURL = "https://api.voyageai.com/v1"

// VoyageBackend calls the Voyage AI embeddings HTTP API. Same wire shape
// as the OpenAI-compatible API: bearer auth, data items with explicit
// index fields, usage.total_tokens.
type VoyageBackend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

var _ Backend = (*VoyageBackend)(nil)

// VoyageConfig configures the Voyage backend.
type VoyageConfig struct {
	// APIKey is the bearer credential. Required.
	APIKey string
	// Model is the embedding model name (e.g. "voyage-3"). Required.
	Model string
	// BaseURL overrides the endpoint.
	BaseURL string
}

// NewVoyageBackend creates the backend.
func NewVoyageBackend(cfg VoyageConfig) *VoyageBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultVoyageBaseURL
	}
	return &VoyageBackend{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

type voyageEmbedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type voyageEmbedResponse struct {
	Data  []embedDataItem `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed implements Backend.
func (b *VoyageBackend) Embed(ctx context.Context, texts []string) (*BackendResult, error) {
	if b.apiKey == "" {
		return nil, sxerrors.MissingCredentialError(b.ProviderName())
	}
	if len(texts) == 0 {
		return &BackendResult{Vectors: [][]float32{}}, nil
	}

	body, err := json.Marshal(voyageEmbedRequest{
		Input: texts,
		Model: b.model,
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

	var result voyageEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, sxerrors.Wrap(sxerrors.ErrCodeProviderHTTP, fmt.Errorf("failed to decode response: %w", err))
	}

	return orderByIndex(result.Data, len(texts), b.ProviderName(), result.Usage.TotalTokens)
}

// ModelName implements Backend.
func (b *VoyageBackend) ModelName() string {
	return b.model
}

// ProviderName implements Backend.
func (b *VoyageBackend) ProviderName() string {
	return "voyage"
}

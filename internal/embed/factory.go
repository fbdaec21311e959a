package embed

import (
	"time"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

// Options selects and configures a provider backend at construction
// time. Provider choice is a closed set dispatched here, never by
// runtime type inspection.
type Options struct {
	// Provider selects the backend: "openai" or "voyage".
	Provider string
	// Model is the embedding model name.
	Model string
	// APIKey is the bearer credential for the provider.
	APIKey string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// Dimensions requests reduced-dimension embeddings (openai only).
	Dimensions int
	// Timeout is the hard per-call timeout, capped at MaxTimeout.
	Timeout time.Duration
	// CacheSize is the LRU capacity; <= 0 selects the default.
	CacheSize int
}

// NewFromOptions builds a Client with the backend named in opts.
func NewFromOptions(opts Options) (*Client, error) {
	var backend Backend

	switch opts.Provider {
	case "openai":
		backend = NewOpenAIBackend(OpenAIConfig{
			APIKey:     opts.APIKey,
			Model:      opts.Model,
			BaseURL:    opts.BaseURL,
			Dimensions: opts.Dimensions,
		})
	case "voyage":
		backend = NewVoyageBackend(VoyageConfig{
			APIKey:  opts.APIKey,
			Model:   opts.Model,
			BaseURL: opts.BaseURL,
		})
	default:
		return nil, sxerrors.Newf(sxerrors.ErrCodeConfigInvalid,
			"unknown embedding provider %q (use: openai, voyage)", opts.Provider)
	}

	return NewClient(backend, opts.Timeout, opts.CacheSize)
}

// Package config loads and validates semidex configuration.
//
// Configuration is resolved in priority order:
//  1. Environment variables (SEMIDEX_*) - highest
//  2. Config file (~/.semidex/config.yaml or explicit path)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	sxerrors "github.com/semidex/semidex/internal/errors"
)

// Config represents the complete semidex configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// StoreConfig configures the vector store and its persistence.
type StoreConfig struct {
	// Path is the snapshot file location.
	Path string `yaml:"path" json:"path"`

	// Dimension is the embedding dimension the store is configured with.
	// Fixed once set; records of any other length are rejected.
	Dimension int `yaml:"dimension" json:"dimension"`

	// AutoSaveInterval is how often the auto-save loop checks the dirty
	// flag (e.g. "30s"). Empty or "0" disables auto-save.
	AutoSaveInterval string `yaml:"auto_save_interval" json:"auto_save_interval"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the backend: "openai" or "voyage".
	Provider string `yaml:"provider" json:"provider"`

	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`

	// APIKey is the bearer credential. Usually supplied via
	// SEMIDEX_API_KEY rather than the config file.
	APIKey string `yaml:"api_key" json:"api_key"`

	// BaseURL overrides the provider endpoint (for OpenAI-compatible
	// local services).
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Dimensions requests cost-reduced embeddings when the provider
	// supports it. 0 means provider default.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// BatchSize is a hint for callers batching texts per request.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Timeout is the hard timeout for one provider call (e.g. "10s").
	// Capped at 20s.
	Timeout string `yaml:"timeout" json:"timeout"`

	// CacheSize is the embedding LRU cache capacity.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// SearchConfig configures hybrid search defaults.
type SearchConfig struct {
	// KeywordWeight is the weight for keyword rank contributions.
	KeywordWeight float64 `yaml:"keyword_weight" json:"keyword_weight"`

	// VectorWeight is the weight for vector rank contributions.
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`

	// MaxResults is the default k for searches.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			Path:             DefaultStorePath(),
			Dimension:        1536,
			AutoSaveInterval: "30s",
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			BatchSize: 32,
			Timeout:   "10s",
			CacheSize: 1000,
		},
		Search: SearchConfig{
			KeywordWeight: 0.4,
			VectorWeight:  0.6,
			MaxResults:    10,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// DefaultDir returns the semidex data directory (~/.semidex).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".semidex")
	}
	return filepath.Join(home, ".semidex")
}

// DefaultStorePath returns the default snapshot file path.
func DefaultStorePath() string {
	return filepath.Join(DefaultDir(), "store.json")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist. Environment variables are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file is fine; defaults plus env apply.
	case err != nil:
		return nil, sxerrors.Wrap(sxerrors.ErrCodeConfigNotFound, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, sxerrors.Wrap(sxerrors.ErrCodeConfigInvalid, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from SEMIDEX_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("SEMIDEX_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("SEMIDEX_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("SEMIDEX_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SEMIDEX_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("SEMIDEX_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SEMIDEX_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.Dimension = n
		}
	}
	if v := os.Getenv("SEMIDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Store.Dimension <= 0 {
		return sxerrors.Newf(sxerrors.ErrCodeConfigInvalid,
			"store dimension must be positive, got %d", c.Store.Dimension)
	}
	switch c.Embeddings.Provider {
	case "openai", "voyage":
	default:
		return sxerrors.Newf(sxerrors.ErrCodeConfigInvalid,
			"unknown embedding provider %q (use: openai, voyage)", c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize <= 0 {
		return sxerrors.Newf(sxerrors.ErrCodeConfigInvalid,
			"embeddings batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}
	if _, err := c.EmbeddingTimeout(); err != nil {
		return err
	}
	if _, err := c.AutoSaveInterval(); err != nil {
		return err
	}
	if c.Search.KeywordWeight < 0 || c.Search.VectorWeight < 0 {
		return sxerrors.Newf(sxerrors.ErrCodeConfigInvalid,
			"search weights must be non-negative (keyword=%v vector=%v)",
			c.Search.KeywordWeight, c.Search.VectorWeight)
	}
	return nil
}

// EmbeddingTimeout parses the configured provider timeout.
func (c *Config) EmbeddingTimeout() (time.Duration, error) {
	if c.Embeddings.Timeout == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Embeddings.Timeout)
	if err != nil {
		return 0, sxerrors.Newf(sxerrors.ErrCodeConfigInvalid,
			"invalid embeddings timeout %q: %v", c.Embeddings.Timeout, err)
	}
	return d, nil
}

// AutoSaveInterval parses the configured auto-save interval.
// Returns 0 when auto-save is disabled.
func (c *Config) AutoSaveInterval() (time.Duration, error) {
	if c.Store.AutoSaveInterval == "" || c.Store.AutoSaveInterval == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Store.AutoSaveInterval)
	if err != nil {
		return 0, sxerrors.Newf(sxerrors.ErrCodeConfigInvalid,
			"invalid auto_save_interval %q: %v", c.Store.AutoSaveInterval, err)
	}
	return d, nil
}

// Save writes the configuration to the given path as YAML.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "openai", cfg.Embeddings.Provider)
	assert.Equal(t, 1536, cfg.Store.Dimension)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Embeddings.Model, cfg.Embeddings.Model)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
version: 1
store:
  dimension: 3
  path: /tmp/store.json
embeddings:
  provider: voyage
  model: voyage-3
  timeout: 5s
  batch_size: 8
search:
  keyword_weight: 0.5
  vector_weight: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "voyage", cfg.Embeddings.Provider)
	assert.Equal(t, 3, cfg.Store.Dimension)

	timeout, err := cfg.EmbeddingTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embeddings:\n  model: from-file\n"), 0o644))

	t.Setenv("SEMIDEX_MODEL", "from-env")
	t.Setenv("SEMIDEX_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Embeddings.Model)
	assert.Equal(t, "sk-test", cfg.Embeddings.APIKey)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dimension", func(c *Config) { c.Store.Dimension = 0 }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "cohere" }},
		{"bad timeout", func(c *Config) { c.Embeddings.Timeout = "soon" }},
		{"bad autosave", func(c *Config) { c.Store.AutoSaveInterval = "whenever" }},
		{"negative weight", func(c *Config) { c.Search.KeywordWeight = -1 }},
		{"zero batch", func(c *Config) { c.Embeddings.BatchSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAutoSaveInterval_DisabledValues(t *testing.T) {
	cfg := Default()

	cfg.Store.AutoSaveInterval = ""
	d, err := cfg.AutoSaveInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	cfg.Store.AutoSaveInterval = "0"
	d, err = cfg.AutoSaveInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestSaveAndReload_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Store.Dimension = 768
	cfg.Embeddings.Provider = "voyage"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 768, loaded.Store.Dimension)
	assert.Equal(t, "voyage", loaded.Embeddings.Provider)
}

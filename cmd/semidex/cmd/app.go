package cmd

import (
	"log/slog"
	"time"

	"github.com/semidex/semidex/internal/config"
	"github.com/semidex/semidex/internal/embed"
	"github.com/semidex/semidex/internal/persist"
	"github.com/semidex/semidex/internal/search"
	"github.com/semidex/semidex/internal/store"
)

// app bundles the wired components a command needs. Commands that never
// embed anything (remove, stats, save) leave client and engine nil.
type app struct {
	cfg     *config.Config
	store   *store.Store
	manager *persist.Manager
	client  *embed.Client
	engine  *search.Engine
}

// openStore loads config, builds the store, and restores the snapshot.
func openStore() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.Store.Dimension)
	if err != nil {
		return nil, err
	}
	mgr, err := persist.NewManager(st, cfg.Store.Path, slog.Default())
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, store: st, manager: mgr}, nil
}

// openEngine is openStore plus the embedding client and hybrid engine.
func openEngine() (*app, error) {
	a, err := openStore()
	if err != nil {
		return nil, err
	}

	timeout, err := a.cfg.EmbeddingTimeout()
	if err != nil {
		return nil, err
	}
	client, err := embed.NewFromOptions(embed.Options{
		Provider:   a.cfg.Embeddings.Provider,
		Model:      a.cfg.Embeddings.Model,
		APIKey:     a.cfg.Embeddings.APIKey,
		BaseURL:    a.cfg.Embeddings.BaseURL,
		Dimensions: a.cfg.Embeddings.Dimensions,
		Timeout:    timeout,
		CacheSize:  a.cfg.Embeddings.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	engine, err := search.NewEngine(a.store, client, search.Config{
		KeywordWeight: a.cfg.Search.KeywordWeight,
		VectorWeight:  a.cfg.Search.VectorWeight,
	}, slog.Default())
	if err != nil {
		return nil, err
	}

	a.client = client
	a.engine = engine
	return a, nil
}

// autoSaveInterval returns the configured interval, or 0 when disabled.
func (a *app) autoSaveInterval() time.Duration {
	d, err := a.cfg.AutoSaveInterval()
	if err != nil {
		return 0
	}
	return d
}

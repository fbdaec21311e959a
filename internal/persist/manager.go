// Package persist owns the snapshot lifecycle: serializing the store to
// a single JSON file, restoring it at startup, and saving dirty state on
// a timer. Writes go through a temp file and an atomic rename so a crash
// mid-save never truncates the previous snapshot.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	sxerrors "github.com/semidex/semidex/internal/errors"
	"github.com/semidex/semidex/internal/store"
)

// Manager persists one store to one snapshot path.
//
// The mutation-driven dirty flag decides whether the auto-save tick does
// any work; Save and ForceSave always write. A cross-process file lock
// guards the snapshot so two processes sharing a path cannot interleave
// writes.
type Manager struct {
	store  *store.Store
	path   string
	logger *slog.Logger

	fileLock *flock.Flock

	mu       sync.Mutex // serializes save/load within this process
	dirty    bool
	lastSave time.Time
}

// StorageInfo reports persistence state for diagnostics.
type StorageInfo struct {
	Path          string    `json:"path"`
	IsDirty       bool      `json:"is_dirty"`
	LastSave      time.Time `json:"last_save"`
	FileSizeBytes int64     `json:"file_size_bytes"`
}

// NewManager creates a manager for st persisting to path, and hooks the
// store so every mutation marks the snapshot dirty.
func NewManager(st *store.Store, path string, logger *slog.Logger) (*Manager, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		store:    st,
		path:     path,
		logger:   logger,
		fileLock: flock.New(path + ".lock"),
	}
	st.SetMutationHook(m.MarkDirty)
	return m, nil
}

// MarkDirty records that in-memory state has diverged from the snapshot.
func (m *Manager) MarkDirty() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// IsDirty reports whether unsaved mutations exist.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Save writes the current store snapshot to disk unconditionally.
//
// Sequence: rotate the previous snapshot to .bak (best effort), write
// the new one to a temp file, fsync, then rename over the live path.
// The dirty flag clears only after the rename lands.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

// SaveIfDirty writes a snapshot only when mutations are pending. Returns
// whether a save happened.
func (m *Manager) SaveIfDirty() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return false, nil
	}
	if err := m.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) saveLocked() error {
	start := time.Now()

	locked, err := m.fileLock.TryLock()
	if err != nil {
		return sxerrors.Wrap(sxerrors.ErrCodeLockAcquisition, err)
	}
	if !locked {
		return sxerrors.Newf(sxerrors.ErrCodeLockAcquisition,
			"snapshot %s is locked by another process", m.path)
	}
	defer func() { _ = m.fileLock.Unlock() }()

	snap := m.store.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return sxerrors.Wrap(sxerrors.ErrCodePersistenceIO, err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return sxerrors.Wrap(sxerrors.ErrCodePersistenceIO, err)
	}

	// Keep one generation of backup. Losing the .bak is not worth
	// failing the save over.
	if _, err := os.Stat(m.path); err == nil {
		if err := os.Rename(m.path, m.path+".bak"); err != nil {
			m.logger.Warn("snapshot_backup_failed", "path", m.path, "error", err)
		}
	}

	tmpPath := m.path + ".tmp"
	if err := writeFileSync(tmpPath, data); err != nil {
		return sxerrors.Wrap(sxerrors.ErrCodePersistenceIO, err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		_ = os.Remove(tmpPath)
		return sxerrors.Wrap(sxerrors.ErrCodePersistenceIO, err)
	}

	m.dirty = false
	m.lastSave = time.Now()

	m.logger.Info("snapshot_saved",
		"path", m.path,
		"chunks", len(snap.Chunks),
		"documents", len(snap.DocumentIndex),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Load restores the store from the snapshot file.
//
// A missing file is a normal first run and leaves the store empty. A
// corrupt file is logged and skipped so the process can still start; the
// next save replaces it. A dimension mismatch is returned as an error
// with the store untouched, because silently re-embedding someone's
// corpus under a different model is worse than refusing to start.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	locked, err := m.fileLock.TryLock()
	if err != nil {
		return sxerrors.Wrap(sxerrors.ErrCodeLockAcquisition, err)
	}
	if !locked {
		return sxerrors.Newf(sxerrors.ErrCodeLockAcquisition,
			"snapshot %s is locked by another process", m.path)
	}
	defer func() { _ = m.fileLock.Unlock() }()

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.logger.Info("snapshot_not_found", "path", m.path)
		return nil
	}
	if err != nil {
		m.logger.Warn("snapshot_read_failed", "path", m.path, "error", err)
		return nil
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.logger.Warn("snapshot_corrupt", "path", m.path, "error", err)
		return nil
	}

	if err := m.store.Restore(&snap); err != nil {
		return err
	}

	m.dirty = false
	m.lastSave = snap.CreatedAt
	m.logger.Info("snapshot_loaded",
		"path", m.path,
		"chunks", len(snap.Chunks),
		"documents", len(snap.DocumentIndex),
		"created_at", snap.CreatedAt)
	return nil
}

// Run saves dirty state every interval until ctx is canceled, then does
// one final dirty save on the way out.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if saved, err := m.SaveIfDirty(); err != nil {
				m.logger.Error("final_save_failed", "error", err)
			} else if saved {
				m.logger.Info("final_save_complete")
			}
			return
		case <-ticker.C:
			if _, err := m.SaveIfDirty(); err != nil {
				m.logger.Error("auto_save_failed", "error", err)
			}
		}
	}
}

// Info reports current persistence state.
func (m *Manager) Info() StorageInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := StorageInfo{
		Path:     m.path,
		IsDirty:  m.dirty,
		LastSave: m.lastSave,
	}
	if fi, err := os.Stat(m.path); err == nil {
		info.FileSizeBytes = fi.Size()
	}
	return info
}

// writeFileSync writes data and fsyncs before closing, so the following
// rename publishes fully-durable bytes.
func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

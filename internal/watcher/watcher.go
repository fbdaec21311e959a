// Package watcher observes a fixed set of files and reports debounced
// change batches, driving live re-indexing in watch mode.
package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation classifies a file change.
type Operation int

const (
	// OpModify covers creation and content changes; both mean the
	// document should be (re-)indexed.
	OpModify Operation = iota
	// OpRemove means the file is gone and its document should go too.
	OpRemove
)

// String returns the operation name.
func (op Operation) String() string {
	if op == OpRemove {
		return "remove"
	}
	return "modify"
}

// FileEvent is one debounced change to a watched file.
type FileEvent struct {
	Path string
	Op   Operation
}

// DefaultDebounceWindow is how long the watcher waits for a change burst
// to settle before emitting a batch.
const DefaultDebounceWindow = 500 * time.Millisecond

// Watcher reports changes to an explicit set of files. It watches the
// parent directories, because editors that save via rename replace the
// inode a direct file watch is bound to.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	tracked   map[string]struct{} // absolute paths
	logger    *slog.Logger
	done      chan struct{}
}

// New creates a watcher for the given files. Every file's parent
// directory must exist.
func New(paths []string, window time.Duration, logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	tracked := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		tracked[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w := &Watcher{
		fsw:       fsw,
		debouncer: NewDebouncer(window),
		tracked:   tracked,
		logger:    logger,
		done:      make(chan struct{}),
	}
	go w.pump()
	return w, nil
}

// pump filters raw notifications down to tracked files and feeds the
// debouncer until the underlying watcher closes.
func (w *Watcher) pump() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, watched := w.tracked[abs]; !watched {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.debouncer.Add(FileEvent{Path: abs, Op: OpRemove})
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.debouncer.Add(FileEvent{Path: abs, Op: OpModify})
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher_error", "error", err)
		}
	}
}

// Batches returns the channel of debounced change batches. It closes
// after Close.
func (w *Watcher) Batches() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Close stops watching and closes the batch channel.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	w.debouncer.Stop()
	return err
}

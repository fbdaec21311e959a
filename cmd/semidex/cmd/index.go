package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semidex/semidex/internal/chunker"
	"github.com/semidex/semidex/internal/store"
	"github.com/semidex/semidex/internal/ui"
	"github.com/semidex/semidex/internal/watcher"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	documentID string
	chunkSize  int
	overlap    int
	watch      bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <file>...",
		Short: "Index documents into the store",
		Long: `Index one or more text files. Each file becomes a document: its text
is split into overlapping chunks, embedded, and added to the store.
Re-indexing a file replaces all of its previous chunks.

With --watch, the command keeps running after the initial pass and
re-indexes files as they change on disk.

Examples:
  semidex index notes.md
  semidex index docs/*.txt
  semidex index --id handbook handbook.txt
  semidex index --watch docs/*.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.documentID != "" && len(args) > 1 {
				return fmt.Errorf("--id requires exactly one file, got %d", len(args))
			}
			return runIndex(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.documentID, "id", "", "Document ID (default: file path)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", chunker.DefaultChunkSize, "Chunk window size in bytes")
	cmd.Flags().IntVar(&opts.overlap, "overlap", chunker.DefaultOverlap, "Overlap between consecutive chunks")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and re-index files as they change")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, paths []string, opts indexOptions) error {
	out := ui.NewRenderer(cmd.OutOrStdout(), noColor)

	a, err := openEngine()
	if err != nil {
		return err
	}

	// Dirty state flushes periodically while embedding large batches, so
	// an interrupted run loses at most one interval of work.
	if interval := a.autoSaveInterval(); interval > 0 {
		saveCtx, stopSaver := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.manager.Run(saveCtx, interval)
		}()
		defer func() {
			stopSaver()
			wg.Wait()
		}()
	}

	splitter := chunker.New(chunker.Options{ChunkSize: opts.chunkSize, Overlap: opts.overlap})

	// Absolute path -> document ID, used for re-indexing in watch mode.
	docIDs := make(map[string]string, len(paths))

	totalChunks := 0
	for _, path := range paths {
		docID := opts.documentID
		if docID == "" {
			docID = filepath.ToSlash(path)
		}
		if abs, err := filepath.Abs(path); err == nil {
			docIDs[abs] = docID
		}

		n, err := indexFile(ctx, a, splitter, docID, path)
		if err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		if n == 0 {
			out.Warningf("%s: no indexable text, skipped", path)
			continue
		}
		totalChunks += n
		out.Successf("indexed %s as %q (%d chunks)", path, docID, n)
	}

	if err := a.manager.Save(); err != nil {
		return err
	}

	stats := a.client.Stats()
	slog.Info("index_complete",
		"files", len(paths),
		"chunks", totalChunks,
		"provider_requests", stats.TotalRequests,
		"cache_hits", stats.CacheHits,
		"total_tokens", stats.TotalTokens)

	if !opts.watch {
		return nil
	}
	return runWatch(ctx, a, out, splitter, docIDs)
}

// runWatch re-indexes tracked files as they change, until interrupted.
func runWatch(ctx context.Context, a *app, out *ui.Renderer, splitter *chunker.Chunker, docIDs map[string]string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchPaths := make([]string, 0, len(docIDs))
	for p := range docIDs {
		watchPaths = append(watchPaths, p)
	}

	w, err := watcher.New(watchPaths, watcher.DefaultDebounceWindow, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	out.Successf("watching %d files (ctrl-c to stop)", len(watchPaths))

	for {
		select {
		case <-ctx.Done():
			_, err := a.manager.SaveIfDirty()
			return err
		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			for _, ev := range batch {
				docID := docIDs[ev.Path]
				switch ev.Op {
				case watcher.OpRemove:
					a.store.RemoveDocument(docID)
					out.Warningf("removed %q (file deleted)", docID)
				case watcher.OpModify:
					n, err := indexFile(ctx, a, splitter, docID, ev.Path)
					if err != nil {
						out.Errorf("re-index %s: %v", ev.Path, err)
						continue
					}
					out.Successf("re-indexed %q (%d chunks)", docID, n)
				}
			}
			if _, err := a.manager.SaveIfDirty(); err != nil {
				out.Errorf("save: %v", err)
			}
		}
	}
}

func indexFile(ctx context.Context, a *app, splitter *chunker.Chunker, docID, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	chunks := splitter.Chunk(docID, string(data), map[string]string{
		"source": path,
	})
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := embedChunks(ctx, a, chunks)
	if err != nil {
		return 0, err
	}
	if err := a.store.AddDocumentChunks(chunks, embeddings); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// embedChunks embeds chunk contents in config-sized batches, preserving
// chunk order across batches.
func embedChunks(ctx context.Context, a *app, chunks []store.Chunk) ([][]float32, error) {
	batchSize := a.cfg.Embeddings.BatchSize

	embeddings := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, strings.TrimSpace(c.Content))
		}

		vectors, err := a.client.GetEmbeddings(ctx, texts)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, vectors...)
	}
	return embeddings, nil
}

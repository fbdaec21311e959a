package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semidex/semidex/internal/metrics"
	"github.com/semidex/semidex/internal/store"
	"github.com/semidex/semidex/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit       int
	documentID  string
	format      string // "text", "json"
	keywordOnly bool
	vectorOnly  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long: `Search indexed documents with hybrid ranking: cosine similarity over
embeddings fused with tf-idf keyword scores.

--keyword skips the embedding call entirely and ranks by tf-idf alone;
--vector skips keyword matching and ranks by cosine similarity alone.

Examples:
  semidex search "error handling strategy"
  semidex search "retry backoff" -k 5
  semidex search "exact words only" --keyword
  semidex search "quarterly goals" --doc handbook --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.keywordOnly && opts.vectorOnly {
				return fmt.Errorf("--keyword and --vector are mutually exclusive")
			}
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "k", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVar(&opts.documentID, "doc", "", "Restrict search to one document ID")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.keywordOnly, "keyword", false, "Keyword search only (no embedding call)")
	cmd.Flags().BoolVar(&opts.vectorOnly, "vector", false, "Vector search only (no keyword matching)")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (use: text, json)", opts.format)
	}

	// Keyword-only search never needs the embedding provider.
	if opts.keywordOnly {
		a, err := openStore()
		if err != nil {
			return err
		}
		limit := opts.limit
		if limit <= 0 {
			limit = a.cfg.Search.MaxResults
		}
		var results []store.SearchResult
		if opts.documentID != "" {
			results = a.store.KeywordSearchByDocument(opts.documentID, query, limit)
		} else {
			results = a.store.KeywordSearch(query, limit)
		}
		return renderResults(cmd, query, results, opts.format)
	}

	a, err := openEngine()
	if err != nil {
		return err
	}

	limit := opts.limit
	if limit <= 0 {
		limit = a.cfg.Search.MaxResults
	}

	slog.Info("search_started",
		"query_len", len(query), "limit", limit, "document_id", opts.documentID,
		"vector_only", opts.vectorOnly)

	var results []store.SearchResult
	if opts.vectorOnly {
		results, err = vectorSearch(ctx, a, opts.documentID, query, limit)
	} else {
		collector := metrics.New()
		a.engine.SetMetrics(collector)

		if opts.documentID != "" {
			results, err = a.engine.SearchDocument(ctx, opts.documentID, query, limit)
		} else {
			results, err = a.engine.Search(ctx, query, limit)
		}
		if err == nil {
			snap := collector.Snapshot()
			slog.Info("search_complete",
				"results", len(results),
				"latency_buckets", snap.LatencyDistribution,
				"zero_result", snap.ZeroResultCount > 0)
		}
	}
	if err != nil {
		return err
	}

	return renderResults(cmd, query, results, opts.format)
}

func vectorSearch(ctx context.Context, a *app, documentID, query string, limit int) ([]store.SearchResult, error) {
	queryVector, err := a.client.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	if documentID != "" {
		return a.store.SearchByDocument(documentID, queryVector, limit)
	}
	return a.store.Search(queryVector, limit)
}

func renderResults(cmd *cobra.Command, query string, results []store.SearchResult, format string) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	ui.NewRenderer(cmd.OutOrStdout(), noColor).Results(query, results)
	return nil
}

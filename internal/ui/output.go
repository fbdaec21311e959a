// Package ui renders CLI output: search results, store statistics, and
// status lines. Color is applied only when writing to a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/semidex/semidex/internal/persist"
	"github.com/semidex/semidex/internal/store"
)

// snippetLimit caps how much chunk content a result row shows.
const snippetLimit = 200

// Renderer writes formatted output for CLI commands.
type Renderer struct {
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer for out. Color is enabled only when out
// is a terminal and noColor is false.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	useColor := !noColor
	if f, ok := out.(*os.File); ok {
		useColor = useColor && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	} else {
		useColor = false
	}
	return &Renderer{out: out, styles: GetStyles(!useColor)}
}

// Results renders a ranked result list for a query.
// Write errors to the console are intentionally ignored.
func (r *Renderer) Results(query string, results []store.SearchResult) {
	if len(results) == 0 {
		_, _ = fmt.Fprintf(r.out, "no results for %q\n", query)
		return
	}

	_, _ = fmt.Fprintf(r.out, "%s\n\n",
		r.styles.Header.Render(fmt.Sprintf("%d results for %q", len(results), query)))

	for i, res := range results {
		_, _ = fmt.Fprintf(r.out, "%s %s  %s\n",
			r.styles.Label.Render(fmt.Sprintf("%2d.", i+1)),
			res.ChunkID,
			r.styles.Score.Render(fmt.Sprintf("%.4f", res.Score)))
		_, _ = fmt.Fprintf(r.out, "    %s\n", snippet(res.Content))
		if res.Explanation != "" {
			_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Dim.Render(res.Explanation))
		}
		_, _ = fmt.Fprintln(r.out)
	}
}

// Stats renders store and persistence statistics.
func (r *Renderer) Stats(stats store.Stats, info persist.StorageInfo) {
	_, _ = fmt.Fprintf(r.out, "%s\n", r.styles.Header.Render("index statistics"))
	r.row("documents", fmt.Sprintf("%d", stats.TotalDocuments))
	r.row("chunks", fmt.Sprintf("%d", stats.TotalChunks))
	r.row("memory", formatBytes(stats.MemoryBytes))
	r.row("snapshot", info.Path)
	r.row("on disk", formatBytes(info.FileSizeBytes))
	if info.IsDirty {
		r.row("state", r.styles.Warning.Render("unsaved changes"))
	} else if !info.LastSave.IsZero() {
		r.row("last save", info.LastSave.Format("2006-01-02 15:04:05"))
	}
}

func (r *Renderer) row(label, value string) {
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render(fmt.Sprintf("%-11s", label)), value)
}

// Successf prints a success line.
func (r *Renderer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, "%s\n", r.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Warningf prints a warning line.
func (r *Renderer) Warningf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, "%s\n", r.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints an error line.
func (r *Renderer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, "%s\n", r.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// snippet flattens whitespace and truncates content for a result row.
func snippet(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if len(flat) > snippetLimit {
		return flat[:snippetLimit] + "…"
	}
	return flat
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

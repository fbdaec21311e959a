package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semidex/semidex/internal/ui"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <document-id>...",
		Short: "Remove documents from the store",
		Long: `Remove documents and all their chunks, embeddings, and keyword
postings. Unknown document IDs are reported but not an error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args)
		},
	}
}

func runRemove(cmd *cobra.Command, documentIDs []string) error {
	out := ui.NewRenderer(cmd.OutOrStdout(), noColor)

	a, err := openStore()
	if err != nil {
		return err
	}

	removed := 0
	for _, id := range documentIDs {
		chunks := a.store.GetDocumentChunks(id)
		if len(chunks) == 0 {
			out.Warningf("document %q not found", id)
			continue
		}
		a.store.RemoveDocument(id)
		out.Successf("removed %q (%d chunks)", id, len(chunks))
		removed++
	}

	if removed == 0 {
		return nil
	}
	if err := a.manager.Save(); err != nil {
		return fmt.Errorf("save after remove: %w", err)
	}
	return nil
}

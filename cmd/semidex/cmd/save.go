package cmd

import (
	"github.com/spf13/cobra"

	"github.com/semidex/semidex/internal/ui"
)

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the snapshot to disk",
		Long: `Force an immediate snapshot write, whether or not unsaved changes
exist. The previous snapshot is kept as a .bak file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore()
			if err != nil {
				return err
			}
			if err := a.manager.Save(); err != nil {
				return err
			}

			info := a.manager.Info()
			ui.NewRenderer(cmd.OutOrStdout(), noColor).
				Successf("snapshot written to %s (%d bytes)", info.Path, info.FileSizeBytes)
			return nil
		},
	}
}

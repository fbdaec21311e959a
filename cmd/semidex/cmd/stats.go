package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/semidex/semidex/internal/persist"
	"github.com/semidex/semidex/internal/store"
	"github.com/semidex/semidex/internal/ui"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore()
			if err != nil {
				return err
			}

			stats := a.store.Stats()
			info := a.manager.Info()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Store   store.Stats         `json:"store"`
					Storage persist.StorageInfo `json:"storage"`
				}{stats, info})
			}

			ui.NewRenderer(cmd.OutOrStdout(), noColor).Stats(stats, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

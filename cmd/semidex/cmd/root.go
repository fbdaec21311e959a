// Package cmd provides the CLI commands for semidex.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/semidex/semidex/internal/config"
	"github.com/semidex/semidex/internal/logging"
	"github.com/semidex/semidex/pkg/version"
)

var (
	configPath     string
	noColor        bool
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the semidex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semidex",
		Short: "Hybrid vector and keyword search over document collections",
		Long: `Semidex indexes documents as embedded chunks and answers queries
with a fused ranking: exact cosine similarity over embeddings combined
with tf-idf keyword matching.

The index lives in memory and persists to a single JSON snapshot.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("semidex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.semidex/config.yaml)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// setupLogging routes structured logs to the log file. Stderr stays
// quiet unless --debug is set; CLI output goes through the renderer.
func setupLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = debugMode
	if debugMode {
		logCfg.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging must never block the command itself.
		return nil
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// loadConfig resolves configuration for a command.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

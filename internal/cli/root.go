// Package cli wires cobra subcommands to the advisor's components.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chris/cetes/config"
	"github.com/chris/cetes/internal/logging"
)

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "asesor",
		Short:         "Mi Asesor CETES: asistente educativo sobre CETES",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			} else {
				logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `asesor serve` when no subcommand is provided.
			serveCmd, _, err := cmd.Find([]string{"serve"})
			if err != nil {
				return err
			}
			serveCmd.SetContext(cmd.Context())
			return serveCmd.RunE(serveCmd, args)
		},
	}

	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newChatCmd(cfg))
	root.AddCommand(newRefreshCmd(cfg))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return root
}

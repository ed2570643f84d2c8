// Package cli wires Cobra subcommands to the harness playground; it is a thin controller with no business logic.
package cli

import (
	"log/slog"

	"github.com/neoclaw-ai/tgharness/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "tgharness",
		Short: "Offline playground for Telegram bot handlers",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			} else {
				logging.SetLevel(slog.LevelWarn)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `tgharness repl` when no subcommand is provided.
			replCmd, _, err := cmd.Find([]string{"repl"})
			if err != nil {
				return err
			}
			replCmd.SetContext(cmd.Context())
			return replCmd.RunE(replCmd, args)
		},
	}

	root.AddCommand(newConfigCmd())
	root.AddCommand(newREPLCmd(&verbose))
	root.AddCommand(newVersionCmd())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")

	return root
}

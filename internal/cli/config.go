package cli

import (
	"fmt"

	"github.com/neoclaw-ai/tgharness/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print merged configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Write(cmd.OutOrStdout())
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the merged configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", cfg.ConfigPath(), err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", cfg.ConfigPath())
			return err
		},
	})
	return cmd
}

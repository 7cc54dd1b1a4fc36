package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/holons/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Init writes a default config.yaml to the config directory if none\n" +
			"exists, then attaches and detaches the backend so the data directory\n" +
			"and its JSONL files are created.",
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			wrote, err := writeConfigIfMissing(a.configDir, a.dataDir)
			if err != nil {
				return err
			}

			s, err := a.openSession()
			if err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := s.Close(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"config_dir":     a.configDir,
					"data_dir":       a.cfg.DataDir,
					"config_written": wrote,
				})
			}
			w := cmd.OutOrStdout()
			success.Fprintln(w, "Initialized descriptor store")
			fmt.Fprintf(w, "  config: %s\n", paths.ConfigFile(a.configDir))
			fmt.Fprintf(w, "  data:   %s\n", a.cfg.DataDir)
			return nil
		},
	}
}

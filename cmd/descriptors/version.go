package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/holons"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the descriptors version",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "descriptors %s\nmodule: %s\n", version, modulePath)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/holons/internal/api"
	"github.com/mesh-intelligence/holons/pkg/descriptors"
)

const defaultAddr = "127.0.0.1:8080"

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the descriptor store over HTTP",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withZome(func(z *descriptors.Zome) error {
				srv := api.NewServer(z, descriptors.NewResolver(z, a.logger), a.logger)
				fmt.Fprintf(cmd.ErrOrStderr(), "Serving descriptors on http://%s\n", addr)
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	return cmd
}

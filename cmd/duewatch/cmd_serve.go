package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/duewatch/internal/app"
)

// serveCmd keeps the HTTP surface and the run scheduler alive
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, metrics and run triggers over HTTP",
	Long: `Start the HTTP server. Runs are queued by POST /api/run and executed
one at a time. Periodic runs come from an external scheduler calling
that endpoint or the run command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		return app.New(cfg, appLogger).Serve(ctx)
	},
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/duewatch/internal/app"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/monitor"
)

var (
	runAll         bool
	runDestination string
	runHTMLFile    string
)

// runCmd performs one extraction-to-notification pass
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the activities once and announce the new ones",
	Long: `Fetch the activity table, compare it with the last snapshot and announce
the activities that were not there before. With --all the whole table is
sent as a listing instead. The snapshot is saved in both cases.

Exits non-zero when extraction or delivery failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runHTMLFile != "" {
			cfg.PortalHTMLFile = runHTMLFile
		}
		ctx, stop := signalContext()
		defer stop()

		report, err := app.New(cfg, appLogger).Run(ctx, monitor.RunOptions{
			SendAll:     runAll,
			Destination: runDestination,
		})
		if report != nil && err == nil {
			appLogger.Info("✅ run completed",
				logger.Int("extracted", report.Extracted),
				logger.Int("new", len(report.New)),
				logger.Int("chunks", report.Chunks))
		}
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runAll, "all", false, "Send every pending activity, not only the new ones")
	runCmd.Flags().StringVar(&runDestination, "destination", "", "Chat id overriding DUEWATCH_TELEGRAM_CHAT_ID")
	runCmd.Flags().StringVar(&runHTMLFile, "html-file", "", "Parse a saved portal page instead of logging in")
}

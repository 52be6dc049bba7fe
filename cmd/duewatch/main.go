package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/duewatch/internal/config"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
)

var (
	// Global flags
	logLevel string
	dryRun   bool

	cfg       *config.Config
	appLogger logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "duewatch",
	Short: "Watch the academic portal for new activities and announce them",
	Long: `duewatch logs into the academic portal, extracts the pending activities,
compares them with the last snapshot and sends the new ones to a chat.

Configuration comes from DUEWATCH_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.DryRun = dryRun
		}
		appLogger = logger.New(cfg.LogLevel, cfg.PrettyLog)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log messages instead of sending them")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(versionCmd)
}

// signalContext ends on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

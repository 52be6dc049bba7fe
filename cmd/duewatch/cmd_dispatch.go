package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/duewatch/internal/app"
	"github.com/MrSnakeDoc/duewatch/internal/domain"
	"github.com/MrSnakeDoc/duewatch/internal/trigger"
)

var (
	dispatchAll         bool
	dispatchDestination string
)

// dispatchCmd starts the remote workflow once
var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Start the activity workflow on GitHub Actions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		err := app.New(cfg, appLogger).Dispatch(ctx, trigger.Inputs{
			DestinationID: dispatchDestination,
			SendAll:       dispatchAll,
		})
		var dispatchErr *domain.DispatchError
		if errors.As(err, &dispatchErr) {
			cmd.PrintErrln(trigger.Describe(err))
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "🚀 Workflow dispatched")
		return nil
	},
}

func init() {
	dispatchCmd.Flags().BoolVar(&dispatchAll, "all", true, "Ask the workflow for the full listing")
	dispatchCmd.Flags().StringVar(&dispatchDestination, "destination", "", "Chat id the workflow should answer to")
}

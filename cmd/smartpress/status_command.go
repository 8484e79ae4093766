package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartpress/internal/config"
	"smartpress/internal/preflight"
	"smartpress/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment checks and queue summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, "Environment:")
				failures := 0
				for _, result := range preflight.RunAll(cmd.Context(), cfg) {
					kind := statusOK
					if !result.Passed {
						kind = statusError
						failures++
					}
					fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}

				stats, err := store.GetStats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nQueue: %d total (%d pending, %d compressing, %d done, %d error)\n",
					stats.Total, stats.Pending, stats.Compressing, stats.Done, stats.Errored)

				if failures > 0 {
					return fmt.Errorf("%d environment checks failed", failures)
				}
				return nil
			})
		},
	}
}

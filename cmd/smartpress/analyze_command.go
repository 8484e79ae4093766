package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smartpress/internal/config"
	"smartpress/internal/enrich"
	"smartpress/internal/notifications"
	"smartpress/internal/queue"
	"smartpress/internal/services"
	"smartpress/internal/services/backend"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run AI analysis on the newest compressed video",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				enricher := enrich.New(store, backend.NewFromConfig(cfg),
					notifications.NewService(cfg), ctx.fileLogger(cfg))

				item, result, err := enricher.AnalyzeLatest(cmd.Context())
				if err != nil {
					switch {
					case errors.Is(err, enrich.ErrNoCandidate):
						return errors.New("no compressed video available; compress one first")
					case services.IsTimeout(err):
						return errors.New("analysis timed out; the video may be too large")
					default:
						return err
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Analysis for %s (item #%d)\n\n", item.DisplayName, item.ID)
				fmt.Fprintf(out, "Title:       %s\n", result.Title)
				fmt.Fprintf(out, "Description: %s\n", result.Description)
				if len(result.Hashtags) > 0 {
					fmt.Fprintf(out, "Hashtags:    %s\n", strings.Join(result.Hashtags, " "))
				}
				return nil
			})
		},
	}
}

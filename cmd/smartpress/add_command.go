package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"smartpress/internal/config"
	"smartpress/internal/ingest"
	"smartpress/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Add media files to the compression queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				absPath, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve path %q: %w", arg, err)
				}
				paths = append(paths, absPath)
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				ingestor := ingest.New(store, ctx.fileLogger(cfg))
				result, err := ingestor.Add(cmd.Context(), paths)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, item := range result.Items {
					fmt.Fprintf(out, "Queued %s as item #%d (%s)\n", item.DisplayName, item.ID, item.Mode)
				}
				for _, fileErr := range result.Errors {
					fmt.Fprintf(out, "Skipped %s: %v\n", fileErr.Path, fileErr.Err)
				}
				if len(result.Items) == 0 && len(result.Errors) > 0 {
					return fmt.Errorf("no files queued (%d rejected)", len(result.Errors))
				}
				return nil
			})
		},
	}
}

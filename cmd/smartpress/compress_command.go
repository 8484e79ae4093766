package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"smartpress/internal/compressor"
	"smartpress/internal/config"
	"smartpress/internal/engine"
	"smartpress/internal/notifications"
	"smartpress/internal/queue"
	"smartpress/internal/services/backend"
	"smartpress/internal/settings"
	"smartpress/internal/textutil"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "compress [itemID]",
		Short: "Compress queued items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("specify an item id or --all")
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				settingsStore, err := settings.Open(cfg)
				if err != nil {
					return err
				}
				defer settingsStore.Close()

				eng := engine.NewFFmpeg(engine.WithBinary(cfg.FFmpegBinary()))
				comp := compressor.New(compressor.Deps{
					Store:    store,
					Settings: settingsStore,
					Engine:   eng,
					Backend:  backend.NewFromConfig(cfg),
					Notifier: notifications.NewService(cfg),
					Config:   cfg,
					Logger:   ctx.fileLogger(cfg),
				})

				out := cmd.OutOrStdout()

				stopWatch := startProgressWatcher(cmd.Context(), store, out)
				defer stopWatch()

				if all {
					result, err := comp.CompressAll(cmd.Context())
					stopWatch()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Processed %d items (%d failed) in %s\n",
						result.Processed, result.Failed, result.Duration.Round(time.Second))
					return nil
				}

				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", args[0])
				}
				compressErr := comp.Compress(cmd.Context(), id)
				stopWatch()

				item, getErr := store.GetByID(cmd.Context(), id)
				if compressErr != nil {
					if item != nil && item.ErrorMessage != "" {
						return fmt.Errorf("item %d failed: %s", id, item.ErrorMessage)
					}
					return compressErr
				}
				if getErr != nil {
					return getErr
				}
				fmt.Fprintf(out, "Compressed %s (%s -> %s, saved %s)\n",
					item.DisplayName,
					textutil.FormatSize(item.OriginalSize),
					textutil.FormatSize(item.NewSize),
					textutil.FormatSavings(item.OriginalSize, item.NewSize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Compress every pending item")
	return cmd
}

// startProgressWatcher renders a live bar for whichever item is compressing.
// It is a no-op when stdout is not a terminal. The returned stop function is
// idempotent.
func startProgressWatcher(ctx context.Context, store *queue.Store, out io.Writer) func() {
	if !shouldColorize(out) {
		return func() {}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go watchProgress(ctx, store, out, stop, done)

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(stop)
		<-done
	}
}

func watchProgress(ctx context.Context, store *queue.Store, out io.Writer, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var bar *progressbar.ProgressBar
	var barID int64

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			if bar != nil {
				_ = bar.Clear()
			}
			return
		case <-ticker.C:
			items, err := store.List(ctx, queue.StatusCompressing)
			if err != nil || len(items) == 0 {
				continue
			}
			item := items[0]
			if bar == nil || barID != item.ID {
				if bar != nil {
					_ = bar.Clear()
				}
				bar = progressbar.NewOptions(100,
					progressbar.OptionSetDescription(item.DisplayName),
					progressbar.OptionSetWriter(out),
					progressbar.OptionClearOnFinish(),
				)
				barID = item.ID
			}
			_ = bar.Set(item.Progress)
		}
	}
}

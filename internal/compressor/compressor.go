package compressor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"smartpress/internal/config"
	"smartpress/internal/engine"
	"smartpress/internal/logging"
	"smartpress/internal/media"
	"smartpress/internal/notifications"
	"smartpress/internal/progress"
	"smartpress/internal/queue"
	"smartpress/internal/services"
	"smartpress/internal/services/backend"
	"smartpress/internal/settings"
	"smartpress/internal/textutil"
)

const (
	// progressPersistInterval throttles progress writes during local work.
	progressPersistInterval = 2 * time.Second

	simulatorInterval = 400 * time.Millisecond
	simulatorStep     = 3
	simulatorLimit    = 95
)

// ErrNotPending is returned when an item cannot start an attempt.
var ErrNotPending = errors.New("item is not pending")

// BatchResult summarizes a sequential batch run.
type BatchResult struct {
	Processed int
	Failed    int
	Duration  time.Duration
}

// Deps carries the collaborators a compressor needs.
type Deps struct {
	Store    *queue.Store
	Settings *settings.Store
	Engine   engine.Engine
	Backend  backend.Client
	Notifier notifications.Service
	Config   *config.Config
	Logger   *slog.Logger
}

// Compressor routes items to their compression strategy.
type Compressor struct {
	store    *queue.Store
	settings *settings.Store
	engine   engine.Engine
	backend  backend.Client
	notifier notifications.Service
	cfg      *config.Config
	logger   *slog.Logger
}

// New constructs a compressor.
func New(deps Deps) *Compressor {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil && deps.Config != nil {
		notifier = notifications.NewService(deps.Config)
	}
	return &Compressor{
		store:    deps.Store,
		settings: deps.Settings,
		engine:   deps.Engine,
		backend:  deps.Backend,
		notifier: notifier,
		cfg:      deps.Config,
		logger:   logging.WithComponent(logger, "compressor"),
	}
}

// Compress runs one compression attempt for the given pending item.
func (c *Compressor) Compress(ctx context.Context, id int64) error {
	item, err := c.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return queue.ErrNotFound
	}
	return c.compressItem(ctx, item)
}

// CompressAll processes every pending item in queue order, one at a time.
// Failed items are recorded and skipped; the batch always runs to the end.
func (c *Compressor) CompressAll(ctx context.Context) (BatchResult, error) {
	started := time.Now()

	pending, err := c.store.List(ctx, queue.StatusPending)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(started)
			return result, err
		}
		if err := c.compressItem(ctx, item); err != nil {
			result.Failed++
			continue
		}
		result.Processed++
	}
	result.Duration = time.Since(started)

	if len(pending) > 0 && c.notifier != nil {
		if err := c.notifier.NotifyBatchCompleted(ctx, result.Processed, result.Failed, result.Duration); err != nil {
			c.logger.Warn("batch notification failed", logging.Error(err))
		}
	}
	return result, nil
}

func (c *Compressor) compressItem(ctx context.Context, item *queue.Item) error {
	if item.Status != queue.StatusPending {
		return fmt.Errorf("%w: item %d is %s", ErrNotPending, item.ID, item.Status)
	}

	itemLogger := c.logger.With(
		logging.ItemID(item.ID),
		logging.String(logging.FieldMode, string(item.Mode)),
	)
	itemLogger.Info("starting compression", logging.String("source", item.SourcePath))

	item.BeginAttempt()
	if err := c.store.Update(ctx, item); err != nil {
		return err
	}

	var err error
	switch item.Mode {
	case queue.ModeClient:
		err = c.compressLocal(ctx, item, itemLogger)
	case queue.ModeServer:
		err = c.compressRemote(ctx, item, itemLogger)
	default:
		err = fmt.Errorf("%w: %q", queue.ErrInvalidMode, item.Mode)
	}

	if err != nil {
		item.MarkFailed(err.Error())
		if updateErr := c.store.Update(ctx, item); updateErr != nil {
			itemLogger.Error("failed to persist failure", logging.Error(updateErr))
		}
		itemLogger.Error("compression failed", logging.Error(err))
		if c.notifier != nil {
			if notifyErr := c.notifier.NotifyItemFailed(ctx, textutil.DisplayTitle(item.SourcePath), err.Error()); notifyErr != nil {
				itemLogger.Warn("failure notification failed", logging.Error(notifyErr))
			}
		}
		return err
	}

	if err := c.store.Update(ctx, item); err != nil {
		return err
	}
	itemLogger.Info("compression complete",
		logging.String("artifact", item.DownloadLink),
		logging.Int64("original_size", item.OriginalSize),
		logging.Int64("new_size", item.NewSize))
	if c.notifier != nil {
		savings := textutil.FormatSavings(item.OriginalSize, item.NewSize)
		if notifyErr := c.notifier.NotifyItemCompleted(ctx, textutil.DisplayTitle(item.SourcePath), savings); notifyErr != nil {
			itemLogger.Warn("completion notification failed", logging.Error(notifyErr))
		}
	}
	return nil
}

// compressLocal runs the embedded engine against an image and records the
// resulting file as the artifact.
func (c *Compressor) compressLocal(ctx context.Context, item *queue.Item, itemLogger *slog.Logger) error {
	if c.engine == nil {
		return errors.New("local engine not configured")
	}

	quality := settings.ImageQualityDefault
	if c.settings != nil {
		value, err := c.settings.Get(ctx, settings.KeyImageQuality)
		if err != nil {
			return err
		}
		quality = value
	}

	inputInfo, err := os.Stat(item.SourcePath)
	if err != nil {
		return fmt.Errorf("source file unavailable: %w", err)
	}

	outputDir := c.cfg.Paths.OutputDir
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, media.OutputPrefix+item.DisplayName)

	var lastPersisted time.Time
	tracker := progress.NewTracker(func(percent int) {
		item.AdvanceProgress(percent)
		now := time.Now()
		if percent < 100 && !lastPersisted.IsZero() && now.Sub(lastPersisted) < progressPersistInterval {
			return
		}
		lastPersisted = now
		if err := c.store.Update(ctx, item); err != nil {
			itemLogger.Warn("failed to persist progress", logging.Error(err))
		}
	})

	if err := c.engine.CompressImage(ctx, item.SourcePath, outputPath, quality, tracker.Observe); err != nil {
		_ = os.Remove(outputPath)
		return services.Wrap(services.ErrExternalTool, "compressor", "local encode",
			"ffmpeg failed; check that the input file is a readable image", err)
	}

	outputInfo, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("artifact missing after encode: %w", err)
	}

	item.MarkDone(outputPath, inputInfo.Size(), outputInfo.Size())
	return nil
}

// compressRemote uploads a video to the backend while simulated progress
// keeps the item visibly moving. The item settles at 100 only when the
// service confirms success.
func (c *Compressor) compressRemote(ctx context.Context, item *queue.Item, itemLogger *slog.Logger) error {
	if c.backend == nil {
		return errors.New("backend client not configured")
	}

	crf := settings.VideoQualityDefault
	if c.settings != nil {
		value, err := c.settings.Get(ctx, settings.KeyVideoQuality)
		if err != nil {
			return err
		}
		crf = value
	}

	sim := progress.NewSimulator(simulatorInterval, simulatorStep, simulatorLimit, func(percent int) {
		copy := *item
		copy.AdvanceProgress(percent)
		if err := c.store.Update(ctx, &copy); err != nil {
			itemLogger.Warn("failed to persist progress", logging.Error(err))
			return
		}
		item.Progress = copy.Progress
	})
	sim.Start()
	result, err := c.backend.Compress(ctx, item.SourcePath, crf)
	sim.Stop()

	if err != nil {
		return services.Wrap(services.ErrExternalTool, "compressor", "remote encode",
			"backend compression failed", err)
	}

	item.MarkDone(result.DownloadURL, result.OriginalSize, result.NewSize)
	return nil
}

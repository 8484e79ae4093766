package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"smartpress/internal/logging"
	"smartpress/internal/notifications"
	"smartpress/internal/queue"
	"smartpress/internal/services"
	"smartpress/internal/services/backend"
	"smartpress/internal/textutil"
)

// ErrBusy is returned when an analysis is already in flight.
var ErrBusy = errors.New("analysis already running")

// ErrNoCandidate is returned when no completed server-mode item exists.
var ErrNoCandidate = errors.New("no completed video to analyze")

// Result is the structured metadata extracted from the model's response.
type Result struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// Enricher runs AI analysis against the newest finished video.
type Enricher struct {
	store    *queue.Store
	client   backend.Client
	notifier notifications.Service
	logger   *slog.Logger
	inFlight atomic.Bool
}

// New constructs an enricher. notifier may be nil.
func New(store *queue.Store, client backend.Client, notifier notifications.Service, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{
		store:    store,
		client:   client,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "enrich"),
	}
}

// AnalyzeLatest uploads the newest finished server-mode item for analysis
// and stores the extracted metadata on that item. A second call while one
// is running fails fast with ErrBusy.
func (e *Enricher) AnalyzeLatest(ctx context.Context) (*queue.Item, Result, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, Result{}, ErrBusy
	}
	defer e.inFlight.Store(false)

	item, err := e.store.LatestDoneServerItem(ctx)
	if err != nil {
		return nil, Result{}, err
	}
	if item == nil {
		return nil, Result{}, ErrNoCandidate
	}

	e.logger.Info("starting analysis",
		logging.ItemID(item.ID),
		logging.String("source", item.SourcePath))

	title := textutil.DisplayTitle(item.SourcePath)

	text, err := e.client.Analyze(ctx, item.SourcePath)
	if err != nil {
		if services.IsTimeout(err) {
			e.logger.Warn("analysis timed out", logging.ItemID(item.ID), logging.Error(err))
			e.notifyFailed(ctx, title, err)
			return item, Result{}, err
		}
		wrapped := services.Wrap(services.ErrExternalTool, "enrich", "analyze",
			"analysis request failed", err)
		e.notifyFailed(ctx, title, wrapped)
		return item, Result{}, wrapped
	}

	result, err := Extract(text)
	if err != nil {
		wrapped := services.Wrap(services.ErrExternalTool, "enrich", "parse",
			"analysis response contained no usable metadata", err)
		e.notifyFailed(ctx, title, wrapped)
		return item, Result{}, wrapped
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return item, Result{}, err
	}
	if err := e.store.SetAIResult(ctx, item.ID, string(encoded)); err != nil {
		return item, Result{}, err
	}
	item.AIResultJSON = string(encoded)

	e.logger.Info("analysis stored",
		logging.ItemID(item.ID),
		logging.String("title", result.Title))
	if e.notifier != nil {
		if notifyErr := e.notifier.NotifyAnalysisCompleted(ctx, title, result.Title); notifyErr != nil {
			e.logger.Warn("analysis notification failed", logging.Error(notifyErr))
		}
	}
	return item, result, nil
}

func (e *Enricher) notifyFailed(ctx context.Context, displayName string, cause error) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyAnalysisFailed(ctx, displayName, cause.Error()); err != nil {
		e.logger.Warn("analysis failure notification failed", logging.Error(err))
	}
}

// Extract locates the first JSON object in free-form model output that
// carries usable metadata. Models often wrap the payload in prose or code
// fences, so the scan is balance-aware rather than prefix-based.
func Extract(text string) (Result, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := balancedEnd(text, start)
		if !ok {
			continue
		}
		var result Result
		if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
			continue
		}
		result.Title = strings.TrimSpace(result.Title)
		result.Description = strings.TrimSpace(result.Description)
		cleaned := result.Hashtags[:0]
		for _, tag := range result.Hashtags {
			if tag = strings.TrimSpace(tag); tag != "" {
				cleaned = append(cleaned, tag)
			}
		}
		result.Hashtags = cleaned
		if result.Title == "" && result.Description == "" && len(result.Hashtags) == 0 {
			continue
		}
		return result, nil
	}
	return Result{}, errors.New("no json object found")
}

// balancedEnd finds the index of the brace closing the object opened at
// start, honoring string literals and escapes.
func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

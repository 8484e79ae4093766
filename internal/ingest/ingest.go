package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"smartpress/internal/logging"
	"smartpress/internal/queue"
	"smartpress/internal/services"
)

// previewMaxBytes caps the size of files that receive an inline preview.
// Anything larger is enqueued with a typed placeholder instead.
const previewMaxBytes = 8 << 20

// scanParallelism bounds how many files are examined at once.
const scanParallelism = 4

// FileError records a single rejected file within a batch.
type FileError struct {
	Path string
	Err  error
}

// Result reports the outcome of one ingestion batch.
type Result struct {
	Items  []*queue.Item
	Errors []FileError
}

// Ingestor classifies files and appends them to the queue.
type Ingestor struct {
	store  *queue.Store
	logger *slog.Logger
}

// New constructs an ingestor.
func New(store *queue.Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{
		store:  store,
		logger: logging.WithComponent(logger, "ingest"),
	}
}

type scanned struct {
	params queue.NewItemParams
	err    error
}

// Add examines the given paths and enqueues every admissible file as a
// pending item, preserving input order. Rejected files are reported in the
// result rather than failing the batch; only queue storage failures abort.
func (in *Ingestor) Add(ctx context.Context, paths []string) (Result, error) {
	results := make([]scanned, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(scanParallelism)
	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			params, err := examine(path)
			results[i] = scanned{params: params, err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	var out Result
	for i, path := range paths {
		if results[i].err != nil {
			in.logger.Warn("file rejected",
				logging.String("path", path),
				logging.Error(results[i].err))
			out.Errors = append(out.Errors, FileError{Path: path, Err: results[i].err})
			continue
		}
		item, err := in.store.NewItem(ctx, results[i].params)
		if err != nil {
			return out, services.Wrap(services.ErrTransient, "ingest", "enqueue",
				"failed to store queue item", err)
		}
		in.logger.Info("file enqueued",
			logging.ItemID(item.ID),
			logging.String("path", path),
			logging.String(logging.FieldMode, string(item.Mode)))
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func examine(path string) (queue.NewItemParams, error) {
	info, err := os.Stat(path)
	if err != nil {
		return queue.NewItemParams{}, err
	}
	if info.IsDir() {
		return queue.NewItemParams{}, fmt.Errorf("%s is a directory", path)
	}

	mediaType, err := classify(path)
	if err != nil {
		return queue.NewItemParams{}, err
	}

	params := queue.NewItemParams{
		SourcePath:  path,
		DisplayName: filepath.Base(path),
		MediaType:   mediaType,
		Mode:        queue.ModeForMediaType(mediaType),
	}
	if strings.HasPrefix(mediaType, "image/") && info.Size() <= previewMaxBytes {
		if preview, err := encodePreview(path, mediaType); err == nil {
			params.Preview = preview
		}
	}
	// Videos and oversized images carry a typed placeholder instead of
	// inlining the file content.
	if params.Preview == "" {
		params.Preview = "data:" + mediaType + ","
	}
	return params, nil
}

// classify resolves the media type from the extension, falling back to
// content sniffing when the extension is unknown. Only images and videos
// are admitted.
func classify(path string) (string, error) {
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		sniffed, err := sniff(path)
		if err != nil {
			return "", err
		}
		mediaType = sniffed
	}
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	if !strings.HasPrefix(mediaType, "image/") && !strings.HasPrefix(mediaType, "video/") {
		return "", fmt.Errorf("unsupported media type %q", mediaType)
	}
	return mediaType, nil
}

func sniff(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func encodePreview(path, mediaType string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

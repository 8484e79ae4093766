// Package media performs the server-side transcode behind the compression
// endpoint: it runs the shared ffmpeg engine against an uploaded clip and
// reports the size metrics the response contract requires.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smartpress/internal/engine"
)

// OutputPrefix marks processed artifacts so download names are predictable.
const OutputPrefix = "smartpress_"

// Result describes a finished transcode.
type Result struct {
	OutputPath   string
	OutputName   string
	OriginalSize int64
	NewSize      int64
}

// Transcoder compresses uploaded videos into a processed directory.
type Transcoder struct {
	engine       engine.Engine
	processedDir string
	crf          int
}

// NewTranscoder constructs a transcoder writing into processedDir.
func NewTranscoder(eng engine.Engine, processedDir string, crf int) *Transcoder {
	return &Transcoder{engine: eng, processedDir: processedDir, crf: crf}
}

// Transcode compresses inputPath and returns the artifact named after the
// original upload. A non-positive crf falls back to the transcoder default.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, originalName string, crf int) (Result, error) {
	if t == nil || t.engine == nil {
		return Result{}, errors.New("transcoder not configured")
	}
	if crf <= 0 {
		crf = t.crf
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat input: %w", err)
	}

	outputName := OutputPrefix + sanitizeName(originalName)
	outputPath := filepath.Join(t.processedDir, outputName)
	if err := t.engine.CompressVideo(ctx, inputPath, outputPath, crf, nil); err != nil {
		_ = os.Remove(outputPath)
		return Result{}, err
	}

	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat output: %w", err)
	}

	return Result{
		OutputPath:   outputPath,
		OutputName:   outputName,
		OriginalSize: info.Size(),
		NewSize:      outInfo.Size(),
	}, nil
}

// sanitizeName strips any path components from a client-supplied filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload.mp4"
	}
	return name
}

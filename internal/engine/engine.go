package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// ProgressFunc receives fractional completion between 0.0 and 1.0.
type ProgressFunc func(fraction float64)

// Engine defines local compression behaviour.
type Engine interface {
	CompressImage(ctx context.Context, inputPath, outputPath string, quality int, progress ProgressFunc) error
	CompressVideo(ctx context.Context, inputPath, outputPath string, crf int, progress ProgressFunc) error
	Available() error
}

// Option configures the ffmpeg engine.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// FFmpeg runs the ffmpeg command line with a single execution slot.
type FFmpeg struct {
	binary string
	slot   chan struct{}
}

// NewFFmpeg constructs an engine using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		binary: "ffmpeg",
		slot:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Available reports whether the configured binary can be found.
func (f *FFmpeg) Available() error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return fmt.Errorf("ffmpeg binary %q not found: %w", f.binary, err)
	}
	return nil
}

// maxImageWidth bounds compressed images. Narrower sources keep their size.
const maxImageWidth = 1920

// CompressImage re-encodes an image at the given q-scale quality, downscaling
// to maxImageWidth while preserving aspect ratio.
func (f *FFmpeg) CompressImage(ctx context.Context, inputPath, outputPath string, quality int, progress ProgressFunc) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{
		"-y", "-nostats",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale='min(%d,iw)':-2", maxImageWidth),
		"-q:v", strconv.Itoa(quality),
		"-progress", "pipe:1",
		outputPath,
	}
	return f.run(ctx, args, progress)
}

// CompressVideo transcodes a video to H.264 at the given CRF with AAC audio.
func (f *FFmpeg) CompressVideo(ctx context.Context, inputPath, outputPath string, crf int, progress ProgressFunc) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{
		"-y", "-nostats",
		"-i", inputPath,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(crf),
		"-preset", "fast",
		"-c:a", "aac",
		"-progress", "pipe:1",
		outputPath,
	}
	return f.run(ctx, args, progress)
}

func (f *FFmpeg) run(ctx context.Context, args []string, progress ProgressFunc) error {
	select {
	case f.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-f.slot }()

	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	var total time.Duration
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Duration:"):
			if parsed, ok := parseClock(line); ok {
				total = parsed
			}
		case strings.HasPrefix(line, "out_time_us="):
			if progress == nil || total <= 0 {
				continue
			}
			value := strings.TrimPrefix(line, "out_time_us=")
			micros, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				continue
			}
			progress(float64(micros) / float64(total.Microseconds()))
		case line == "progress=end":
			if progress != nil {
				progress(1.0)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ffmpeg output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// parseClock extracts the media duration from an ffmpeg banner line of the
// form "Duration: 00:01:23.45, start: ...".
func parseClock(line string) (time.Duration, bool) {
	fields := strings.Fields(strings.TrimPrefix(line, "Duration:"))
	if len(fields) == 0 {
		return 0, false
	}
	clock := strings.TrimSuffix(fields[0], ",")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, false
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}

	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	if total <= 0 {
		return 0, false
	}
	return total, true
}

var _ Engine = (*FFmpeg)(nil)

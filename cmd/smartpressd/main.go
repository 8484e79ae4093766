// Command smartpressd runs the compression service: the HTTP backend that
// transcodes uploaded videos and answers AI analysis requests.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"smartpress/internal/config"
	"smartpress/internal/engine"
	"smartpress/internal/logging"
	"smartpress/internal/media"
	"smartpress/internal/server"
	"smartpress/internal/services/llm"
	"smartpress/internal/settings"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureServerDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "smartpressd.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger = logging.WithComponent(logger, "smartpressd")

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "smartpressd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("acquire lock", logging.Error(err))
		os.Exit(1)
	}
	if !locked {
		logger.Error("another smartpressd instance is already running")
		os.Exit(1)
	}
	defer func() { _ = lock.Unlock() }()

	eng := engine.NewFFmpeg(engine.WithBinary(cfg.FFmpegBinary()))
	if err := eng.Available(); err != nil {
		logger.Error("ffmpeg unavailable", logging.Error(err))
		os.Exit(1)
	}

	transcoder := media.NewTranscoder(eng, cfg.Server.ProcessedDir, settings.VideoQualityDefault)

	var analyzer server.Analyzer
	if cfg.LLM.APIKey != "" {
		analyzer = llm.NewClient(
			cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithModel(cfg.LLM.Model),
			llm.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second}),
		)
	} else {
		logger.Warn("llm api key not configured; analysis endpoint disabled")
	}

	srv := server.New(cfg, transcoder, analyzer, logger)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("smartpressd shut down")
}

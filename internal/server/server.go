package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"smartpress/internal/config"
	"smartpress/internal/logging"
	"smartpress/internal/media"
	"smartpress/internal/settings"
)

// Analyzer produces metadata text for an uploaded clip.
type Analyzer interface {
	Analyze(ctx context.Context, clipDescription string) (string, error)
}

// Server hosts the compression service endpoints.
type Server struct {
	cfg        *config.Config
	transcoder *media.Transcoder
	analyzer   Analyzer
	logger     *slog.Logger
}

// New constructs a server. The analyzer may be nil, in which case the
// analysis endpoint reports that it is not configured.
func New(cfg *config.Config, transcoder *media.Transcoder, analyzer Analyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		cfg:        cfg,
		transcoder: transcoder,
		analyzer:   analyzer,
		logger:     logging.WithComponent(logger, "server"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /compress-video", s.handleCompress)
	mux.HandleFunc("POST /analyze-video", s.handleAnalyze)
	mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.cfg.EnsureServerDirectories(); err != nil {
		return fmt.Errorf("ensure server directories: %w", err)
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.Bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("listening", logging.String("bind", s.cfg.Server.Bind))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "smartpress", "status": "ok"})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	uploadPath, originalName, err := s.receiveUpload(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer os.Remove(uploadPath)

	crf := s.requestedCRF(r)
	result, err := s.transcoder.Transcode(r.Context(), uploadPath, originalName, crf)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("compression failed: %w", err))
		return
	}

	s.logger.Info("video compressed",
		logging.String("name", result.OutputName),
		logging.String("original_size", humanize.Bytes(uint64(result.OriginalSize))),
		logging.String("new_size", humanize.Bytes(uint64(result.NewSize))))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"download_url":  s.cfg.Server.PublicURL + "/download/" + result.OutputName,
		"original_size": result.OriginalSize,
		"new_size":      result.NewSize,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("analysis not configured"))
		return
	}

	uploadPath, originalName, err := s.receiveUpload(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer os.Remove(uploadPath)

	info, err := os.Stat(uploadPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	description := fmt.Sprintf("Video file %q, size %s.", originalName, humanize.Bytes(uint64(info.Size())))
	analysis, err := s.analyzer.Analyze(r.Context(), description)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("analysis failed: %w", err))
		return
	}

	s.logger.Info("video analyzed", logging.String("name", originalName))
	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name != filepath.Base(name) || name == "" || name == "." || name == ".." {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid filename"))
		return
	}

	path := filepath.Join(s.cfg.Server.ProcessedDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, errors.New("file not found"))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

// receiveUpload stores the multipart file field under a random name in the
// upload directory so concurrent uploads of equally named files never
// collide.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (string, string, error) {
	maxBytes := int64(s.cfg.Server.MaxUploadMiB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0o755); err != nil {
		return "", "", err
	}
	uploadPath := filepath.Join(s.cfg.Server.UploadDir, uuid.NewString())
	if err := writeUpload(uploadPath, file); err != nil {
		return "", "", err
	}
	return uploadPath, header.Filename, nil
}

func writeUpload(path string, file multipart.File) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}

// requestedCRF reads the optional crf form value, clamped to the legal
// video quality range. Zero means "use the service default".
func (s *Server) requestedCRF(r *http.Request) int {
	raw := strings.TrimSpace(r.FormValue("crf"))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	if value < settings.VideoQualityMin {
		return settings.VideoQualityMin
	}
	if value > settings.VideoQualityMax {
		return settings.VideoQualityMax
	}
	return value
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed",
		logging.Int("status", status),
		logging.Error(err))
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartpress/internal/config"
	"smartpress/internal/engine"
	"smartpress/internal/media"
	"smartpress/internal/server"
	"smartpress/internal/testsupport"
)

type fakeEngine struct {
	err     error
	lastCRF int
}

func (f *fakeEngine) CompressImage(ctx context.Context, inputPath, outputPath string, quality int, progress engine.ProgressFunc) error {
	return errors.New("not used")
}

func (f *fakeEngine) CompressVideo(ctx context.Context, inputPath, outputPath string, crf int, progress engine.ProgressFunc) error {
	f.lastCRF = crf
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("small"), 0o644)
}

func (f *fakeEngine) Available() error { return nil }

type fakeAnalyzer struct {
	text    string
	err     error
	lastArg string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, clipDescription string) (string, error) {
	f.lastArg = clipDescription
	return f.text, f.err
}

type harness struct {
	cfg      *config.Config
	engine   *fakeEngine
	analyzer *fakeAnalyzer
	ts       *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Server.PublicURL = "http://media.example.com"
	if err := cfg.EnsureServerDirectories(); err != nil {
		t.Fatalf("EnsureServerDirectories: %v", err)
	}

	h := &harness{
		cfg:      cfg,
		engine:   &fakeEngine{},
		analyzer: &fakeAnalyzer{text: `{"title":"T","description":"D","hashtags":["#a"]}`},
	}
	transcoder := media.NewTranscoder(h.engine, cfg.Server.ProcessedDir, 28)
	srv := server.New(cfg, transcoder, h.analyzer, nil)
	h.ts = httptest.NewServer(srv.Handler())
	t.Cleanup(h.ts.Close)
	return h
}

func multipartUpload(t *testing.T, url, filename string, content []byte, fields map[string]string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(url, writer.FormDataContentType(), body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestCompressEndpoint(t *testing.T) {
	h := newHarness(t)

	resp := multipartUpload(t, h.ts.URL+"/compress-video", "holiday.mp4", []byte("original-video"), map[string]string{"crf": "24"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Status       string `json:"status"`
		DownloadURL  string `json:"download_url"`
		OriginalSize int64  `json:"original_size"`
		NewSize      int64  `json:"new_size"`
	}
	decodeBody(t, resp, &body)

	if body.Status != "success" {
		t.Fatalf("unexpected status %q", body.Status)
	}
	if body.DownloadURL != "http://media.example.com/download/smartpress_holiday.mp4" {
		t.Fatalf("unexpected download url %q", body.DownloadURL)
	}
	if body.OriginalSize != int64(len("original-video")) || body.NewSize != int64(len("small")) {
		t.Fatalf("unexpected sizes %+v", body)
	}
	if h.engine.lastCRF != 24 {
		t.Fatalf("expected requested crf 24, got %d", h.engine.lastCRF)
	}

	if _, err := os.Stat(filepath.Join(h.cfg.Server.ProcessedDir, "smartpress_holiday.mp4")); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	entries, err := os.ReadDir(h.cfg.Server.UploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("upload temp files not cleaned: %d left", len(entries))
	}
}

func TestCompressClampsCRF(t *testing.T) {
	h := newHarness(t)

	resp := multipartUpload(t, h.ts.URL+"/compress-video", "clip.mp4", []byte("v"), map[string]string{"crf": "99"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if h.engine.lastCRF != 35 {
		t.Fatalf("expected crf clamped to 35, got %d", h.engine.lastCRF)
	}
}

func TestCompressRequiresFileField(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Post(h.ts.URL+"/compress-video", "application/x-www-form-urlencoded", strings.NewReader("crf=24"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Detail string `json:"detail"`
	}
	decodeBody(t, resp, &body)
	if body.Detail == "" {
		t.Fatal("expected detail message")
	}
}

func TestCompressReportsEngineFailureAsDetail(t *testing.T) {
	h := newHarness(t)
	h.engine.err = errors.New("encoder exploded")

	resp := multipartUpload(t, h.ts.URL+"/compress-video", "clip.mp4", []byte("v"), nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Detail string `json:"detail"`
	}
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Detail, "encoder exploded") {
		t.Fatalf("cause missing from detail %q", body.Detail)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newHarness(t)

	resp := multipartUpload(t, h.ts.URL+"/analyze-video", "beach.mp4", []byte("video"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Analysis string `json:"analysis"`
	}
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Analysis, `"title"`) {
		t.Fatalf("unexpected analysis %q", body.Analysis)
	}
	if !strings.Contains(h.analyzer.lastArg, "beach.mp4") {
		t.Fatalf("clip name missing from analyzer input %q", h.analyzer.lastArg)
	}
}

func TestAnalyzeWithoutAnalyzer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.PublicURL = "http://media.example.com"
	if err := cfg.EnsureServerDirectories(); err != nil {
		t.Fatalf("EnsureServerDirectories: %v", err)
	}
	transcoder := media.NewTranscoder(&fakeEngine{}, cfg.Server.ProcessedDir, 28)
	srv := server.New(cfg, transcoder, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := multipartUpload(t, ts.URL+"/analyze-video", "clip.mp4", []byte("v"), nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	h := newHarness(t)

	artifact := filepath.Join(h.cfg.Server.ProcessedDir, "smartpress_clip.mp4")
	if err := os.WriteFile(artifact, []byte("artifact-bytes"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	resp, err := http.Get(h.ts.URL + "/download/smartpress_clip.mp4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "smartpress_clip.mp4") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "artifact-bytes" {
		t.Fatalf("unexpected body %q", data)
	}

	missing, err := http.Get(h.ts.URL + "/download/nope.mp4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestRootHealth(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

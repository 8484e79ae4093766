package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartpress/internal/services"
)

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestCompressSuccess(t *testing.T) {
	var gotPath, gotFilename, gotCRF string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad upload", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotCRF = r.FormValue("crf")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","download_url":"http://backend/download/smartpress_clip.mp4","original_size":2048,"new_size":512}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Compress(context.Background(), writeSource(t), 26)
	if err != nil {
		t.Fatalf("Compress returned error: %v", err)
	}
	if gotPath != compressPath {
		t.Fatalf("expected upload to %s, got %s", compressPath, gotPath)
	}
	if gotFilename != "clip.mp4" {
		t.Fatalf("expected original filename in upload, got %q", gotFilename)
	}
	if gotCRF != "26" {
		t.Fatalf("expected crf field 26, got %q", gotCRF)
	}
	if result.DownloadURL == "" || result.OriginalSize != 2048 || result.NewSize != 512 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCompressExtractsDetailFromErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"ffmpeg exited with code 1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Compress(context.Background(), writeSource(t), 0)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "ffmpeg exited with code 1") {
		t.Fatalf("expected detail in error, got %v", err)
	}
}

func TestCompressRejectsIncompleteResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"wrong status", `{"status":"queued","download_url":"http://x/y","original_size":10,"new_size":5}`},
		{"missing download url", `{"status":"success","original_size":10,"new_size":5}`},
		{"missing sizes", `{"status":"success","download_url":"http://x/y"}`},
		{"not json", `<html>proxy error</html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			if _, err := client.Compress(context.Background(), writeSource(t), 0); err == nil {
				t.Fatal("expected contract violation error")
			}
		})
	}
}

func TestAnalyzeReturnsRawText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != analyzePath {
			t.Errorf("expected %s, got %s", analyzePath, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"analysis":"Here you go: {\"title\":\"T\"}"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	text, err := client.Analyze(context.Background(), writeSource(t))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !strings.Contains(text, `"title"`) {
		t.Fatalf("unexpected analysis text %q", text)
	}
}

func TestAnalyzeTimeoutIsDistinct(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, WithAnalyzeTimeout(50*time.Millisecond))
	_, err := client.Analyze(context.Background(), writeSource(t))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !services.IsTimeout(err) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

func TestClientRequiresBaseURL(t *testing.T) {
	client := NewClient("  ")
	if _, err := client.Compress(context.Background(), writeSource(t), 0); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

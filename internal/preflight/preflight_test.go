package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"smartpress/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Output directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got %+v", result)
	}

	missing := preflight.CheckDirectoryAccess("Output directory", filepath.Join(dir, "nope"))
	if missing.Passed {
		t.Fatalf("expected failure for missing dir, got %+v", missing)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	notDir := preflight.CheckDirectoryAccess("Output directory", file)
	if notDir.Passed {
		t.Fatalf("expected failure for non-directory, got %+v", notDir)
	}
}

func TestCheckBinary(t *testing.T) {
	found := preflight.CheckBinary("Shell", "sh")
	if !found.Passed {
		t.Fatalf("expected sh to be found, got %+v", found)
	}

	missing := preflight.CheckBinary("FFmpeg", "no-such-binary-for-preflight")
	if missing.Passed {
		t.Fatalf("expected failure for missing binary, got %+v", missing)
	}
}

func TestCheckBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	reachable := preflight.CheckBackend(context.Background(), server.URL)
	if !reachable.Passed {
		t.Fatalf("any http response should count as reachable, got %+v", reachable)
	}

	server.Close()
	down := preflight.CheckBackend(context.Background(), server.URL)
	if down.Passed {
		t.Fatalf("expected failure for closed server, got %+v", down)
	}

	empty := preflight.CheckBackend(context.Background(), "  ")
	if empty.Passed {
		t.Fatalf("expected failure for missing url, got %+v", empty)
	}
}

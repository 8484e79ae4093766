package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartpress/internal/ingest"
	"smartpress/internal/queue"
	"smartpress/internal/testsupport"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestAddEnqueuesInInputOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	paths := []string{
		writeFile(t, dir, "one.jpg", []byte("jpeg-bytes")),
		writeFile(t, dir, "two.mp4", []byte("video-bytes")),
		writeFile(t, dir, "three.png", []byte("png-bytes")),
	}

	in := ingest.New(store, nil)
	result, err := in.Add(context.Background(), paths)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected rejections: %v", result.Errors)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}

	wantNames := []string{"one.jpg", "two.mp4", "three.png"}
	wantModes := []queue.Mode{queue.ModeClient, queue.ModeServer, queue.ModeClient}
	for i, item := range result.Items {
		if item.DisplayName != wantNames[i] {
			t.Errorf("position %d: name %q, want %q", i, item.DisplayName, wantNames[i])
		}
		if item.Mode != wantModes[i] {
			t.Errorf("position %d: mode %s, want %s", i, item.Mode, wantModes[i])
		}
		if item.Status != queue.StatusPending {
			t.Errorf("position %d: status %s, want pending", i, item.Status)
		}
	}

	stored, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for i, item := range stored {
		if item.DisplayName != wantNames[i] {
			t.Errorf("stored position %d: name %q, want %q", i, item.DisplayName, wantNames[i])
		}
	}
}

func TestAddIsolatesBadFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	good := writeFile(t, dir, "keep.jpg", []byte("jpeg-bytes"))
	unsupported := writeFile(t, dir, "notes.txt", []byte("plain text"))
	missing := filepath.Join(dir, "gone.png")

	in := ingest.New(store, nil)
	result, err := in.Add(context.Background(), []string{unsupported, missing, good})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if len(result.Items) != 1 || result.Items[0].DisplayName != "keep.jpg" {
		t.Fatalf("expected only the good file enqueued, got %+v", result.Items)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 rejections, got %v", result.Errors)
	}
	for _, fe := range result.Errors {
		if fe.Err == nil {
			t.Fatalf("rejection without cause: %+v", fe)
		}
	}
}

func TestAddAttachesImagePreviews(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	image := writeFile(t, dir, "small.jpg", []byte("jpeg-bytes"))
	video := writeFile(t, dir, "clip.mp4", []byte("video-bytes"))

	in := ingest.New(store, nil)
	result, err := in.Add(context.Background(), []string{image, video})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	if !strings.HasPrefix(result.Items[0].Preview, "data:image/jpeg;base64,") {
		t.Fatalf("expected inline image preview, got %q", result.Items[0].Preview)
	}
	if result.Items[1].Preview != "data:video/mp4," {
		t.Fatalf("expected typed video placeholder, got %q", result.Items[1].Preview)
	}
}

func TestAddRejectsDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	dir := t.TempDir()

	in := ingest.New(store, nil)
	result, err := in.Add(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(result.Items) != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected directory rejection, got %+v", result)
	}
}

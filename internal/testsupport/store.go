package testsupport

import (
	"context"
	"testing"

	"smartpress/internal/config"
	"smartpress/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewImageItem appends a pending client-mode item for tests.
func NewImageItem(t testing.TB, store *queue.Store, name string) *queue.Item {
	t.Helper()
	return newItem(t, store, name, "image/jpeg")
}

// NewVideoItem appends a pending server-mode item for tests.
func NewVideoItem(t testing.TB, store *queue.Store, name string) *queue.Item {
	t.Helper()
	return newItem(t, store, name, "video/mp4")
}

func newItem(t testing.TB, store *queue.Store, name, mediaType string) *queue.Item {
	t.Helper()

	item, err := store.NewItem(context.Background(), queue.NewItemParams{
		SourcePath:  "/tmp/" + name,
		DisplayName: name,
		MediaType:   mediaType,
		Mode:        queue.ModeForMediaType(mediaType),
		Preview:     "data:" + mediaType + ";base64,AA==",
	})
	if err != nil {
		t.Fatalf("store.NewItem: %v", err)
	}
	return item
}

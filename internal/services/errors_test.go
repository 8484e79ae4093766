package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrExternalTool, "backend", "compress upload", "request failed", base)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	want := "external tool error: backend: compress upload: request failed: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(Wrap(ErrTimeout, "enrich", "analyze", "deadline", nil)) {
		t.Fatal("expected ErrTimeout to classify as timeout")
	}
	if !IsTimeout(fmt.Errorf("op: %w", context.DeadlineExceeded)) {
		t.Fatal("expected context deadline to classify as timeout")
	}
	if IsTimeout(errors.New("boom")) {
		t.Fatal("plain error should not classify as timeout")
	}
}

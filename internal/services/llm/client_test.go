package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnalyzeSuccess(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Big Waves\",\"description\":\"Surfing\",\"hashtags\":[\"#surf\"]}"}}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	content, err := client.Analyze(context.Background(), "beach surfing clip, 45 seconds")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(content, "Big Waves") {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestAnalyzeRequiresAPIKey(t *testing.T) {
	client := NewClient("  ")
	if _, err := client.Analyze(context.Background(), "clip"); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestAnalyzeRequiresDescription(t *testing.T) {
	client := NewClient("key")
	if _, err := client.Analyze(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty description")
	}
}

func TestAnalyzeSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))
	_, err := client.Analyze(context.Background(), "clip")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestAnalyzeRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))
	if _, err := client.Analyze(context.Background(), "clip"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestAnalyzeRejectsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))
	if _, err := client.Analyze(context.Background(), "clip"); err == nil {
		t.Fatal("expected error for http failure")
	}
}

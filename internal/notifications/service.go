package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smartpress/internal/config"
)

const userAgent = "SmartPress/0.1.0"

// Service defines the notification surface exposed to the compressor and
// enrichment layers.
type Service interface {
	NotifyItemCompleted(ctx context.Context, displayName, savings string) error
	NotifyItemFailed(ctx context.Context, displayName, reason string) error
	NotifyBatchCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	NotifyAnalysisCompleted(ctx context.Context, displayName, title string) error
	NotifyAnalysisFailed(ctx context.Context, displayName, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyItemCompleted(ctx context.Context, displayName, savings string) error {
	displayName = strings.TrimSpace(displayName)
	message := fmt.Sprintf("Compressed: %s", displayName)
	if savings = strings.TrimSpace(savings); savings != "" && savings != "-" {
		message = fmt.Sprintf("%s (saved %s)", message, savings)
	}
	data := payload{
		title:   "SmartPress - Compressed",
		message: message,
		tags:    []string{"smartpress", "compress", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyItemFailed(ctx context.Context, displayName, reason string) error {
	displayName = strings.TrimSpace(displayName)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "SmartPress - Failed",
		message:  fmt.Sprintf("Compression failed: %s\n%s", displayName, reason),
		tags:     []string{"smartpress", "compress", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "SmartPress - Queue Complete"
		message = fmt.Sprintf("Queue complete: %d items compressed in %s", processed, duration)
	} else {
		title = "SmartPress - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue complete: %d succeeded, %d failed in %s", processed, failed, duration)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"smartpress", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisCompleted(ctx context.Context, displayName, title string) error {
	displayName = strings.TrimSpace(displayName)
	message := fmt.Sprintf("Analysis ready: %s", displayName)
	if title = strings.TrimSpace(title); title != "" {
		message = fmt.Sprintf("%s\nSuggested title: %s", message, title)
	}
	data := payload{
		title:   "SmartPress - Analyzed",
		message: message,
		tags:    []string{"smartpress", "analyze", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisFailed(ctx context.Context, displayName, reason string) error {
	displayName = strings.TrimSpace(displayName)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "SmartPress - Analysis Failed",
		message:  fmt.Sprintf("Analysis failed: %s\n%s", displayName, reason),
		tags:     []string{"smartpress", "analyze", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "SmartPress - Test",
		message:  "Notification system test",
		tags:     []string{"smartpress", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyItemCompleted(context.Context, string, string) error          { return nil }
func (noopService) NotifyItemFailed(context.Context, string, string) error             { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyAnalysisCompleted(context.Context, string, string) error      { return nil }
func (noopService) NotifyAnalysisFailed(context.Context, string, string) error         { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"smartpress/internal/config"
	"smartpress/internal/services"
)

const (
	compressPath = "/compress-video"
	analyzePath  = "/analyze-video"

	defaultRequestTimeout = 5 * time.Minute
	defaultAnalyzeTimeout = 10 * time.Minute
)

// Client defines remote compression behaviour.
type Client interface {
	Compress(ctx context.Context, filePath string, crf int) (CompressResult, error)
	Analyze(ctx context.Context, filePath string) (string, error)
}

// CompressResult mirrors the compression response contract. Every field is
// required; a response missing any of them is treated as a protocol error.
type CompressResult struct {
	Status       string `json:"status"`
	DownloadURL  string `json:"download_url"`
	OriginalSize int64  `json:"original_size"`
	NewSize      int64  `json:"new_size"`
}

type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// HTTPClient calls the compression service over HTTP.
type HTTPClient struct {
	baseURL  string
	compress *http.Client
	analyze  *http.Client
}

// Option customizes a client.
type Option func(*HTTPClient)

// WithHTTPClient overrides both underlying HTTP clients. Intended for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.compress = client
			c.analyze = client
		}
	}
}

// WithRequestTimeout overrides the compression request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.compress = &http.Client{Timeout: timeout}
		}
	}
}

// WithAnalyzeTimeout overrides the analysis request timeout.
func WithAnalyzeTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.analyze = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient constructs a client for the compression service.
func NewClient(baseURL string, opts ...Option) *HTTPClient {
	client := &HTTPClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		compress: &http.Client{Timeout: defaultRequestTimeout},
		analyze:  &http.Client{Timeout: defaultAnalyzeTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig constructs a client with the configured timeouts applied.
func NewFromConfig(cfg *config.Config) *HTTPClient {
	return NewClient(
		cfg.Backend.BaseURL,
		WithRequestTimeout(time.Duration(cfg.Backend.RequestTimeoutSeconds)*time.Second),
		WithAnalyzeTimeout(time.Duration(cfg.Backend.AnalyzeTimeoutSeconds)*time.Second),
	)
}

// Compress uploads a video and returns the service's result after contract
// validation. A positive crf is forwarded as the requested quality; zero
// leaves the choice to the service.
func (c *HTTPClient) Compress(ctx context.Context, filePath string, crf int) (CompressResult, error) {
	var fields map[string]string
	if crf > 0 {
		fields = map[string]string{"crf": strconv.Itoa(crf)}
	}
	payload, err := c.upload(ctx, c.compress, compressPath, filePath, fields)
	if err != nil {
		return CompressResult{}, err
	}

	var result CompressResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return CompressResult{}, fmt.Errorf("backend client: decode response: %w", err)
	}
	if result.Status != "success" {
		return CompressResult{}, fmt.Errorf("backend client: unexpected status %q", result.Status)
	}
	if strings.TrimSpace(result.DownloadURL) == "" {
		return CompressResult{}, errors.New("backend client: response missing download_url")
	}
	if result.OriginalSize <= 0 || result.NewSize <= 0 {
		return CompressResult{}, fmt.Errorf("backend client: invalid size metrics %d -> %d", result.OriginalSize, result.NewSize)
	}
	return result, nil
}

// Analyze uploads a video for AI analysis and returns the raw analysis
// text. Timeouts surface as a distinct error so callers can report slow
// analysis differently from a failed one.
func (c *HTTPClient) Analyze(ctx context.Context, filePath string) (string, error) {
	payload, err := c.upload(ctx, c.analyze, analyzePath, filePath, nil)
	if err != nil {
		if isTimeout(err) {
			return "", services.Wrap(services.ErrTimeout, "backend", "analyze",
				"analysis timed out; the model may need more time for long clips", err)
		}
		return "", err
	}

	var result analyzeResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("backend client: decode response: %w", err)
	}
	if strings.TrimSpace(result.Analysis) == "" {
		return "", errors.New("backend client: response missing analysis")
	}
	return result.Analysis, nil
}

func (c *HTTPClient) upload(ctx context.Context, httpClient *http.Client, path, filePath string, fields map[string]string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("backend client: nil client")
	}
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, errors.New("backend client: empty file path")
	}
	if c.baseURL == "" {
		return nil, errors.New("backend client: missing base URL")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("backend client: open file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("backend client: write %s field: %w", name, err)
		}
	}
	field, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("backend client: create file field: %w", err)
	}
	if _, err := io.Copy(field, file); err != nil {
		return nil, fmt.Errorf("backend client: copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("backend client: close multipart writer: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("backend client: build request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("backend client: http request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend client: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend client: unexpected status %d: %s", resp.StatusCode, errorDetail(payload))
	}
	return payload, nil
}

// errorDetail pulls the service's detail message out of an error body,
// falling back to the raw body.
func errorDetail(payload []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(payload, &parsed); err == nil && strings.TrimSpace(parsed.Detail) != "" {
		return strings.TrimSpace(parsed.Detail)
	}
	return strings.TrimSpace(string(payload))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Client = (*HTTPClient)(nil)

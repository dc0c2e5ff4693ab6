package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// Client provides HTTP client functionality for the emotion inference API
type Client struct {
	config      Config
	httpClient  *http.Client
	semaphore   chan struct{} // Rate limiting semaphore
	logger      *slog.Logger
	backoffBase time.Duration

	// Statistics
	totalUploads    uint64
	successUploads  uint64
	failedUploads   uint64
	totalRetries    uint64
	preservedFiles  uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// Config contains emotion client configuration
type Config struct {
	BaseURL       string
	APIKey        string // optional bearer token
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int

	// PreserveDir receives recordings whose upload failed for good; empty
	// disables preservation
	PreserveDir string
}

// Upload is one recording payload bound for the /predict endpoint.
type Upload struct {
	RecordingID string
	Data        []byte
	Format      audio.Format
	Duration    time.Duration
	SampleRate  int
	Reencoded   bool
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalUploads    uint64        `json:"total_uploads"`
	SuccessUploads  uint64        `json:"success_uploads"`
	FailedUploads   uint64        `json:"failed_uploads"`
	SuccessRate     float64       `json:"success_rate"`
	TotalRetries    uint64        `json:"total_retries"`
	PreservedFiles  uint64        `json:"preserved_files"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ActiveRequests  int           `json:"active_requests"`
}

// NewClient creates a new emotion inference HTTP client
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	if config.MaxRetries < 0 {
		config.MaxRetries = 3
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 2
	}

	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:      config,
		httpClient:  httpClient,
		semaphore:   make(chan struct{}, config.MaxConcurrent),
		logger:      logger,
		backoffBase: time.Second,
	}, nil
}

// Predict uploads a recording for multi-modal emotion prediction. The
// request is retried with exponential backoff for transient failures.
func (c *Client) Predict(ctx context.Context, upload *Upload) (*PredictionResult, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, fmt.Errorf("upload payload cannot be empty")
	}

	// Acquire semaphore for rate limiting
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	startTime := time.Now()
	c.incrementTotalUploads()

	var lastErr error
	attempts := 0

	// Retry loop with exponential backoff
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.incrementTotalRetries()

			backoffTime := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoffBase
			if backoffTime > 30*time.Second {
				backoffTime = 30 * time.Second
			}

			c.logger.Warn("retrying emotion prediction",
				slog.String("recording_id", upload.RecordingID),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoffTime),
				slog.String("error", lastErr.Error()))

			select {
			case <-time.After(backoffTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.doPredict(ctx, upload)
		attempts++
		if err == nil {
			c.incrementSuccessUploads()
			c.updateAvgResponseTime(time.Since(startTime))
			return result, nil
		}

		lastErr = err

		if !c.isRetryableError(err) {
			break
		}
	}

	c.incrementFailedUploads()
	return nil, fmt.Errorf("emotion prediction failed after %d attempts: %w", attempts, lastErr)
}

// doPredict performs a single multipart upload to the /predict endpoint
func (c *Client) doPredict(ctx context.Context, upload *Upload) (*PredictionResult, error) {
	body, contentType, err := c.createMultipartRequest(upload)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "beyond-words-client/2.0")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var result PredictionResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	return &result, nil
}

// createMultipartRequest creates a multipart/form-data request body with
// the recording under the "file" field, which is the only field the
// backend requires; the rest is diagnostic metadata.
func (c *Client) createMultipartRequest(upload *Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := upload.RecordingID + upload.Format.Extension()
	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := fileWriter.Write(upload.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := map[string]string{
		"recording_id": upload.RecordingID,
		"request_id":   uuid.NewString(),
		"format":       upload.Format.String(),
		"sample_rate":  fmt.Sprintf("%d", upload.SampleRate),
		"duration":     fmt.Sprintf("%.3f", upload.Duration.Seconds()),
		"reencoded":    fmt.Sprintf("%t", upload.Reencoded),
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// AnalyzeText requests emotion analysis for a piece of text.
func (c *Client) AnalyzeText(ctx context.Context, text string) (*TextAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var analysis TextAnalysis
	if err := c.doJSON(ctx, "/analyze_text", textRequest{Text: text}, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Chat sends a message to the emotion-aware chatbot. The emotion context
// carries the most recent detected emotion; empty defaults to neutral.
func (c *Client) Chat(ctx context.Context, message, emotionContext string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	if emotionContext == "" {
		emotionContext = EmotionNeutral
	}

	var reply ChatReply
	req := chatRequest{Message: message, EmotionContext: emotionContext}
	if err := c.doJSON(ctx, "/chat", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Health queries the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var status HealthStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	return &status, nil
}

// WaitForHealthy polls the health endpoint until the backend reports ok
// or the context is done.
func (c *Client) WaitForHealthy(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	for {
		status, err := c.Health(ctx)
		if err == nil && status.Healthy() {
			return nil
		}

		if err != nil {
			c.logger.Debug("backend not ready", slog.String("error", err.Error()))
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return fmt.Errorf("backend never became healthy: %w", ctx.Err())
		}
	}
}

// PreserveRecording writes a failed upload to the preserve directory so
// the capture survives backend outages. Returns the stored path, or an
// empty path when preservation is disabled.
func (c *Client) PreserveRecording(upload *Upload) (string, error) {
	if c.config.PreserveDir == "" {
		return "", nil
	}

	if err := os.MkdirAll(c.config.PreserveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create preserve directory: %w", err)
	}

	path := filepath.Join(c.config.PreserveDir, upload.RecordingID+upload.Format.Extension())
	if err := os.WriteFile(path, upload.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to preserve recording: %w", err)
	}

	c.mu.Lock()
	c.preservedFiles++
	c.mu.Unlock()

	c.logger.Info("recording preserved after failed upload",
		slog.String("recording_id", upload.RecordingID),
		slog.String("path", path))

	return path, nil
}

// doJSON performs a single JSON request against the given API path
func (c *Client) doJSON(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode request JSON: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "beyond-words-client/2.0")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, respBody); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}

	return nil
}

// isRetryableError determines if an upload error is retryable
func (c *Client) isRetryableError(err error) bool {
	if err == context.DeadlineExceeded {
		return true
	}

	errStr := err.Error()

	// 5xx server errors are retryable
	if strings.Contains(errStr, "HTTP error 5") {
		return true
	}

	// Rate limiting (429) is retryable
	if strings.Contains(errStr, "HTTP error 429") {
		return true
	}

	// Network/connection errors are typically retryable
	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "refused") {
		return true
	}

	return false
}

// Statistics methods
func (c *Client) incrementTotalUploads() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalUploads++
}

func (c *Client) incrementSuccessUploads() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successUploads++
}

func (c *Client) incrementFailedUploads() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedUploads++
}

func (c *Client) incrementTotalRetries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRetries++
}

func (c *Client) updateAvgResponseTime(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalUploads > 0 {
		successRate = float64(c.successUploads) / float64(c.totalUploads) * 100
	}

	return ClientStats{
		TotalUploads:    c.totalUploads,
		SuccessUploads:  c.successUploads,
		FailedUploads:   c.failedUploads,
		SuccessRate:     successRate,
		TotalRetries:    c.totalRetries,
		PreservedFiles:  c.preservedFiles,
		AvgResponseTime: c.avgResponseTime,
		ActiveRequests:  len(c.semaphore),
	}
}

// Close gracefully shuts down the client, waiting for active requests
func (c *Client) Close() error {
	for i := 0; i < c.config.MaxConcurrent; i++ {
		c.semaphore <- struct{}{}
	}

	return nil
}

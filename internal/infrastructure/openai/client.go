package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

const (
	DefaultBaseURL            = "https://api.openai.com/v1"
	DefaultChatModel          = "gpt-4"
	DefaultVisionModel        = "gpt-4o"
	DefaultTranscriptionModel = "whisper-1"

	// maxErrorBody bounds how much of an error response is logged
	maxErrorBody = 512
)

// Config holds the settings for the OpenAI client
type Config struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	VisionModel        string
	TranscriptionModel string
	Timeout            time.Duration
	RequestsPerMinute  int
	MaxAttempts        int
}

// Client talks to the OpenAI REST API and implements domain.InferenceGateway
type Client struct {
	httpClient         *http.Client
	apiKey             string
	baseURL            string
	chatModel          string
	visionModel        string
	transcriptionModel string
	rateLimiter        *rate.Limiter
	maxAttempts        int
	debug              bool
}

// NewClient creates a new OpenAI API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// requests per minute -> tokens per second, burst of one minute's worth
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Client{
		httpClient:         &http.Client{Timeout: timeout},
		apiKey:             cfg.APIKey,
		baseURL:            strings.TrimRight(orDefault(cfg.BaseURL, DefaultBaseURL), "/"),
		chatModel:          orDefault(cfg.ChatModel, DefaultChatModel),
		visionModel:        orDefault(cfg.VisionModel, DefaultVisionModel),
		transcriptionModel: orDefault(cfg.TranscriptionModel, DefaultTranscriptionModel),
		rateLimiter:        limiter,
		maxAttempts:        maxAttempts,
	}
}

// SetDebug enables logging of request and response sizes
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// DescribeImage sends the image inline as a data URL together with the instruction
func (c *Client) DescribeImage(ctx context.Context, image *domain.Media, instruction string) (string, error) {
	if image.Empty() {
		return "", domain.ErrMissingMedia
	}

	dataURL := "data:" + imageMIME(image) + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	body := map[string]any{
		"model": c.visionModel,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": instruction},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "high"}},
				},
			},
		},
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
	}
	return c.chatCompletion(ctx, "describe", body)
}

// Complete runs a text-only chat completion
func (c *Client) Complete(ctx context.Context, systemRole, instruction string) (string, error) {
	messages := make([]any, 0, 2)
	if systemRole != "" {
		messages = append(messages, map[string]any{"role": "system", "content": systemRole})
	}
	messages = append(messages, map[string]any{"role": "user", "content": instruction})

	body := map[string]any{
		"model":       c.chatModel,
		"messages":    messages,
		"temperature": 0,
	}
	return c.chatCompletion(ctx, "complete", body)
}

// TranscribeAudio uploads the audio to the transcription endpoint
func (c *Client) TranscribeAudio(ctx context.Context, audio *domain.Media) (string, error) {
	if audio.Empty() {
		return "", domain.ErrMissingMedia
	}

	var form bytes.Buffer
	w := multipart.NewWriter(&form)
	if err := w.WriteField("model", c.transcriptionModel); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}

	filename := audio.Filename
	if filename == "" {
		filename = "voice_note.m4a"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", orDefault(audio.ContentType, "application/octet-stream"))
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}

	payload := form.Bytes()
	contentType := w.FormDataContentType()
	respBody, err := c.do(ctx, "transcribe", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("%w: decode transcription: %v", domain.ErrUpstreamInvalidResponse, err)
	}
	return out.Text, nil
}

func (c *Client) chatCompletion(ctx context.Context, op string, body map[string]any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode %s request: %w", op, err)
	}

	respBody, err := c.do(ctx, op, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return "", fmt.Errorf("%w: decode %s response: %v", domain.ErrUpstreamInvalidResponse, op, err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", domain.ErrUpstreamInvalidResponse, op)
	}
	return strings.TrimSpace(raw.Choices[0].Message.Content), nil
}

// do executes a request built by newRequest, retrying unavailable and rate-limited
// failures up to maxAttempts with exponential backoff
func (c *Client) do(ctx context.Context, op string, newRequest func() (*http.Request, error)) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is not configured", domain.ErrUpstreamRejected)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := exponentialBackoff(attempt - 1)
			log.Printf("[OPENAI] %s retry %d/%d in %v after: %v", op, attempt, c.maxAttempts, backoff, lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[OPENAI] Rate limiter error: %v", err)
			return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrUpstreamUnavailable, err)
		}

		body, err := c.attempt(ctx, op, newRequest)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}

	if c.maxAttempts > 1 {
		log.Printf("[OPENAI] %s failed after %d attempts", op, c.maxAttempts)
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, op string, newRequest func() (*http.Request, error)) ([]byte, error) {
	req, err := newRequest()
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[OPENAI] %s request error: %v", op, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", domain.ErrUpstreamUnavailable, op, err)
	}

	if c.debug {
		log.Printf("[OPENAI] %s status=%d bytes=%d took=%v", op, resp.StatusCode, len(body), time.Since(start))
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[OPENAI] %s API error - Status: %d, Body: %s", op, resp.StatusCode, truncate(body, maxErrorBody))
		return nil, classifyStatus(resp.StatusCode, body)
	}
	return body, nil
}

// classifyStatus maps a non-200 response onto the upstream error taxonomy
func classifyStatus(status int, body []byte) error {
	message := apiErrorMessage(body)
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrUpstreamRateLimited, message)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, status, message)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamRejected, status, message)
	}
}

// apiErrorMessage extracts error.message from an OpenAI error body
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return truncate(body, maxErrorBody)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrUpstreamRateLimited)
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempt 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func imageMIME(image *domain.Media) string {
	if strings.HasPrefix(image.ContentType, "image/") {
		return image.ContentType
	}
	return http.DetectContentType(image.Data)
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

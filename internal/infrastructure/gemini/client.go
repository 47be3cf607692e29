package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

// DefaultModel handles image, audio and text input
const DefaultModel = "gemini-1.5-flash"

const transcriptionInstruction = "Transcribe this voice note verbatim. Return only the transcribed text, without commentary."

// Config holds the settings for the Gemini client
type Config struct {
	APIKey string
	Model  string
}

// Client implements domain.InferenceGateway on top of the Gemini API
type Client struct {
	client *genai.Client
	model  string
	debug  bool
}

// NewClient creates a Gemini client. Extra options are appended after the API key.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: API key is not configured")
	}

	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: cl, model: model}, nil
}

// SetDebug enables logging of response sizes
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.client.Close()
}

// DescribeImage sends the image as an inline blob after the instruction
func (c *Client) DescribeImage(ctx context.Context, image *domain.Media, instruction string) (string, error) {
	if image.Empty() {
		return "", domain.ErrMissingMedia
	}

	m := c.generativeModel("application/json")
	return c.generate(ctx, "describe", m,
		genai.Text(instruction),
		genai.Blob{MIMEType: mediaMIME(image), Data: image.Data},
	)
}

// TranscribeAudio asks the model for a verbatim transcription of the audio
func (c *Client) TranscribeAudio(ctx context.Context, audio *domain.Media) (string, error) {
	if audio.Empty() {
		return "", domain.ErrMissingMedia
	}

	m := c.generativeModel("text/plain")
	return c.generate(ctx, "transcribe", m,
		genai.Text(transcriptionInstruction),
		genai.Blob{MIMEType: mediaMIME(audio), Data: audio.Data},
	)
}

// Complete runs a text-only generation with systemRole as the system instruction
func (c *Client) Complete(ctx context.Context, systemRole, instruction string) (string, error) {
	m := c.generativeModel("application/json")
	if systemRole != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemRole)}}
	}
	return c.generate(ctx, "complete", m, genai.Text(instruction))
}

func (c *Client) generativeModel(responseMIME string) *genai.GenerativeModel {
	m := c.client.GenerativeModel(c.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: responseMIME,
	}
	return m
}

func (c *Client) generate(ctx context.Context, op string, m *genai.GenerativeModel, parts ...genai.Part) (string, error) {
	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		log.Printf("[GEMINI] %s failed: %v", op, err)
		return "", mapError(ctx, err)
	}

	text := strings.TrimSpace(firstText(resp))
	if c.debug {
		log.Printf("[GEMINI] %s model=%s chars=%d", op, c.model, len(text))
	}
	if text == "" {
		return "", fmt.Errorf("%w: %s returned no text", domain.ErrUpstreamInvalidResponse, op)
	}
	return text, nil
}

// mapError translates SDK, gRPC and HTTP failures into the upstream error taxonomy
func mapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamRejected, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", domain.ErrUpstreamRateLimited, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		default:
			return fmt.Errorf("%w: %v", domain.ErrUpstreamRejected, err)
		}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return fmt.Errorf("%w: %s", domain.ErrUpstreamRateLimited, st.Message())
		case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated,
			codes.NotFound, codes.FailedPrecondition, codes.OutOfRange:
			return fmt.Errorf("%w: %s", domain.ErrUpstreamRejected, st.Message())
		default:
			return fmt.Errorf("%w: %s: %s", domain.ErrUpstreamUnavailable, st.Code(), st.Message())
		}
	}

	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}

// firstText joins the text parts of the first candidate that has content
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func mediaMIME(media *domain.Media) string {
	if ct := strings.TrimSpace(media.ContentType); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(media.Data)
}

func ptrFloat32(v float32) *float32 { return &v }

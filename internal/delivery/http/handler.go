package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
	"github.com/Dwonczykj/daily-j-backend/internal/usecase"
)

// multipartOverhead is allowed on top of the file limit for boundaries and text fields
const multipartOverhead = 1 << 20

// Analyzer is the analysis usecase consumed by the handlers
type Analyzer interface {
	AnalyzeMealImage(ctx context.Context, image *domain.Media) (*domain.Envelope, error)
	ProcessVoiceNote(ctx context.Context, req usecase.VoiceNoteRequest) (*domain.Envelope, error)
	ExtractLabel(ctx context.Context, processType string, image *domain.Media) (*domain.Envelope, error)
	LookupIngredient(ctx context.Context, ingredientName string) (*domain.Envelope, error)
}

// HandlerConfig holds request limits and the values reported by the version endpoints
type HandlerConfig struct {
	ServiceName    string
	Version        string
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysis       Analyzer
	serviceName    string
	version        string
	requestTimeout time.Duration
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler. A nil analyzer makes the analysis endpoints answer 503.
func NewHandler(analysis Analyzer, cfg HandlerConfig) *Handler {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 25 << 20
	}
	return &Handler{
		analysis:       analysis,
		serviceName:    cfg.ServiceName,
		version:        cfg.Version,
		requestTimeout: cfg.RequestTimeout,
		maxUploadBytes: maxUpload,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Version reports the deployed application version
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}

// Status is a liveness probe
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

// AnalyzeImage handles POST /analyze-image
func (h *Handler) AnalyzeImage(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	image, err := h.readMedia(c, "image")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	envelope, err := h.analysis.AnalyzeMealImage(ctx, image)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// UploadVoiceNote handles POST /upload_voice_note
func (h *Handler) UploadVoiceNote(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	audio, err := h.readMedia(c, "voice_note")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	envelope, err := h.analysis.ProcessVoiceNote(ctx, usecase.VoiceNoteRequest{
		ProcessType:     c.PostForm("process_type"),
		Media:           audio,
		IngredientsData: c.PostForm("ingredients_data"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// UploadImageForOCR handles POST /upload_image_for_ocr
func (h *Handler) UploadImageForOCR(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	image, err := h.readMedia(c, "image")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	envelope, err := h.analysis.ExtractLabel(ctx, c.PostForm("process_type"), image)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

// GetNutritionalValuesForIngredient handles GET /get_nutritional_values_for_ingredient
func (h *Handler) GetNutritionalValuesForIngredient(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	envelope, err := h.analysis.LookupIngredient(ctx, c.Query("ingredient_name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope)
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "analysis service not configured",
			"code":  "internal_error",
		})
		return false
	}
	return true
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

// readMedia reads a multipart file into memory. A missing file yields nil media
// so the classifier reports it uniformly.
func (h *Handler) readMedia(c *gin.Context, field string) (*domain.Media, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, domain.ErrMediaTooLarge
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	if header.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrMediaTooLarge, header.Filename, header.Size, h.maxUploadBytes)
	}

	data, err := readFileHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrValidation, field, err)
	}

	return &domain.Media{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// respondError maps domain errors onto status codes and the error payload
func (h *Handler) respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	log.Printf("[HTTP] %s %s request_id=%s status=%d: %v",
		c.Request.Method, c.FullPath(), c.GetString(requestIDKey), status, err)
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	var outputErr *domain.ModelOutputError

	switch {
	case errors.Is(err, domain.ErrMediaTooLarge):
		return http.StatusRequestEntityTooLarge, gin.H{"error": err.Error(), "code": "validation_error"}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_error"}
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusBadGateway, gin.H{"error": "failed to store uploaded media", "code": "storage_error"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, gin.H{"error": "request timed out", "code": "upstream_timeout"}
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return http.StatusServiceUnavailable, gin.H{"error": "inference service is rate limited, try again later", "code": "upstream_rate_limited"}
	case errors.As(err, &outputErr):
		return http.StatusBadGateway, gin.H{
			"error":      "model output did not match the requested format",
			"code":       "malformed_model_output",
			"raw_output": outputErr.Raw,
		}
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, gin.H{"error": err.Error(), "code": "upstream_error"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal_error"}
	}
}

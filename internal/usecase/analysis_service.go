package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	ValidateOutput     bool
	CacheTTL           time.Duration
	UploadPrefix       string
	EnableDebugLogging bool
}

// AnalysisService turns uploaded media and lookups into nutrition results.
// Flow: classify -> build instruction -> gateway -> parse -> envelope
type AnalysisService struct {
	gateway        domain.InferenceGateway
	storage        domain.ObjectStorage
	cache          domain.CacheRepository
	normalizer     *IngredientNormalizer
	validateOutput bool
	cacheTTL       time.Duration
	uploadPrefix   string
}

// VoiceNoteRequest is a voice upload with its declared process type
type VoiceNoteRequest struct {
	ProcessType     string
	Media           *domain.Media
	IngredientsData string
}

// NewAnalysisService creates a new analysis service. A nil cache disables lookup caching.
func NewAnalysisService(
	gateway domain.InferenceGateway,
	storage domain.ObjectStorage,
	cache domain.CacheRepository,
	config AnalysisServiceConfig,
) *AnalysisService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	uploadPrefix := strings.Trim(config.UploadPrefix, "/")
	if uploadPrefix == "" {
		uploadPrefix = "uploads"
	}

	return &AnalysisService{
		gateway:        gateway,
		storage:        storage,
		cache:          cache,
		normalizer:     NewIngredientNormalizer(config.EnableDebugLogging),
		validateOutput: config.ValidateOutput,
		cacheTTL:       cacheTTL,
		uploadPrefix:   uploadPrefix,
	}
}

// AnalyzeMealImage uploads the image and asks the gateway to describe the meal.
// Upload and inference run concurrently; the first failure cancels the other.
func (s *AnalysisService) AnalyzeMealImage(ctx context.Context, image *domain.Media) (*domain.Envelope, error) {
	intent, err := ClassifyIntent(ClassifyRequest{
		Endpoint: domain.EndpointImageAnalysis,
		HasMedia: !image.Empty(),
	})
	if err != nil {
		return nil, err
	}

	instruction, err := BuildInstruction(intent, InstructionContext{})
	if err != nil {
		return nil, err
	}

	key := s.storageKey(image.Filename)

	var publicURL, raw string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.storage.Upload(gctx, key, image)
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		publicURL = url
		return nil
	})
	g.Go(func() error {
		text, err := s.gateway.DescribeImage(gctx, image, instruction)
		if err != nil {
			return fmt.Errorf("describe image: %w", err)
		}
		raw = text
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("[ANALYSIS] %s failed: %v", intent, err)
		return nil, err
	}

	result, err := s.shapeResult(intent, raw)
	if err != nil {
		return nil, err
	}
	return BuildEnvelope(result, Auxiliary{ImageURL: publicURL}), nil
}

// ProcessVoiceNote transcribes a voice note and extracts the requested data from it
func (s *AnalysisService) ProcessVoiceNote(ctx context.Context, req VoiceNoteRequest) (*domain.Envelope, error) {
	intent, err := ClassifyIntent(ClassifyRequest{
		Endpoint:    domain.EndpointVoiceNote,
		ProcessType: req.ProcessType,
		HasMedia:    !req.Media.Empty(),
	})
	if err != nil {
		return nil, err
	}

	logged, err := ParseIngredientsData(req.IngredientsData)
	if err != nil {
		return nil, err
	}

	transcript, err := s.gateway.TranscribeAudio(ctx, req.Media)
	if err != nil {
		log.Printf("[ANALYSIS] %s transcription failed: %v", intent, err)
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("%w: empty transcription", domain.ErrUpstreamInvalidResponse)
	}

	instruction, err := BuildInstruction(intent, InstructionContext{
		TranscribedText:   transcript,
		LoggedIngredients: logged,
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.gateway.Complete(ctx, SystemRole, instruction)
	if err != nil {
		log.Printf("[ANALYSIS] %s completion failed: %v", intent, err)
		return nil, fmt.Errorf("complete: %w", err)
	}

	result, err := s.shapeResult(intent, raw)
	if err != nil {
		return nil, err
	}
	return BuildEnvelope(result, Auxiliary{Voice: true, Transcription: transcript}), nil
}

// ExtractLabel reads an ingredients or nutrition label from a product image
func (s *AnalysisService) ExtractLabel(ctx context.Context, processType string, image *domain.Media) (*domain.Envelope, error) {
	intent, err := ClassifyIntent(ClassifyRequest{
		Endpoint:    domain.EndpointLabelOCR,
		ProcessType: processType,
		HasMedia:    !image.Empty(),
	})
	if err != nil {
		return nil, err
	}

	instruction, err := BuildInstruction(intent, InstructionContext{})
	if err != nil {
		return nil, err
	}

	raw, err := s.gateway.DescribeImage(ctx, image, instruction)
	if err != nil {
		log.Printf("[ANALYSIS] %s failed: %v", intent, err)
		return nil, fmt.Errorf("describe image: %w", err)
	}

	result, err := s.shapeResult(intent, raw)
	if err != nil {
		return nil, err
	}
	return BuildEnvelope(result, Auxiliary{}), nil
}

// LookupIngredient returns per-100g nutrition facts for a named ingredient
func (s *AnalysisService) LookupIngredient(ctx context.Context, ingredientName string) (*domain.Envelope, error) {
	intent, err := ClassifyIntent(ClassifyRequest{
		Endpoint:       domain.EndpointIngredientLookup,
		IngredientName: ingredientName,
	})
	if err != nil {
		return nil, err
	}

	name := s.normalizer.Normalize(ingredientName)
	cacheKey := ingredientCacheKey(name)

	if cached, ok := s.fromCache(ctx, intent, cacheKey); ok {
		return BuildEnvelope(cached, Auxiliary{}), nil
	}

	instruction, err := BuildInstruction(intent, InstructionContext{IngredientName: name})
	if err != nil {
		return nil, err
	}

	raw, err := s.gateway.Complete(ctx, SystemRole, instruction)
	if err != nil {
		log.Printf("[ANALYSIS] %s for %q failed: %v", intent, name, err)
		return nil, fmt.Errorf("complete: %w", err)
	}

	result, err := s.shapeResult(intent, raw)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL); err != nil {
			log.Printf("[ANALYSIS] cache write for %s failed: %v", cacheKey, err)
		}
	}
	return BuildEnvelope(result, Auxiliary{}), nil
}

// fromCache returns a cached lookup result. Entries that no longer parse are evicted.
func (s *AnalysisService) fromCache(ctx context.Context, intent domain.ProcessingIntent, key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	result, err := s.shapeResult(intent, raw)
	if err != nil {
		log.Printf("[ANALYSIS] evicting unreadable cache entry %s: %v", key, err)
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return result, true
}

// shapeResult validates model text, or passes it through when validation is off
func (s *AnalysisService) shapeResult(intent domain.ProcessingIntent, raw string) (any, error) {
	if !s.validateOutput {
		return raw, nil
	}
	return ParseModelOutput(intent, raw)
}

// storageKey builds a collision-free object key from an uploaded filename
func (s *AnalysisService) storageKey(filename string) string {
	name := unsafeFilenameChars.ReplaceAllString(path.Base(strings.ReplaceAll(filename, "\\", "/")), "_")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		name = "upload"
	}
	return path.Join(s.uploadPrefix, uuid.NewString()+"-"+name)
}

// ParseIngredientsData decodes the user's ingredient history.
// It accepts a JSON object of name -> count or a JSON array of {"name","count"} objects.
func ParseIngredientsData(data string) ([]domain.LoggedIngredient, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}

	var counts map[string]int
	if err := strictDecode(data, &counts); err == nil {
		logged := make([]domain.LoggedIngredient, 0, len(counts))
		for name, count := range counts {
			logged = append(logged, domain.LoggedIngredient{Name: strings.TrimSpace(name), Count: count})
		}
		return validLoggedIngredients(logged)
	}

	var list []domain.LoggedIngredient
	if err := strictDecode(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidIngredientsData, err)
	}
	for i := range list {
		list[i].Name = strings.TrimSpace(list[i].Name)
	}
	return validLoggedIngredients(list)
}

func validLoggedIngredients(logged []domain.LoggedIngredient) ([]domain.LoggedIngredient, error) {
	for _, item := range logged {
		if item.Name == "" {
			return nil, fmt.Errorf("%w: ingredient name is empty", domain.ErrInvalidIngredientsData)
		}
		if item.Count < 0 {
			return nil, fmt.Errorf("%w: negative count for %q", domain.ErrInvalidIngredientsData, item.Name)
		}
	}
	return logged, nil
}

func strictDecode(data string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}

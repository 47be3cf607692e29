package usecase

import (
	"fmt"
	"strings"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

// ClassifyRequest describes an inbound request before any upstream work is done
type ClassifyRequest struct {
	Endpoint       domain.Endpoint
	ProcessType    string
	HasMedia       bool
	IngredientName string
}

// voiceIntents and labelIntents map process_type tokens per multi-purpose endpoint
var (
	voiceIntents = map[string]domain.ProcessingIntent{
		domain.ProcessTypeIngredients:       domain.IntentIngredientLabelFromVoice,
		domain.ProcessTypeNutritionalValues: domain.IntentNutritionLabelFromVoice,
		domain.ProcessTypeFoodLog:           domain.IntentMealFromVoice,
	}

	labelIntents = map[string]domain.ProcessingIntent{
		domain.ProcessTypeIngredients:       domain.IntentIngredientLabelFromImage,
		domain.ProcessTypeNutritionalValues: domain.IntentNutritionLabelFromImage,
	}
)

// ClassifyIntent maps a request to exactly one ProcessingIntent.
// Media presence is checked before the process type, so a request missing both
// reports ErrMissingMedia.
func ClassifyIntent(req ClassifyRequest) (domain.ProcessingIntent, error) {
	switch req.Endpoint {
	case domain.EndpointImageAnalysis:
		if !req.HasMedia {
			return "", domain.ErrMissingMedia
		}
		return domain.IntentMealFromImage, nil

	case domain.EndpointVoiceNote:
		if !req.HasMedia {
			return "", domain.ErrMissingMedia
		}
		return lookupIntent(voiceIntents, req.ProcessType)

	case domain.EndpointLabelOCR:
		if !req.HasMedia {
			return "", domain.ErrMissingMedia
		}
		return lookupIntent(labelIntents, req.ProcessType)

	case domain.EndpointIngredientLookup:
		if strings.TrimSpace(req.IngredientName) == "" {
			return "", domain.ErrMissingIngredientName
		}
		return domain.IntentSingleIngredientLookup, nil
	}

	return "", fmt.Errorf("%w: unknown endpoint %q", domain.ErrValidation, req.Endpoint)
}

func lookupIntent(intents map[string]domain.ProcessingIntent, processType string) (domain.ProcessingIntent, error) {
	intent, ok := intents[strings.TrimSpace(processType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidIntent, processType)
	}
	return intent, nil
}

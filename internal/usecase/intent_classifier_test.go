package usecase

import (
	"errors"
	"testing"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name    string
		req     ClassifyRequest
		want    domain.ProcessingIntent
		wantErr error
	}{
		{
			name: "image analysis",
			req:  ClassifyRequest{Endpoint: domain.EndpointImageAnalysis, HasMedia: true},
			want: domain.IntentMealFromImage,
		},
		{
			name:    "image analysis without image",
			req:     ClassifyRequest{Endpoint: domain.EndpointImageAnalysis},
			wantErr: domain.ErrMissingMedia,
		},
		{
			name: "voice food log",
			req:  ClassifyRequest{Endpoint: domain.EndpointVoiceNote, ProcessType: "food_log", HasMedia: true},
			want: domain.IntentMealFromVoice,
		},
		{
			name: "voice ingredients",
			req:  ClassifyRequest{Endpoint: domain.EndpointVoiceNote, ProcessType: "ingredients", HasMedia: true},
			want: domain.IntentIngredientLabelFromVoice,
		},
		{
			name: "voice nutritional values with surrounding whitespace",
			req:  ClassifyRequest{Endpoint: domain.EndpointVoiceNote, ProcessType: " nutritional_values\n", HasMedia: true},
			want: domain.IntentNutritionLabelFromVoice,
		},
		{
			name:    "voice bogus token",
			req:     ClassifyRequest{Endpoint: domain.EndpointVoiceNote, ProcessType: "bogus", HasMedia: true},
			wantErr: domain.ErrInvalidIntent,
		},
		{
			name:    "voice token is case sensitive",
			req:     ClassifyRequest{Endpoint: domain.EndpointVoiceNote, ProcessType: "FOOD_LOG", HasMedia: true},
			wantErr: domain.ErrInvalidIntent,
		},
		{
			name:    "voice empty token",
			req:     ClassifyRequest{Endpoint: domain.EndpointVoiceNote, HasMedia: true},
			wantErr: domain.ErrInvalidIntent,
		},
		{
			name:    "voice missing media reported before bad token",
			req:     ClassifyRequest{Endpoint: domain.EndpointVoiceNote, ProcessType: "bogus"},
			wantErr: domain.ErrMissingMedia,
		},
		{
			name: "label ingredients",
			req:  ClassifyRequest{Endpoint: domain.EndpointLabelOCR, ProcessType: "ingredients", HasMedia: true},
			want: domain.IntentIngredientLabelFromImage,
		},
		{
			name: "label nutritional values",
			req:  ClassifyRequest{Endpoint: domain.EndpointLabelOCR, ProcessType: "nutritional_values", HasMedia: true},
			want: domain.IntentNutritionLabelFromImage,
		},
		{
			name:    "label rejects food log",
			req:     ClassifyRequest{Endpoint: domain.EndpointLabelOCR, ProcessType: "food_log", HasMedia: true},
			wantErr: domain.ErrInvalidIntent,
		},
		{
			name:    "label missing media",
			req:     ClassifyRequest{Endpoint: domain.EndpointLabelOCR, ProcessType: "ingredients"},
			wantErr: domain.ErrMissingMedia,
		},
		{
			name: "ingredient lookup",
			req:  ClassifyRequest{Endpoint: domain.EndpointIngredientLookup, IngredientName: "banana"},
			want: domain.IntentSingleIngredientLookup,
		},
		{
			name:    "ingredient lookup blank name",
			req:     ClassifyRequest{Endpoint: domain.EndpointIngredientLookup, IngredientName: "   "},
			wantErr: domain.ErrMissingIngredientName,
		},
		{
			name:    "unknown endpoint",
			req:     ClassifyRequest{Endpoint: "video", HasMedia: true},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyIntent(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("error = %v, want it to match ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("intent = %v, want %v", got, tt.want)
			}
		})
	}
}

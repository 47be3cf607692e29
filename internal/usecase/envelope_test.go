package usecase

import (
	"encoding/json"
	"testing"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

func TestBuildEnvelope(t *testing.T) {
	t.Run("image result carries url", func(t *testing.T) {
		result := &domain.MealAnalysis{Title: "Salad"}
		env := BuildEnvelope(result, Auxiliary{ImageURL: "https://example.com/uploads/a.jpg"})

		if env.Result != result {
			t.Error("result was not passed through")
		}
		if env.ImageURL != "https://example.com/uploads/a.jpg" {
			t.Errorf("ImageURL = %q", env.ImageURL)
		}
	})

	t.Run("voice result is wrapped with transcription", func(t *testing.T) {
		env := BuildEnvelope("raw text", Auxiliary{Voice: true, Transcription: "two eggs"})

		voice, ok := env.Result.(domain.VoiceExtraction)
		if !ok {
			t.Fatalf("result type = %T, want domain.VoiceExtraction", env.Result)
		}
		if voice.ExtractedData != "raw text" {
			t.Errorf("ExtractedData = %v", voice.ExtractedData)
		}
		if voice.Transcription != "two eggs" {
			t.Errorf("Transcription = %q", voice.Transcription)
		}
	})

	t.Run("image url omitted when empty", func(t *testing.T) {
		body, err := json.Marshal(BuildEnvelope(&domain.IngredientLookup{}, Auxiliary{}))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if _, ok := fields["image_url"]; ok {
			t.Error("image_url present for a result without an image")
		}
		if _, ok := fields["result"]; !ok {
			t.Error("result key missing")
		}
	})
}

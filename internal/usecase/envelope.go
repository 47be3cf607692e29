package usecase

import "github.com/Dwonczykj/daily-j-backend/internal/domain"

// Auxiliary holds the optional fields that travel alongside a model result
type Auxiliary struct {
	ImageURL      string
	Transcription string
	Voice         bool
}

// BuildEnvelope shapes a result into the outward response body.
// The result is either a typed value from ParseModelOutput or the raw model text.
func BuildEnvelope(result any, aux Auxiliary) *domain.Envelope {
	envelope := &domain.Envelope{ImageURL: aux.ImageURL}

	if aux.Voice {
		envelope.Result = domain.VoiceExtraction{
			ExtractedData: result,
			Transcription: aux.Transcription,
		}
		return envelope
	}

	envelope.Result = result
	return envelope
}

package domain

// Envelope is the outward response body
type Envelope struct {
	Result   any    `json:"result"`
	ImageURL string `json:"image_url,omitempty"`
}

// VoiceExtraction is the result shape of a voice-note request
type VoiceExtraction struct {
	ExtractedData any    `json:"extracted_data"`
	Transcription string `json:"transcription"`
}

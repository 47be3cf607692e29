package domain

import (
	"context"
	"time"
)

// Media is an uploaded file held in memory for the duration of a request
type Media struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Empty reports whether no media bytes were provided
func (m *Media) Empty() bool {
	return m == nil || len(m.Data) == 0
}

// InferenceGateway is the external multimodal inference service boundary.
// Implementations return the model's raw text and never interpret it.
type InferenceGateway interface {
	DescribeImage(ctx context.Context, image *Media, instruction string) (string, error)
	TranscribeAudio(ctx context.Context, audio *Media) (string, error)
	Complete(ctx context.Context, systemRole, instruction string) (string, error)
}

// ObjectStorage uploads media and returns a publicly reachable URL
type ObjectStorage interface {
	Upload(ctx context.Context, key string, media *Media) (string, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

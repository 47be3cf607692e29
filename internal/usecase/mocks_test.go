package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

// MockGateway is a mock implementation of domain.InferenceGateway
type MockGateway struct {
	mu sync.Mutex

	describeResult   string
	describeError    error
	transcribeResult string
	transcribeError  error
	completeResult   string
	completeError    error

	describeCalls   int
	transcribeCalls int
	completeCalls   int

	lastInstruction string
	lastSystemRole  string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) DescribeImage(ctx context.Context, image *domain.Media, instruction string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.describeCalls++
	m.lastInstruction = instruction
	if m.describeError != nil {
		return "", m.describeError
	}
	return m.describeResult, nil
}

func (m *MockGateway) TranscribeAudio(ctx context.Context, audio *domain.Media) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcribeCalls++
	if m.transcribeError != nil {
		return "", m.transcribeError
	}
	return m.transcribeResult, nil
}

func (m *MockGateway) Complete(ctx context.Context, systemRole, instruction string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls++
	m.lastSystemRole = systemRole
	m.lastInstruction = instruction
	if m.completeError != nil {
		return "", m.completeError
	}
	return m.completeResult, nil
}

func (m *MockGateway) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.describeCalls + m.transcribeCalls + m.completeCalls
}

// MockStorage is a mock implementation of domain.ObjectStorage
type MockStorage struct {
	mu        sync.Mutex
	baseURL   string
	uploadErr error
	keys      []string
}

func NewMockStorage() *MockStorage {
	return &MockStorage{baseURL: "https://storage.googleapis.com/daily-j.appspot.com"}
}

func (m *MockStorage) Upload(ctx context.Context, key string, media *domain.Media) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	return m.baseURL + "/" + key, nil
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]string
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]string),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (string, error) {
	m.getCalled = true
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return "", domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

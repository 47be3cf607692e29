package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

type fakeObject struct {
	path        string
	body        []byte
	contentType string
	acl         string
}

// fakeS3 records PUT requests the way a path-style S3 endpoint receives them
type fakeS3 struct {
	mu      sync.Mutex
	objects []fakeObject
	status  int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.objects = append(f.objects, fakeObject{
		path:        r.URL.Path,
		body:        body,
		contentType: r.Header.Get("Content-Type"),
		acl:         r.Header.Get("X-Amz-Acl"),
	})
	status := f.status
	f.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
		return
	}
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func newTestS3Client(t *testing.T, endpoint string, publicRead bool) *S3Client {
	t.Helper()
	client, err := NewS3Client(context.Background(), Config{
		Bucket:     "daily-j.appspot.com",
		Endpoint:   endpoint,
		Region:     "auto",
		AccessKey:  "test-access",
		SecretKey:  "test-secret",
		PublicRead: publicRead,
	})
	require.NoError(t, err)
	return client
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), Config{Endpoint: "http://localhost"})
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	fake := &fakeS3{}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestS3Client(t, server.URL, true)
	media := &domain.Media{Data: []byte("jpeg-bytes"), Filename: "meal.jpg", ContentType: "image/jpeg"}

	url, err := client.Upload(context.Background(), "uploads/abc-meal.jpg", media)
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/daily-j.appspot.com/uploads/abc-meal.jpg", url)
	require.Len(t, fake.objects, 1)
	obj := fake.objects[0]
	assert.Equal(t, "/daily-j.appspot.com/uploads/abc-meal.jpg", obj.path)
	assert.Equal(t, "jpeg-bytes", string(obj.body))
	assert.Equal(t, "image/jpeg", obj.contentType)
	assert.Equal(t, "public-read", obj.acl)
}

func TestUpload_PrivateObject(t *testing.T) {
	fake := &fakeS3{}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestS3Client(t, server.URL, false)
	_, err := client.Upload(context.Background(), "uploads/a.png", &domain.Media{Data: []byte("png")})
	require.NoError(t, err)

	require.Len(t, fake.objects, 1)
	assert.Empty(t, fake.objects[0].acl)
}

func TestUpload_Failure(t *testing.T) {
	fake := &fakeS3{status: http.StatusForbidden}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestS3Client(t, server.URL, false)
	_, err := client.Upload(context.Background(), "uploads/a.png", &domain.Media{Data: []byte("png")})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestUpload_EmptyMedia(t *testing.T) {
	client := newTestS3Client(t, "http://127.0.0.1:1", false)

	_, err := client.Upload(context.Background(), "uploads/a.png", &domain.Media{})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestPublicURL(t *testing.T) {
	testCases := []struct {
		name   string
		config Config
		key    string
		want   string
	}{
		{
			name:   "explicit public base",
			config: Config{Bucket: "b", Endpoint: "https://storage.googleapis.com", PublicBaseURL: "https://cdn.example.com/"},
			key:    "uploads/x.jpg",
			want:   "https://cdn.example.com/uploads/x.jpg",
		},
		{
			name:   "path style on custom endpoint",
			config: Config{Bucket: "daily-j.appspot.com", Endpoint: "https://storage.googleapis.com/"},
			key:    "uploads/x.jpg",
			want:   "https://storage.googleapis.com/daily-j.appspot.com/uploads/x.jpg",
		},
		{
			name:   "aws regional",
			config: Config{Bucket: "meals", Region: "eu-west-2"},
			key:    "/uploads/x.jpg",
			want:   "https://meals.s3.eu-west-2.amazonaws.com/uploads/x.jpg",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.config.AccessKey = "a"
			tc.config.SecretKey = "s"
			client, err := NewS3Client(context.Background(), tc.config)
			require.NoError(t, err)
			assert.Equal(t, tc.want, client.PublicURL(tc.key))
		})
	}
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

// Config describes an S3-compatible bucket
type Config struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	PublicRead    bool
}

// S3Client uploads media to any S3-compatible object store
// (Google Cloud Storage interoperability, Cloudflare R2, AWS S3, MinIO)
type S3Client struct {
	client     *s3.Client
	bucket     string
	baseURL    string
	publicRead bool
}

// NewS3Client creates an S3 client using static credentials when given,
// falling back to the default AWS credential chain otherwise
func NewS3Client(ctx context.Context, cfg Config) (*S3Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage: bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
		// non-AWS stores reject the SDK's default trailing checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultPublicBaseURL(endpoint, cfg.Bucket, region)
	}

	log.Printf("[STORAGE] Using bucket %q, public base %s", cfg.Bucket, baseURL)
	return &S3Client{
		client:     client,
		bucket:     cfg.Bucket,
		baseURL:    baseURL,
		publicRead: cfg.PublicRead,
	}, nil
}

// Upload stores the media under key and returns its public URL
func (c *S3Client) Upload(ctx context.Context, key string, media *domain.Media) (string, error) {
	if media.Empty() {
		return "", fmt.Errorf("%w: empty media for %s", domain.ErrStorageFailure, key)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(media.Data),
		ContentLength: aws.Int64(int64(len(media.Data))),
	}
	if media.ContentType != "" {
		input.ContentType = aws.String(media.ContentType)
	}
	if c.publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		log.Printf("[STORAGE] Upload of %s failed: %v", key, err)
		return "", fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}

	return c.PublicURL(key), nil
}

// PublicURL returns the URL an uploaded key is served from
func (c *S3Client) PublicURL(key string) string {
	return c.baseURL + "/" + strings.TrimLeft(key, "/")
}

func defaultPublicBaseURL(endpoint, bucket, region string) string {
	if endpoint != "" {
		return endpoint + "/" + bucket
	}
	if region == "auto" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

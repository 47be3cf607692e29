package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dwonczykj/daily-j-backend/config"
	httpDelivery "github.com/Dwonczykj/daily-j-backend/internal/delivery/http"
	"github.com/Dwonczykj/daily-j-backend/internal/domain"
	"github.com/Dwonczykj/daily-j-backend/internal/infrastructure/cache"
	"github.com/Dwonczykj/daily-j-backend/internal/infrastructure/gemini"
	"github.com/Dwonczykj/daily-j-backend/internal/infrastructure/openai"
	"github.com/Dwonczykj/daily-j-backend/internal/infrastructure/storage"
	"github.com/Dwonczykj/daily-j-backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional and only read outside production
	if os.Getenv("DAILYJ_SERVER_ENVIRONMENT") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("WARNING: failed to read .env: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := cfg.Server.Environment == "development"

	// Initialize infrastructure dependencies
	gateway, closeGateway, err := newGateway(ctx, cfg, debug)
	if err != nil {
		log.Fatalf("Failed to create inference gateway: %v", err)
	}
	defer closeGateway()

	bucket, err := storage.NewS3Client(ctx, storage.Config{
		Bucket:        cfg.Storage.Bucket,
		Endpoint:      cfg.Storage.Endpoint,
		Region:        cfg.Storage.Region,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		PublicRead:    cfg.Storage.PublicRead,
	})
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	log.Printf("Storage: bucket=%s endpoint=%s", cfg.Storage.Bucket, cfg.Storage.Endpoint)

	var lookupCache domain.CacheRepository
	if cfg.Cache.Type == "memory" {
		lookupCache = cache.NewMemoryCache(ctx, cache.DefaultCleanupInterval)
		log.Printf("Cache: memory, TTL %s", cfg.Cache.TTL)
	} else {
		log.Printf("Cache: disabled")
	}

	// Initialize usecase layer
	analysisService := usecase.NewAnalysisService(
		gateway,
		bucket,
		lookupCache,
		usecase.AnalysisServiceConfig{
			ValidateOutput:     cfg.Output.Validate,
			CacheTTL:           cfg.Cache.TTL,
			UploadPrefix:       cfg.Storage.KeyPrefix,
			EnableDebugLogging: debug,
		},
	)
	log.Printf("Output validation: %v", cfg.Output.Validate)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(analysisService, httpDelivery.HandlerConfig{
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		log.Printf("Failed to start server: %v", err)
		return
	case <-ctx.Done():
	}
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// newGateway builds the configured inference provider and its cleanup func
func newGateway(ctx context.Context, cfg *config.Config, debug bool) (domain.InferenceGateway, func(), error) {
	switch cfg.Gateway.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
		if err != nil {
			return nil, nil, err
		}
		client.SetDebug(debug)
		log.Printf("Gateway: gemini (model %s)", cfg.Gemini.Model)
		return client, func() {
			if err := client.Close(); err != nil {
				log.Printf("Failed to close gemini client: %v", err)
			}
		}, nil

	default:
		client := openai.NewClient(openai.Config{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			ChatModel:          cfg.OpenAI.ChatModel,
			VisionModel:        cfg.OpenAI.VisionModel,
			TranscriptionModel: cfg.OpenAI.TranscriptionModel,
			Timeout:            cfg.OpenAI.Timeout,
			RequestsPerMinute:  cfg.OpenAI.RequestsPerMinute,
			MaxAttempts:        cfg.OpenAI.MaxAttempts,
		})
		client.SetDebug(debug)
		log.Printf("Gateway: openai (chat %s, vision %s, transcription %s)",
			cfg.OpenAI.ChatModel, cfg.OpenAI.VisionModel, cfg.OpenAI.TranscriptionModel)
		return client, func() {}, nil
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}

package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DAILYJ_SERVER_PORT", "PORT",
		"DAILYJ_SERVER_ENVIRONMENT",
		"DAILYJ_SERVER_ALLOWED_ORIGINS",
		"DAILYJ_SERVER_REQUEST_TIMEOUT",
		"DAILYJ_SERVER_MAX_UPLOAD_MB",
		"DAILYJ_APP_VERSION", "APP_VERSION",
		"DAILYJ_GATEWAY_PROVIDER",
		"DAILYJ_OPENAI_API_KEY", "OPENAI_API_KEY",
		"DAILYJ_OPENAI_MAX_ATTEMPTS",
		"DAILYJ_GEMINI_API_KEY", "GEMINI_API_KEY",
		"DAILYJ_STORAGE_BUCKET",
		"DAILYJ_STORAGE_ACCESS_KEY",
		"DAILYJ_STORAGE_SECRET_KEY",
		"DAILYJ_CACHE_TYPE",
		"DAILYJ_CACHE_TTL",
		"DAILYJ_RATELIMIT_PER_IP",
		"DAILYJ_OUTPUT_VALIDATE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when only the API key is set", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DAILYJ_OPENAI_API_KEY", "test-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "5000" {
			t.Errorf("Server.Port = %s, want 5000", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Server.RequestTimeout != 120*time.Second {
			t.Errorf("Server.RequestTimeout = %v, want 120s", cfg.Server.RequestTimeout)
		}
		if cfg.MaxUploadBytes() != 25<<20 {
			t.Errorf("MaxUploadBytes() = %d, want %d", cfg.MaxUploadBytes(), 25<<20)
		}
		if cfg.App.Version != "1.0.0" {
			t.Errorf("App.Version = %s, want 1.0.0", cfg.App.Version)
		}
		if cfg.Gateway.Provider != "openai" {
			t.Errorf("Gateway.Provider = %s, want openai", cfg.Gateway.Provider)
		}
		if cfg.OpenAI.MaxAttempts != 1 {
			t.Errorf("OpenAI.MaxAttempts = %d, want 1", cfg.OpenAI.MaxAttempts)
		}
		if cfg.Storage.Bucket != "daily-j.appspot.com" {
			t.Errorf("Storage.Bucket = %s, want daily-j.appspot.com", cfg.Storage.Bucket)
		}
		if cfg.Cache.Type != "none" {
			t.Errorf("Cache.Type = %s, want none", cfg.Cache.Type)
		}
		if !cfg.Output.Validate {
			t.Error("Output.Validate = false, want true")
		}
		if cfg.IsProduction() {
			t.Error("IsProduction() = true for development")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DAILYJ_SERVER_PORT", "9090")
		t.Setenv("DAILYJ_SERVER_ENVIRONMENT", "production")
		t.Setenv("DAILYJ_SERVER_ALLOWED_ORIGINS", "https://app.example.com,chrome-extension://*")
		t.Setenv("DAILYJ_GATEWAY_PROVIDER", "gemini")
		t.Setenv("DAILYJ_GEMINI_API_KEY", "gemini-key")
		t.Setenv("DAILYJ_CACHE_TYPE", "memory")
		t.Setenv("DAILYJ_CACHE_TTL", "1h")
		t.Setenv("DAILYJ_RATELIMIT_PER_IP", "0")
		t.Setenv("DAILYJ_OUTPUT_VALIDATE", "false")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if !cfg.IsProduction() {
			t.Error("IsProduction() = false for production")
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "chrome-extension://*" {
			t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
		}
		if cfg.Gateway.Provider != "gemini" || cfg.Gemini.APIKey != "gemini-key" {
			t.Errorf("Gateway = %s, Gemini key = %q", cfg.Gateway.Provider, cfg.Gemini.APIKey)
		}
		if cfg.Cache.Type != "memory" || cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache = %+v", cfg.Cache)
		}
		if cfg.RateLimit.PerIP != 0 {
			t.Errorf("RateLimit.PerIP = %d, want 0", cfg.RateLimit.PerIP)
		}
		if cfg.Output.Validate {
			t.Error("Output.Validate = true, want false")
		}
	})

	t.Run("falls back to plain variable names", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "plain-key")
		t.Setenv("PORT", "7000")
		t.Setenv("APP_VERSION", "2.3.4")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.OpenAI.APIKey != "plain-key" {
			t.Errorf("OpenAI.APIKey = %q, want plain-key", cfg.OpenAI.APIKey)
		}
		if cfg.Server.Port != "7000" {
			t.Errorf("Server.Port = %s, want 7000", cfg.Server.Port)
		}
		if cfg.App.Version != "2.3.4" {
			t.Errorf("App.Version = %s, want 2.3.4", cfg.App.Version)
		}
	})

	t.Run("prefixed variable wins over plain name", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DAILYJ_OPENAI_API_KEY", "prefixed")
		t.Setenv("OPENAI_API_KEY", "plain")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.OpenAI.APIKey != "prefixed" {
			t.Errorf("OpenAI.APIKey = %q, want prefixed", cfg.OpenAI.APIKey)
		}
	})
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing OpenAI key",
			env:     map[string]string{},
			wantErr: "OpenAI API key is required",
		},
		{
			name:    "missing Gemini key",
			env:     map[string]string{"DAILYJ_GATEWAY_PROVIDER": "gemini"},
			wantErr: "Gemini API key is required",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"DAILYJ_GATEWAY_PROVIDER": "llama", "DAILYJ_OPENAI_API_KEY": "k"},
			wantErr: "gateway provider must be",
		},
		{
			name:    "unknown cache type",
			env:     map[string]string{"DAILYJ_OPENAI_API_KEY": "k", "DAILYJ_CACHE_TYPE": "redis"},
			wantErr: "cache type must be",
		},
		{
			name:    "zero attempts",
			env:     map[string]string{"DAILYJ_OPENAI_API_KEY": "k", "DAILYJ_OPENAI_MAX_ATTEMPTS": "0"},
			wantErr: "max attempts",
		},
		{
			name:    "non-positive upload limit",
			env:     map[string]string{"DAILYJ_OPENAI_API_KEY": "k", "DAILYJ_SERVER_MAX_UPLOAD_MB": "-1"},
			wantErr: "max upload size",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

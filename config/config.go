package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Gateway   GatewayConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Storage   StorageConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Output    OutputConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadMB    int           `mapstructure:"max_upload_mb"`
}

// AppConfig holds values reported by the version endpoints
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// GatewayConfig selects the inference provider
type GatewayConfig struct {
	Provider string `mapstructure:"provider"` // "openai" or "gemini"
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	ChatModel          string        `mapstructure:"chat_model"`
	VisionModel        string        `mapstructure:"vision_model"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	Timeout            time.Duration `mapstructure:"timeout"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// StorageConfig describes the S3-compatible bucket meal images are uploaded to
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	PublicRead    bool   `mapstructure:"public_read"`
}

// CacheConfig holds ingredient lookup cache configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "none" or "memory"
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// OutputConfig controls how model output is returned
type OutputConfig struct {
	Validate bool `mapstructure:"validate"`
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dailyj/")

	// DAILYJ_SERVER_PORT -> server.port
	v.SetEnvPrefix("DAILYJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_upload_mb", 25)

	// App defaults
	v.SetDefault("app.name", "dailyj-backend")
	v.SetDefault("app.version", "1.0.0")

	// Gateway defaults
	v.SetDefault("gateway.provider", "openai")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.chat_model", "gpt-4")
	v.SetDefault("openai.vision_model", "gpt-4o")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.timeout", "90s")
	v.SetDefault("openai.requests_per_minute", 60)
	v.SetDefault("openai.max_attempts", 1)

	v.SetDefault("gemini.model", "gemini-1.5-flash")

	// Storage defaults (Google Cloud Storage interoperability API)
	v.SetDefault("storage.bucket", "daily-j.appspot.com")
	v.SetDefault("storage.endpoint", "https://storage.googleapis.com")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.key_prefix", "uploads")
	v.SetDefault("storage.public_read", true)

	// Cache defaults
	v.SetDefault("cache.type", "none")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	v.SetDefault("output.validate", true)
}

// bindEnv registers keys without defaults, plus the plain variable names
// older deployments set (OPENAI_API_KEY, PORT, ...)
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port":             {"DAILYJ_SERVER_PORT", "PORT"},
		"app.version":             {"DAILYJ_APP_VERSION", "APP_VERSION"},
		"openai.api_key":          {"DAILYJ_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"gemini.api_key":          {"DAILYJ_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"storage.access_key":      {"DAILYJ_STORAGE_ACCESS_KEY"},
		"storage.secret_key":      {"DAILYJ_STORAGE_SECRET_KEY"},
		"storage.public_base_url": {"DAILYJ_STORAGE_PUBLIC_BASE_URL"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

// validate validates the configuration
func validate(config *Config) error {
	if strings.TrimSpace(config.Server.Port) == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive, got: %s", config.Server.RequestTimeout)
	}

	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server max upload size must be positive, got: %d", config.Server.MaxUploadMB)
	}

	switch config.Gateway.Provider {
	case "openai":
		if config.OpenAI.APIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set DAILYJ_OPENAI_API_KEY or OPENAI_API_KEY)")
		}
		if config.OpenAI.MaxAttempts < 1 {
			return fmt.Errorf("openai max attempts must be at least 1, got: %d", config.OpenAI.MaxAttempts)
		}
	case "gemini":
		if config.Gemini.APIKey == "" {
			return fmt.Errorf("Gemini API key is required (set DAILYJ_GEMINI_API_KEY or GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("gateway provider must be 'openai' or 'gemini', got: %s", config.Gateway.Provider)
	}

	if strings.TrimSpace(config.Storage.Bucket) == "" {
		return fmt.Errorf("storage bucket is required")
	}

	if config.Cache.Type != "none" && config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'none' or 'memory', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "memory" && config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when cache type is 'memory'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("per-IP rate limit must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Fetch   FetchConfig
	Model   ModelConfig
	History HistoryConfig
}

// ServerConfig holds upload-server configuration
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	UploadDir      string
	MaxUploadBytes int64
	ModelAttempts  int
}

// FetchConfig holds resource-fetcher configuration
type FetchConfig struct {
	HTTPTimeout time.Duration
}

// ModelConfig holds model-provider configuration
type ModelConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	TextTokens   int64
	FieldsTokens int64
}

// HistoryConfig holds the embedded history store configuration
type HistoryConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("DOCVISION_ADDR", ":8080"),
			RequestTimeout: getEnvAsDuration("DOCVISION_REQUEST_TIMEOUT", 2*time.Minute),
			UploadDir:      getEnv("DOCVISION_UPLOAD_DIR", os.TempDir()),
			MaxUploadBytes: getEnvAsInt64("DOCVISION_MAX_UPLOAD_BYTES", 32<<20),
			ModelAttempts:  getEnvAsInt("DOCVISION_MODEL_ATTEMPTS", 1),
		},
		Fetch: FetchConfig{
			HTTPTimeout: getEnvAsDuration("DOCVISION_FETCH_TIMEOUT", 30*time.Second),
		},
		Model: ModelConfig{
			APIKey:       getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL:      getEnv("ANTHROPIC_BASE_URL", ""),
			Model:        getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			Timeout:      getEnvAsDuration("ANTHROPIC_TIMEOUT", 60*time.Second),
			TextTokens:   getEnvAsInt64("DOCVISION_TEXT_MAX_TOKENS", 1024),
			FieldsTokens: getEnvAsInt64("DOCVISION_FIELDS_MAX_TOKENS", 500),
		},
		History: HistoryConfig{
			Path: getEnv("DOCVISION_HISTORY_PATH", "./docvision.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the process-wide preconditions. A missing model
// credential is a fatal startup error, not a per-call error.
func (c *Config) Validate() error {
	if c.Model.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "ANTHROPIC_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "DOCVISION_ADDR is required", ErrInvalidInput)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendSupabase = "supabase"
)

type Config struct {
	// Storage
	StorageBackend string
	DataFile       string
	ImageDir       string
	MaxUploadMB    int

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseStorageBucket  string
	SupabaseOrdersTable    string

	// Database
	DatabaseURL string

	// Server
	Port          string
	Environment   string
	PublicBaseURL string

	// Pages
	SessionTTLHours int
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	cfg := &Config{
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
		DataFile:       getEnv("DATA_FILE", "data/orders.json"),
		ImageDir:       getEnv("IMAGE_DIR", "data/images"),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 32),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "images"),
		SupabaseOrdersTable:    getEnv("SUPABASE_ORDERS_TABLE", "orders"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 12),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required")
		}
		if c.ImageDir == "" {
			return fmt.Errorf("IMAGE_DIR is required")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.SupabasePublishableKey == "" {
			return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
		}
		if c.SupabaseStorageBucket == "" {
			return fmt.Errorf("SUPABASE_STORAGE_BUCKET is required")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendFile, BackendSupabase, c.StorageBackend)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// SessionTTL is how long an idle browser keeps its page state.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// MaxUploadBytes is the multipart memory limit for form posts.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

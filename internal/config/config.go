package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	DBDriver    string
	DatabaseURL string

	JWTSecret      string
	SessionTTL     time.Duration
	GoogleClientID string
	GoogleJWKSURL  string

	BlobBackend    string
	UploadDir      string
	PublicBaseURL  string
	MaxUploadBytes int64

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	WSMaxMessageBytes int64
	WSRateBurst       int
	WSRateInterval    time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8000"),
		Environment:    getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:8100")),

		DBDriver:    getEnvWithDefault("DB_DRIVER", "pgx"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleJWKSURL:  getEnvWithDefault("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),

		BlobBackend:   getEnvWithDefault("BLOB_BACKEND", "local"),
		UploadDir:     getEnvWithDefault("UPLOAD_DIR", "static/avatars"),
		PublicBaseURL: getEnvWithDefault("PUBLIC_BASE_URL", "/static/avatars"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_KEY"),
		SupabaseBucket: getEnvWithDefault("SUPABASE_BUCKET", "avatars"),
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = getInt64("MAX_UPLOAD_BYTES", 5<<20); err != nil {
		return nil, err
	}
	if cfg.WSMaxMessageBytes, err = getInt64("WS_MAX_MESSAGE_BYTES", 4096); err != nil {
		return nil, err
	}
	burst, err := getInt64("WS_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	cfg.WSRateBurst = int(burst)
	if cfg.WSRateInterval, err = getDuration("WS_RATE_INTERVAL", time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and backend-specific settings.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.DBDriver {
	case "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected pgx or sqlite3)", c.DBDriver)
	}

	switch c.BlobBackend {
	case "local":
	case "cloudinary":
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary backend")
		}
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND %q (expected local, cloudinary or supabase)", c.BlobBackend)
	}

	if c.WSRateBurst <= 0 || c.WSRateInterval <= 0 {
		return fmt.Errorf("WS_RATE_BURST and WS_RATE_INTERVAL must be positive")
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/techlearn-backend/internal/data/db"
	"github.com/yungbote/techlearn-backend/internal/platform/envutil"
	"github.com/yungbote/techlearn-backend/internal/platform/openai"
	"github.com/yungbote/techlearn-backend/internal/services"
)

const (
	ServiceName       = "techlearn-backend"
	defaultJWTSecret  = "defaultsecret"
	StorageModeLocal  = "local"
	defaultLocalStore = "uploads"
)

type Config struct {
	Port    string
	AppEnv  string
	LogMode string
	Version string

	JWTSecretKey        string
	AccessTokenTTL      time.Duration
	DefaultOrgSubdomain string

	DB db.Config

	ObjectStorageMode string
	LocalStorageDir   string
	MaxUploadBytes    int64

	OpenAI                openai.Config
	ExtractionTimeout     time.Duration
	ExtractionConcurrency int
	StaleProcessingAfter  time.Duration
	ReaperSchedule        string

	RedisAddr         string
	AnalyticsCacheTTL time.Duration

	PublicDir   string
	CORSOrigins []string
}

func LoadConfig() Config {
	return Config{
		Port:    envutil.String("PORT", "8080"),
		AppEnv:  strings.ToLower(envutil.String("APP_ENV", "development")),
		LogMode: envutil.String("LOG_MODE", "development"),
		Version: envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:        envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL:      envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		DefaultOrgSubdomain: envutil.String("DEFAULT_ORG_SUBDOMAIN", "demo"),

		DB: db.ConfigFromEnv(),

		ObjectStorageMode: strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", StorageModeLocal)),
		LocalStorageDir:   envutil.String("LOCAL_STORAGE_DIR", defaultLocalStore),
		MaxUploadBytes:    envutil.Int64("MAX_UPLOAD_BYTES", services.DefaultMaxUploadBytes),

		OpenAI:                openai.ConfigFromEnv(),
		ExtractionTimeout:     envutil.Duration("EXTRACTION_TIMEOUT", 10*time.Minute),
		ExtractionConcurrency: envutil.Int("EXTRACTION_CONCURRENCY", 2),
		StaleProcessingAfter:  envutil.Duration("STALE_PROCESSING_AFTER", 2*time.Hour),
		ReaperSchedule:        envutil.String("REAPER_SCHEDULE", "@every 15m"),

		RedisAddr:         envutil.String("REDIS_ADDR", ""),
		AnalyticsCacheTTL: envutil.Duration("ANALYTICS_CACHE_TTL", 30*time.Second),

		PublicDir:   envutil.String("PUBLIC_DIR", ""),
		CORSOrigins: envutil.List("CORS_ALLOW_ORIGINS", nil),
	}
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// Validate rejects settings that would leave the server insecure or unable to
// make progress.
func (c Config) Validate() error {
	if c.IsProduction() && (c.JWTSecretKey == "" || c.JWTSecretKey == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.ExtractionConcurrency < 1 {
		return fmt.Errorf("EXTRACTION_CONCURRENCY must be at least 1")
	}
	if c.ObjectStorageMode == StorageModeLocal && strings.TrimSpace(c.LocalStorageDir) == "" {
		return fmt.Errorf("LOCAL_STORAGE_DIR is required when OBJECT_STORAGE_MODE=%s", StorageModeLocal)
	}
	return nil
}

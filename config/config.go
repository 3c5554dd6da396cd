package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds every setting of the web service. Variable names follow the
// plain names used in .env files (no prefix).
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	GoEnv    string `envconfig:"GO_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// memory, redis or mongo
	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"memory"`
	MongoURI       string `envconfig:"MONGODB_URI"`
	MongoDatabase  string `envconfig:"MONGODB_DATABASE" default:"civicsync"`
	RedisAddress   string `envconfig:"REDIS_ADDRESS"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	ReportLimitKey string `envconfig:"REDIS_QUEUE_FOR_REPORT_LIMIT" default:"civicsync:report-limit"`
	ReportLimit    int    `envconfig:"REPORT_DAILY_LIMIT" default:"20"`

	JWTSecret   string   `envconfig:"JWT_SECRET"`
	Domain      string   `envconfig:"DOMAIN"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	APIKey     string `envconfig:"API_KEY"`
	ImageModel string `envconfig:"GEMINI_IMAGE_MODEL" default:"gemini-2.5-flash-image"`
	ChatModel  string `envconfig:"GEMINI_CHAT_MODEL" default:"gemini-2.5-flash"`

	// inline or minio
	MediaStore     string        `envconfig:"MEDIA_STORE" default:"inline"`
	MinioEndpoint  string        `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string        `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string        `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string        `envconfig:"MINIO_BUCKET" default:"civicsync-reports"`
	MinioUseSSL    bool          `envconfig:"MINIO_USE_SSL" default:"false"`
	MediaURLTTL    time.Duration `envconfig:"MEDIA_URL_TTL" default:"24h"`

	LocalesBaseURL string `envconfig:"LOCALES_BASE_URL"`

	// timer or redis
	StatusDriver      string        `envconfig:"STATUS_DRIVER" default:"timer"`
	StatusChannel     string        `envconfig:"STATUS_CHANNEL" default:"civicsync:report-status"`
	StatusReviewAfter time.Duration `envconfig:"STATUS_REVIEW_AFTER" default:"8s"`
	StatusActionAfter time.Duration `envconfig:"STATUS_ACTION_AFTER" default:"12s"`

	MaxVideoSeconds float64       `envconfig:"MAX_VIDEO_SECONDS" default:"15"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	AuthDelay       time.Duration `envconfig:"AUTH_DELAY" default:"0s"`
	BrowserIdleTTL  time.Duration `envconfig:"BROWSER_IDLE_TTL" default:"2h"`
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Validate checks driver names and the settings each driver needs.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "memory":
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("STORAGE_DRIVER=redis requires REDIS_ADDRESS")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("STORAGE_DRIVER=mongo requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.StorageDriver)
	}

	switch c.MediaStore {
	case "inline":
	case "minio":
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" {
			return fmt.Errorf("MEDIA_STORE=minio requires MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_STORE: %s", c.MediaStore)
	}

	switch c.StatusDriver {
	case "timer":
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("STATUS_DRIVER=redis requires REDIS_ADDRESS")
		}
	default:
		return fmt.Errorf("unsupported STATUS_DRIVER: %s", c.StatusDriver)
	}

	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.MaxVideoSeconds <= 0 {
		return fmt.Errorf("MAX_VIDEO_SECONDS must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// Load reads an optional .env file and decodes the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		// Development only: Validate rejects this in production.
		cfg.JWTSecret = "civicsync-dev-secret"
		log.Warn().Msg("JWT_SECRET not set, using development secret")
	}

	log.Info().
		Str("env", cfg.GoEnv).
		Int("port", cfg.Port).
		Str("storage_driver", cfg.StorageDriver).
		Str("media_store", cfg.MediaStore).
		Str("status_driver", cfg.StatusDriver).
		Bool("annotator_configured", cfg.APIKey != "").
		Msg("configuration loaded")

	return &cfg, nil
}

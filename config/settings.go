package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// Settings is the process configuration, read from env (and .env when present).
//
// Env:
// - DB_DIALECT (mysql | postgres, default mysql)
// - DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME
// - DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME_SECONDS, DB_CONN_MAX_IDLE_TIME_SECONDS
// - RECONCILE_CHUNK_SIZE (default 1000), LOAD_CHUNK_SIZE (default 5000)
// - REDIS_ADDRESS, LOAD_LOCK_TTL_SECONDS (default 300)
// - PUBSUB_PROJECT_ID, INGEST_TOPIC
// - GCS_BUCKET
// - API_PORT / PORT, CORS_ALLOWED_ORIGINS, GO_ENV, LOG_LEVEL
// - MAX_UPLOAD_MB (default 50)
// - RATE_LIMIT_ENABLED, RATE_LIMIT_MAX_REQUESTS (default 120), RATE_LIMIT_WINDOW_SECONDS (default 60)
type Settings struct {
	DB DatabaseSettings

	ReconcileChunkSize int `validate:"min=1"`
	LoadChunkSize      int `validate:"min=1"`

	RedisAddress       string
	LoadLockTTLSeconds int `validate:"min=1"`

	PubSubProjectID string
	IngestTopic     string

	GCSBucket string

	Port               string `validate:"required,numeric"`
	CORSAllowedOrigins []string
	Env                string
	LogLevel           string `validate:"oneof=trace debug info warn warning error fatal panic"`
	MaxUploadMB        int    `validate:"min=1"`

	RateLimitEnabled       bool
	RateLimitMaxRequests   int `validate:"min=1"`
	RateLimitWindowSeconds int `validate:"min=1"`
}

type DatabaseSettings struct {
	Dialect  string `validate:"required,oneof=mysql postgres"`
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	User     string `validate:"required"`
	Password string
	Name     string `validate:"required"`

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

var validate = validator.New()

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings reads Settings from the environment and validates them.
func LoadSettings() (*Settings, error) {
	dialect := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DIALECT")))
	if dialect == "" {
		dialect = DialectMySQL
	}
	dbPort := strings.TrimSpace(os.Getenv("DB_PORT"))
	if dbPort == "" {
		if dialect == DialectPostgres {
			dbPort = "5432"
		} else {
			dbPort = "3306"
		}
	}

	port := strings.TrimSpace(os.Getenv("API_PORT"))
	if port == "" {
		// Cloud Run standard env var.
		port = strings.TrimSpace(os.Getenv("PORT"))
	}
	if port == "" {
		port = "8080"
	}

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "info"
	}

	s := &Settings{
		DB: DatabaseSettings{
			Dialect:                dialect,
			Host:                   strings.TrimSpace(os.Getenv("DB_HOST")),
			Port:                   dbPort,
			User:                   os.Getenv("DB_USER"),
			Password:               os.Getenv("DB_PASSWORD"),
			Name:                   os.Getenv("DB_NAME"),
			MaxOpenConns:           intFromEnv("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:           intFromEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeSeconds: intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300),
			ConnMaxIdleTimeSeconds: intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60),
		},
		ReconcileChunkSize: intFromEnv("RECONCILE_CHUNK_SIZE", 1000),
		LoadChunkSize:      intFromEnv("LOAD_CHUNK_SIZE", 5000),
		RedisAddress:       strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		LoadLockTTLSeconds: intFromEnv("LOAD_LOCK_TTL_SECONDS", 300),
		PubSubProjectID:    pubSubProjectID(),
		IngestTopic:        strings.TrimSpace(os.Getenv("INGEST_TOPIC")),
		GCSBucket:          strings.TrimSpace(os.Getenv("GCS_BUCKET")),
		Port:               port,
		CORSAllowedOrigins: splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Env:                strings.TrimSpace(os.Getenv("GO_ENV")),
		LogLevel:           logLevel,
		MaxUploadMB:        intFromEnv("MAX_UPLOAD_MB", 50),

		RateLimitEnabled:       boolFromEnv("RATE_LIMIT_ENABLED"),
		RateLimitMaxRequests:   intFromEnv("RATE_LIMIT_MAX_REQUESTS", 120),
		RateLimitWindowSeconds: intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60),
	}

	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// IsProduction reports whether GO_ENV is production.
func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

func pubSubProjectID() string {
	// Prefer explicit override.
	if v := strings.TrimSpace(os.Getenv("PUBSUB_PROJECT_ID")); v != "" {
		return v
	}
	// Cloud Run/Cloud Functions often set this.
	return strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

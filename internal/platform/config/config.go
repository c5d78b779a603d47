package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the API service. It is loaded once at
// process start and treated as immutable afterwards.
type Config struct {
	Addr        string
	Env         string // "production" suppresses internal error detail
	LogLevel    string
	DatabaseURL string

	JWT       JWTConfig
	RateLimit RateLimitConfig
	Body      BodyLimitConfig
}

// JWTConfig holds token signing parameters.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// RateLimitConfig holds token bucket parameters for per-IP rate limiting.
type RateLimitConfig struct {
	Rate  float64
	Burst int
}

// BodyLimitConfig holds human-readable size limits per body category plus
// the streaming backstop. Values use the <number>(b|kb|mb|gb) grammar and
// are resolved to byte counts by the size governor at wiring time.
type BodyLimitConfig struct {
	JSON       string
	URLEncoded string
	Text       string
	File       string
	Raw        string
	StreamMax  string
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() Config {
	return Config{
		Addr:        envOr("API_ADDR", ":8080"),
		Env:         envOr("APP_ENV", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		DatabaseURL: envOr("DATABASE_URL", "postgres://localhost:5432/pathways"),
		JWT: JWTConfig{
			Secret: envOr("JWT_SECRET", "dev-only-secret"),
			Issuer: envOr("JWT_ISSUER", "pathways"),
			TTL:    envDuration("JWT_TTL", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Rate:  envFloat("RATE_LIMIT_RATE", 100),
			Burst: envInt("RATE_LIMIT_BURST", 20),
		},
		Body: BodyLimitConfig{
			JSON:       envOr("BODY_LIMIT_JSON", "1mb"),
			URLEncoded: envOr("BODY_LIMIT_URLENCODED", "1mb"),
			Text:       envOr("BODY_LIMIT_TEXT", "1mb"),
			File:       envOr("BODY_LIMIT_FILE", "10mb"),
			Raw:        envOr("BODY_LIMIT_RAW", "1mb"),
			StreamMax:  envOr("BODY_LIMIT_STREAM_MAX", "50mb"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return n
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return f
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return d
	}
	return fallback
}

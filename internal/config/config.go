// Package config handles loading and validation of engine configuration
// from environment variables, plus the fixed trust and notification rules.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds all runtime configuration.
type Config struct {
	Environment string // "development" | "staging" | "production"
	HTTPAddr    string

	// Document store
	StoreBackend  string // "mongo" | "memory"
	MongoURI      string
	MongoDatabase string

	// Redis (suspension cache, dedup, pub/sub)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Postgres (admin review queue)
	DatabaseURL string

	// Admin API
	JWTSecret string

	// Push delivery
	PushEndpoint string
	PushTimeout  time.Duration

	// Moderator alerts
	TelegramBotToken    string
	TelegramAdminChatID int64

	// Trigger hub
	TriggerSources []string
	HubMaxInflight int
	DedupTTL       time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),

		StoreBackend:  getEnv("STORE_BACKEND", "mongo"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDatabase: getEnv("MONGO_DATABASE", "guri"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", devJWTSecret),

		PushEndpoint: getEnv("PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send"),
		PushTimeout:  getEnvDuration("PUSH_TIMEOUT", 10*time.Second),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChatID: int64(getEnvInt("TELEGRAM_ADMIN_CHAT_ID", 0)),

		TriggerSources: splitList(getEnv("TRIGGER_SOURCES", "changestream,pubsub")),
		HubMaxInflight: getEnvInt("HUB_MAX_INFLIGHT", 64),
		DedupTTL:       getEnvDuration("DEDUP_TTL", 24*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be mongo or memory, got %q", c.StoreBackend)
	}
	if c.HubMaxInflight <= 0 {
		return fmt.Errorf("HUB_MAX_INFLIGHT must be positive")
	}

	if c.Environment == "production" {
		if c.StoreBackend != "mongo" {
			return fmt.Errorf("STORE_BACKEND=memory is not allowed in production")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}
	return nil
}

// HasSource reports whether the named trigger source is enabled.
func (c *Config) HasSource(name string) bool {
	for _, s := range c.TriggerSources {
		if s == name {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

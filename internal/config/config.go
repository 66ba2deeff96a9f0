package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates everything the server needs from the environment.
type Config struct {
	Addr            string
	DatabaseDSN     string
	JWTSecret       string
	RedisAddr       string
	PresenceBackend string // "redis" or "memory"
	TypingTTL       time.Duration
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	backend := getEnvOrDefault("PRESENCE_BACKEND", "redis")
	if backend != "redis" && backend != "memory" {
		return nil, fmt.Errorf("invalid PRESENCE_BACKEND value: %q", backend)
	}

	ttl := 6 * time.Second
	if raw := strings.TrimSpace(os.Getenv("TYPING_TTL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TYPING_TTL value %q: %w", raw, err)
		}
		ttl = parsed
	}

	return &Config{
		Addr:            getEnvOrDefault("ADDR", ":8080"),
		DatabaseDSN:     dsn,
		JWTSecret:       secret,
		RedisAddr:       getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		PresenceBackend: backend,
		TypingTTL:       ttl,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

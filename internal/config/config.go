package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPPort        string
	LogLevel        string
	StoreBackend    string // "redis", "mongo" or "memory"
	RedisAddr       string
	RedisPassword   string
	MongoURI        string
	MongoDBName     string
	DefaultTaxRate  string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnvOrDefault("HTTP_PORT", "8080"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		StoreBackend:    getEnvOrDefault("STORE_BACKEND", "memory"),
		RedisAddr:       getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		MongoURI:        getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnvOrDefault("MONGO_DB_NAME", "roomshop"),
		DefaultTaxRate:  getEnvOrDefault("DEFAULT_TAX_RATE", "0.07"),
		ShutdownTimeout: 10 * time.Second,
	}

	switch cfg.StoreBackend {
	case "redis", "mongo", "memory":
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be redis, mongo or memory, got %q", cfg.StoreBackend)
	}

	if _, err := strconv.ParseFloat(cfg.DefaultTaxRate, 64); err != nil {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE is not a number: %q", cfg.DefaultTaxRate)
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

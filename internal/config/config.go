package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	Port               string
	AllowedOrigins     []string
	LogLevel           string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	Environment        string
	ExecutionHour      int // UTC hour of the daily execution slot
	CronEnabled        bool
	PhotoRoot          string
	PhotoRetentionDays int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	executionHour, err := strconv.Atoi(getEnv("EXECUTION_HOUR", "18"))
	if err != nil || executionHour < 0 || executionHour > 23 {
		return nil, fmt.Errorf("EXECUTION_HOUR must be an hour between 0 and 23")
	}

	retentionDays, err := strconv.Atoi(getEnv("PHOTO_RETENTION_DAYS", "7"))
	if err != nil || retentionDays < 0 {
		return nil, fmt.Errorf("PHOTO_RETENTION_DAYS must be a non-negative integer")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		Environment:        getEnv("ENVIRONMENT", "production"),
		ExecutionHour:      executionHour,
		CronEnabled:        getBoolEnv("CRON_ENABLED", true),
		PhotoRoot:          getEnv("PHOTO_ROOT", "./data/photos"),
		PhotoRetentionDays: retentionDays,
	}, nil
}

// getEnv gets an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value.
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

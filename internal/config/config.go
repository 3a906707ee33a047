package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort    int
	DatabasePath  string
	UploadsDir    string // Base path for poster files
	JWTSecret     string
	TokenTTL      time.Duration
	SweepSchedule string // Standard cron expression for the orphan sweep
	SweepMinAge   time.Duration
	CORSOrigin    string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	minAge, err := time.ParseDuration(getEnv("SWEEP_MIN_AGE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_MIN_AGE: %w", err)
	}

	return &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./movievault.db"),
		UploadsDir:    getEnv("UPLOADS_DIR", "./uploads"),
		JWTSecret:     secret,
		TokenTTL:      ttl,
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@hourly"),
		SweepMinAge:   minAge,
		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for the snapshot database (always absolute)
	Port              int
	LogLevel          string
	DevMode           bool
	SnapshotRetention int     // How many hierarchy snapshots to keep
	StreamInterval    float64 // Seconds between websocket position frames
	StreamSpeed       float64 // Animation seconds advanced per wall-clock second
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ORBITAL_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("ORBITAL_PORT", 8040),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		SnapshotRetention: getEnvAsInt("SNAPSHOT_RETENTION", 50),
		StreamInterval:    getEnvAsFloat("STREAM_INTERVAL_SECONDS", 0.1),
		StreamSpeed:       getEnvAsFloat("STREAM_SPEED", 1.0),
	}

	if cfg.SnapshotRetention < 1 {
		return nil, fmt.Errorf("SNAPSHOT_RETENTION must be at least 1, got %d", cfg.SnapshotRetention)
	}
	if cfg.StreamInterval <= 0 {
		return nil, fmt.Errorf("STREAM_INTERVAL_SECONDS must be positive, got %f", cfg.StreamInterval)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

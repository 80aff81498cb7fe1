// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Cache root for JSON artifacts (always absolute)
	DatabasePath    string // Columnar SQLite store path
	LogLevel        string
	DevMode         bool
	HTTPTimeout     time.Duration // Hard timeout for outbound fetches
	RefreshInterval time.Duration // Columnar mtime watcher interval

	// Optional S3 artifact mirror. Disabled when BackupBucket is empty.
	BackupBucket string
	BackupPrefix string
	AWSRegion    string

	// Optional remote source endpoint. When set, collectors fetch their raw
	// inputs from this base URL instead of the local drop directory.
	SourcesBaseURL  string
	FetchRPM        int // Steady request rate against the source endpoint
	FetchDailyLimit int // Hard daily request cap (0 = unlimited)
	FetchUserAgent  string

	// Provider API keys, passed through to collaborator fetchers as-is.
	QuiverAPIKey string
	FinnhubKey   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Data directory: DATA_DIR env, defaulting to ./data, always resolved to
	// an absolute path that exists.
	dataDir := getEnv("DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := getEnv("DATABASE_URL", "")
	if dbPath == "" {
		dbPath = filepath.Join(absDataDir, "columnar.db")
	}

	cfg := &Config{
		DataDir:         absDataDir,
		DatabasePath:    dbPath,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		HTTPTimeout:     time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		RefreshInterval: time.Duration(getEnvAsInt("DB_REFRESH_INTERVAL_SECONDS", 60)) * time.Second,
		BackupBucket:    getEnv("BACKUP_S3_BUCKET", ""),
		BackupPrefix:    getEnv("BACKUP_S3_PREFIX", "smartmoney"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		SourcesBaseURL:  getEnv("SOURCES_BASE_URL", ""),
		FetchRPM:        getEnvAsInt("FETCH_REQUESTS_PER_MINUTE", 30),
		FetchDailyLimit: getEnvAsInt("FETCH_DAILY_LIMIT", 0),
		FetchUserAgent:  getEnv("FETCH_USER_AGENT", "smartmoney/1.0"),
		QuiverAPIKey:    getEnv("QUIVER_API_KEY", ""),
		FinnhubKey:      getEnv("FINNHUB_API_KEY", ""),
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string

	// Redis (optional)
	RedisURL string

	// Logging
	LogLevel string

	// Background reconcile of expired questions
	ReconcileInterval time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		StorageDriver:     getEnvOrDefault("STORAGE_DRIVER", StorageSQLite),
		SQLitePath:        getEnvOrDefault("SQLITE_PATH", ""),
		RedisURL:          getEnvOrDefault("REDIS_URL", ""),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		ReconcileInterval: getEnvAsDurationOrDefault("RECONCILE_INTERVAL", 15*time.Minute),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	case StorageSQLite:
	default:
		panic(fmt.Sprintf("unsupported STORAGE_DRIVER %q (want %s or %s)", cfg.StorageDriver, StorageSQLite, StoragePostgres))
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go duration strings ("90s", "15m") or a
// bare number of seconds.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if secs := getEnvAsIntOrDefault(key, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

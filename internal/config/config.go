package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIBaseURL  string
	LogLevel    string
	LogFormat   string
	HTTPTimeout time.Duration
	// StorageBackend selects the durable session mirror: "memory", "file"
	// or "redis". "memory" disables persistence across restarts.
	StorageBackend string
	StoragePath    string
	RedisURL       string
	// SaveDebounce coalesces bursts of local mirror writes.
	SaveDebounce time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		StoragePath:    getEnv("STORAGE_PATH", "./.gradeplus"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SaveDebounce:   time.Duration(getEnvInt("SAVE_DEBOUNCE_MS", 300)) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

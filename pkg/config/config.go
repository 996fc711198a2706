package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration with defaults suitable for local dev.
type Config struct {
	Port        int    // HTTP port (default 8080)
	DatabaseURL string // Postgres DSN; empty runs the in-memory store
	RedisURL    string // Redis URL; empty disables the redirect cache
	LogLevel    string // debug | info | warn | error (default info)
	CodeLength  int    // generated short-code length (default 6)
}

// Load reads configuration from the environment, after a best-effort load
// of a local .env file. Already-set variables are never overridden.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        getEnvInt("PORT", 8080),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CodeLength:  getEnvInt("CODE_LENGTH", 6),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

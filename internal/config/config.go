package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port           string
	RequestTimeout time.Duration
	// Storage
	Storage     string
	DatabaseURL string
	SQLiteDSN   string
	// Unit of work
	ImplicitTransactions bool
	// Redis (idempotency)
	IdempotencyBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisTTL           time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func boolDef(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return b
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                  getEnv("ENV", "local"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Port:                 getEnv("PORT", "8080"),
		RequestTimeout:       time.Duration(atoiDef(getEnv("REQUEST_TIMEOUT_MS", "3000"), 3000)) * time.Millisecond,
		Storage:              getEnv("STORAGE", "sqlite"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SQLiteDSN:            getEnv("SQLITE_DSN", "data/tags.sqlite"),
		ImplicitTransactions: boolDef(getEnv("IMPLICIT_TRANSACTIONS", "false"), false),
		IdempotencyBackend:   getEnv("IDEMPOTENCY_BACKEND", "none"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              atoiDef(getEnv("REDIS_DB", "0"), 0),
		RedisTTL:             time.Duration(atoiDef(getEnv("IDEMPOTENCY_TTL_MS", "86400000"), 86400000)) * time.Millisecond,
	}
}

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	AccessTTL   time.Duration
	CORSOrigin  string
	// Redis event log
	RedisURL    string
	EventStream string
}

func Load() Config {
	return Config{
		Addr:        getenv("API_ADDR", ":8686"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		JWTSecret:   getenv("SQUIDCHAT_JWT_SECRET", "squidchat-dev-secret"),
		AccessTTL:   time.Duration(getenvInt("SQUIDCHAT_ACCESS_TTL_SECONDS", 86400)) * time.Second,
		CORSOrigin:  getenv("SQUIDCHAT_CORS_ORIGIN", "*"),
		// Redis - event log disabled when empty
		RedisURL:    getenv("REDIS_URL", ""),
		EventStream: getenv("SQUIDCHAT_EVENT_STREAM", "squidchat:events"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath        string
	BaseURL       string
	CacheSize     int
	EventBuffer   int
	EventKeep     int
	FlushInterval time.Duration
	LogLevel      string
	LogPretty     bool
}

func Load() (*Config, error) {
	// Optional .env in the working directory; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:        envOrDefault("LOCALURL_DB_PATH", "./localurl.db"),
		BaseURL:       envOrDefault("LOCALURL_BASE_URL", "http://localhost:3000/"),
		CacheSize:     parseInt("LOCALURL_CACHE_SIZE", 1024),
		EventBuffer:   parseInt("LOCALURL_EVENT_BUFFER", 256),
		EventKeep:     parseInt("LOCALURL_EVENT_KEEP", 1000),
		FlushInterval: parseDuration("LOCALURL_FLUSH_INTERVAL", 5*time.Second),
		LogLevel:      envOrDefault("LOCALURL_LOG_LEVEL", "info"),
		LogPretty:     parseBool("LOCALURL_LOG_PRETTY", true),
	}

	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("LOCALURL_CACHE_SIZE must be positive")
	}
	if cfg.EventBuffer <= 0 {
		return nil, fmt.Errorf("LOCALURL_EVENT_BUFFER must be positive")
	}
	if cfg.EventKeep <= 0 {
		return nil, fmt.Errorf("LOCALURL_EVENT_KEEP must be positive")
	}
	if cfg.FlushInterval <= 0 {
		return nil, fmt.Errorf("LOCALURL_FLUSH_INTERVAL must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
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

func parseBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

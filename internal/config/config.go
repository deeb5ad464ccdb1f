package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPPort     string
	AppMode      string
	FiberPrefork bool
	LogLevel     string

	ClickHouseAddr     []string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnMaxLifetime  time.Duration
	DBDialTimeout      time.Duration

	WorkerBufferSize int
	WorkerBatchSize  int
	WorkerFlushEvery time.Duration

	DeltaPrecision  int32
	CacheMaxEntries int
	MaxRanges       int

	DigestSchedule string
	DigestDatasets []string
	DigestMode     string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", ":8080"),
		AppMode:      strings.ToLower(getEnv("APP_MODE", "dev")),
		FiberPrefork: parseBoolEnv("FIBER_PREFORK", false),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),

		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "default"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: os.Getenv("CLICKHOUSE_PASSWORD"),
		DBMaxOpenConns:     parseIntEnv("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:     parseIntEnv("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime:  parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBDialTimeout:      parseDurationEnv("DB_DIAL_TIMEOUT", 10*time.Second),

		WorkerBufferSize: parseIntEnv("WORKER_BUFFER_SIZE", 10000),
		WorkerBatchSize:  parseIntEnv("WORKER_BATCH_SIZE", 500),
		WorkerFlushEvery: parseDurationEnv("WORKER_FLUSH_EVERY", 2*time.Second),

		DeltaPrecision:  parseInt32Env("DELTA_PRECISION", 1),
		CacheMaxEntries: parseIntEnv("CACHE_MAX_ENTRIES", 1024),
		MaxRanges:       parseIntEnv("MAX_RANGES", 400),

		DigestSchedule: os.Getenv("DIGEST_SCHEDULE"),
		DigestDatasets: parseListEnv("DIGEST_DATASETS"),
		DigestMode:     getEnv("DIGEST_MODE", "week"),
	}

	cfg.ClickHouseAddr = parseListEnv("CLICKHOUSE_ADDR")
	if len(cfg.ClickHouseAddr) == 0 {
		return nil, fmt.Errorf("CLICKHOUSE_ADDR is required")
	}
	if cfg.WorkerBatchSize <= 0 || cfg.WorkerBufferSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE and WORKER_BUFFER_SIZE must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseBoolEnv(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt32Env(key string, fallback int32) int32 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(parsed)
}

func parseIntEnv(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseListEnv splits a comma separated value, dropping blanks.
func parseListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config provides environment-based configuration for flytrap.
//
// Every setting has an environment variable and a default. When
// FLYTRAP_CONFIG names a YAML file, values from that file are applied
// first and environment variables override them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the flytrap server.
type Config struct {
	// Server configuration
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// DatabasePath is the SQLite file backing the record store.
	DatabasePath string `yaml:"database_path"`

	// IngestQueueSize caps the pending fire-and-forget writes.
	IngestQueueSize int `yaml:"ingest_queue_size"`

	// QueryTimeout bounds each read-path storage call.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// MaxQueryLimit is the row cap applied when the query endpoint is
	// called without an explicit limit.
	MaxQueryLimit int `yaml:"max_query_limit"`

	// MaxCaptureBody is the largest request body, in bytes, the capture
	// middleware will record. Larger bodies are truncated in the record
	// only; the downstream handler still sees the full body.
	MaxCaptureBody int64 `yaml:"max_capture_body"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogJSON selects JSON log output over text.
	LogJSON bool `yaml:"log_json"`
}

// Load reads configuration from the optional YAML file named by
// FLYTRAP_CONFIG, then from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		DatabasePath:    "flytrap.db",
		IngestQueueSize: 1024,
		QueryTimeout:    5 * time.Second,
		MaxQueryLimit:   10000,
		MaxCaptureBody:  1 << 20,
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
		LogJSON:         true,
	}

	if path := os.Getenv("FLYTRAP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Host = getEnv("FLYTRAP_HOST", cfg.Host)
	cfg.Port = getIntEnv("FLYTRAP_PORT", cfg.Port)
	cfg.DatabasePath = getEnv("FLYTRAP_DB_PATH", cfg.DatabasePath)
	cfg.IngestQueueSize = getIntEnv("FLYTRAP_INGEST_QUEUE_SIZE", cfg.IngestQueueSize)
	cfg.QueryTimeout = getDurationEnv("FLYTRAP_QUERY_TIMEOUT", cfg.QueryTimeout)
	cfg.MaxQueryLimit = getIntEnv("FLYTRAP_MAX_QUERY_LIMIT", cfg.MaxQueryLimit)
	cfg.MaxCaptureBody = int64(getIntEnv("FLYTRAP_MAX_CAPTURE_BODY", int(cfg.MaxCaptureBody)))
	cfg.ShutdownTimeout = getDurationEnv("FLYTRAP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = getEnv("FLYTRAP_LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("FLYTRAP_LOG_JSON"); v != "" {
		cfg.LogJSON = v == "true" || v == "1"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.MaxQueryLimit <= 0 {
		return fmt.Errorf("max query limit must be positive, got %d", c.MaxQueryLimit)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// Pipeline definition
	PipelineFile string

	// Data directories; relative dataset paths resolve against these
	RawDir      string
	PreparedDir string

	// Run settings
	WorkerPoolSize int // 0 means one worker per dataset, capped at NumCPU

	// Warehouse sink; nil when no warehouse output is configured
	Postgres *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		PipelineFile:   getEnv("PIPELINE_FILE", "pipeline.yaml"),
		RawDir:         getEnv("RAW_DATA_DIR", "data/raw"),
		PreparedDir:    getEnv("PREPARED_DATA_DIR", "data/prepared"),
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	// Warehouse output is optional; load its config only when configured
	if os.Getenv("POSTGRES_DB") != "" {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.PipelineFile == "" {
		return errors.New("pipeline file is required")
	}

	if c.RawDir == "" {
		return errors.New("raw data directory is required")
	}

	if c.PreparedDir == "" {
		return errors.New("prepared data directory is required")
	}

	if c.WorkerPoolSize < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PIPELINE_FILE", "")
	t.Setenv("RAW_DATA_DIR", "")
	t.Setenv("PREPARED_DATA_DIR", "")
	t.Setenv("POSTGRES_DB", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "pipeline.yaml", cfg.PipelineFile)
	assert.Equal(t, "data/raw", cfg.RawDir)
	assert.Equal(t, "data/prepared", cfg.PreparedDir)
	assert.Equal(t, 0, cfg.WorkerPoolSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Nil(t, cfg.Postgres)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PIPELINE_FILE", "custom.yaml")
	t.Setenv("RAW_DATA_DIR", "/data/in")
	t.Setenv("PREPARED_DATA_DIR", "/data/out")
	t.Setenv("WORKER_POOL_SIZE", "2")
	t.Setenv("POSTGRES_DB", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "custom.yaml", cfg.PipelineFile)
	assert.Equal(t, "/data/in", cfg.RawDir)
	assert.Equal(t, "/data/out", cfg.PreparedDir)
	assert.Equal(t, 2, cfg.WorkerPoolSize)
}

func TestLoadConfigPostgresOptional(t *testing.T) {
	t.Setenv("POSTGRES_DB", "warehouse")
	t.Setenv("POSTGRES_USER", "loader")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("POSTGRES_SSLMODE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, "warehouse", cfg.Postgres.Database)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
}

func TestLoadConfigPostgresMissingCredentials(t *testing.T) {
	t.Setenv("POSTGRES_DB", "warehouse")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := &Config{
		PipelineFile: "pipeline.yaml",
		RawDir:       "data/raw",
		PreparedDir:  "data/prepared",
	}
	assert.NoError(t, valid.Validate())

	negative := *valid
	negative.WorkerPoolSize = -1
	assert.Error(t, negative.Validate())

	noFile := *valid
	noFile.PipelineFile = ""
	assert.Error(t, noFile.Validate())
}

func TestConnectionString(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "loader",
		Password: "secret",
		Database: "warehouse",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=loader password=secret dbname=warehouse sslmode=require",
		cfg.ConnectionString())
}

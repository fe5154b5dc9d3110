// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// Database connections
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Mapper settings
	SampleSize     int    // values sampled per column (profiler caps at 1000)
	WorkerPoolSize int    // 0 means use runtime.NumCPU()
	CreatedBy      string // recorded on persisted signatures and mappings

	// Optional embeddings
	Embeddings *EmbeddingConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// EmbeddingConfig holds the optional OpenAI embedding settings. Embeddings
// are off unless EMBEDDINGS_ENABLED is set and an API key is present.
type EmbeddingConfig struct {
	Enabled bool
	APIKey  string
	Model   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		SampleSize:     getEnvAsInt("SAMPLE_SIZE", 500),
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 0),
		CreatedBy:      getEnv("CREATED_BY", "ETL_MAPPER"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		Embeddings: &EmbeddingConfig{
			Enabled: getEnvAsBool("EMBEDDINGS_ENABLED", false),
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		},
	}

	// Load database configurations
	snowConfig, err := LoadSnowflakeConfig()
	if err != nil {
		return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
	}
	cfg.Snowflake = snowConfig

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Snowflake == nil {
		return errors.New("snowflake configuration is required")
	}

	if c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.SampleSize <= 0 {
		return errors.New("sample size must be positive")
	}

	if c.WorkerPoolSize < 0 {
		return errors.New("worker pool size cannot be negative")
	}

	if c.Embeddings != nil && c.Embeddings.Enabled && c.Embeddings.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required when embeddings are enabled")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

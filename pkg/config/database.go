// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig holds Snowflake connection parameters
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Role          string
	Authenticator gosnowflake.AuthType

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Query timeout
	QueryTimeout time.Duration
}

// PostgresConfig holds PostgreSQL connection parameters for the
// signature/mapping store
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadSnowflakeConfig loads Snowflake configuration from environment variables
func LoadSnowflakeConfig() (*SnowflakeConfig, error) {
	user := getEnv("SNOWFLAKE_USER", "")
	if user == "" {
		return nil, errors.New("SNOWFLAKE_USER environment variable is required")
	}

	password := getEnv("SNOWFLAKE_PASSWORD", "")
	if password == "" {
		return nil, errors.New("SNOWFLAKE_PASSWORD environment variable is required")
	}

	account := getEnv("SNOWFLAKE_ACCOUNT", "")
	if account == "" {
		return nil, errors.New("SNOWFLAKE_ACCOUNT environment variable is required")
	}

	warehouse := getEnv("SNOWFLAKE_WAREHOUSE", "")
	if warehouse == "" {
		return nil, errors.New("SNOWFLAKE_WAREHOUSE environment variable is required")
	}

	cfg := &SnowflakeConfig{
		User:          user,
		Password:      password,
		Account:       account,
		Warehouse:     warehouse,
		Database:      getEnv("SNOWFLAKE_DATABASE", "INSURANCE"),
		Role:          getEnv("SNOWFLAKE_ROLE", ""),
		Authenticator: parseAuthenticator(getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake")),

		MaxOpenConns:    getEnvAsInt("SNOWFLAKE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("SNOWFLAKE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_LIFETIME_SECONDS", 600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		QueryTimeout:    time.Duration(getEnvAsInt("SNOWFLAKE_QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// parseAuthenticator converts the authenticator env string to the driver type
func parseAuthenticator(auth string) gosnowflake.AuthType {
	switch auth {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "token":
		return gosnowflake.AuthTypeTokenAccessor
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables
func LoadPostgresConfig() (*PostgresConfig, error) {
	user := getEnv("POSTGRES_USER", "")
	if user == "" {
		return nil, errors.New("POSTGRES_USER environment variable is required")
	}

	password := getEnv("POSTGRES_PASSWORD", "")
	if password == "" {
		return nil, errors.New("POSTGRES_PASSWORD environment variable is required")
	}

	database := getEnv("POSTGRES_DB", "")
	if database == "" {
		return nil, errors.New("POSTGRES_DB environment variable is required")
	}

	cfg := &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvAsInt("POSTGRES_PORT", 5432),
		User:     user,
		Password: password,
		Database: database,
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxOpenConns:     getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
		StatementTimeout: time.Duration(getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// ConnectionString returns a formatted Snowflake DSN
func (c *SnowflakeConfig) ConnectionString() string {
	dsn := fmt.Sprintf("%s:%s@%s/%s?warehouse=%s&authenticator=%s",
		c.User,
		c.Password,
		c.Account,
		c.Database,
		c.Warehouse,
		c.Authenticator,
	)

	if c.Role != "" {
		dsn += "&role=" + c.Role
	}

	return dsn
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

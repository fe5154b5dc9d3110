// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/config"
)

// PostgresConnector implements the DatabaseConnector interface for
// PostgreSQL, which backs the signature and mapping store.
type PostgresConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the PostgreSQL connection and write permissions
func (c *PostgresConnector) Validate() error {
	var version string
	err := c.db.QueryRow("SELECT version()").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	// Check permissions by creating a temp table
	_, err = c.db.Exec(`
		DO $$
		BEGIN
			CREATE TEMP TABLE _permission_check (id serial, test text);
			INSERT INTO _permission_check (test) VALUES ('test');
			DROP TABLE _permission_check;
		EXCEPTION WHEN OTHERS THEN
			RAISE EXCEPTION 'Permission check failed: %', SQLERRM;
		END $$;
	`)
	if err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (c *PostgresConnector) QueryWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.QueryContext(queryCtx, query, args...)
}

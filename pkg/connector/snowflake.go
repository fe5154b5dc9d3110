// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/config"
	"github.com/datadna/etl-mapper/pkg/model"
)

// SnowflakeConnector implements the DatabaseConnector interface for Snowflake.
// It is the mapper's sample provider: it lists the columns of a schema and
// draws capped value samples from them.
type SnowflakeConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-connector")

	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("role", cfg.Role))

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set query timeout if configured
	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(cfg.QueryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	connector := &SnowflakeConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the Snowflake connection and access rights
func (c *SnowflakeConnector) Validate() error {
	var role, database, warehouse string
	err := c.db.QueryRow("SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse))

	if database != c.cfg.Database {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database, c.cfg.Database)
	}

	return nil
}

// Close closes the database connection
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (c *SnowflakeConnector) QueryWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.QueryContext(queryCtx, query, args...)
}

// ListColumns retrieves every column of a schema from information_schema,
// ordered by table name and ordinal position so profiling runs visit
// columns in a stable order.
func (c *SnowflakeConnector) ListColumns(ctx context.Context, schema string) ([]model.ColumnRef, error) {
	query := `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`

	rows, err := c.QueryWithTimeout(ctx, query, c.cfg.QueryTimeout, strings.ToUpper(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for schema %s: %w", schema, err)
	}
	defer rows.Close()

	var cols []model.ColumnRef
	for rows.Next() {
		var ref model.ColumnRef
		if err := rows.Scan(&ref.TableName, &ref.ColumnName, &ref.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}
		cols = append(cols, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return cols, nil
}

// SampleColumn draws up to limit raw values from one column. NULLs come back
// as the empty-string sentinel the profiler expects.
func (c *SnowflakeConnector) SampleColumn(ctx context.Context, schema, table, column string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 500
	}

	query := fmt.Sprintf("SELECT %s FROM %s.%s LIMIT %d",
		quoteIdent(column), quoteIdent(schema), quoteIdent(table), limit)

	rows, err := c.QueryWithTimeout(ctx, query, c.cfg.QueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s.%s.%s: %w", schema, table, column, err)
	}
	defer rows.Close()

	values := make([]string, 0, limit)
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan sample value: %w", err)
		}
		if v.Valid {
			values = append(values, v.String)
		} else {
			values = append(values, "")
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample values: %w", err)
	}

	return values, nil
}

// quoteIdent double-quotes an identifier for Snowflake, uppercasing the
// unquoted form so default-cased objects resolve as expected.
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(strings.ToUpper(ident), `"`, `""`) + `"`
}

// Package store persists column signatures and mapping results in
// PostgreSQL so later runs can reuse cached profiles instead of
// re-sampling the warehouse.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS etl_mapper;

CREATE TABLE IF NOT EXISTS etl_mapper.column_signatures (
	id            UUID PRIMARY KEY,
	schema_name   TEXT NOT NULL,
	table_name    TEXT NOT NULL,
	column_name   TEXT NOT NULL,
	column_code   TEXT NOT NULL,
	profile       JSONB NOT NULL,
	embedding     JSONB,
	sample_count  INTEGER NOT NULL,
	created_by    TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_column_signatures_schema
	ON etl_mapper.column_signatures (schema_name, table_name, column_name);

CREATE TABLE IF NOT EXISTS etl_mapper.column_mappings (
	id            UUID PRIMARY KEY,
	run_id        UUID NOT NULL,
	src_schema    TEXT NOT NULL,
	src_table     TEXT NOT NULL,
	src_column    TEXT NOT NULL,
	tgt_schema    TEXT NOT NULL,
	tgt_table     TEXT,
	tgt_column    TEXT,
	score         DOUBLE PRECISION NOT NULL,
	name_score    DOUBLE PRECISION NOT NULL,
	profile_score DOUBLE PRECISION NOT NULL,
	embed_score   DOUBLE PRECISION NOT NULL,
	reason        TEXT NOT NULL,
	decision      TEXT NOT NULL DEFAULT 'AUTO',
	created_by    TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_column_mappings_schemas
	ON etl_mapper.column_mappings (src_schema, tgt_schema);
`

// Store reads and writes mapper artifacts in PostgreSQL
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore wraps an existing PostgreSQL connection
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		db:     sqlx.NewDb(db, "postgres"),
		logger: logger.Named("store"),
	}
}

// EnsureSchema creates the mapper's schema and tables if missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create store schema: %w", err)
	}
	s.logger.Debug("Store schema verified")
	return nil
}

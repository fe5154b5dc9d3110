package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/model"
)

type signatureRow struct {
	ID          uuid.UUID       `db:"id"`
	SchemaName  string          `db:"schema_name"`
	TableName   string          `db:"table_name"`
	ColumnName  string          `db:"column_name"`
	ColumnCode  string          `db:"column_code"`
	Profile     json.RawMessage `db:"profile"`
	Embedding   json.RawMessage `db:"embedding"`
	SampleCount int             `db:"sample_count"`
	CreatedBy   string          `db:"created_by"`
	CreatedAt   time.Time       `db:"created_at"`
}

// SaveSignatures persists one profiling pass over a schema. All rows of the
// pass share the insertion transaction; a failure rolls the whole pass back
// rather than leaving a half-written signature set.
func (s *Store) SaveSignatures(ctx context.Context, schemaName string, descriptors []model.ColumnDescriptor, createdBy string) error {
	if len(descriptors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin signature transaction: %w", err)
	}
	defer tx.Rollback()

	const insertSQL = `
		INSERT INTO etl_mapper.column_signatures
			(id, schema_name, table_name, column_name, column_code, profile, embedding, sample_count, created_by)
		VALUES
			(:id, :schema_name, :table_name, :column_name, :column_code, :profile, :embedding, :sample_count, :created_by)`

	for _, d := range descriptors {
		profileJSON, err := json.Marshal(d.Profile)
		if err != nil {
			return fmt.Errorf("failed to serialize profile for %s.%s: %w", d.TableName, d.ColName, err)
		}

		var embeddingJSON json.RawMessage
		if len(d.Embedding) > 0 {
			embeddingJSON, err = json.Marshal(d.Embedding)
			if err != nil {
				return fmt.Errorf("failed to serialize embedding for %s.%s: %w", d.TableName, d.ColName, err)
			}
		}

		row := signatureRow{
			ID:          uuid.New(),
			SchemaName:  schemaName,
			TableName:   d.TableName,
			ColumnName:  d.ColName,
			ColumnCode:  d.Code,
			Profile:     profileJSON,
			Embedding:   embeddingJSON,
			SampleCount: d.Profile.SampleCount,
			CreatedBy:   createdBy,
		}

		if _, err := tx.NamedExecContext(ctx, insertSQL, row); err != nil {
			return fmt.Errorf("failed to insert signature for %s.%s: %w", d.TableName, d.ColName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signatures: %w", err)
	}

	s.logger.Info("Saved column signatures",
		zap.String("schema", schemaName),
		zap.Int("columns", len(descriptors)))

	return nil
}

// GetSignatures loads the most recent cached descriptor for every column of
// a schema. Returns an empty slice when nothing is cached.
func (s *Store) GetSignatures(ctx context.Context, schemaName string) ([]model.ColumnDescriptor, error) {
	const selectSQL = `
		SELECT DISTINCT ON (table_name, column_name)
			id, schema_name, table_name, column_name, column_code,
			profile, embedding, sample_count, created_by, created_at
		FROM etl_mapper.column_signatures
		WHERE schema_name = $1
		ORDER BY table_name, column_name, created_at DESC`

	var rows []signatureRow
	if err := s.db.SelectContext(ctx, &rows, selectSQL, schemaName); err != nil {
		return nil, fmt.Errorf("failed to load signatures for schema %s: %w", schemaName, err)
	}

	descriptors := make([]model.ColumnDescriptor, 0, len(rows))
	for _, row := range rows {
		var p model.ColumnProfile
		if err := json.Unmarshal(row.Profile, &p); err != nil {
			// A malformed cached profile is skipped, not fatal; the column
			// will simply be re-profiled.
			s.logger.Warn("Skipping unreadable cached profile",
				zap.String("table", row.TableName),
				zap.String("column", row.ColumnName),
				zap.Error(err))
			continue
		}

		var embedding []float64
		if len(row.Embedding) > 0 {
			if err := json.Unmarshal(row.Embedding, &embedding); err != nil {
				s.logger.Warn("Dropping unreadable cached embedding",
					zap.String("table", row.TableName),
					zap.String("column", row.ColumnName),
					zap.Error(err))
				embedding = nil
			}
		}

		descriptors = append(descriptors, model.ColumnDescriptor{
			TableName: row.TableName,
			ColName:   row.ColumnName,
			Code:      row.ColumnCode,
			Profile:   p,
			Embedding: embedding,
		})
	}

	return descriptors, nil
}

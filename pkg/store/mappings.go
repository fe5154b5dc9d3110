package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/match"
	"github.com/datadna/etl-mapper/pkg/model"
)

type mappingRow struct {
	ID           uuid.UUID      `db:"id"`
	RunID        uuid.UUID      `db:"run_id"`
	SrcSchema    string         `db:"src_schema"`
	SrcTable     string         `db:"src_table"`
	SrcColumn    string         `db:"src_column"`
	TgtSchema    string         `db:"tgt_schema"`
	TgtTable     sql.NullString `db:"tgt_table"`
	TgtColumn    sql.NullString `db:"tgt_column"`
	Score        float64        `db:"score"`
	NameScore    float64        `db:"name_score"`
	ProfileScore float64        `db:"profile_score"`
	EmbedScore   float64        `db:"embed_score"`
	Reason       string         `db:"reason"`
	Decision     string         `db:"decision"`
	CreatedBy    string         `db:"created_by"`
	CreatedAt    time.Time      `db:"created_at"`
}

// SaveMappings persists the results of one matching run under a shared
// run ID. Unmatched source columns are stored with NULL target fields.
func (s *Store) SaveMappings(ctx context.Context, srcSchema, tgtSchema string, results []model.MatchResult, createdBy string) error {
	if len(results) == 0 {
		return nil
	}

	runID := uuid.New()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin mapping transaction: %w", err)
	}
	defer tx.Rollback()

	const insertSQL = `
		INSERT INTO etl_mapper.column_mappings
			(id, run_id, src_schema, src_table, src_column, tgt_schema, tgt_table, tgt_column,
			 score, name_score, profile_score, embed_score, reason, decision, created_by)
		VALUES
			(:id, :run_id, :src_schema, :src_table, :src_column, :tgt_schema, :tgt_table, :tgt_column,
			 :score, :name_score, :profile_score, :embed_score, :reason, :decision, :created_by)`

	for _, r := range results {
		row := mappingRow{
			ID:           uuid.New(),
			RunID:        runID,
			SrcSchema:    srcSchema,
			SrcTable:     r.SourceTable,
			SrcColumn:    r.SourceColumn,
			TgtSchema:    tgtSchema,
			TgtTable:     nullable(r.TargetTable),
			TgtColumn:    nullable(r.TargetColumn),
			Score:        r.Score,
			NameScore:    r.Breakdown.NameScore,
			ProfileScore: r.Breakdown.ProfileScore,
			EmbedScore:   r.Breakdown.EmbedScore,
			Reason:       r.Breakdown.Reason,
			Decision:     "AUTO",
			CreatedBy:    createdBy,
		}

		if _, err := tx.NamedExecContext(ctx, insertSQL, row); err != nil {
			return fmt.Errorf("failed to insert mapping for %s.%s: %w", r.SourceTable, r.SourceColumn, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mappings: %w", err)
	}

	s.logger.Info("Saved mapping results",
		zap.String("run_id", runID.String()),
		zap.String("src_schema", srcSchema),
		zap.String("tgt_schema", tgtSchema),
		zap.Int("results", len(results)))

	return nil
}

// GetMappings loads the most recent completed mapping run between two
// schemas. Returns an empty slice when no run is cached.
func (s *Store) GetMappings(ctx context.Context, srcSchema, tgtSchema string) ([]model.MatchResult, error) {
	const latestRunSQL = `
		SELECT run_id
		FROM etl_mapper.column_mappings
		WHERE src_schema = $1 AND tgt_schema = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var runID uuid.UUID
	err := s.db.GetContext(ctx, &runID, latestRunSQL, srcSchema, tgtSchema)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest mapping run: %w", err)
	}

	const selectSQL = `
		SELECT id, run_id, src_schema, src_table, src_column, tgt_schema, tgt_table, tgt_column,
		       score, name_score, profile_score, embed_score, reason, decision, created_by, created_at
		FROM etl_mapper.column_mappings
		WHERE run_id = $1
		ORDER BY src_table, src_column`

	var rows []mappingRow
	if err := s.db.SelectContext(ctx, &rows, selectSQL, runID); err != nil {
		return nil, fmt.Errorf("failed to load mappings for run %s: %w", runID, err)
	}

	results := make([]model.MatchResult, 0, len(rows))
	for _, row := range rows {
		reason := row.Reason
		if reason == "" {
			reason = match.ReasonScored
		}
		results = append(results, model.MatchResult{
			SourceTable:  row.SrcTable,
			SourceColumn: row.SrcColumn,
			TargetTable:  row.TgtTable.String,
			TargetColumn: row.TgtColumn.String,
			Score:        row.Score,
			Breakdown: model.ScoreBreakdown{
				Reason:       reason,
				NameScore:    row.NameScore,
				ProfileScore: row.ProfileScore,
				EmbedScore:   row.EmbedScore,
				FinalScore:   row.Score,
			},
		})
	}

	return results, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

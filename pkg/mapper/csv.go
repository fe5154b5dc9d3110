package mapper

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/datadna/etl-mapper/pkg/model"
)

// csvHeader mirrors the columns reviewers expect in exported mappings
var csvHeader = []string{
	"Source Table",
	"Source Column",
	"Best Target Table",
	"Best Target Column",
	"Score",
	"Name_Score",
	"Profile_Score",
	"Embed_Score",
	"Reason",
}

// WriteCSV exports mapping results for manual review
func WriteCSV(path string, results []model.MatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.SourceTable,
			r.SourceColumn,
			r.TargetTable,
			r.TargetColumn,
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			strconv.FormatFloat(r.Breakdown.NameScore, 'f', 4, 64),
			strconv.FormatFloat(r.Breakdown.ProfileScore, 'f', 4, 64),
			strconv.FormatFloat(r.Breakdown.EmbedScore, 'f', 4, 64),
			r.Breakdown.Reason,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

package match

import (
	"go.uber.org/zap"

	"github.com/datadna/etl-mapper/pkg/model"
)

// Selector picks the best-scoring target column for each source column.
// Selection is independent per source column: two sources may pick the same
// target, and no global assignment is attempted.
type Selector struct {
	scorer *Scorer
	logger *zap.Logger
}

// NewSelector creates a selector backed by the given scorer
func NewSelector(scorer *Scorer, logger *zap.Logger) *Selector {
	return &Selector{
		scorer: scorer,
		logger: logger.Named("match-selector"),
	}
}

// BestMatch scans every target candidate and retains the highest score.
// Equal scores are broken by the lexicographically smaller target
// table.column key, so results are reproducible regardless of the order
// targets are supplied in. A result is always produced; when every
// candidate scores zero the target fields are left empty.
func (s *Selector) BestMatch(src model.ColumnDescriptor, targets []model.ColumnDescriptor) model.MatchResult {
	result := model.MatchResult{
		SourceTable:  src.TableName,
		SourceColumn: src.ColName,
	}

	var bestKey string
	for _, tgt := range targets {
		score, breakdown := s.scorer.Score(src, tgt, nil)
		if score <= 0 {
			continue
		}

		better := score > result.Score ||
			(score == result.Score && (bestKey == "" || tgt.Key() < bestKey))
		if !better {
			continue
		}

		result.TargetTable = tgt.TableName
		result.TargetColumn = tgt.ColName
		result.Score = score
		result.Breakdown = breakdown
		bestKey = tgt.Key()
	}

	if result.TargetColumn == "" {
		s.logger.Debug("No compatible target found",
			zap.String("source", src.TableName+"."+src.ColName),
			zap.Int("candidates", len(targets)))
	}

	return result
}

// MatchAll produces one result per source column, in source order
func (s *Selector) MatchAll(sources, targets []model.ColumnDescriptor) []model.MatchResult {
	results := make([]model.MatchResult, len(sources))
	for i, src := range sources {
		results[i] = s.BestMatch(src, targets)
	}
	return results
}

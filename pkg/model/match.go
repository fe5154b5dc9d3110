// pkg/model/match.go
package model

// ScoreBreakdown reports the per-signal contributions behind a final score
// along with the weights that were actually applied.
type ScoreBreakdown struct {
	Reason          string  `json:"reason"`
	NameScore       float64 `json:"name_score"`
	ProfileScore    float64 `json:"profile_score"`
	EmbedScore      float64 `json:"embed_score"`
	WeightName      float64 `json:"weight_name"`
	WeightProfile   float64 `json:"weight_profile"`
	WeightEmbedding float64 `json:"weight_embedding"`
	FinalScore      float64 `json:"final_score"`
}

// MatchResult is the proposed target for one source column. Target fields
// are empty when every candidate scored zero.
type MatchResult struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
	Score        float64
	Breakdown    ScoreBreakdown
}

// Matched reports whether a target was actually selected
func (m MatchResult) Matched() bool {
	return m.TargetColumn != "" && m.Score > 0
}

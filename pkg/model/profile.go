// pkg/model/profile.go
package model

// Pattern is a coarse semantic type tag inferred from a column's value sample
type Pattern string

const (
	PatternDateISO      Pattern = "DATE_YYYY-MM-DD"
	PatternDateDMY      Pattern = "DATE_DDMMYYYY"
	PatternEmail        Pattern = "EMAIL"
	PatternPhone        Pattern = "PHONE"
	PatternNumeric      Pattern = "NUMERIC"
	PatternName         Pattern = "NAME"
	PatternCategorical  Pattern = "CATEGORICAL"
	PatternAlphanumeric Pattern = "ALPHANUMERIC"
	PatternUnknown      Pattern = "UNKNOWN"
)

// IsNumericLike reports whether the pattern describes digit-only values
func (p Pattern) IsNumericLike() bool {
	return p == PatternNumeric || p == PatternPhone
}

// IsDateLike reports whether the pattern describes a date format
func (p Pattern) IsDateLike() bool {
	return p == PatternDateISO || p == PatternDateDMY
}

// ColumnProfile holds the statistical fingerprint of a single column,
// computed from a capped value sample. All percentage/ratio fields are
// in [0,1] and unique_count <= non_null_count <= sample_count.
//
// The JSON tags define the canonical serialization used for fingerprint
// hashing, so they must stay stable across releases.
type ColumnProfile struct {
	SampleCount  int     `json:"sample_count"`
	NonNullCount int     `json:"non_null_count"`
	PctNull      float64 `json:"pct_null"`
	UniqueCount  int     `json:"unique_count"`
	UniqueRatio  float64 `json:"unique_ratio"`
	Entropy      float64 `json:"entropy"` // Shannon entropy in bits
	AvgLen       float64 `json:"avg_len"`
	MinLen       int     `json:"min_len"`
	MaxLen       int     `json:"max_len"`

	// TopValues lists up to 10 distinct values, most frequent first,
	// ties broken by first-encountered order.
	TopValues []string `json:"top_values"`

	DigitsPct float64 `json:"digits_pct"` // fraction of digit-only values
	AlphaPct  float64 `json:"alpha_pct"`  // fraction of values containing a letter
	SpacesPct float64 `json:"spaces_pct"` // fraction of values containing a space

	Pattern Pattern `json:"pattern"`

	IsLowCardinality  bool `json:"is_low_cardinality"`
	IsHighCardinality bool `json:"is_high_cardinality"`

	// EmbeddingLen records the dimension of the embedding that was present
	// when the column was profiled. Not part of the fingerprint input.
	EmbeddingLen int `json:"embedding_len,omitempty"`
}

// Package match scores profiled column pairs and selects the best target
// candidate for each source column. Scoring is pure and symmetric where the
// signals allow it; all entry points are safe for concurrent use.
package match

import (
	"math"

	"github.com/datadna/etl-mapper/pkg/model"
)

// Score breakdown reason codes
const (
	ReasonExactCode        = "exact_code_match"
	ReasonScored           = "scored"
	ReasonIncompatiblePref = "type_incompatible:"
)

// Profile sub-score weights (pattern/entropy/length/uniqueness/top-values)
const (
	weightPattern = 0.35
	weightEntropy = 0.20
	weightLen     = 0.15
	weightUnique  = 0.15
	weightTop     = 0.15

	// cardinalityPenalty is applied when one profile is enum-like and the
	// other near-unique, e.g. a status code against free text
	cardinalityPenalty = 0.10
)

// Weights are the blend factors for the three similarity signals
type Weights struct {
	Name      float64
	Profile   float64
	Embedding float64
}

// WeightPolicy selects the blend depending on whether an embedding signal
// is present. It is passed into the Scorer explicitly so tests and callers
// can inject alternatives instead of mutating package state.
type WeightPolicy struct {
	WithEmbedding    Weights
	WithoutEmbedding Weights
}

// DefaultWeightPolicy leans heavily on the statistical profile; the name
// signal is deliberately weak because production column names lie.
func DefaultWeightPolicy() WeightPolicy {
	return WeightPolicy{
		WithEmbedding:    Weights{Name: 0.10, Profile: 0.65, Embedding: 0.25},
		WithoutEmbedding: Weights{Name: 0.10, Profile: 0.90, Embedding: 0},
	}
}

// Scorer combines the name, profile and embedding signals into a final
// score under a fixed weight policy.
type Scorer struct {
	policy WeightPolicy
}

// NewScorer creates a scorer with the given weight policy
func NewScorer(policy WeightPolicy) *Scorer {
	return &Scorer{policy: policy}
}

// Score computes the final similarity between a source and target column.
// The fast paths run in order: identical non-empty fingerprints short-circuit
// to 1.0, then the type gate rejects irreconcilable patterns with 0.0 before
// any signal is computed. Otherwise the three sub-scores are blended with
// the policy's dynamic weights, or with the override when non-nil.
func (s *Scorer) Score(src, tgt model.ColumnDescriptor, override *Weights) (float64, model.ScoreBreakdown) {
	if src.Code != "" && src.Code == tgt.Code {
		return 1.0, model.ScoreBreakdown{
			Reason:       ReasonExactCode,
			NameScore:    1.0,
			ProfileScore: 1.0,
			EmbedScore:   1.0,
			FinalScore:   1.0,
		}
	}

	if ok, reason := Compatible(src.Profile, tgt.Profile); !ok {
		return 0, model.ScoreBreakdown{Reason: ReasonIncompatiblePref + reason}
	}

	nameScore := NameSimilarity(src.ColName, tgt.ColName)
	profileScore := ProfileSimilarity(src.Profile, tgt.Profile)

	embedScore := 0.0
	if len(src.Embedding) > 0 && len(tgt.Embedding) > 0 {
		embedScore = Cosine(src.Embedding, tgt.Embedding)
	}

	var w Weights
	switch {
	case override != nil:
		w = *override
	case embedScore > 0:
		w = s.policy.WithEmbedding
	default:
		w = s.policy.WithoutEmbedding
	}

	final := w.Name*nameScore + w.Profile*profileScore + w.Embedding*embedScore

	return final, model.ScoreBreakdown{
		Reason:          ReasonScored,
		NameScore:       round4(nameScore),
		ProfileScore:    round4(profileScore),
		EmbedScore:      round4(embedScore),
		WeightName:      w.Name,
		WeightProfile:   w.Profile,
		WeightEmbedding: w.Embedding,
		FinalScore:      round4(final),
	}
}

// ProfileSimilarity computes the weighted statistical similarity between two
// profiles in [0,1]. Symmetric: ProfileSimilarity(a, b) == ProfileSimilarity(b, a).
func ProfileSimilarity(p1, p2 model.ColumnProfile) float64 {
	patternScore := 0.0
	if p1.Pattern == p2.Pattern && p1.Pattern != model.PatternUnknown {
		patternScore = 1.0
	}

	base := weightPattern*patternScore +
		weightEntropy*relativeSim(p1.Entropy, p2.Entropy) +
		weightLen*relativeSim(p1.AvgLen, p2.AvgLen) +
		weightUnique*clamp01(1-math.Abs(p1.UniqueRatio-p2.UniqueRatio)) +
		weightTop*Jaccard(p1.TopValues, p2.TopValues)

	// An enum-like column matched against a near-unique one is almost
	// certainly wrong no matter how similar the other stats look.
	if (p1.IsLowCardinality && p2.IsHighCardinality) || (p2.IsLowCardinality && p1.IsHighCardinality) {
		base *= cardinalityPenalty
	}

	return clamp01(base)
}

// relativeSim scores how close two non-negative magnitudes are, as
// 1 - |a-b|/max(a,b), clamped at zero. Both zero scores 0: absent
// statistics carry no evidence of similarity.
func relativeSim(a, b float64) float64 {
	m := math.Max(a, b)
	if m <= 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(a-b)/m)
}

// Jaccard computes set overlap between two top-value lists, 0 if either
// is empty.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sa := make(map[string]struct{}, len(a))
	for _, v := range a {
		sa[v] = struct{}{}
	}
	sb := make(map[string]struct{}, len(b))
	for _, v := range b {
		sb[v] = struct{}{}
	}
	inter := 0
	for v := range sb {
		if _, ok := sa[v]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Cosine computes cosine similarity between two embedding vectors, 0 when
// either is empty or has zero magnitude. Vectors of unequal length are
// compared over their common prefix.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

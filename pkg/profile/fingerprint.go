package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/datadna/etl-mapper/pkg/model"
)

// embeddingDigestDims caps how many embedding components enter the digest
const embeddingDigestDims = 64

// Fingerprint derives a stable content hash from a profile and an optional
// embedding vector. The profile is serialized as JSON with sorted keys, so
// the hash is independent of field insertion order; the embedding is rounded
// to 4 decimal places before digesting so tiny float jitter between runs
// does not break exact-match detection.
func Fingerprint(p model.ColumnProfile, embedding []float64) string {
	payload, err := json.Marshal(canonicalMap(p))
	if err != nil {
		// canonicalMap only holds JSON-safe primitives
		return ""
	}

	if embedding != nil {
		payload = append(payload, '|')
		payload = append(payload, embeddingDigest(embedding)...)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// canonicalMap exposes the hashed subset of a profile as a map so that
// encoding/json emits its keys in sorted order. EmbeddingLen is excluded:
// it is set after hashing and must not perturb the fingerprint.
func canonicalMap(p model.ColumnProfile) map[string]interface{} {
	top := p.TopValues
	if top == nil {
		top = []string{}
	}
	return map[string]interface{}{
		"sample_count":        p.SampleCount,
		"non_null_count":      p.NonNullCount,
		"pct_null":            p.PctNull,
		"unique_count":        p.UniqueCount,
		"unique_ratio":        p.UniqueRatio,
		"entropy":             p.Entropy,
		"avg_len":             p.AvgLen,
		"min_len":             p.MinLen,
		"max_len":             p.MaxLen,
		"top_values":          top,
		"digits_pct":          p.DigitsPct,
		"alpha_pct":           p.AlphaPct,
		"spaces_pct":          p.SpacesPct,
		"pattern":             string(p.Pattern),
		"is_low_cardinality":  p.IsLowCardinality,
		"is_high_cardinality": p.IsHighCardinality,
	}
}

func embeddingDigest(embedding []float64) string {
	dims := len(embedding)
	if dims > embeddingDigestDims {
		dims = embeddingDigestDims
	}
	parts := make([]string, dims)
	for i := 0; i < dims; i++ {
		parts[i] = strconv.FormatFloat(embedding[i], 'f', 4, 64)
	}
	return strings.Join(parts, ",")
}

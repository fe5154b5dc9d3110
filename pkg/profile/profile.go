// Package profile computes statistical column profiles and stable
// fingerprints from sampled values. Everything here is pure: no I/O,
// no shared state, safe to run concurrently across columns.
package profile

import (
	"math"
	"sort"
	"strings"

	"github.com/datadna/etl-mapper/pkg/model"
)

const (
	// sampleCap bounds the number of sample entries considered per column
	sampleCap = 1000

	// topValueCount is how many most-frequent values a profile retains
	topValueCount = 10
)

// Column profiles a value sample and derives its fingerprint. Null values
// must be coerced upstream to the empty-string sentinel; the embedding is
// optional and may be nil. The returned profile is a value object and never
// shares memory with the input slice.
func Column(values []string, embedding []float64) (string, model.ColumnProfile) {
	sample := values
	if len(sample) > sampleCap {
		sample = sample[:sampleCap]
	}

	trimmed := make([]string, len(sample))
	for i, v := range sample {
		trimmed[i] = strings.TrimSpace(v)
	}

	p := basicStats(trimmed)
	p.Pattern = ClassifyPattern(trimmed)
	p.IsLowCardinality = p.UniqueCount <= 20 || p.UniqueRatio < 0.05
	p.IsHighCardinality = p.UniqueRatio > 0.5 && p.UniqueCount > 100

	// The fingerprint covers the statistical fields only; EmbeddingLen is
	// bookkeeping set afterwards so cached profiles re-hash identically.
	code := Fingerprint(p, embedding)
	if embedding != nil {
		p.EmbeddingLen = len(embedding)
	}

	return code, p
}

// basicStats computes the descriptive statistics over a trimmed sample.
// Empty or all-null samples yield zero ratios rather than errors.
func basicStats(sample []string) model.ColumnProfile {
	n := len(sample)

	nonNull := make([]string, 0, n)
	for _, v := range sample {
		if v != "" {
			nonNull = append(nonNull, v)
		}
	}
	nonNullCount := len(nonNull)

	pctNull := 1.0
	if n > 0 {
		pctNull = round4(1 - float64(nonNullCount)/float64(n))
	}

	var avgLen float64
	minLen, maxLen := 0, 0
	if nonNullCount > 0 {
		totalLen := 0
		minLen = len(nonNull[0])
		for _, v := range nonNull {
			l := len(v)
			totalLen += l
			if l < minLen {
				minLen = l
			}
			if l > maxLen {
				maxLen = l
			}
		}
		avgLen = round2(float64(totalLen) / float64(nonNullCount))
	}

	counts, order := valueCounts(nonNull)
	uniqueCount := len(counts)

	uniqueRatio := 0.0
	if nonNullCount > 0 {
		uniqueRatio = round4(float64(uniqueCount) / float64(nonNullCount))
	}

	digits, alpha, spaces := 0, 0, 0
	for _, v := range nonNull {
		if isAllDigits(v) {
			digits++
		}
		if reLetter.MatchString(v) {
			alpha++
		}
		if strings.Contains(v, " ") {
			spaces++
		}
	}
	denom := float64(nonNullCount)
	if denom == 0 {
		denom = 1
	}

	return model.ColumnProfile{
		SampleCount:  n,
		NonNullCount: nonNullCount,
		PctNull:      pctNull,
		UniqueCount:  uniqueCount,
		UniqueRatio:  uniqueRatio,
		Entropy:      round4(entropyBits(counts, nonNullCount)),
		AvgLen:       avgLen,
		MinLen:       minLen,
		MaxLen:       maxLen,
		TopValues:    topValues(counts, order, topValueCount),
		DigitsPct:    round4(float64(digits) / denom),
		AlphaPct:     round4(float64(alpha) / denom),
		SpacesPct:    round4(float64(spaces) / denom),
	}
}

// entropyBits computes Shannon entropy (-sum p*log2 p) over the value
// frequency distribution. Zero for an empty sample.
func entropyBits(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	var e float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		if p > 0 {
			e -= p * math.Log2(p)
		}
	}
	return e
}

// valueCounts tallies occurrences and records first-encountered order,
// which breaks frequency ties in TopValues deterministically.
func valueCounts(values []string) (map[string]int, map[string]int) {
	counts := make(map[string]int, len(values))
	order := make(map[string]int, len(values))
	for i, v := range values {
		if _, seen := counts[v]; !seen {
			order[v] = i
		}
		counts[v]++
	}
	return counts, order
}

func topValues(counts map[string]int, order map[string]int, limit int) []string {
	ranked := make([]string, 0, len(counts))
	for v := range counts {
		ranked = append(ranked, v)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return order[ranked[i]] < order[ranked[j]]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Profiles are rounded before hashing so fingerprints stay stable across
// platforms with differing float formatting.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

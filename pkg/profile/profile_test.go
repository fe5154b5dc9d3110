package profile

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datadna/etl-mapper/pkg/model"
)

func TestColumnBasicStats(t *testing.T) {
	values := []string{"red", "blue", "red", "", "green", "red", ""}

	code, p := Column(values, nil)

	require.NotEmpty(t, code)
	assert.Equal(t, 7, p.SampleCount)
	assert.Equal(t, 5, p.NonNullCount)
	assert.InDelta(t, 2.0/7.0, p.PctNull, 0.0001)
	assert.Equal(t, 3, p.UniqueCount)
	assert.InDelta(t, 0.6, p.UniqueRatio, 0.0001)
	assert.Equal(t, 3, p.MinLen)
	assert.Equal(t, 5, p.MaxLen)
	assert.Greater(t, p.Entropy, 0.0)

	// Most frequent first; ties broken by first-encountered order
	assert.Equal(t, []string{"red", "blue", "green"}, p.TopValues)

	assert.True(t, p.IsLowCardinality)
	assert.False(t, p.IsHighCardinality)
}

func TestColumnEmptySample(t *testing.T) {
	code, p := Column(nil, nil)

	require.NotEmpty(t, code)
	assert.Equal(t, 0, p.SampleCount)
	assert.Equal(t, 0, p.NonNullCount)
	assert.Equal(t, 1.0, p.PctNull)
	assert.Equal(t, 0.0, p.UniqueRatio)
	assert.Equal(t, 0.0, p.Entropy)
	assert.Equal(t, 0.0, p.AvgLen)
	assert.Equal(t, model.PatternUnknown, p.Pattern)
	assert.Empty(t, p.TopValues)
}

func TestColumnAllNullSample(t *testing.T) {
	_, p := Column([]string{"", "", "  ", ""}, nil)

	assert.Equal(t, 4, p.SampleCount)
	assert.Equal(t, 0, p.NonNullCount)
	assert.Equal(t, 1.0, p.PctNull)
	assert.Equal(t, 0.0, p.Entropy)
	assert.Equal(t, model.PatternUnknown, p.Pattern)
}

func TestColumnSampleCap(t *testing.T) {
	values := make([]string, 1500)
	for i := range values {
		values[i] = fmt.Sprintf("v%d", i)
	}

	_, p := Column(values, nil)

	assert.Equal(t, 1000, p.SampleCount)
	assert.Equal(t, 1000, p.UniqueCount)
	assert.True(t, p.IsHighCardinality)
	assert.False(t, p.IsLowCardinality)
}

func TestColumnEntropy(t *testing.T) {
	// Uniform over 4 values: entropy is exactly 2 bits
	_, p := Column([]string{"a", "b", "c", "d"}, nil)
	assert.InDelta(t, 2.0, p.Entropy, 0.0001)

	// A constant column carries no information
	_, p = Column([]string{"x", "x", "x"}, nil)
	assert.Equal(t, 0.0, p.Entropy)
}

func TestColumnCharacterClassFractions(t *testing.T) {
	_, p := Column([]string{"1234", "abcd", "a b", ""}, nil)

	assert.InDelta(t, 1.0/3.0, p.DigitsPct, 0.0001)
	assert.InDelta(t, 2.0/3.0, p.AlphaPct, 0.0001)
	assert.InDelta(t, 1.0/3.0, p.SpacesPct, 0.0001)
}

func TestColumnTopValuesLimit(t *testing.T) {
	values := make([]string, 0, 60)
	for i := 0; i < 15; i++ {
		// 15 distinct values with descending frequencies
		for j := 0; j <= 15-i; j++ {
			values = append(values, fmt.Sprintf("val%02d", i))
		}
	}

	_, p := Column(values, nil)

	require.Len(t, p.TopValues, 10)
	assert.Equal(t, "val00", p.TopValues[0])
}

func TestColumnProfileInvariants(t *testing.T) {
	samples := [][]string{
		nil,
		{""},
		{"a"},
		{"a", "a", "b", "", "c"},
		{"2024-01-01", "2024-02-02"},
	}

	for _, sample := range samples {
		_, p := Column(sample, nil)
		assert.LessOrEqual(t, p.UniqueCount, p.NonNullCount)
		assert.LessOrEqual(t, p.NonNullCount, p.SampleCount)
		for _, ratio := range []float64{p.PctNull, p.UniqueRatio, p.DigitsPct, p.AlphaPct, p.SpacesPct} {
			assert.GreaterOrEqual(t, ratio, 0.0)
			assert.LessOrEqual(t, ratio, 1.0)
		}
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	values := []string{"2024-01-01", "2024-02-15", "2024-03-30"}

	code1, _ := Column(values, nil)
	code2, _ := Column(values, nil)

	assert.Equal(t, code1, code2)
	assert.Len(t, code1, 64) // sha256 hex
}

func TestFingerprintSensitiveToProfileChange(t *testing.T) {
	code1, _ := Column([]string{"a", "b"}, nil)
	code2, _ := Column([]string{"a", "c"}, nil)
	assert.NotEqual(t, code1, code2)
}

func TestFingerprintEmbeddingDigest(t *testing.T) {
	values := []string{"a", "b", "c"}

	plain, _ := Column(values, nil)
	embedded, p := Column(values, []float64{0.1, 0.2, 0.3})

	assert.NotEqual(t, plain, embedded)
	assert.Equal(t, 3, p.EmbeddingLen)

	// Rounding to 4 decimals absorbs float jitter beyond that precision
	jittered, _ := Column(values, []float64{0.1000000001, 0.2, 0.3})
	assert.Equal(t, embedded, jittered)

	// Only the first 64 dimensions participate in the digest
	long := make([]float64, 80)
	longer := make([]float64, 100)
	for i := range long {
		long[i] = 0.5
	}
	for i := range longer {
		longer[i] = 0.5
	}
	codeA, _ := Column(values, long)
	codeB, _ := Column(values, longer)
	assert.Equal(t, codeA, codeB)
}

func TestFingerprintRoundTrip(t *testing.T) {
	embedding := []float64{0.25, -1.5, 3.14159}
	code, p := Column([]string{"alpha", "beta", "alpha", ""}, embedding)

	// Serialize the profile, read it back, re-hash: same fingerprint
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var restored model.ColumnProfile
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, code, Fingerprint(restored, embedding))
}

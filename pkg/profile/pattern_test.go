package profile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datadna/etl-mapper/pkg/model"
)

func TestClassifyPattern(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected model.Pattern
	}{
		{
			name:     "empty sample",
			values:   nil,
			expected: model.PatternUnknown,
		},
		{
			name:     "all null sample",
			values:   []string{"", "", ""},
			expected: model.PatternUnknown,
		},
		{
			name:     "iso dates",
			values:   []string{"2024-01-01", "2024-02-15", "2024-03-30"},
			expected: model.PatternDateISO,
		},
		{
			name:     "iso dates with interleaved nulls",
			values:   []string{"", "2024-01-01", "", "2024-02-15"},
			expected: model.PatternDateISO,
		},
		{
			name:     "slash dates",
			values:   []string{"01/02/2024", "15/06/2023"},
			expected: model.PatternDateDMY,
		},
		{
			name:     "single non-date value disqualifies date",
			values:   []string{"2024-01-01", "2024-02-15", "not a date"},
			expected: model.PatternCategorical,
		},
		{
			name:     "emails",
			values:   []string{"a.person@example.com", "b@test.org"},
			expected: model.PatternEmail,
		},
		{
			name:     "phones",
			values:   []string{"4255551234", "936055512345"},
			expected: model.PatternPhone,
		},
		{
			name:     "nine digit strings are numeric not phone",
			values:   []string{"123456789", "987654321"},
			expected: model.PatternNumeric,
		},
		{
			name:     "decimals",
			values:   []string{"3.14", "42", "0.5"},
			expected: model.PatternNumeric,
		},
		{
			name:     "person names",
			values:   []string{"John Smith", "Jane Doe", "Maria Garcia Lopez"},
			expected: model.PatternName,
		},
		{
			name:     "small enum",
			values:   []string{"ACTIVE", "INACTIVE", "ACTIVE", "PENDING"},
			expected: model.PatternCategorical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyPattern(tt.values))
		})
	}
}

func TestClassifyPatternAlphanumeric(t *testing.T) {
	// More than 20 distinct code-like values, no spaces, mixed letters/digits
	values := make([]string, 30)
	for i := range values {
		values[i] = fmt.Sprintf("SKU%04d", i)
	}
	assert.Equal(t, model.PatternAlphanumeric, ClassifyPattern(values))
}

func TestClassifyPatternWindowCap(t *testing.T) {
	// The 50-value window must exclude values beyond it: 50 dates followed
	// by garbage still classifies as a date column.
	values := make([]string, 0, 60)
	for i := 0; i < 50; i++ {
		values = append(values, fmt.Sprintf("2024-01-%02d", i%28+1))
	}
	for i := 0; i < 10; i++ {
		values = append(values, "garbage")
	}
	assert.Equal(t, model.PatternDateISO, ClassifyPattern(values))
}

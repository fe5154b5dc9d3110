package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameSimilarityIdentical(t *testing.T) {
	assert.Equal(t, 1.0, NameSimilarity("customer_id", "customer_id"))
	assert.Equal(t, 1.0, NameSimilarity("CUSTOMER_ID", "customer_id"))
}

func TestNameSimilarityReorderedTokens(t *testing.T) {
	// Token-set comparison ignores word order and delimiter style
	assert.Equal(t, 1.0, NameSimilarity("order_date", "date_order"))
	assert.Equal(t, 1.0, NameSimilarity("first name", "name-first"))
}

func TestNameSimilarityDuplicateTokens(t *testing.T) {
	assert.Equal(t, 1.0, NameSimilarity("id_id_customer", "customer_id"))
}

func TestNameSimilarityAbbreviation(t *testing.T) {
	got := NameSimilarity("ORDER_DATE", "ORDER_DT")
	assert.InDelta(t, 0.8889, got, 0.001)
	assert.Greater(t, got, 0.6)
}

func TestNameSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 0.0, NameSimilarity("", "customer_id"))
	assert.Equal(t, 0.0, NameSimilarity("customer_id", ""))
	assert.Equal(t, 0.0, NameSimilarity("", ""))
	assert.Equal(t, 0.0, NameSimilarity("___", "customer_id"))
}

func TestNameSimilarityDisjoint(t *testing.T) {
	got := NameSimilarity("customer_email", "zip_code")
	assert.GreaterOrEqual(t, got, 0.0)
	assert.Less(t, got, 0.5)
}

func TestNameSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"ssn", "social_security_number"},
		{"addr_line_1", "address_line_one"},
		{"x123", "x123"},
	}
	for _, p := range pairs {
		got := NameSimilarity(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

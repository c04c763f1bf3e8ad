package seedmetric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRegimeBands(t *testing.T) {
	fatalism := Evaluate("jakarta", 50_000_000, 60_000_000)
	assert.Equal(t, RegimeFatalism, fatalism.Regime)

	optimism := Evaluate("austin", 300_000, 60_000_000)
	assert.Equal(t, RegimeOptimism, optimism.Regime)
}

func TestEvaluateZeroIncomeIsSafe(t *testing.T) {
	result := Evaluate("nowhere", 1_000_000, 0)
	assert.Equal(t, 0.0, result.Years)
	assert.Equal(t, RegimeOptimism, result.Regime)
}

func TestSolveAffordabilityIsPositiveRoot(t *testing.T) {
	a := SolveAffordability(0)
	// A = 1 + 1/A  =>  A is the golden ratio when sigma is zero.
	assert.InDelta(t, 1.618, a, 0.001)
}

func TestParseStructuredReply(t *testing.T) {
	land, income, ok := ParseStructuredReply("LAND:12345.6 INCOME:78900")
	assert.True(t, ok)
	assert.Equal(t, 12345.6, land)
	assert.Equal(t, 78900.0, income)
}

func TestParseStructuredReplyRejectsMalformed(t *testing.T) {
	_, _, ok := ParseStructuredReply("no structured data here")
	assert.False(t, ok)
}

func TestParseSnippetExtractsLooseNumbers(t *testing.T) {
	price, income, ok := ParseSnippet("average price 12,500 per sqm, median income 45,000 annually")
	assert.True(t, ok)
	assert.Equal(t, 12500.0, price)
	assert.Equal(t, 45000.0, income)
}

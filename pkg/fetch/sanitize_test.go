package fetch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTicker(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"nvda", "NVDA", true},
		{"$NVDA", "", false},
		{"1ABC", "", false},
		{"A", "A", true},
		{"ABCDEFGHIJK", "", false}, // 11 chars, over the 10-char bound
		{"BRK.B", "BRK.B", true},
	}
	for _, c := range cases {
		got, ok := SanitizeTicker(c.in)
		assert.Equal(t, c.valid, ok, "input %q", c.in)
		if c.valid {
			assert.Equal(t, c.want, got)
		}
	}
}

func TestSanitizeForexPair(t *testing.T) {
	got, ok := SanitizeForexPair("usd/jpy")
	assert.True(t, ok)
	assert.Equal(t, "USD/JPY", got)

	_, ok = SanitizeForexPair("USDJPY")
	assert.False(t, ok)
}

func TestSanitizeFloatScrubsNonFinite(t *testing.T) {
	assert.Nil(t, SanitizeFloat(math.NaN()))
	assert.Nil(t, SanitizeFloat(math.Inf(1)))
	assert.Nil(t, SanitizeFloat(math.Inf(-1)))
	assert.Equal(t, 3.5, SanitizeFloat(3.5))
}

package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinBurstSucceeds(t *testing.T) {
	g := NewGate(1, 2)
	assert.True(t, g.Allow("client-a", "brave"))
	assert.True(t, g.Allow("client-a", "brave"))
	assert.False(t, g.Allow("client-a", "brave"))
}

func TestBucketsAreIsolatedPerClientAndService(t *testing.T) {
	g := NewGate(1, 1)
	assert.True(t, g.Allow("client-a", "brave"))
	assert.True(t, g.Allow("client-b", "brave"))
	assert.True(t, g.Allow("client-a", "market"))
}

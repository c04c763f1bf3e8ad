package legal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedPromptListsAllSectionsInOrder(t *testing.T) {
	prompt := SeedPrompt()
	assert.Contains(t, prompt, "1. Document Overview")
	assert.Contains(t, prompt, "8. Recommended Actions")
	assert.Len(t, Sections, 8)
}

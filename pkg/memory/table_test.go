package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrCreateReturnsSameManager(t *testing.T) {
	table := NewTable(func() Summarizer { return &fakeSummarizer{} })
	m1 := table.GetOrCreate("session-1")
	m1.AddMessage("user", "hello", nil)

	m2 := table.GetOrCreate("session-1")
	assert.Same(t, m1, m2)
}

func TestTableIsolatesSessions(t *testing.T) {
	table := NewTable(func() Summarizer { return &fakeSummarizer{} })
	a := table.GetOrCreate("session-a")
	b := table.GetOrCreate("session-b")
	a.AddMessage("user", "only in a", nil)

	assert.Len(t, a.GetContextForPrompt("").RecentMessages, 1)
	assert.Len(t, b.GetContextForPrompt("").RecentMessages, 0)
}

func TestTableRemove(t *testing.T) {
	table := NewTable(func() Summarizer { return &fakeSummarizer{} })
	table.GetOrCreate("session-a")
	require := assert.New(t)
	require.Equal(1, table.Len())
	table.Remove("session-a")
	require.Equal(0, table.Len())
}

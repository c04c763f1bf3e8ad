package llmchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessTickerUppercasesAndTrims(t *testing.T) {
	adapter := &stubAdapter{tag: Groq, results: []stubResult{{text: "  tsla \n"}}}
	chain := NewChain([]ProviderTag{Groq}, adapter)

	ticker, err := chain.GuessTicker(context.Background(), "how's tesla doing")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", ticker)
}

func TestGuessTickerNoneBecomesEmpty(t *testing.T) {
	adapter := &stubAdapter{tag: Groq, results: []stubResult{{text: "none"}}}
	chain := NewChain([]ProviderTag{Groq}, adapter)

	ticker, err := chain.GuessTicker(context.Background(), "what's the weather")
	require.NoError(t, err)
	assert.Empty(t, ticker)
}

func TestGuessTickerEmptyReplyBecomesEmpty(t *testing.T) {
	adapter := &stubAdapter{tag: Groq, results: []stubResult{{text: "   "}}}
	chain := NewChain([]ProviderTag{Groq}, adapter)

	ticker, err := chain.GuessTicker(context.Background(), "nothing relevant here")
	require.NoError(t, err)
	assert.Empty(t, ticker)
}

func TestGuessTickerPropagatesChainError(t *testing.T) {
	adapter := &stubAdapter{tag: Groq, results: []stubResult{{err: assert.AnError}}}
	chain := NewChain([]ProviderTag{Groq}, adapter)

	_, err := chain.GuessTicker(context.Background(), "anything")
	require.Error(t, err)
}

package llmchain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	tag     ProviderTag
	results []stubResult
	calls   int
}

type stubResult struct {
	text string
	err  error
}

func (s *stubAdapter) Tag() ProviderTag     { return s.tag }
func (s *stubAdapter) DefaultModel() string { return "stub-model" }
func (s *stubAdapter) Call(ctx context.Context, opts CallOptions) (string, error) {
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	r := s.results[idx]
	return r.text, r.err
}

func TestCallFallsBackOnProviderError(t *testing.T) {
	failing := &stubAdapter{tag: Groq, results: []stubResult{{err: errors.New("down")}}}
	working := &stubAdapter{tag: OpenAI, results: []stubResult{{text: "hello from openai"}}}
	chain := NewChain([]ProviderTag{Groq, OpenAI}, failing, working)

	text, err := chain.Call(context.Background(), CallOptions{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello from openai", text)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
}

func TestCallAllProvidersFail(t *testing.T) {
	a := &stubAdapter{tag: Groq, results: []stubResult{{err: errors.New("down")}}}
	b := &stubAdapter{tag: OpenAI, results: []stubResult{{err: errors.New("also down")}}}
	chain := NewChain([]ProviderTag{Groq, OpenAI}, a, b)

	_, err := chain.Call(context.Background(), CallOptions{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllProvidersFailed))
}

func TestCallEmptyChainFails(t *testing.T) {
	chain := NewChain(nil)
	_, err := chain.Call(context.Background(), CallOptions{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllProvidersFailed))
}

func TestCallForcedProviderDoesNotFallback(t *testing.T) {
	failing := &stubAdapter{tag: Groq, results: []stubResult{{err: errors.New("down")}}}
	working := &stubAdapter{tag: OpenAI, results: []stubResult{{text: "should not be called"}}}
	chain := NewChain([]ProviderTag{Groq, OpenAI}, failing, working)

	_, err := chain.Call(context.Background(), CallOptions{Prompt: "hi", Provider: Groq})
	require.Error(t, err)
	assert.Equal(t, 0, working.calls)
}

func TestSetDynamicChainChangesOrderForFutureCalls(t *testing.T) {
	a := &stubAdapter{tag: Groq, results: []stubResult{{text: "from groq"}}}
	b := &stubAdapter{tag: OpenAI, results: []stubResult{{text: "from openai"}}}
	chain := NewChain([]ProviderTag{Groq, OpenAI}, a, b)

	chain.SetDynamicChain([]ProviderTag{OpenAI, Groq})
	text, err := chain.Call(context.Background(), CallOptions{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from openai", text)
}

func TestCallWithRetryHonorsRetryAfterThenSucceeds(t *testing.T) {
	adapter := &stubAdapter{
		tag: Groq,
		results: []stubResult{
			{err: &RateLimitError{Provider: Groq, RetryAfter: 10 * time.Millisecond}},
			{text: "succeeded on retry"},
		},
	}
	chain := NewChain([]ProviderTag{Groq}, adapter)

	start := time.Now()
	text, err := chain.CallWithRetry(context.Background(), CallOptions{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "succeeded on retry", text)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, 2, adapter.calls)
}

func TestCallWithRetryNonRetryableErrorPropagatesImmediately(t *testing.T) {
	adapter := &stubAdapter{tag: Groq, results: []stubResult{{err: errors.New("bad request")}}}
	chain := NewChain([]ProviderTag{Groq}, adapter)

	_, err := chain.CallWithRetry(context.Background(), CallOptions{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, adapter.calls)
}

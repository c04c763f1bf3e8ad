// Package llmchain implements the Provider Chain: an ordered list of LLM
// provider adapters with fallback-on-error iteration and a bounded,
// backoff-driven retry wrapper for the primary reasoning/audit path.
//
// Grounded on the teacher's pkg/agent/llm_client.go (LLMClient interface
// shape, typed error surface) and pkg/config/llm.go (registry holding
// provider configs behind a sync.RWMutex with defensive copies) — the
// chain's dynamic, copy-on-read provider order follows the same pattern.
package llmchain

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ProviderTag names one of the supported LLM backends.
type ProviderTag string

const (
	Minimax ProviderTag = "minimax"
	Groq    ProviderTag = "groq"
	Claude  ProviderTag = "claude"
	OpenAI  ProviderTag = "openai"
	Ollama  ProviderTag = "ollama"
)

// defaultTimeout is the network timeout for a provider call, and also the
// local model server timeout (spec.md §4.D: both default to 2 minutes).
const defaultTimeout = 2 * time.Minute

// maxRetries bounds callWithRetry's attempts beyond the first call.
const maxRetries = 3

// CallOptions parameterizes a single chain call.
type CallOptions struct {
	Prompt      string
	System      string
	Model       string
	Temperature float64
	MaxTokens   int
	Provider    ProviderTag // if set, dispatch to this provider only
}

// Adapter maps CallOptions to one provider's request/response shape.
type Adapter interface {
	Tag() ProviderTag
	DefaultModel() string
	Call(ctx context.Context, opts CallOptions) (string, error)
}

// Chain holds the configured adapters and the current dynamic ordering.
type Chain struct {
	mu       sync.RWMutex
	adapters map[ProviderTag]Adapter
	order    []ProviderTag
}

// NewChain builds a Chain from discovered adapters, in the given initial
// order (spec.md §4.D: order is discovered at startup from credential
// presence and a local-model reachability probe; this constructor takes
// that already-resolved order as input).
func NewChain(order []ProviderTag, adapters ...Adapter) *Chain {
	c := &Chain{adapters: make(map[ProviderTag]Adapter, len(adapters))}
	for _, a := range adapters {
		c.adapters[a.Tag()] = a
	}
	c.order = append([]ProviderTag(nil), order...)
	return c
}

// SetDynamicChain atomically replaces the call order. Per spec.md §9, the
// chain value a call uses is a copy-on-read snapshot taken at call time;
// updates here only affect calls issued after this returns.
func (c *Chain) SetDynamicChain(order []ProviderTag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = append([]ProviderTag(nil), order...)
}

func (c *Chain) snapshotOrder() []ProviderTag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ProviderTag, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Chain) adapter(tag ProviderTag) (Adapter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.adapters[tag]
	return a, ok
}

// Call dispatches opts.Prompt through the chain. If opts.Provider is set,
// it is invoked once with no fallback. Otherwise each provider in the
// current order is tried in turn; a provider error is logged and the next
// provider is attempted. If every provider fails, ErrAllProvidersFailed is
// returned.
func (c *Chain) Call(ctx context.Context, opts CallOptions) (string, error) {
	if opts.Provider != "" {
		adapter, ok := c.adapter(opts.Provider)
		if !ok {
			return "", ErrProviderNotConfigured
		}
		return callOne(ctx, adapter, opts)
	}

	order := c.snapshotOrder()
	if len(order) == 0 {
		return "", ErrAllProvidersFailed
	}
	var lastErr error
	for _, tag := range order {
		adapter, ok := c.adapter(tag)
		if !ok {
			continue
		}
		text, err := callOne(ctx, adapter, opts)
		if err == nil {
			return text, nil
		}
		slog.Warn("llmchain: provider failed, falling back", "provider", string(tag), "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrAllProvidersFailed
	}
	return "", errors.Join(ErrAllProvidersFailed, lastErr)
}

func callOne(ctx context.Context, adapter Adapter, opts CallOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if opts.Model == "" {
		opts.Model = adapter.DefaultModel()
	}
	return adapter.Call(ctx, opts)
}

// CallWithRetry wraps Call (dispatched to a single resolved provider) with
// bounded exponential backoff for the primary reasoning/audit path:
// on HTTP 429 it honors a RateLimitError's RetryAfter when present,
// otherwise backs off min(1s*2^attempt, 8s), up to maxRetries times. Any
// other error is not retried. On success, usage metrics are recorded.
func (c *Chain) CallWithRetry(ctx context.Context, opts CallOptions) (string, error) {
	var adapter Adapter
	var tag ProviderTag
	if opts.Provider != "" {
		a, ok := c.adapter(opts.Provider)
		if !ok {
			return "", ErrProviderNotConfigured
		}
		adapter, tag = a, opts.Provider
	} else {
		order := c.snapshotOrder()
		if len(order) == 0 {
			return "", ErrAllProvidersFailed
		}
		a, ok := c.adapter(order[0])
		if !ok {
			return "", ErrAllProvidersFailed
		}
		adapter, tag = a, order[0]
	}

	bo := backoff.WithMaxRetries(newBackOff(), maxRetries)

	var lastErr error
	for {
		text, err := callOne(ctx, adapter, opts)
		if err == nil {
			recordProviderSuccess(tag)
			return text, nil
		}
		lastErr = err

		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			return "", err
		}

		wait := rateErr.RetryAfter
		next := bo.NextBackOff()
		if next == backoff.Stop {
			return "", lastErr
		}
		if wait <= 0 {
			wait = next
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
}

func newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 1 * time.Second
	eb.Multiplier = 2
	eb.MaxInterval = 8 * time.Second
	eb.MaxElapsedTime = 0
	eb.RandomizationFactor = 0
	return eb
}

// Summarize satisfies pkg/memory.Summarizer by issuing a single chain call
// with no system prompt, used for the MemoryManager's rolling summary.
func (c *Chain) Summarize(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	return c.Call(ctx, CallOptions{
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
}

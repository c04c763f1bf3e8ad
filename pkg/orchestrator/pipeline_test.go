package orchestrator

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/codeready-toolchain/tarsy/pkg/preflight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAdapter struct {
	respond func(opts llmchain.CallOptions) (string, error)
}

func (a *scriptedAdapter) Tag() llmchain.ProviderTag     { return "fake" }
func (a *scriptedAdapter) DefaultModel() string          { return "fake-model" }
func (a *scriptedAdapter) Call(_ context.Context, opts llmchain.CallOptions) (string, error) {
	return a.respond(opts)
}

func newTestChain(respond func(opts llmchain.CallOptions) (string, error)) *llmchain.Chain {
	adapter := &scriptedAdapter{respond: respond}
	return llmchain.NewChain([]llmchain.ProviderTag{"fake"}, adapter)
}

func approvingChain() *llmchain.Chain {
	return newTestChain(func(opts llmchain.CallOptions) (string, error) {
		if opts.System == auditSystemPrompt {
			return "VERDICT: APPROVED CONFIDENCE: 90", nil
		}
		return "This is the reasoned answer.", nil
	})
}

func newTestPipeline(chain *llmchain.Chain) *Pipeline {
	router := preflight.NewRouter(nil, nil)
	return New(chain, router, nil, nil, nil, nil, nil, nil, "base protocol", "compressed protocol")
}

func TestRunGeneralModeProducesVerifiedBadge(t *testing.T) {
	p := newTestPipeline(approvingChain())

	out, err := p.Run(context.Background(), Input{
		Query:    "hello",
		TenantID: "tenant1",
		SessionID: "s1",
		ClientID: "tenant1",
	})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, preflight.ModeGeneral, out.Mode)
	assert.Equal(t, "verified", out.Badge)
	assert.Contains(t, out.Answer, "~nyan")
	assert.NotEmpty(t, out.DataPackageID)
}

func TestRunPsiEMAFastPathNoTicker(t *testing.T) {
	p := newTestPipeline(approvingChain())

	pre := &preflight.Result{Mode: preflight.ModePsiEMA, Ticker: "ACME", StockContext: nil}
	out, err := p.Run(context.Background(), Input{
		Query:                "analyze ACME psi-ema",
		TenantID:             "tenant1",
		ClientID:             "tenant1",
		PreComputedPreflight: pre,
	})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Answer, "No market data is available for ACME")
	assert.Equal(t, "verified", out.Badge)
}

func TestRunProviderExhaustionReturnsUnavailableBadge(t *testing.T) {
	chain := newTestChain(func(opts llmchain.CallOptions) (string, error) {
		return "", llmchain.ErrAllProvidersFailed
	})
	p := newTestPipeline(chain)

	out, err := p.Run(context.Background(), Input{Query: "hello", TenantID: "tenant1", ClientID: "tenant1"})

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "unavailable", out.Badge)
}

func TestRunWorkerSatisfiesPipelineRunnerContract(t *testing.T) {
	p := newTestPipeline(approvingChain())

	answer, verdict, tokensIn, tokensOut, err := p.RunWorker(context.Background(), "parent:swarm:w1", "hello")

	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Equal(t, "APPROVED", verdict)
	assert.Greater(t, tokensIn, 0)
	assert.GreaterOrEqual(t, tokensOut, 0)
}

func TestRunRetryLoopOnRejectedVerdict(t *testing.T) {
	auditCalls := 0
	chain := newTestChain(func(opts llmchain.CallOptions) (string, error) {
		if opts.System == auditSystemPrompt {
			auditCalls++
			if auditCalls == 1 {
				return "VERDICT: REJECTED CONFIDENCE: 40", nil
			}
			return "VERDICT: APPROVED CONFIDENCE: 85", nil
		}
		if opts.MaxTokens == 60 {
			return "refined core question", nil
		}
		return "This is the reasoned answer.", nil
	})
	p := newTestPipeline(chain)

	out, err := p.Run(context.Background(), Input{Query: "hello", TenantID: "tenant1", ClientID: "tenant1"})

	require.NoError(t, err)
	assert.Equal(t, 1, out.RetryCount)
	assert.Equal(t, "verified", out.Badge)
	assert.Equal(t, 2, auditCalls)
}

func TestBadgeForMapsVerdicts(t *testing.T) {
	assert.Equal(t, "verified", badgeFor("APPROVED"))
	assert.Equal(t, "verified", badgeFor("ACCEPTED"))
	assert.Equal(t, "verified", badgeFor("BYPASS"))
	assert.Equal(t, "corrected", badgeFor("FIXABLE"))
	assert.Equal(t, "unavailable", badgeFor("API_FAILURE"))
	assert.Equal(t, "unverified", badgeFor("REJECTED"))
}

package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/tarsy/pkg/config"
	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/extraction"
	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/codeready-toolchain/tarsy/pkg/memory"
	"github.com/codeready-toolchain/tarsy/pkg/orchestrator"
	"github.com/codeready-toolchain/tarsy/pkg/preflight"
	"github.com/codeready-toolchain/tarsy/pkg/swarm"
	"github.com/codeready-toolchain/tarsy/pkg/watchtower"
)

// scriptedAdapter is a deterministic llmchain.Adapter stand-in, mirroring
// the one in pkg/orchestrator's own tests.
type scriptedAdapter struct {
	respond func(opts llmchain.CallOptions) (string, error)
}

func (a *scriptedAdapter) Tag() llmchain.ProviderTag { return "fake" }
func (a *scriptedAdapter) DefaultModel() string      { return "fake-model" }
func (a *scriptedAdapter) Call(_ context.Context, opts llmchain.CallOptions) (string, error) {
	return a.respond(opts)
}

func approvingChain() *llmchain.Chain {
	adapter := &scriptedAdapter{respond: func(opts llmchain.CallOptions) (string, error) {
		if opts.MaxTokens > 0 && opts.MaxTokens <= 200 {
			return "VERDICT: APPROVED CONFIDENCE: 90", nil
		}
		return "This is the reasoned answer.", nil
	}}
	return llmchain.NewChain([]llmchain.ProviderTag{"fake"}, adapter)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		LLMProviderRegistry: config.NewLLMProviderRegistry(map[llmchain.ProviderTag]*config.LLMProviderConfig{
			llmchain.Claude: {Tag: llmchain.Claude, Model: "claude-test"},
		}),
		ChainOrder: []llmchain.ProviderTag{llmchain.Claude},
		Retention:  config.DefaultRetentionConfig(),
		Features:   config.DefaultFeatureToggles(),
		Search:     config.DefaultSearchConfig(),
	}

	chain := approvingChain()
	router := preflight.NewRouter(nil, nil)
	store := datapkg.NewTenantPackageStore()
	extractionCache := extraction.NewCache()
	memTable := memory.NewTable(func() memory.Summarizer { return chain })
	wt := watchtower.New(nil)

	pipeline := orchestrator.New(chain, router, memTable, nil, store, nil, nil, nil,
		"base protocol", "compressed protocol")
	swarmRunner := swarm.New(pipeline, nil)

	return NewServer(cfg, pipeline, store, extractionCache, memTable, wt, swarmRunner, "test-salt")
}

func newTestContext(srv *Server, method, target string, body string) (*echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	return c, rec
}

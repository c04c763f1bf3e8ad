// tarsy-server runs the conversational AI pipeline: it wires the LLM
// Provider Chain, Preflight Router, Extraction Cache, Memory Manager, Exec
// Watchtower, and Swarm runner into the Pipeline Orchestrator, then serves
// it over HTTP via pkg/api.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/tarsy/pkg/api"
	"github.com/codeready-toolchain/tarsy/pkg/cleanup"
	"github.com/codeready-toolchain/tarsy/pkg/config"
	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/extensions/chemistry"
	"github.com/codeready-toolchain/tarsy/pkg/extraction"
	"github.com/codeready-toolchain/tarsy/pkg/fetch"
	"github.com/codeready-toolchain/tarsy/pkg/fetch/ratelimit"
	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/codeready-toolchain/tarsy/pkg/memory"
	"github.com/codeready-toolchain/tarsy/pkg/orchestrator"
	"github.com/codeready-toolchain/tarsy/pkg/preflight"
	"github.com/codeready-toolchain/tarsy/pkg/swarm"
	"github.com/codeready-toolchain/tarsy/pkg/watchtower"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")
	tenantSalt := getEnv("TENANT_SALT", "")
	if tenantSalt == "" {
		tenantSalt = uuid.NewString()
		log.Printf("warning: TENANT_SALT not set, using a random per-process salt (tenant ids will not survive a restart)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Printf("starting tarsy-server")
	log.Printf("config directory: %s", *configDir)

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	chain := buildChain(cfg)
	store := datapkg.NewTenantPackageStore()
	extractionCache := extraction.NewCache()
	extractor := extraction.NewCachingExtractor(extractionCache, extraction.NewPlainTextExtractor())
	memoryTable := memory.NewTable(func() memory.Summarizer { return chain })
	wt := watchtower.New(slog.Default())

	gate := ratelimit.NewGate(cfg.Search.RateLimitPerSecond, cfg.Search.RateLimitBurst)
	ddg := fetch.NewDDGProvider()
	var brave fetch.SearchProvider
	if key := os.Getenv(cfg.Search.BraveAPIKeyEnv); key != "" {
		brave = fetch.NewBraveProvider(key)
	}
	searchCascade := fetch.NewSearchCascade(ddg, brave, gate)

	marketCommand := getEnv("MARKET_DATA_COMMAND", "")
	var marketFetcher preflight.MarketFetcher
	if marketCommand != "" {
		// Assigned through the interface variable directly (rather than a
		// concrete *fetch.MarketFetcher left nil) so the zero-value case
		// stays a true nil interface instead of a non-nil interface
		// wrapping a nil pointer.
		marketFetcher = fetch.NewMarketFetcher(fetch.NewSubprocessMarketProvider(wt, marketCommand), gate)
	}

	router := preflight.NewRouter(marketFetcher, chain)

	var vision orchestrator.ImageAnalyzer
	if cfg.Features.VisionAnalysis {
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			vision = llmchain.NewClaudeVisionAdapter(key)
		}
	}
	var chem chemistry.Searcher
	if cfg.Features.ChemistryEnrichment {
		chem = fetch.NewChemistrySearchAdapter(searchCascade, "system")
	}

	baseProtocol := loadProtocolText(filepath.Join(*configDir, "protocol.md"), defaultBaseProtocol)
	compressedProtocol := loadProtocolText(filepath.Join(*configDir, "protocol-compressed.md"), defaultCompressedProtocol)

	pipeline := orchestrator.New(chain, router, memoryTable, extractor, store, searchCascade, chem, vision,
		baseProtocol, compressedProtocol)

	swarmRunner := swarm.New(pipeline, slog.Default())

	sweeper := cleanup.NewService(store, extractionCache, wt, swarmRunner)
	sweeper.Start(ctx)

	server := api.NewServer(cfg, pipeline, store, extractionCache, memoryTable, wt, swarmRunner, tenantSalt)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("http server listening on %s", httpAddr)
		errCh <- server.Start(httpAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("http server failed: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("received signal %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during http shutdown: %v", err)
	}

	cancel()
	sweeper.Stop()
}

// buildChain resolves the available provider order from credential
// presence (spec.md §4.D) and constructs every configured adapter.
func buildChain(cfg *config.Config) *llmchain.Chain {
	order := cfg.LLMProviderRegistry.AvailableOrder(cfg.ChainOrder, os.Getenv)

	var adapters []llmchain.Adapter
	for tag, provider := range cfg.LLMProviderRegistry.GetAll() {
		var key string
		if provider.APIKeyEnv != "" {
			key = os.Getenv(provider.APIKeyEnv)
			if key == "" && tag != llmchain.Ollama {
				continue
			}
		}
		switch tag {
		case llmchain.Claude:
			adapters = append(adapters, llmchain.NewClaudeAdapter(key))
		case llmchain.OpenAI:
			adapters = append(adapters, llmchain.NewOpenAIAdapter(key))
		case llmchain.Groq:
			adapters = append(adapters, llmchain.NewGroqAdapter(key))
		case llmchain.Minimax:
			adapters = append(adapters, llmchain.NewMinimaxAdapter(key))
		case llmchain.Ollama:
			adapters = append(adapters, llmchain.NewOllamaAdapter(provider.BaseURL))
		}
	}

	log.Printf("llm chain order: %v", order)
	return llmchain.NewChain(order, adapters...)
}

// defaultBaseProtocol/defaultCompressedProtocol are the built-in system
// prompt contents buildSystemContext falls back to when configDir carries
// no protocol.md/protocol-compressed.md override (spec.md §4.F).
const defaultBaseProtocol = `You are a quantitative research assistant. Answer precisely, show your
reasoning for any numeric claim, and flag when a figure is an estimate
rather than a sourced fact. When mode-specific context (financial,
legal, forex, seed-metric, indicator) is attached below, ground your
answer in it rather than prior training knowledge.`

const defaultCompressedProtocol = `(Persona/ruleset already established this session - continue answering
precisely, grounding numeric claims in attached context.)`

// loadProtocolText reads path if present, else returns fallback. A
// missing override file is not an error, matching pkg/config's own
// missing-tarsy.yaml-is-not-an-error posture.
func loadProtocolText(path, fallback string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not read %s: %v", path, err)
		}
		return fallback
	}
	return string(data)
}

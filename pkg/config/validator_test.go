package config

import (
	"testing"

	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfigForTest() *Config {
	return &Config{
		LLMProviderRegistry: NewLLMProviderRegistry(map[llmchain.ProviderTag]*LLMProviderConfig{
			llmchain.Claude: {Tag: llmchain.Claude, Model: "m"},
		}),
		ChainOrder: []llmchain.ProviderTag{llmchain.Claude},
		Retention:  DefaultRetentionConfig(),
		Features:   DefaultFeatureToggles(),
		Search:     DefaultSearchConfig(),
	}
}

func TestValidatorAcceptsWellFormedConfig(t *testing.T) {
	v := NewValidator(validConfigForTest())
	require.NoError(t, v.ValidateAll())
}

func TestValidatorRejectsEmptyModel(t *testing.T) {
	cfg := validConfigForTest()
	cfg.LLMProviderRegistry = NewLLMProviderRegistry(map[llmchain.ProviderTag]*LLMProviderConfig{
		llmchain.Claude: {Tag: llmchain.Claude, Model: ""},
	})

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model required")
}

func TestValidatorRejectsChainOrderReferencingUnregisteredProvider(t *testing.T) {
	cfg := validConfigForTest()
	cfg.ChainOrder = []llmchain.ProviderTag{llmchain.Ollama}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestValidatorRejectsZeroRateLimit(t *testing.T) {
	cfg := validConfigForTest()
	cfg.Search.RateLimitPerSecond = 0

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestValidatorCollectsMultipleErrors(t *testing.T) {
	cfg := validConfigForTest()
	cfg.Retention.MemoryCapacity = 0
	cfg.Retention.ExtractionCacheCapacity = 0

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory_capacity")
	assert.Contains(t, err.Error(), "extraction_cache_capacity")
}

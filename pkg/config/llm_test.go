package config

import (
	"testing"

	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMProviderRegistryGetAndHas(t *testing.T) {
	providers := map[llmchain.ProviderTag]*LLMProviderConfig{
		llmchain.Claude: {Tag: llmchain.Claude, Model: "claude-test"},
	}
	r := NewLLMProviderRegistry(providers)

	assert.True(t, r.Has(llmchain.Claude))
	assert.False(t, r.Has(llmchain.Groq))

	p, err := r.Get(llmchain.Claude)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", p.Model)

	_, err = r.Get(llmchain.Groq)
	require.ErrorIs(t, err, ErrLLMProviderNotFound)
}

func TestLLMProviderRegistryGetAllReturnsCopy(t *testing.T) {
	providers := map[llmchain.ProviderTag]*LLMProviderConfig{
		llmchain.Claude: {Tag: llmchain.Claude, Model: "claude-test"},
	}
	r := NewLLMProviderRegistry(providers)

	all := r.GetAll()
	all[llmchain.Groq] = &LLMProviderConfig{Tag: llmchain.Groq, Model: "injected"}

	assert.Equal(t, 1, r.Len())
	assert.False(t, r.Has(llmchain.Groq))
}

func TestAvailableOrderFiltersByEnvPresence(t *testing.T) {
	providers := map[llmchain.ProviderTag]*LLMProviderConfig{
		llmchain.Claude: {Tag: llmchain.Claude, Model: "m", APIKeyEnv: "ANTHROPIC_API_KEY"},
		llmchain.OpenAI: {Tag: llmchain.OpenAI, Model: "m", APIKeyEnv: "OPENAI_API_KEY"},
		llmchain.Ollama: {Tag: llmchain.Ollama, Model: "m"},
	}
	r := NewLLMProviderRegistry(providers)

	env := map[string]string{"ANTHROPIC_API_KEY": "set"}
	lookup := func(k string) string { return env[k] }

	order := r.AvailableOrder([]llmchain.ProviderTag{llmchain.Claude, llmchain.OpenAI, llmchain.Ollama}, lookup)

	assert.Equal(t, []llmchain.ProviderTag{llmchain.Claude, llmchain.Ollama}, order)
}

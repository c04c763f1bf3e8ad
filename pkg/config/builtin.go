package config

import (
	"sync"

	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
)

// BuiltinConfig holds the default LLM provider set, in the teacher's
// lazy-singleton style (GetBuiltinConfig).
type BuiltinConfig struct {
	LLMProviders map[llmchain.ProviderTag]LLMProviderConfig
	ChainOrder   []llmchain.ProviderTag
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration.
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		LLMProviders: initBuiltinLLMProviders(),
		// ChainOrder is the preferred fallback order before availability
		// filtering: paid cloud providers first, local ollama last.
		ChainOrder: []llmchain.ProviderTag{
			llmchain.Claude, llmchain.OpenAI, llmchain.Groq, llmchain.Minimax, llmchain.Ollama,
		},
	}
}

func initBuiltinLLMProviders() map[llmchain.ProviderTag]LLMProviderConfig {
	return map[llmchain.ProviderTag]LLMProviderConfig{
		llmchain.Claude: {
			Tag:       llmchain.Claude,
			Model:     "claude-sonnet-4-20250514",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		llmchain.OpenAI: {
			Tag:       llmchain.OpenAI,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		llmchain.Groq: {
			Tag:       llmchain.Groq,
			Model:     "llama-3.3-70b-versatile",
			APIKeyEnv: "GROQ_API_KEY",
		},
		llmchain.Minimax: {
			Tag:       llmchain.Minimax,
			Model:     "MiniMax-Text-01",
			APIKeyEnv: "MINIMAX_API_KEY",
		},
		llmchain.Ollama: {
			Tag:     llmchain.Ollama,
			Model:   "llama3.1",
			BaseURL: "http://localhost:11434",
		},
	}
}

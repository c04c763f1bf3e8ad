package config

import "github.com/codeready-toolchain/tarsy/pkg/llmchain"

// mergeLLMProviders merges built-in and user-defined provider configs.
// User-defined providers override built-in ones with the same tag.
func mergeLLMProviders(builtin map[llmchain.ProviderTag]LLMProviderConfig, user map[llmchain.ProviderTag]LLMProviderConfig) map[llmchain.ProviderTag]*LLMProviderConfig {
	result := make(map[llmchain.ProviderTag]*LLMProviderConfig, len(builtin))
	for tag, p := range builtin {
		pCopy := p
		result[tag] = &pCopy
	}
	for tag, p := range user {
		pCopy := p
		result[tag] = &pCopy
	}
	return result
}

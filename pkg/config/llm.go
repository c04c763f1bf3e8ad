package config

import (
	"fmt"
	"sync"

	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
)

// LLMProviderConfig configures one Provider Chain adapter.
type LLMProviderConfig struct {
	// Tag is the provider's chain tag (minimax, groq, claude, openai, ollama).
	Tag llmchain.ProviderTag `yaml:"tag" validate:"required"`

	// Model is the default model name sent when a call omits one.
	Model string `yaml:"model" validate:"required"`

	// APIKeyEnv names the environment variable holding the provider's API
	// key. Empty for providers that need none (e.g. a local ollama server).
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// BaseURL overrides the provider's default endpoint (used for ollama's
	// local server address).
	BaseURL string `yaml:"base_url,omitempty"`
}

// LLMProviderRegistry stores provider configurations in memory with
// thread-safe access, mirroring the teacher's registry idiom.
type LLMProviderRegistry struct {
	mu        sync.RWMutex
	providers map[llmchain.ProviderTag]*LLMProviderConfig
}

// NewLLMProviderRegistry builds a registry from a defensively-copied map.
func NewLLMProviderRegistry(providers map[llmchain.ProviderTag]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[llmchain.ProviderTag]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

// Get retrieves a provider configuration by tag.
func (r *LLMProviderRegistry) Get(tag llmchain.ProviderTag) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, tag)
	}
	return p, nil
}

// GetAll returns a copy of every registered provider configuration.
func (r *LLMProviderRegistry) GetAll() map[llmchain.ProviderTag]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[llmchain.ProviderTag]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Has reports whether tag is registered.
func (r *LLMProviderRegistry) Has(tag llmchain.ProviderTag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[tag]
	return ok
}

// Len returns the number of registered providers.
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// AvailableOrder returns tags from preferredOrder whose API key environment
// variable is set (or which need none), in the order given — the discovered
// chain order Chain.NewChain's caller passes in, per spec.md §4.D.
func (r *LLMProviderRegistry) AvailableOrder(preferredOrder []llmchain.ProviderTag, envLookup func(string) string) []llmchain.ProviderTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var order []llmchain.ProviderTag
	for _, tag := range preferredOrder {
		p, ok := r.providers[tag]
		if !ok {
			continue
		}
		if p.APIKeyEnv == "" || envLookup(p.APIKeyEnv) != "" {
			order = append(order, tag)
		}
	}
	return order
}

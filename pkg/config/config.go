// Package config loads and validates the process-wide configuration: LLM
// provider credentials/models, feature toggles, search rate limits, and
// the retention numbers each bounded registry already enforces.
//
// Grounded on the teacher's pkg/config/loader.go (Initialize entry point,
// built-in-defaults-merged-with-user-YAML pipeline) and pkg/config/llm.go
// (registry-with-defensive-copy idiom), trimmed to this domain's much
// smaller configuration surface (no agent/chain/MCP-server registries —
// this system has no agent framework).
package config

import (
	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
)

// Config is the fully-loaded, validated, immutable-after-load
// configuration umbrella.
type Config struct {
	configDir string

	LLMProviderRegistry *LLMProviderRegistry
	ChainOrder          []llmchain.ProviderTag
	Retention           *RetentionConfig
	Features            *FeatureToggles
	Search              *SearchConfig
}

// Stats summarizes the loaded configuration for startup logging and the
// /health endpoint.
type Stats struct {
	LLMProviders int
	ChainOrder   []llmchain.ProviderTag
}

// Stats returns a snapshot summary of this configuration.
func (c *Config) Stats() Stats {
	return Stats{
		LLMProviders: c.LLMProviderRegistry.Len(),
		ChainOrder:   append([]llmchain.ProviderTag(nil), c.ChainOrder...),
	}
}

// ConfigDir returns the directory this configuration was loaded from.
func (c *Config) ConfigDir() string { return c.configDir }

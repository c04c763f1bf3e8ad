package config

import "github.com/codeready-toolchain/tarsy/pkg/llmchain"

// tarsyYAMLConfig is the top-level shape of tarsy.yaml: everything a
// deployer may override; every field is optional and merges over the
// built-in defaults.
type tarsyYAMLConfig struct {
	LLMProviders map[llmchain.ProviderTag]LLMProviderConfig `yaml:"llm_providers"`
	Retention    *RetentionConfig                           `yaml:"retention"`
	Features     *FeatureToggles                            `yaml:"features"`
	Search       *SearchConfig                               `yaml:"search"`
}

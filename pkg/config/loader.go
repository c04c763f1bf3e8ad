package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// configFileName is the single YAML file this loader reads, kept flat
// (unlike the teacher's tarsy.yaml + llm-providers.yaml split) since this
// domain has far fewer configuration sections.
const configFileName = "tarsy.yaml"

// Initialize loads, merges, and validates configuration from configDir.
// A missing tarsy.yaml is not an error — built-in defaults stand alone,
// matching a zero-config "just works" deployment the teacher's own
// quickstart relies on for MCP servers.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"llm_providers", stats.LLMProviders,
		"chain_order", stats.ChainOrder)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	yamlCfg, err := loadTarsyYAML(configDir)
	if err != nil {
		return nil, NewLoadError(configFileName, err)
	}

	builtin := GetBuiltinConfig()

	providers := mergeLLMProviders(builtin.LLMProviders, yamlCfg.LLMProviders)
	registry := NewLLMProviderRegistry(providers)

	retention := DefaultRetentionConfig()
	if yamlCfg.Retention != nil {
		if err := mergo.Merge(retention, yamlCfg.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	features := DefaultFeatureToggles()
	if yamlCfg.Features != nil {
		if err := mergo.Merge(features, yamlCfg.Features, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge feature toggles: %w", err)
		}
	}

	search := DefaultSearchConfig()
	if yamlCfg.Search != nil {
		if err := mergo.Merge(search, yamlCfg.Search, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge search config: %w", err)
		}
	}

	return &Config{
		configDir:           configDir,
		LLMProviderRegistry: registry,
		ChainOrder:          builtin.ChainOrder,
		Retention:           retention,
		Features:            features,
		Search:              search,
	}, nil
}

func loadTarsyYAML(configDir string) (*tarsyYAMLConfig, error) {
	cfg := &tarsyYAMLConfig{}

	path := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	data = ExpandEnv(data)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

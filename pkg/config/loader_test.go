package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeWithNoYAMLUsesBuiltinDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Initialize(context.Background(), dir)

	require.NoError(t, err)
	assert.True(t, cfg.LLMProviderRegistry.Has(llmchain.Claude))
	assert.Equal(t, DefaultRetentionConfig(), cfg.Retention)
	assert.True(t, cfg.Features.ChemistryEnrichment)
}

func TestInitializeMergesUserYAMLOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	yamlContent := `
llm_providers:
  claude:
    tag: claude
    model: claude-custom-model
features:
  vision_analysis: false
retention:
  memory_capacity: 50
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tarsy.yaml"), []byte(yamlContent), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	p, err := cfg.LLMProviderRegistry.Get(llmchain.Claude)
	require.NoError(t, err)
	assert.Equal(t, "claude-custom-model", p.Model)

	assert.Equal(t, 50, cfg.Retention.MemoryCapacity)
	// Unset retention fields keep their built-in defaults.
	assert.Equal(t, DefaultRetentionConfig().ExtractionCacheCapacity, cfg.Retention.ExtractionCacheCapacity)
}

func TestInitializeExpandsEnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CUSTOM_MODEL_NAME", "env-expanded-model")
	yamlContent := `
llm_providers:
  groq:
    tag: groq
    model: ${CUSTOM_MODEL_NAME}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tarsy.yaml"), []byte(yamlContent), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	p, err := cfg.LLMProviderRegistry.Get(llmchain.Groq)
	require.NoError(t, err)
	assert.Equal(t, "env-expanded-model", p.Model)
}

func TestInitializeRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tarsy.yaml"), []byte("not: [valid yaml"), 0o644))

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

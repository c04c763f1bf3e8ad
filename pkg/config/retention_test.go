package config

import (
	"testing"

	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/extraction"
	"github.com/codeready-toolchain/tarsy/pkg/memory"
	"github.com/stretchr/testify/assert"
)

func TestDefaultRetentionConfigMatchesRegistryConstants(t *testing.T) {
	r := DefaultRetentionConfig()

	assert.Equal(t, datapkg.WindowSize, r.DataPackageCapacityPerTenant)
	assert.Equal(t, datapkg.InactivityTTL, r.DataPackageSessionTTL)
	assert.Equal(t, extraction.Capacity, r.ExtractionCacheCapacity)
	assert.Equal(t, extraction.TTL, r.ExtractionCacheTTL)
	assert.Equal(t, memory.MaxSessions, r.MemoryCapacity)
	assert.Equal(t, memory.SessionTTL, r.MemoryTTL)
}

func TestDefaultFeatureTogglesAllEnabled(t *testing.T) {
	f := DefaultFeatureToggles()
	assert.True(t, f.ChemistryEnrichment)
	assert.True(t, f.VisionAnalysis)
	assert.True(t, f.CompoundQuerySplit)
	assert.True(t, f.RealtimeSearch)
}

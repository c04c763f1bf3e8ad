package config

import (
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/extraction"
	"github.com/codeready-toolchain/tarsy/pkg/memory"
)

// RetentionConfig is a read-only descriptive mirror of every bounded
// registry's capacity/TTL/sweep knobs, per spec.md §3. These are spec
// invariants, not deployment tunables — each registry (datapkg,
// extraction, memory, watchtower, swarm) enforces its own capacity/TTL via
// its own exported constants; this struct collects the same numbers in one
// place, sourced from those constants where they are exported (neither
// `Config.Stats()` nor `/health` reports them). Watchtower's and Swarm's equivalents are
// package-private, so their values are mirrored here literally (they are
// fixed spec constants, unlikely to drift independently of this struct).
type RetentionConfig struct {
	// TenantPackageStore: capacity per tenant, newest-write-evicts-oldest.
	DataPackageCapacityPerTenant int           `yaml:"datapackage_capacity_per_tenant"`
	DataPackageSessionTTL        time.Duration `yaml:"datapackage_session_ttl"`

	// DocumentExtractionCache.
	ExtractionCacheCapacity int           `yaml:"extraction_cache_capacity"`
	ExtractionCacheTTL      time.Duration `yaml:"extraction_cache_ttl"`
	ExtractionSweepInterval time.Duration `yaml:"extraction_sweep_interval"`

	// MemoryManager session table.
	MemoryCapacity      int           `yaml:"memory_capacity"`
	MemoryTTL           time.Duration `yaml:"memory_ttl"`
	MemorySweepInterval time.Duration `yaml:"memory_sweep_interval"`

	// Watchtower execution registry.
	WatchtowerForegroundTimeout time.Duration `yaml:"watchtower_foreground_timeout"`
	WatchtowerBackgroundTimeout time.Duration `yaml:"watchtower_background_timeout"`
	WatchtowerKillGrace         time.Duration `yaml:"watchtower_kill_grace"`
	WatchtowerMaxBackground     int           `yaml:"watchtower_max_background"`
	WatchtowerCompletedTTL      time.Duration `yaml:"watchtower_completed_ttl"`
	WatchtowerSweepInterval     time.Duration `yaml:"watchtower_sweep_interval"`

	// Swarm.
	SwarmCompletedTTL time.Duration `yaml:"swarm_completed_ttl"`
}

// DefaultRetentionConfig returns the built-in retention defaults, sourced
// from each registry's own exported constants where available so the two
// never drift apart.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		DataPackageCapacityPerTenant: datapkg.WindowSize,
		DataPackageSessionTTL:        datapkg.InactivityTTL,

		ExtractionCacheCapacity: extraction.Capacity,
		ExtractionCacheTTL:      extraction.TTL,
		ExtractionSweepInterval: 5 * time.Minute,

		MemoryCapacity:      memory.MaxSessions,
		MemoryTTL:           memory.SessionTTL,
		MemorySweepInterval: 5 * time.Minute,

		WatchtowerForegroundTimeout: 30 * time.Second,
		WatchtowerBackgroundTimeout: 120 * time.Second,
		WatchtowerKillGrace:         5 * time.Second,
		WatchtowerMaxBackground:     20,
		WatchtowerCompletedTTL:      10 * time.Minute,
		WatchtowerSweepInterval:     1 * time.Minute,

		SwarmCompletedTTL: 15 * time.Minute,
	}
}

package config

// FeatureToggles gates optional enrichment stages of the Pipeline
// Orchestrator so an operator can disable a third-party-backed stage
// (e.g. no vision API credentials configured) without code changes.
type FeatureToggles struct {
	ChemistryEnrichment bool `yaml:"chemistry_enrichment"`
	VisionAnalysis      bool `yaml:"vision_analysis"`
	CompoundQuerySplit  bool `yaml:"compound_query_split"`
	RealtimeSearch      bool `yaml:"realtime_search"`
}

// DefaultFeatureToggles returns every feature enabled, matching the
// teacher's "on by default, opt out via YAML" posture.
func DefaultFeatureToggles() *FeatureToggles {
	return &FeatureToggles{
		ChemistryEnrichment: true,
		VisionAnalysis:      true,
		CompoundQuerySplit:  true,
		RealtimeSearch:      true,
	}
}

// SearchConfig configures the DuckDuckGo/Brave search cascade and its
// per-(clientId,service) rate-limit gate, per spec.md §4.E.
type SearchConfig struct {
	BraveAPIKeyEnv string `yaml:"brave_api_key_env"`

	// RateLimitPerSecond/RateLimitBurst parameterize ratelimit.NewGate for
	// the search/market/forex fetchers.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

// DefaultSearchConfig returns conservative defaults: one request per
// second with a small burst, generous enough for interactive use without
// hammering a free-tier API key.
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		BraveAPIKeyEnv:     "BRAVE_API_KEY",
		RateLimitPerSecond: 1.0,
		RateLimitBurst:     3,
	}
}

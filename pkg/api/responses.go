package api

import (
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/preflight"
)

// RunResponse is the envelope returned by POST /api/playground, mirroring
// orchestrator.Output (spec.md §4.G S6 / §6).
type RunResponse struct {
	Success            bool                      `json:"success"`
	Answer             string                    `json:"answer"`
	Mode               preflight.Mode            `json:"mode"`
	AuditVerdict       string                    `json:"audit_verdict"`
	Confidence         int                       `json:"confidence"`
	Badge              string                    `json:"badge"`
	DidSearch          bool                      `json:"did_search"`
	RetryCount         int                       `json:"retry_count"`
	PassCount          int                       `json:"pass_count"`
	DataPackageID      string                    `json:"data_package_id"`
	DataPackageSummary datapkg.CompressedSummary `json:"data_package_summary"`
	TokensIn           int                       `json:"tokens_in"`
	TokensOut          int                       `json:"tokens_out"`
}

// AuditResponse is the audit-only view returned by POST /api/nyan-ai/audit:
// the verdict and its supporting metadata, without the full answer text.
type AuditResponse struct {
	Mode         preflight.Mode `json:"mode"`
	AuditVerdict string         `json:"audit_verdict"`
	Confidence   int            `json:"confidence"`
	Badge        string         `json:"badge"`
	RetryCount   int            `json:"retry_count"`
	DidSearch    bool           `json:"did_search"`
}

// NukeResponse is returned by POST /api/playground/nuke.
type NukeResponse struct {
	TenantID string `json:"tenant_id"`
	Status   string `json:"status"`
}

// UsageResponse is returned by GET /api/playground/usage: a JSON snapshot
// of the Prometheus counters this package and pkg/llmchain register.
type UsageResponse struct {
	ProviderCallsTotal map[string]float64 `json:"provider_calls_total"`
	PlaygroundRequests float64            `json:"playground_requests_total"`
	StreamRequests     float64            `json:"stream_requests_total"`
	NukeRequests       float64            `json:"nuke_requests_total"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	ChainOrder    []string  `json:"chain_order"`
	LLMProviders  int       `json:"llm_providers"`
	ExtractionSz  int       `json:"extraction_cache_size"`
	MemorySize    int       `json:"memory_sessions"`
	WatchtowerOcc int       `json:"watchtower_occupancy"`
	SwarmOcc      int       `json:"swarm_occupancy"`
	Timestamp     time.Time `json:"timestamp"`
}

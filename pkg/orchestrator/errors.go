package orchestrator

import "errors"

// Sentinel errors for Pipeline.Run, following the datapkg/fetch/llmchain
// convention of one errors.New per failure kind.
var (
	// ErrProviderExhausted is returned when the reasoning call exhausts the
	// provider chain (spec.md §4.G S2: "throw ProviderExhausted").
	ErrProviderExhausted = errors.New("orchestrator: provider chain exhausted")
	// ErrTenantRequired guards against a missing tenant id, which would
	// otherwise silently collapse every caller into one φ-8 window.
	ErrTenantRequired = errors.New("orchestrator: tenant id required")
)

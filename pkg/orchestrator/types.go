package orchestrator

import (
	"context"

	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/codeready-toolchain/tarsy/pkg/preflight"
)

// RawAttachment is one caller-supplied document before extraction.
type RawAttachment struct {
	FileName string
	FileType string
	Data     []byte
}

// RawPhoto is one caller-supplied image before vision pre-analysis.
type RawPhoto struct {
	Data []byte
}

// ImageAnalyzer is the vision-capable collaborator S-1 uses to categorize
// photos before the chemistry gate, per spec.md §4.G S-1. Kept narrow so
// this package never imports a concrete vision SDK directly.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, data []byte) (category, description string, err error)
}

// ImageCategory is one of the four buckets ImageAnalyzer sorts a photo into.
type ImageCategory string

const (
	ImageChemical ImageCategory = "chemical"
	ImageChart    ImageCategory = "chart"
	ImageDiagram  ImageCategory = "diagram"
	ImageVisual   ImageCategory = "visual"
)

// Input is everything one Pipeline.Run invocation needs, matching the
// `run({...})` entry point of spec.md §6.
type Input struct {
	Query       string
	SessionID   string
	TenantID    string
	ClientID    string
	CallerID    string
	Provider    llmchain.ProviderTag
	Temperature float64
	Photos      []RawPhoto
	Documents   []RawAttachment

	// PreComputedPreflight, when set, short-circuits S0 entirely — used by
	// the compound-query splitter and by callers replaying a known route.
	// Per spec.md §8 testable property 9, supplying it must not change the
	// resulting badge or answer versus running without it on the same
	// inputs.
	PreComputedPreflight *preflight.Result
}

// Output is the envelope returned to the transport collaborator, per
// spec.md §4.G S6 / §6.
type Output struct {
	Success            bool
	Answer             string
	Mode               preflight.Mode
	Preflight          preflight.Result
	AuditVerdict       string
	Confidence         int
	Badge              string
	DidSearch          bool
	RetryCount         int
	PassCount          int
	DataPackageID      string
	DataPackageSummary datapkg.CompressedSummary
	TokensIn           int
	TokensOut          int
	Error              error
}

// state is the mutable PipelineState threaded through S-1..S6 for a single
// run. It is never shared across goroutines — each Pipeline.Run owns one.
type state struct {
	pkg      *datapkg.DataPackage
	tenantID string

	mode            preflight.Mode
	preflightResult preflight.Result

	systemMessages []string
	isFirstQuery   bool

	chemistryHeader string
	searchContext   string
	didSearch       bool

	draftAnswer   string
	directOutput  bool

	auditVerdict     string
	auditFixed       string
	auditConfidence  int

	retryCount int
	passCount  int

	tokensIn  int
	tokensOut int
}

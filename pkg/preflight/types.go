// Package preflight implements the Preflight Router: a single routing
// function that classifies a query into a processing mode and assembles
// the context the orchestrator's S1-S2 stages need, per spec.md §4.F.
//
// Grounded on spec.md §4.F directly; no teacher file performs query
// classification. The router is built as a struct of injected
// collaborators (market fetcher, ticker guesser) rather than free
// functions so it stays unit-testable without real network calls,
// following the same narrow-interface-injection shape used by
// pkg/memory's Summarizer and pkg/extensions/chemistry's Searcher.
package preflight

import (
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/extensions/psiema"
	"github.com/codeready-toolchain/tarsy/pkg/fetch"
)

// Mode is the routing decision emitted by the router.
type Mode string

const (
	ModeGeneral        Mode = "general"
	ModePsiEMA         Mode = "psi-ema"
	ModePsiEMAIdentity Mode = "psi-ema-identity"
	ModeSeedMetric     Mode = "seed-metric"
	ModeForex          Mode = "forex"
	ModeCodeAudit      Mode = "code-audit"
	ModeDesign         Mode = "design"
	ModeLegal          Mode = "legal"
	ModeFinancial      Mode = "financial"
	ModeIdentity       Mode = "identity"
)

// SearchStrategy selects which search cascade policy S0 should invoke.
type SearchStrategy string

const (
	SearchNone       SearchStrategy = "none"
	SearchDuckDuckGo SearchStrategy = "duckduckgo"
	SearchBrave      SearchStrategy = "brave"
)

// RoutingFlags are the boolean signals the orchestrator conditions on.
type RoutingFlags struct {
	UsesPsiEMA           bool
	IsPsiEmaIdentity     bool
	IsSeedMetric         bool
	UsesFinancialPhysics bool
	UsesLegalAnalysis    bool
	UsesForex            bool
	UsesCodeAudit        bool
	NeedsRealtimeSearch  bool
	HasAttachments       bool
	HasDocContext        bool
	IsBlob               bool
	GeoVetoApplied       bool
	IsDesignQuestion     bool
}

// StockContext carries the fetched market data plus the derived
// indicator reading for psi-ema mode.
type StockContext struct {
	Ticker    string
	Market    *fetch.MarketData
	Daily     psiema.Reading
	Weekly    *psiema.Reading
	DataAge   time.Duration
	Verified  bool
}

// ForexContext carries the fetched pair rate for forex mode.
type ForexContext struct {
	Pair string
	Data *fetch.ForexData
}

// Attachment is the minimal shape the router needs from an ingested
// attachment to apply overrides (financial/legal/code promotion).
type Attachment struct {
	FileName string
	Text     string
}

// DocContext summarizes attachment-derived signals produced upstream in
// S-1, per spec.md §4.F's attachment-override rules.
type DocContext struct {
	HasFinancialDoc bool
	HasLegalDoc     bool
}

// ContextResult is the conversation-derived hints produced by S-1's
// context-extraction step.
type ContextResult struct {
	InferredTicker    string
	HasFinancialHint  bool
}

// Input is everything the router needs to classify one query.
type Input struct {
	Query         string
	Attachments   []Attachment
	DocContext    DocContext
	ContextResult ContextResult
}

// Result is the PreflightResult contract of spec.md §3.
type Result struct {
	Mode              Mode
	Ticker            string
	StockContext      *StockContext
	ForexContext      *ForexContext
	CodeContext       string
	CodeTopics        []string
	SearchStrategy    SearchStrategy
	RoutingFlags      RoutingFlags
	Error             error
}

package preflight

import (
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/extensions/legal"
)

// SystemContextOptions carries the session-shape inputs buildSystemContext
// needs beyond the routing result itself.
type SystemContextOptions struct {
	IsFirstQuery       bool
	CompressedProtocol string
}

// BuildSystemContext assembles the ordered system-message sequence for
// S1 Context Build, per spec.md §4.F.
func BuildSystemContext(result Result, baseProtocol string, opts SystemContextOptions) []string {
	messages := []string{temporalAwarenessMessage()}

	if opts.IsFirstQuery || opts.CompressedProtocol == "" {
		messages = append(messages, baseProtocol)
	} else {
		messages = append(messages, opts.CompressedProtocol)
	}

	for _, seed := range modeSeedPrompts(result) {
		messages = append(messages, seed)
	}

	return messages
}

func temporalAwarenessMessage() string {
	return "Current UTC time: " + nowUTC().Format(time.RFC3339)
}

// nowUTC is a seam so callers needing deterministic output in tests can
// override it; production code always uses the real clock.
var nowUTC = func() time.Time { return time.Now().UTC() }

func modeSeedPrompts(result Result) []string {
	var seeds []string
	flags := result.RoutingFlags

	if flags.UsesFinancialPhysics {
		seeds = append(seeds, "Apply financial-physics classification to any tabular financial data present.")
	}
	if flags.UsesLegalAnalysis {
		seeds = append(seeds, legal.SeedPrompt())
	}
	if flags.UsesForex {
		seeds = append(seeds, "Report the forex pair rate plainly; do not speculate beyond the fetched data.")
	}
	if flags.IsSeedMetric {
		seeds = append(seeds, "Render the affordability comparison as the mandated Markdown table, one row per city.")
	}
	if flags.IsPsiEmaIdentity {
		seeds = append(seeds, "Explain the Ψ-EMA indicator's three dimensions (θ, z, R) and its φ-threshold decision tree.")
	}
	if flags.UsesPsiEMA {
		seeds = append(seeds, "Report θ, z, and R with the derived category and fidelity grade; do not invent bars beyond what was fetched.")
	}
	if flags.IsDesignQuestion {
		seeds = append(seeds, "Structure the answer around trade-offs; name the architectural pattern being discussed.")
	}

	return seeds
}

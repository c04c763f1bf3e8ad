package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/tarsy/pkg/extensions/seedmetric"
	"github.com/codeready-toolchain/tarsy/pkg/preflight"
)

// renderPsiEMATemplate renders the direct-output structured answer for a
// verified psi-ema stock context, per spec.md §4.G S2.
func renderPsiEMATemplate(sc *preflight.StockContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Ψ-EMA Analysis: %s**\n\n", sc.Ticker)
	fmt.Fprintf(&b, "Daily — θ: %.1f°, z: %.2f, R: %.2f — %s (grade %s)\n",
		sc.Daily.ThetaDeg, sc.Daily.Z, sc.Daily.R, sc.Daily.Category, sc.Daily.Grade)
	if sc.Weekly != nil {
		fmt.Fprintf(&b, "Weekly — θ: %.1f°, z: %.2f, R: %.2f — %s (grade %s)\n",
			sc.Weekly.ThetaDeg, sc.Weekly.Z, sc.Weekly.R, sc.Weekly.Category, sc.Weekly.Grade)
	}
	return b.String()
}

// seedMetricTableHeader is the mandated Markdown table header the format
// validator in S3 checks drafts against.
const seedMetricTableHeader = "| City | Price/sqm | Income | Years | Regime |"

var seedMetricTablePattern = strings.NewReplacer(" ", "")

// matchesSeedMetricFormat reports whether a draft already contains the
// mandated table header, loosely (whitespace-insensitive).
func matchesSeedMetricFormat(draft string) bool {
	return strings.Contains(seedMetricTablePattern.Replace(draft), seedMetricTablePattern.Replace(seedMetricTableHeader))
}

// renderSeedMetricTable parses the search context deterministically (per
// city, via seedmetric.ParseSnippet) and renders the mandated affordability
// table. ok is false when no city in the search context parsed cleanly,
// in which case S2 falls through to the LLM reasoning path.
func renderSeedMetricTable(searchContext string) (string, bool) {
	cities := seedmetric.ExtractCities(searchContext)
	if len(cities) == 0 {
		return "", false
	}

	var b strings.Builder
	b.WriteString(seedMetricTableHeader)
	b.WriteString("\n|---|---|---|---|---|\n")
	rendered := 0
	for i, city := range cities {
		block := cityBlock(searchContext, i)
		if block == "" {
			continue
		}
		pricePerSqm, income, ok := seedmetric.ParseSnippet(block)
		if !ok {
			continue
		}
		result := seedmetric.Evaluate(city, pricePerSqm, income)
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.1f | %s |\n",
			titleCase(city), pricePerSqm, income, result.Years, result.Regime)
		rendered++
	}
	if rendered == 0 {
		return "", false
	}
	return b.String(), true
}

// blockStartPattern matches fetch.FormatLabeledBlocks's numbered block
// headers ("[1] ", "[2] ", ...).
var blockStartPattern = regexp.MustCompile(`(?m)^\[\d+\] `)

// cityBlock returns the substring of searchContext covering the 4
// labeled blocks belonging to the city at cities[index], matching
// stages.go's query order (seedmetric.QueriesPerCity's 4 queries per
// city, issued in city order). Returns "" if those blocks are absent.
func cityBlock(searchContext string, index int) string {
	starts := blockStartPattern.FindAllStringIndex(searchContext, -1)
	from := index * 4
	if from >= len(starts) {
		return ""
	}
	to := from + 4
	end := len(searchContext)
	if to < len(starts) {
		end = starts[to][0]
	}
	return searchContext[starts[from][0]:end]
}

// titleCase upper-cases a lowercase city name's first letter per word
// (seedmetric.ExtractCities always returns lowercase-normalized names).
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Package legal provides the legal seed: a structured analysis template
// appended to the system prompt whenever the Preflight Router's
// usesLegalAnalysis flag is set, per spec.md §4.G. Unlike the financial
// and chemistry extensions, this seed does no inference of its own — it
// is a fixed scaffold the LLM fills in.
package legal

import "strconv"

// Sections is the fixed 8-section legal analysis template, in order.
var Sections = []string{
	"Document Overview",
	"Parties Involved",
	"Key Terms and Definitions",
	"Obligations and Rights",
	"Risk Factors",
	"Ambiguities and Gaps",
	"Compliance Considerations",
	"Recommended Actions",
}

// SeedPrompt renders the fixed template as the system-prompt seed text
// appended for legal-flagged queries.
func SeedPrompt() string {
	prompt := "Structure the legal analysis using exactly these sections, in order:\n"
	for i, s := range Sections {
		prompt += strconv.Itoa(i+1) + ". " + s + "\n"
	}
	return prompt
}

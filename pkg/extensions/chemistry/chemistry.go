// Package chemistry implements the chemistry enrichment cascade: given a
// vision model's best-effort description of a chemical structure or
// formula in an image, it tries increasingly expensive tiers to pin down
// a canonical compound identity, stopping at the first tier that
// produces a confident hit.
//
// Grounded on spec.md §4.G's chemistry-enrichment description; no teacher
// or pack file does compound identification, so the cascade below is
// original. Identify runs the Stage 0 table lookup and the Stage 1
// discovery cascade; the Stage 0.5 DDG arbitration is a separate function
// (Arbitrate) that Identify does not call, no Wikipedia extract is fetched
// here, and BuildHeader applies the confidence gate for the header.
package chemistry

import (
	"context"
	"regexp"
	"strings"
)

// Compound is one canonical entry in the settled-science table.
type Compound struct {
	Name    string
	Formula string
	Aliases []string
}

// canonicalTable is the 18-entry settled-science lookup table: compounds
// common enough in coursework/lab images that no search is needed.
var canonicalTable = []Compound{
	{"water", "H2O", []string{"dihydrogen monoxide"}},
	{"carbon dioxide", "CO2", nil},
	{"methane", "CH4", nil},
	{"ethanol", "C2H6O", []string{"ethyl alcohol"}},
	{"glucose", "C6H12O6", []string{"dextrose"}},
	{"sodium chloride", "NaCl", []string{"table salt"}},
	{"ammonia", "NH3", nil},
	{"sulfuric acid", "H2SO4", nil},
	{"acetic acid", "C2H4O2", []string{"vinegar acid"}},
	{"benzene", "C6H6", nil},
	{"sodium hydroxide", "NaOH", []string{"lye"}},
	{"hydrochloric acid", "HCl", nil},
	{"calcium carbonate", "CaCO3", []string{"limestone"}},
	{"acetone", "C3H6O", nil},
	{"sucrose", "C12H22O11", []string{"table sugar"}},
	{"ethylene", "C2H4", nil},
	{"propane", "C3H8", nil},
	{"nitric acid", "HNO3", nil},
}

// Tier identifies which cascade stage produced a hit.
type Tier string

const (
	TierSettled   Tier = "settled"
	TierArbitrate Tier = "arbitrate"
	TierExact     Tier = "exact"
	TierAlternate Tier = "alternate"
	TierStructure Tier = "structure"
	TierFuzzy     Tier = "fuzzy"
	TierNone      Tier = "none"
)

// Identification is the cascade's output for one image.
type Identification struct {
	Name       string
	Formula    string
	Confidence float64
	Tier       Tier
	WikiExtract string
}

// Searcher abstracts the search/wiki collaborators the cascade needs,
// kept narrow so this package never imports pkg/fetch directly.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
	WikipediaExtract(ctx context.Context, title string) (string, error)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LookupSettled runs Stage 0: an exact/alias match against the canonical
// table.
func LookupSettled(description string) (Compound, bool) {
	d := normalize(description)
	for _, c := range canonicalTable {
		if strings.Contains(d, normalize(c.Name)) {
			return c, true
		}
		for _, alias := range c.Aliases {
			if strings.Contains(d, normalize(alias)) {
				return c, true
			}
		}
	}
	return Compound{}, false
}

// formulaPattern extracts a chemical-formula-shaped token, e.g. "C6H12O6".
var formulaPattern = regexp.MustCompile(`\b[A-Z][a-z]?\d*(?:[A-Z][a-z]?\d*)+\b`)

// ExtractFormulaToken returns the first formula-shaped token in text, if
// any.
func ExtractFormulaToken(text string) (string, bool) {
	m := formulaPattern.FindString(text)
	return m, m != ""
}

// atomCounts parses a formula like "C6H12O6" into element -> count.
func atomCounts(formula string) map[string]int {
	counts := make(map[string]int)
	re := regexp.MustCompile(`([A-Z][a-z]?)(\d*)`)
	for _, m := range re.FindAllStringSubmatch(formula, -1) {
		if m[1] == "" {
			continue
		}
		n := 1
		if m[2] != "" {
			n = 0
			for _, c := range m[2] {
				n = n*10 + int(c-'0')
			}
		}
		counts[m[1]] += n
	}
	return counts
}

// FuzzyMatchHC reports whether two formulas differ by at most one atom of
// hydrogen or carbon — the ±1 H/C tolerance the discovery cascade uses for
// its last, loosest tier.
func FuzzyMatchHC(a, b string) bool {
	ca, cb := atomCounts(a), atomCounts(b)
	elements := map[string]bool{}
	for e := range ca {
		elements[e] = true
	}
	for e := range cb {
		elements[e] = true
	}
	diffBudget := 1
	for e := range elements {
		if e != "H" && e != "C" && ca[e] != cb[e] {
			return false
		}
	}
	hDiff := abs(ca["H"] - cb["H"])
	cDiff := abs(ca["C"] - cb["C"])
	return hDiff+cDiff <= diffBudget
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Arbitrate runs Stage 0.5: when the vision guess and settled-table guess
// disagree, issue a DDG query to break the tie. Returns the winning name.
func Arbitrate(ctx context.Context, s Searcher, visionGuess, settledGuess string) (string, error) {
	if normalize(visionGuess) == normalize(settledGuess) {
		return settledGuess, nil
	}
	query := visionGuess + " vs " + settledGuess + " chemical structure"
	result, err := s.Search(ctx, query)
	if err != nil {
		return settledGuess, err
	}
	lower := normalize(result)
	if strings.Contains(lower, normalize(visionGuess)) && !strings.Contains(lower, normalize(settledGuess)) {
		return visionGuess, nil
	}
	return settledGuess, nil
}

// genericNames are compound descriptions too generic to warrant a header
// even at high confidence.
var genericNames = map[string]bool{
	"compound": true, "chemical": true, "molecule": true, "substance": true, "unknown": true,
}

// Identify runs the cascade for one vision description: the settled-table
// lookup, then exact formula match, alternate search query, and fuzzy ±1
// H/C match, returning the first tier that hits. It does not call
// Arbitrate and leaves WikiExtract empty.
func Identify(ctx context.Context, s Searcher, description string) Identification {
	if c, ok := LookupSettled(description); ok {
		return Identification{Name: c.Name, Formula: c.Formula, Confidence: 0.95, Tier: TierSettled}
	}

	token, hasToken := ExtractFormulaToken(description)
	if hasToken {
		for _, c := range canonicalTable {
			if c.Formula == token {
				return Identification{Name: c.Name, Formula: c.Formula, Confidence: 0.9, Tier: TierExact}
			}
		}
	}

	if s != nil {
		query := description + " chemical compound name formula"
		result, err := s.Search(ctx, query)
		if err == nil && result != "" {
			return Identification{Name: description, Confidence: 0.5, Tier: TierAlternate}
		}
	}

	if hasToken {
		for _, c := range canonicalTable {
			if FuzzyMatchHC(c.Formula, token) {
				return Identification{Name: c.Name, Formula: token, Confidence: 0.6, Tier: TierFuzzy}
			}
		}
	}

	return Identification{Tier: TierNone}
}

// BuildHeader emits the "Compound Identification" header text when
// confidence clears the 0.7 bar and the name isn't a generic placeholder.
func BuildHeader(id Identification) (string, bool) {
	if id.Confidence < 0.7 || genericNames[normalize(id.Name)] || id.Name == "" {
		return "", false
	}
	header := "**Compound Identification:** " + id.Name
	if id.Formula != "" {
		header += " (" + id.Formula + ")"
	}
	return header, true
}

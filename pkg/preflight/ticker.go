package preflight

import "regexp"

// tickerBlocklist rejects common English words and stopwords that would
// otherwise match the ALL-CAPS/Titlecase ticker heuristics.
var tickerBlocklist = map[string]bool{
	"THE": true, "AND": true, "FOR": true, "ARE": true, "YOU": true, "ALL": true,
	"CAN": true, "NOT": true, "BUT": true, "GET": true, "HOW": true, "WHY": true,
	"WHAT": true, "WHEN": true, "THIS": true, "THAT": true, "WITH": true,
	"FROM": true, "HAVE": true, "WILL": true, "ABOUT": true, "PLEASE": true,
	"I": true, "A": true, "IT": true, "IS": true, "LA": true, "NY": true,
}

var dollarTickerPattern = regexp.MustCompile(`\$([A-Za-z]{1,6})\b`)
var allCapsPattern = regexp.MustCompile(`\b([A-Z]{2,6})\b`)
var titlecasePattern = regexp.MustCompile(`\b([A-Z][a-z]{1,9})\b`)

// ExtractTicker applies the priority order $TICKER > ALL-CAPS >=
// Titlecase, rejecting the blocklist, per spec.md §4.F step 5. The
// $-prefixed form is exempt from the blocklist: a $ sigil is an explicit
// ticker marker (e.g. "$LA" names a real ticker candidate even though
// bare "LA" is a geo stopword), per spec.md §8's boundary behavior.
func ExtractTicker(q string) (string, bool) {
	if m := dollarTickerPattern.FindStringSubmatch(q); m != nil {
		return upper(m[1]), true
	}
	if m := allCapsPattern.FindStringSubmatch(q); m != nil {
		if !tickerBlocklist[m[1]] {
			return m[1], true
		}
	}
	if m := titlecasePattern.FindStringSubmatch(q); m != nil {
		candidate := upper(m[1])
		if !tickerBlocklist[candidate] {
			return candidate, true
		}
	}
	return "", false
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

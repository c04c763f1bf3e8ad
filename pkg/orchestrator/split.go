package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// maxSubQueries bounds the compound-query split, per spec.md §4.G's
// "compound-query split (pre-orchestrator)" note.
const maxSubQueries = 4

var conjunctionPattern = regexp.MustCompile(`(?i)\b(also|additionally)\b`)

// tickerLikePattern is a cheap heuristic for "the query mentions a ticker"
// used only to decide whether ticker+image co-occurrence should force a
// split; the authoritative ticker extraction lives in pkg/preflight.
var tickerLikePattern = regexp.MustCompile(`\$[A-Z]{1,5}\b`)

// SplitCompoundQuery detects a single query that bundles multiple
// independent asks — via conjunction keywords, multiple question-mark
// boundaries, or a ticker mentioned alongside image attachments — and
// splits it into at most maxSubQueries independent sub-queries, per
// spec.md §4.G. A query with no such signal returns a single-element
// slice (itself).
func SplitCompoundQuery(query string, hasPhotos bool) []string {
	parts := conjunctionPattern.Split(query, -1)
	if len(parts) == 1 {
		parts = splitOnQuestionMarks(query)
	}

	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	parts = dropEmpty(parts)

	if len(parts) == 1 && hasPhotos && tickerLikePattern.MatchString(query) {
		parts = []string{query, "Describe the attached image."}
	}

	if len(parts) > maxSubQueries {
		parts = parts[:maxSubQueries]
	}
	if len(parts) == 0 {
		return []string{query}
	}
	return parts
}

func splitOnQuestionMarks(query string) []string {
	var parts []string
	start := 0
	for i, r := range query {
		if r == '?' {
			parts = append(parts, query[start:i+1])
			start = i + 1
		}
	}
	if start < len(query) {
		rest := strings.TrimSpace(query[start:])
		if rest != "" {
			parts = append(parts, rest)
		}
	}
	if len(parts) <= 1 {
		return []string{query}
	}
	return parts
}

func dropEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CompoundOutput merges multiple sub-pipeline runs into numbered sections,
// per spec.md §4.G: final badge is the worst badge, final confidence is
// the mean of the parts' confidences.
type CompoundOutput struct {
	Answer     string
	Badge      string
	Confidence int
	Parts      []Output
}

// badgeSeverity ranks badges worst-first so the compound merge can take
// the max severity across parts.
var badgeSeverity = map[string]int{
	"verified":    0,
	"corrected":   1,
	"unverified":  2,
	"unavailable": 3,
}

// RunCompound splits in.Query (if it looks compound) and runs each part
// as an independent, sequential pipeline — sequential because spec.md
// §5's ordering guarantees specify compound-split parts merge in original
// text position, not run in parallel like swarm workers.
func (p *Pipeline) RunCompound(ctx context.Context, in Input) (CompoundOutput, error) {
	queries := SplitCompoundQuery(in.Query, len(in.Photos) > 0)
	if len(queries) == 1 {
		out, err := p.Run(ctx, in)
		if err != nil {
			return CompoundOutput{}, err
		}
		return CompoundOutput{Answer: out.Answer, Badge: out.Badge, Confidence: out.Confidence, Parts: []Output{out}}, nil
	}

	var sections strings.Builder
	var parts []Output
	worstBadge := "verified"
	confidenceSum := 0

	for i, q := range queries {
		partIn := in
		partIn.Query = q
		out, err := p.Run(ctx, partIn)
		if err != nil {
			return CompoundOutput{}, err
		}
		parts = append(parts, out)
		fmt.Fprintf(&sections, "**%d.** %s\n\n", i+1, out.Answer)
		if badgeSeverity[out.Badge] > badgeSeverity[worstBadge] {
			worstBadge = out.Badge
		}
		confidenceSum += out.Confidence
	}

	return CompoundOutput{
		Answer:     strings.TrimSpace(sections.String()),
		Badge:      worstBadge,
		Confidence: confidenceSum / len(parts),
		Parts:      parts,
	}, nil
}

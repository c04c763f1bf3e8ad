// Package masking implements the Personality layer: regex-only output
// normalization applied after S3 Audit and before S6 Output. It never
// calls an LLM — it strips a fixed list of intro/outro fluff patterns and
// enforces exactly one trailing signature, per spec.md §4.G S5.
//
// Grounded on the teacher's pkg/masking/pattern.go: the precompiled-
// pattern-table idiom (`CompiledPattern{Name, Regex, Replacement}`,
// compiled once at construction, applied in a fixed order) is kept and
// retargeted from MCP-tool-result secret redaction to fluff-stripping and
// signature enforcement. The teacher's Kubernetes Secret/MCP-registry
// specific maskers have no analog in this domain and are not carried
// forward — see DESIGN.md's deletion justification.
package masking

import (
	"regexp"
	"strings"
	"time"
)

// CompiledPattern is a named, precompiled strip rule.
type CompiledPattern struct {
	Name  string
	Regex *regexp.Regexp
}

var introPatterns = compilePatterns([]string{
	`(?i)^\s*(sure,?\s+)?let me\s+[^.\n]*[.\n]\s*`,
	`(?i)^\s*here'?s\s+(a|the)\s+(summary|breakdown|analysis)[^.\n]*[.\n]\s*`,
	`(?i)^\s*as of my (last )?knowledge[^.\n]*[.\n]\s*`,
	`(?i)^\s*i('| a)?m happy to help[^.\n]*[.\n]\s*`,
	`(?i)^\s*great question[^.\n]*[.\n]\s*`,
})

var outroPatterns = compilePatterns([]string{
	`(?is)\n+confidence\s*(grade|level|score)?\s*:.*$`,
	`(?is)\n+\*\*confidence\*\*.*$`,
	`(?is)\n+let me know if you.*$`,
	`(?is)\n+i hope this helps.*$`,
	`(?is)\n+feel free to ask.*$`,
})

func compilePatterns(raws []string) []*CompiledPattern {
	patterns := make([]*CompiledPattern, 0, len(raws))
	for i, raw := range raws {
		patterns = append(patterns, &CompiledPattern{Name: "fluff-" + itoa(i), Regex: regexp.MustCompile(raw)})
	}
	return patterns
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// SkipMode is the set of processing modes that skip intro/outro stripping
// but still receive the trailing signature, per spec.md §4.G S5.
var SkipMode = map[string]bool{
	"psi-ema": true, "seed-metric": true, "code-audit": true, "design": true,
}

var signaturePattern = regexp.MustCompile(`(?s)\s*🔥\s*~nyan\s*\[[^\]]*\]\s*$`)

// BuildSignature renders the canonical trailing signature for ts.
func BuildSignature(ts time.Time) string {
	return "🔥 ~nyan [" + ts.Format("2006-01-02T15:04:05Z") + "]"
}

// StripIntroFluff removes the first matching intro-fluff pattern, if any.
func StripIntroFluff(text string) string {
	for _, p := range introPatterns {
		if loc := p.Regex.FindStringIndex(text); loc != nil && loc[0] == 0 {
			return text[loc[1]:]
		}
	}
	return text
}

// StripOutroFluff removes the first matching outro-fluff pattern, if any.
func StripOutroFluff(text string) string {
	for _, p := range outroPatterns {
		if loc := p.Regex.FindStringIndex(text); loc != nil {
			return text[:loc[0]]
		}
	}
	return text
}

// EnsureSignature removes any existing signature variant and appends
// exactly one canonical trailing signature.
func EnsureSignature(text string, ts time.Time) string {
	stripped := signaturePattern.ReplaceAllString(text, "")
	return strings.TrimRight(stripped, "\n") + "\n\n" + BuildSignature(ts)
}

// Normalize applies the full Personality pass: mode-conditional fluff
// stripping, then signature enforcement. mode is the orchestrator's
// routing mode string (e.g. "general", "psi-ema").
func Normalize(text, mode string, ts time.Time) string {
	if !SkipMode[mode] {
		text = StripIntroFluff(text)
		text = StripOutroFluff(text)
	}
	return EnsureSignature(text, ts)
}

package preflight

import (
	"regexp"
	"strings"
)

var designKeywords = regexp.MustCompile(`(?i)\b(architecture|microservice|scalab|design pattern|system design|load balanc|database schema|api design|trade-?off)\b`)

func isDesignQuestion(q string) bool {
	return designKeywords.MatchString(q)
}

var identityPatterns = regexp.MustCompile(`(?i)\bwhat\s+is\s+(?:the\s+)?(ψ[- ]?ema|psi[- ]?ema)\b`)

func isIndicatorIdentityQuery(q string) bool {
	return identityPatterns.MatchString(q)
}

var forexPairPattern = regexp.MustCompile(`(?i)\b([A-Z]{3})\s*/\s*([A-Z]{3})\b`)
var forexKeywords = regexp.MustCompile(`(?i)\b(forex|exchange rate|currency pair)\b`)

func detectForexPair(q string) (string, bool) {
	m := forexPairPattern.FindStringSubmatch(q)
	if m == nil {
		if forexKeywords.MatchString(q) {
			return "", true
		}
		return "", false
	}
	return strings.ToUpper(m[1]) + "/" + strings.ToUpper(m[2]), true
}

var seedMetricKeywords = regexp.MustCompile(`(?i)\b(afford|housing price|land price|years? of income|can i afford|house price)\b`)

func isSeedMetricQuery(q string) bool {
	return seedMetricKeywords.MatchString(q)
}

// lego verb/adjective sets for the Ψ-EMA "2-of-3" detector.
var legoVerbs = []string{"analyze", "diagnose", "forecast", "predict", "assess", "evaluate", "chart", "track"}
var legoAdjectives = []string{"price", "trend", "wave", "ema", "momentum", "oscillator", "indicator", "signal"}

func hasLegoVerb(q string) bool {
	lower := strings.ToLower(q)
	for _, v := range legoVerbs {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

func hasLegoAdjective(q string) bool {
	lower := strings.ToLower(q)
	for _, a := range legoAdjectives {
		if strings.Contains(lower, a) {
			return true
		}
	}
	return false
}

var psiEmaToken = regexp.MustCompile(`(?i)\bpsi[- ]?ema\b`)

func hasPsiEmaToken(q string) bool {
	return psiEmaToken.MatchString(q)
}

// geoVetoTokens are short city abbreviations that, in a comparison
// pattern, signal a housing-price comparison rather than a ticker.
var geoVetoTokens = map[string]bool{"la": true, "ny": true, "sf": true, "dc": true, "hk": true, "kl": true}

var comparisonPattern = regexp.MustCompile(`(?i)\bvs\b.*\b(price|land|income|housing|rent|cost)\b|\b(price|land|income|housing|rent|cost)\b.*\bvs\b`)

var explicitStockCue = regexp.MustCompile(`(?i)\$[A-Za-z]|\b(stock|ticker|share)\b`)

func geoVetoApplies(q string, tickerFound bool) bool {
	lower := strings.ToLower(q)
	hasGeo := false
	for token := range geoVetoTokens {
		if matchesWordBoundary(lower, token) {
			hasGeo = true
			break
		}
	}
	if !hasGeo {
		return false
	}
	if !comparisonPattern.MatchString(q) {
		return false
	}
	if explicitStockCue.MatchString(q) {
		return false
	}
	return !tickerFound
}

func matchesWordBoundary(lower, token string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
	return re.MatchString(lower)
}

var realtimeKeywords = regexp.MustCompile(`(?i)\b(score|game tonight|weather today|breaking news|live|happening now|who won|current weather)\b`)

func needsRealtimeSearch(q string) bool {
	return realtimeKeywords.MatchString(q)
}

var legalFilenamePattern = regexp.MustCompile(`(?i)(contract|agreement|nda|terms|policy|clause|statute|lease)`)

func looksLegalFilename(name string) bool {
	return legalFilenamePattern.MatchString(name)
}

var financialExtPattern = regexp.MustCompile(`(?i)\.(xls|xlsx)$`)

func looksFinancialFilename(name string) bool {
	return financialExtPattern.MatchString(name)
}

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".java": true, ".rb": true,
	".rs": true, ".c": true, ".cpp": true, ".cs": true, ".php": true, ".sh": true,
}

var codeSignalPattern = regexp.MustCompile(`(?m)^\s*(func|def|class|import|package|#include|public\s+\w+\s+\w+\()\b`)

func looksLikeCode(name, text string) bool {
	for ext := range codeExtensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return true
		}
	}
	return codeSignalPattern.MatchString(text)
}

var customPeriodPattern = regexp.MustCompile(`\b\d+[dwmy]\b`)

func extractCustomPeriod(q string) (string, bool) {
	m := customPeriodPattern.FindString(q)
	return m, m != ""
}

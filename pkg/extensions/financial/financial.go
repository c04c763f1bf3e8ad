// Package financial implements the financial-physics classifier: a
// heuristic reader of extracted tabular financial statements that infers
// document type, currency, reporting period, and per-row income/cost/
// profit classification, then cross-checks the result against the
// accounting identity income - cost = profit.
//
// Grounded on spec.md §4.G's financial-physics classifier description; no
// teacher file parses financial statements, so the row-classification
// heuristics below are original, built to the exact algorithm shape the
// spec names (fast guard, document-type detector, multilingual row
// classifier, accounting-identity validation, temporal mislabeling check).
package financial

import (
	"math"
	"regexp"
	"strings"
)

// Nature is the accounting role of a classified row.
type Nature string

const (
	NatureIncome Nature = "income"
	NatureCost   Nature = "cost"
	NatureProfit Nature = "profit"
)

// Symbol is the sign convention attached to a row's nature.
type Symbol string

const (
	SymbolPlus  Symbol = "+"
	SymbolMinus Symbol = "-"
	SymbolEqual Symbol = "="
)

// Row is one source row of extracted tabular financial text.
type Row struct {
	Label string
	Value float64
}

// Classification is the per-row inference result.
type Classification struct {
	Nature     Nature
	Symbol     Symbol
	Confidence float64
	Label      string
	Value      float64
}

// Temporal is the detected reporting period.
type Temporal struct {
	Year  int
	Month int
	Day   int
}

// Validation is the accounting-identity cross-check result.
type Validation struct {
	Valid       bool
	Income      float64
	Cost        float64
	Profit      float64
	VariancePct float64
}

// Summary tallies classifications by nature.
type Summary struct {
	IncomeCount int
	CostCount   int
	ProfitCount int
}

// Result is the full financial-physics classification for one document.
type Result struct {
	DocumentType    string
	Currency        string
	Temporal        Temporal
	TemporalErrors  []string
	Classifications []Classification
	Validation      Validation
	Summary         Summary
	IsLogData       bool
}

// logDataPattern matches lines that look like application/server log
// output rather than financial statement rows — the fast guard that lets
// callers skip the full classifier on non-financial tabular text.
var logDataPattern = regexp.MustCompile(`(?i)\b(INFO|WARN|ERROR|DEBUG|TRACE)\b.*\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}|\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}.*\b(INFO|WARN|ERROR|DEBUG|TRACE)\b`)

// IsLogData runs the fast guard: true if text looks like log lines, in
// which case the caller should skip financial classification entirely.
func IsLogData(text string) bool {
	lines := strings.Split(text, "\n")
	hits := 0
	for _, l := range lines {
		if logDataPattern.MatchString(l) {
			hits++
		}
	}
	return len(lines) > 0 && float64(hits)/float64(len(lines)) > 0.3
}

// documentTypeKeywords maps a document type to the keywords whose counts
// vote for it. Ties favor the earlier entry (income statement first, the
// most common case).
var documentTypeKeywords = []struct {
	docType  string
	keywords []string
}{
	{"income_statement", []string{"revenue", "net income", "operating expense", "gross profit", "cost of goods sold"}},
	{"balance_sheet", []string{"total assets", "total liabilities", "shareholders equity", "retained earnings"}},
	{"cash_flow", []string{"operating activities", "investing activities", "financing activities", "cash and cash equivalents"}},
	{"invoice", []string{"invoice number", "bill to", "due date", "subtotal"}},
	{"budget", []string{"budgeted", "variance", "forecast", "projected"}},
}

// DetectDocumentType counts keyword hits per candidate type and returns
// the highest-scoring one, or "unknown" if nothing matches.
func DetectDocumentType(text string) string {
	lower := strings.ToLower(text)
	best := "unknown"
	bestScore := 0
	for _, c := range documentTypeKeywords {
		score := 0
		for _, kw := range c.keywords {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			bestScore = score
			best = c.docType
		}
	}
	return best
}

var currencyPatterns = []struct {
	code    string
	pattern *regexp.Regexp
}{
	{"USD", regexp.MustCompile(`\$|USD`)},
	{"EUR", regexp.MustCompile(`€|EUR`)},
	{"GBP", regexp.MustCompile(`£|GBP`)},
	{"JPY", regexp.MustCompile(`¥|JPY`)},
	{"IDR", regexp.MustCompile(`(?i)\bRp\b|IDR`)},
	{"CNY", regexp.MustCompile(`(?i)CNY|RMB`)},
}

// DetectCurrency returns the code of the first entry of currencyPatterns,
// in list order, whose symbol/code appears in text, or "" if none match.
func DetectCurrency(text string) string {
	for _, c := range currencyPatterns {
		if c.pattern.MatchString(text) {
			return c.code
		}
	}
	return ""
}

// rowPriors are multilingual keyword priors (Indonesian, English, Chinese,
// Japanese) used to classify a row's nature from its label.
var rowPriors = map[Nature][]string{
	NatureIncome: {
		"revenue", "income", "sales", "pendapatan", "penjualan",
		"收入", "销售", "売上", "収入",
	},
	NatureCost: {
		"cost", "expense", "expenditure", "biaya", "beban", "pengeluaran",
		"成本", "费用", "支出", "原価", "費用",
	},
	NatureProfit: {
		"profit", "net income", "laba", "keuntungan",
		"利润", "净利润", "利益", "純利益",
	},
}

// ClassifyRow infers a row's nature from its label text using the
// multilingual priors, checked profit first, then cost, then income (so
// "net income" reads as profit), falling back to sign-based position
// heuristics (negative values read as cost, positive as income) when no
// keyword matches.
func ClassifyRow(row Row) Classification {
	lower := strings.ToLower(row.Label)

	for _, nature := range []Nature{NatureProfit, NatureCost, NatureIncome} {
		for _, kw := range rowPriors[nature] {
			if strings.Contains(lower, kw) {
				return Classification{
					Nature:     nature,
					Symbol:     symbolFor(nature, row.Value),
					Confidence: 0.85,
					Label:      row.Label,
					Value:      row.Value,
				}
			}
		}
	}

	nature := NatureIncome
	if row.Value < 0 {
		nature = NatureCost
	}
	return Classification{
		Nature:     nature,
		Symbol:     symbolFor(nature, row.Value),
		Confidence: 0.4,
		Label:      row.Label,
		Value:      row.Value,
	}
}

func symbolFor(nature Nature, value float64) Symbol {
	switch nature {
	case NatureProfit:
		return SymbolEqual
	case NatureCost:
		return SymbolMinus
	default:
		if value < 0 {
			return SymbolMinus
		}
		return SymbolPlus
	}
}

// Validate cross-checks income - cost - profit against the accounting
// identity, valid when the relative variance is under 5%.
func Validate(classifications []Classification) Validation {
	var income, cost, profit float64
	for _, c := range classifications {
		v := math.Abs(c.Value)
		switch c.Nature {
		case NatureIncome:
			income += v
		case NatureCost:
			cost += v
		case NatureProfit:
			profit += v
		}
	}

	variance := 1.0
	if profit != 0 {
		variance = math.Abs(income-cost-profit) / math.Abs(profit)
	}

	return Validation{
		Valid:       profit != 0 && variance < 0.05,
		Income:      income,
		Cost:        cost,
		Profit:      profit,
		VariancePct: variance * 100,
	}
}

func Summarize(classifications []Classification) Summary {
	var s Summary
	for _, c := range classifications {
		switch c.Nature {
		case NatureIncome:
			s.IncomeCount++
		case NatureCost:
			s.CostCount++
		case NatureProfit:
			s.ProfitCount++
		}
	}
	return s
}

// CheckTemporalMislabeling detects a common authoring error: a header row
// claiming a future year alongside an "Actual" (not "Projected"/"Budget")
// label, which is inconsistent — actuals cannot exist for a future period.
func CheckTemporalMislabeling(headers []string, currentYear int) []string {
	var errs []string
	yearPattern := regexp.MustCompile(`\b(20\d{2})\b`)
	for _, h := range headers {
		lower := strings.ToLower(h)
		if !strings.Contains(lower, "actual") {
			continue
		}
		m := yearPattern.FindString(h)
		if m == "" {
			continue
		}
		year := 0
		for _, c := range m {
			year = year*10 + int(c-'0')
		}
		if year > currentYear {
			errs = append(errs, "header \""+h+"\" marks a future year as Actual")
		}
	}
	return errs
}

var temporalPattern = regexp.MustCompile(`\b(20\d{2})(?:[-/](\d{1,2})(?:[-/](\d{1,2}))?)?\b`)

// DetectTemporal extracts the first year (and optional month/day) found
// in text.
func DetectTemporal(text string) Temporal {
	m := temporalPattern.FindStringSubmatch(text)
	if m == nil {
		return Temporal{}
	}
	var t Temporal
	for _, c := range m[1] {
		t.Year = t.Year*10 + int(c-'0')
	}
	if m[2] != "" {
		for _, c := range m[2] {
			t.Month = t.Month*10 + int(c-'0')
		}
	}
	if m[3] != "" {
		for _, c := range m[3] {
			t.Day = t.Day*10 + int(c-'0')
		}
	}
	return t
}

// Classify runs the full financial-physics pipeline over extracted rows.
func Classify(text string, rows []Row, headers []string, currentYear int) Result {
	if IsLogData(text) {
		return Result{IsLogData: true}
	}

	classifications := make([]Classification, 0, len(rows))
	for _, r := range rows {
		classifications = append(classifications, ClassifyRow(r))
	}

	return Result{
		DocumentType:    DetectDocumentType(text),
		Currency:        DetectCurrency(text),
		Temporal:        DetectTemporal(text),
		TemporalErrors:  CheckTemporalMislabeling(headers, currentYear),
		Classifications: classifications,
		Validation:      Validate(classifications),
		Summary:         Summarize(classifications),
	}
}

package financial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLogDataDetectsLogLines(t *testing.T) {
	text := "2024-01-02T10:00:00 INFO starting up\n2024-01-02T10:00:01 ERROR connection refused\n"
	assert.True(t, IsLogData(text))
}

func TestIsLogDataIgnoresFinancialText(t *testing.T) {
	text := "Total Revenue: 120000\nCost of Goods Sold: 45000\nNet Income: 75000\n"
	assert.False(t, IsLogData(text))
}

func TestDetectDocumentTypeIncomeStatement(t *testing.T) {
	text := "Revenue\nGross Profit\nOperating Expense\nNet Income"
	assert.Equal(t, "income_statement", DetectDocumentType(text))
}

func TestDetectCurrencySymbol(t *testing.T) {
	assert.Equal(t, "USD", DetectCurrency("Total: $1,200"))
	assert.Equal(t, "EUR", DetectCurrency("Total: €1,200"))
	assert.Equal(t, "", DetectCurrency("Total: 1,200"))
}

func TestClassifyRowMultilingualPriors(t *testing.T) {
	c := ClassifyRow(Row{Label: "Pendapatan Bersih", Value: 1000})
	assert.Equal(t, NatureIncome, c.Nature)

	c2 := ClassifyRow(Row{Label: "销售", Value: 500})
	assert.Equal(t, NatureIncome, c2.Nature)
}

func TestValidateAccountingIdentity(t *testing.T) {
	classifications := []Classification{
		{Nature: NatureIncome, Value: 100000},
		{Nature: NatureCost, Value: -40000},
		{Nature: NatureProfit, Value: 60000},
	}
	v := Validate(classifications)
	assert.True(t, v.Valid)
	assert.Less(t, v.VariancePct, 5.0)
}

func TestValidateFlagsInconsistentStatement(t *testing.T) {
	classifications := []Classification{
		{Nature: NatureIncome, Value: 100000},
		{Nature: NatureCost, Value: -40000},
		{Nature: NatureProfit, Value: 10000},
	}
	v := Validate(classifications)
	assert.False(t, v.Valid)
}

func TestCheckTemporalMislabelingFlagsFutureActual(t *testing.T) {
	errs := CheckTemporalMislabeling([]string{"2030 Actual", "2023 Budget"}, 2024)
	require.Len(t, errs, 1)
}

func TestDetectTemporalParsesDate(t *testing.T) {
	temporal := DetectTemporal("Report period 2024-03-15")
	assert.Equal(t, 2024, temporal.Year)
	assert.Equal(t, 3, temporal.Month)
	assert.Equal(t, 15, temporal.Day)
}

func TestClassifyEndToEnd(t *testing.T) {
	rows := []Row{
		{Label: "Revenue", Value: 200000},
		{Label: "Operating Expense", Value: -80000},
		{Label: "Net Income", Value: 120000},
	}
	result := Classify("Revenue\nOperating Expense\nNet Income 2024", rows, nil, 2024)
	assert.False(t, result.IsLogData)
	assert.Equal(t, "income_statement", result.DocumentType)
	assert.Len(t, result.Classifications, 3)
	assert.Equal(t, 1, result.Summary.IncomeCount)
}

package preflight

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMarket struct {
	data *fetch.MarketData
	err  error
}

func (s *stubMarket) Fetch(ctx context.Context, clientID, ticker string) (*fetch.MarketData, error) {
	return s.data, s.err
}

func closesOfLength(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i%7)
	}
	return out
}

func TestBlobDetectionCharBoundary(t *testing.T) {
	short := strings.Repeat("a", 499)
	long := strings.Repeat("a", 501)

	_, isBlobShort := classificationQuery(short)
	_, isBlobLong := classificationQuery(long)

	assert.False(t, isBlobShort)
	assert.True(t, isBlobLong)
}

func TestBlobDetectionSentenceBoundary(t *testing.T) {
	q := strings.Repeat("Short sentence. ", 10)
	_, isBlob := classificationQuery(q)
	assert.True(t, isBlob)
}

func TestRouteDesignQuestion(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "what's the best microservice architecture for this?"})
	assert.Equal(t, ModeDesign, result.Mode)
	assert.True(t, result.RoutingFlags.IsDesignQuestion)
}

func TestRouteForexPair(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "what is USD/JPY rate?"})
	assert.Equal(t, ModeForex, result.Mode)
	require.NotNil(t, result.ForexContext)
	assert.Equal(t, "USD/JPY", result.ForexContext.Pair)
}

func TestRouteSeedMetricKeyword(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "can I afford a house in austin"})
	assert.Equal(t, ModeSeedMetric, result.Mode)
	assert.Equal(t, SearchBrave, result.SearchStrategy)
}

func TestGeoVetoForcesSeedMetric(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "LA vs NY rent comparison"})
	assert.Equal(t, ModeSeedMetric, result.Mode)
	assert.True(t, result.RoutingFlags.GeoVetoApplied)
}

func TestRoutePsiEMAWithVerifiedTicker(t *testing.T) {
	market := &stubMarket{data: &fetch.MarketData{
		Daily:   fetch.DailySeries{Closes: closesOfLength(60), BarCount: 60},
		EndDate: time.Now(),
	}}
	r := NewRouter(market, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "analyze $NVDA trend"})
	assert.Equal(t, ModePsiEMA, result.Mode)
	require.NotNil(t, result.StockContext)
	assert.True(t, result.StockContext.Verified)
}

func TestRoutePsiEMAFallsThroughWithoutMarketData(t *testing.T) {
	market := &stubMarket{err: assertError{}}
	r := NewRouter(market, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "analyze $NVDA trend"})
	assert.Equal(t, ModeGeneral, result.Mode)
}

type assertError struct{}

func (assertError) Error() string { return "fetch failed" }

func TestRouteDefaultsToGeneral(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "hello there"})
	assert.Equal(t, ModeGeneral, result.Mode)
}

func TestRouteRealtimeIntentOnlyAppliesToGeneral(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{Query: "who won the game tonight"})
	assert.Equal(t, ModeGeneral, result.Mode)
	assert.True(t, result.RoutingFlags.NeedsRealtimeSearch)
	assert.Equal(t, SearchDuckDuckGo, result.SearchStrategy)
}

func TestAttachmentOverridePromotesCodeAudit(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{
		Query:       "hello there",
		Attachments: []Attachment{{FileName: "main.go", Text: "package main\nfunc main() {}"}},
	})
	assert.Equal(t, ModeCodeAudit, result.Mode)
	assert.True(t, result.RoutingFlags.UsesCodeAudit)
}

func TestAttachmentOverrideFlagsFinancialAndLegal(t *testing.T) {
	r := NewRouter(nil, nil)
	result := r.Route(context.Background(), "client1", Input{
		Query: "hello there",
		Attachments: []Attachment{
			{FileName: "report.xlsx"},
			{FileName: "agreement.pdf"},
		},
	})
	assert.True(t, result.RoutingFlags.UsesFinancialPhysics)
	assert.True(t, result.RoutingFlags.UsesLegalAnalysis)
}

func TestExtractTickerPriorityDollarOverAllCaps(t *testing.T) {
	ticker, ok := ExtractTicker("compare $NVDA to AAPL today")
	require.True(t, ok)
	assert.Equal(t, "NVDA", ticker)
}

func TestExtractTickerRejectsBlocklist(t *testing.T) {
	_, ok := ExtractTicker("WHAT IS THE PRICE")
	assert.False(t, ok)
}

func TestExtractTickerAllowsDollarPrefixedGeoTicker(t *testing.T) {
	ticker, ok := ExtractTicker("$LA is a strong buy")
	require.True(t, ok)
	assert.Equal(t, "LA", ticker)
}

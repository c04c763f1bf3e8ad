// Package fetch implements the external data collaborators named in
// spec.md §4.E: a sanitized market-data fetcher, a forex pair fetcher, and
// a two-provider (DuckDuckGo/Brave) search cascade, all gated by a
// per-(clientId,service) token bucket (pkg/fetch/ratelimit).
package fetch

import (
	"context"
	"time"
)

// DailySeries is one ticker's daily close-price history.
type DailySeries struct {
	Closes   []float64
	BarCount int
}

// WeeklySeries is the optional weekly aggregation; UnavailableReason is set
// instead of returning an error when fewer than 13 weekly bars exist.
type WeeklySeries struct {
	Closes            []float64
	BarCount          int
	UnavailableReason string
}

// MarketData is the sanitized response contract for a ticker fetch.
type MarketData struct {
	Currency     string
	Name         string
	CurrentPrice float64
	EndDate      time.Time
	Daily        DailySeries
	Weekly       WeeklySeries
	Fundamentals map[string]any
}

// MarketDataProvider is the collaborator interface a real market-data
// backend (subprocess or RPC, per spec.md §6) implements.
type MarketDataProvider interface {
	FetchMarketData(ctx context.Context, ticker string) (MarketData, error)
}

// ForexData is the sanitized response contract for a currency pair fetch.
type ForexData struct {
	Pair      string
	Rate      float64
	Source    string
	Timestamp time.Time
	Raw       map[string]any
}

// ForexProvider is the collaborator interface for forex rate lookups.
type ForexProvider interface {
	FetchForex(ctx context.Context, pair string) (ForexData, error)
}

// SearchResult is one Brave-shaped search hit; DDG responses are flattened
// into Text/Related only.
type SearchResult struct {
	Title       string
	URL         string
	Description string
}

// SearchResponse is nil when a provider returns zero results or is denied
// by the capacity gate — never an error in that case (spec.md §6).
type SearchResponse struct {
	Text    string
	Results []SearchResult
	Related []string
}

// SearchProvider is the collaborator interface for one search backend.
type SearchProvider interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/fetch/ratelimit"
)

// marketTimeout is the hard kill for a market-data fetch (spec.md §5).
const marketTimeout = 30 * time.Second

// MarketFetcher sanitizes the ticker, gates the call, and enforces the
// 30s hard timeout before delegating to a MarketDataProvider.
type MarketFetcher struct {
	provider MarketDataProvider
	gate     *ratelimit.Gate
}

// NewMarketFetcher constructs a MarketFetcher; gate may be nil to skip
// capacity gating (used in tests and for free/unmetered providers).
func NewMarketFetcher(provider MarketDataProvider, gate *ratelimit.Gate) *MarketFetcher {
	return &MarketFetcher{provider: provider, gate: gate}
}

// Fetch validates ticker, consults the capacity gate, and fetches market
// data with a 30s hard timeout. Non-finite numeric fields are scrubbed to
// nil before the caller sees them.
func (f *MarketFetcher) Fetch(ctx context.Context, clientID, rawTicker string) (*MarketData, error) {
	ticker, ok := SanitizeTicker(rawTicker)
	if !ok {
		return nil, ErrInvalidTicker
	}
	if f.gate != nil && !f.gate.Allow(clientID, "market") {
		return nil, ErrCapacityDenied
	}

	ctx, cancel := context.WithTimeout(ctx, marketTimeout)
	defer cancel()

	data, err := f.provider.FetchMarketData(ctx, ticker)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &MarketFetchError{Ticker: ticker, Err: ErrExternalTimeout}
		}
		return nil, &MarketFetchError{Ticker: ticker, Err: err}
	}

	sanitizeMarketData(&data)
	return &data, nil
}

func sanitizeMarketData(d *MarketData) {
	if v, ok := SanitizeFloat(d.CurrentPrice).(float64); ok {
		d.CurrentPrice = v
	} else {
		d.CurrentPrice = 0
	}
	for i, c := range d.Daily.Closes {
		if v, ok := SanitizeFloat(c).(float64); ok {
			d.Daily.Closes[i] = v
		} else {
			d.Daily.Closes[i] = 0
		}
	}
	for i, c := range d.Weekly.Closes {
		if v, ok := SanitizeFloat(c).(float64); ok {
			d.Weekly.Closes[i] = v
		} else {
			d.Weekly.Closes[i] = 0
		}
	}
}

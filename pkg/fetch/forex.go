package fetch

import (
	"context"
	"time"
)

// forexTimeout mirrors the market fetcher's hard kill.
const forexTimeout = 30 * time.Second

// ForexFetcher validates a BASE/QUOTE pair and delegates to a ForexProvider.
type ForexFetcher struct {
	provider ForexProvider
}

func NewForexFetcher(provider ForexProvider) *ForexFetcher {
	return &ForexFetcher{provider: provider}
}

// Fetch parses rawPair and returns the sanitized rate.
func (f *ForexFetcher) Fetch(ctx context.Context, rawPair string) (*ForexData, error) {
	pair, ok := SanitizeForexPair(rawPair)
	if !ok {
		return nil, ErrInvalidPair
	}

	ctx, cancel := context.WithTimeout(ctx, forexTimeout)
	defer cancel()

	data, err := f.provider.FetchForex(ctx, pair)
	if err != nil {
		return nil, err
	}
	if v, ok := SanitizeFloat(data.Rate).(float64); ok {
		data.Rate = v
	} else {
		data.Rate = 0
	}
	data.Pair = pair
	return &data, nil
}

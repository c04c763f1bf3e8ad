package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const forexProviderTimeout = 15 * time.Second

// FrankfurterForexProvider queries the free Frankfurter exchange-rate API
// (no API key required), the same free-tier posture DDGProvider takes
// among the search providers.
type FrankfurterForexProvider struct {
	client *http.Client
}

func NewFrankfurterForexProvider() *FrankfurterForexProvider {
	return &FrankfurterForexProvider{client: &http.Client{Timeout: forexProviderTimeout}}
}

type frankfurterResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// FetchForex expects pair already sanitized to "BASE/QUOTE" upper-case by
// the caller (pkg/fetch's ForexFetcher, via SanitizeForexPair).
func (p *FrankfurterForexProvider) FetchForex(ctx context.Context, pair string) (ForexData, error) {
	parts := strings.SplitN(pair, "/", 2)
	if len(parts) != 2 {
		return ForexData{}, ErrInvalidPair
	}
	base, quote := parts[0], parts[1]

	endpoint := fmt.Sprintf("https://api.frankfurter.app/latest?from=%s&to=%s", base, quote)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ForexData{}, fmt.Errorf("fetch: build forex request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ForexData{}, fmt.Errorf("%w: %v", ErrExternalTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ForexData{}, fmt.Errorf("fetch: read forex response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ForexData{}, fmt.Errorf("fetch: forex provider returned status %d", resp.StatusCode)
	}

	var parsed frankfurterResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ForexData{}, fmt.Errorf("fetch: unmarshal forex response: %w", err)
	}
	rate, ok := parsed.Rates[quote]
	if !ok {
		return ForexData{}, fmt.Errorf("fetch: forex response missing rate for %s", quote)
	}

	return ForexData{
		Pair:      pair,
		Rate:      rate,
		Source:    "frankfurter",
		Timestamp: time.Now().UTC(),
		Raw: map[string]any{
			"amount": parsed.Amount,
			"base":   parsed.Base,
			"date":   parsed.Date,
			"rates":  parsed.Rates,
		},
	}, nil
}

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/watchtower"
)

const (
	marketSubprocessTimeout   = 30 * time.Second
	marketSubprocessMaxOutput = 65536
)

// SubprocessMarketProvider fetches market data by invoking an external
// command with the sanitized ticker as its sole argument and parsing the
// command's stdout as JSON, per spec.md §6's "Market-data adapter: A
// subprocess or RPC invocation; sanitized ticker is the only
// command-argument". It runs the command through the Exec Watchtower so
// the same deny-list/path/env validation guarding agent-issued commands
// also guards this adapter's own process launch.
type SubprocessMarketProvider struct {
	watchtower *watchtower.Watchtower
	command    string
}

// NewSubprocessMarketProvider builds a provider that shells out to
// command (e.g. a local market-data CLI or script) for every ticker.
func NewSubprocessMarketProvider(wt *watchtower.Watchtower, command string) *SubprocessMarketProvider {
	return &SubprocessMarketProvider{watchtower: wt, command: command}
}

type subprocessMarketPayload struct {
	Currency     string  `json:"currency"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"currentPrice"`
	EndDate      string  `json:"endDate"`
	Daily        struct {
		Closes   []float64 `json:"closes"`
		BarCount int       `json:"barCount"`
	} `json:"daily"`
	Weekly struct {
		Closes            []float64 `json:"closes"`
		BarCount          int       `json:"barCount"`
		UnavailableReason string    `json:"unavailableReason"`
	} `json:"weekly"`
	Fundamentals map[string]any `json:"fundamentals"`
}

// FetchMarketData expects ticker already sanitized by the caller
// (pkg/fetch's MarketFetcher, via SanitizeTicker) before it ever reaches
// the command line.
func (p *SubprocessMarketProvider) FetchMarketData(ctx context.Context, ticker string) (MarketData, error) {
	result := p.watchtower.ExecForeground(ctx, p.command+" "+ticker, watchtower.ExecOptions{
		Timeout:   marketSubprocessTimeout,
		MaxOutput: marketSubprocessMaxOutput,
	})
	if result.TimedOut {
		return MarketData{}, ErrExternalTimeout
	}
	if result.ExitCode != 0 {
		return MarketData{}, fmt.Errorf("fetch: market-data subprocess exited %d: %s", result.ExitCode, result.Stderr)
	}

	var payload subprocessMarketPayload
	if err := json.Unmarshal([]byte(result.Stdout), &payload); err != nil {
		return MarketData{}, fmt.Errorf("fetch: parse market-data subprocess output: %w", err)
	}

	endDate, _ := time.Parse(time.RFC3339, payload.EndDate)
	return MarketData{
		Currency:     payload.Currency,
		Name:         payload.Name,
		CurrentPrice: payload.CurrentPrice,
		EndDate:      endDate,
		Daily: DailySeries{
			Closes:   payload.Daily.Closes,
			BarCount: payload.Daily.BarCount,
		},
		Weekly: WeeklySeries{
			Closes:            payload.Weekly.Closes,
			BarCount:          payload.Weekly.BarCount,
			UnavailableReason: payload.Weekly.UnavailableReason,
		},
		Fundamentals: payload.Fundamentals,
	}, nil
}

package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/fetch/ratelimit"
)

// fanoutSpacing is the delay between sequential requests in the
// rate-limited fan-out cascade (spec.md §4.E).
const fanoutSpacing = 350 * time.Millisecond

// SearchCascade orchestrates the two-provider (DDG free, Brave
// credentialed) search strategy described in spec.md §4.E.
type SearchCascade struct {
	ddg   SearchProvider
	brave SearchProvider
	gate  *ratelimit.Gate
}

// NewSearchCascade constructs a cascade; gate controls Brave calls only
// (DDG is free and ungated).
func NewSearchCascade(ddg, brave SearchProvider, gate *ratelimit.Gate) *SearchCascade {
	return &SearchCascade{ddg: ddg, brave: brave, gate: gate}
}

// BestEffort tries DDG first; on a null/error result it falls back to
// Brave (subject to the capacity gate).
func (c *SearchCascade) BestEffort(ctx context.Context, clientID, query string) *SearchResponse {
	if c.ddg != nil {
		if resp, err := c.ddg.Search(ctx, query); err == nil && resp != nil {
			return resp
		}
	}
	if c.brave == nil {
		return nil
	}
	if c.gate != nil && !c.gate.Allow(clientID, "brave") {
		return nil
	}
	resp, err := c.brave.Search(ctx, query)
	if err != nil {
		return nil
	}
	return resp
}

// LabeledBlock is one entry of a rate-limited fan-out result, tagged with
// the originating query for downstream template rendering.
type LabeledBlock struct {
	Query    string
	Response *SearchResponse
}

// RateLimitedFanout issues each query sequentially with fanoutSpacing
// between requests (used by the seed-metric module's 4-query-per-city
// fan-out). For each query: Brave first (gated), DDG fallback.
func (c *SearchCascade) RateLimitedFanout(ctx context.Context, clientID string, queries []string) ([]LabeledBlock, error) {
	blocks := make([]LabeledBlock, 0, len(queries))
	for i, q := range queries {
		if i > 0 {
			select {
			case <-ctx.Done():
				return blocks, ctx.Err()
			case <-time.After(fanoutSpacing):
			}
		}
		blocks = append(blocks, LabeledBlock{Query: q, Response: c.braveThenDDG(ctx, clientID, q)})
	}
	return blocks, nil
}

func (c *SearchCascade) braveThenDDG(ctx context.Context, clientID, query string) *SearchResponse {
	if c.brave != nil && (c.gate == nil || c.gate.Allow(clientID, "brave")) {
		if resp, err := c.brave.Search(ctx, query); err == nil && resp != nil {
			return resp
		}
	}
	if c.ddg != nil {
		if resp, err := c.ddg.Search(ctx, query); err == nil && resp != nil {
			return resp
		}
	}
	return nil
}

// FormatLabeledBlocks renders fan-out results as numbered text sections,
// e.g. for the seed-metric module's search-payload parsing input.
func FormatLabeledBlocks(blocks []LabeledBlock) string {
	out := ""
	for i, b := range blocks {
		out += fmt.Sprintf("[%d] %s\n", i+1, b.Query)
		if b.Response != nil {
			out += b.Response.Text + "\n"
		}
	}
	return out
}

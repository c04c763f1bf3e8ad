package llmchain

import (
	"context"
	"strings"
)

// tickerGuessPrompt asks the chain to name a single stock ticker for the
// "AI-push rescue" step of the preflight router (spec.md §4.F step 5):
// when a query carries 2 of 3 lego keys but no extractable ticker, an LLM
// proposes one.
const tickerGuessPrompt = `Identify the single stock ticker symbol (e.g. AAPL, TSLA) most relevant to this query. Respond with only the ticker, nothing else. If no ticker applies, respond with NONE.

Query: `

// guessTickerMaxTokens bounds the reply to a bare ticker symbol.
const guessTickerMaxTokens = 16

// GuessTicker satisfies pkg/preflight.TickerGuesser, letting the router's
// AI-push rescue step fall through the chain's normal provider order.
func (c *Chain) GuessTicker(ctx context.Context, query string) (string, error) {
	reply, err := c.Call(ctx, CallOptions{
		Prompt:    tickerGuessPrompt + query,
		MaxTokens: guessTickerMaxTokens,
	})
	if err != nil {
		return "", err
	}
	ticker := strings.ToUpper(strings.TrimSpace(reply))
	if ticker == "" || ticker == "NONE" {
		return "", nil
	}
	return ticker, nil
}

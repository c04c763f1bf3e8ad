package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// searchProviderTimeout bounds a single search-provider HTTP call; the
// cascade itself has no additional timeout layered on top.
const searchProviderTimeout = 15 * time.Second

// DDGProvider queries DuckDuckGo's free Instant Answer API. It needs no
// API key and is never gated by the capacity collaborator, matching
// spec.md §4.E's "DDG (free)" characterization.
//
// Grounded on pkg/llmchain/adapter.go's HTTPAdapter (request-build,
// status-code triage, JSON unmarshal) adapted from a POST chat-completions
// call to a GET query-string call.
type DDGProvider struct {
	client *http.Client
}

func NewDDGProvider() *DDGProvider {
	return &DDGProvider{client: &http.Client{Timeout: searchProviderTimeout}}
}

type ddgResponse struct {
	AbstractText  string `json:"AbstractText"`
	Heading       string `json:"Heading"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Search returns nil (not an error) when DuckDuckGo has no abstract or
// related topics for query, per spec.md §6's "null on zero results".
func (p *DDGProvider) Search(ctx context.Context, query string) (*SearchResponse, error) {
	endpoint := "https://api.duckduckgo.com/?format=json&no_html=1&skip_disambig=1&q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build ddg request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read ddg response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: ddg returned status %d", resp.StatusCode)
	}

	var parsed ddgResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("fetch: unmarshal ddg response: %w", err)
	}

	if parsed.AbstractText == "" && len(parsed.RelatedTopics) == 0 {
		return nil, nil
	}

	out := &SearchResponse{Text: parsed.AbstractText}
	if parsed.AbstractText != "" {
		out.Results = append(out.Results, SearchResult{
			Title:       parsed.Heading,
			URL:         parsed.AbstractURL,
			Description: parsed.AbstractText,
		})
	}
	for _, t := range parsed.RelatedTopics {
		if t.Text != "" {
			out.Related = append(out.Related, t.Text)
		}
	}
	return out, nil
}

// BraveProvider queries the Brave Search API, the credentialed,
// rate-limited backend behind the cascade's fallback/primary slot
// depending on policy (spec.md §4.E).
type BraveProvider struct {
	client *http.Client
	apiKey string
}

func NewBraveProvider(apiKey string) *BraveProvider {
	return &BraveProvider{client: &http.Client{Timeout: searchProviderTimeout}, apiKey: apiKey}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (p *BraveProvider) Search(ctx context.Context, query string) (*SearchResponse, error) {
	endpoint := "https://api.search.brave.com/res/v1/web/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read brave response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrCapacityDenied
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: brave returned status %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("fetch: unmarshal brave response: %w", err)
	}
	if len(parsed.Web.Results) == 0 {
		return nil, nil
	}

	out := &SearchResponse{}
	for _, r := range parsed.Web.Results {
		out.Results = append(out.Results, SearchResult{Title: r.Title, URL: r.URL, Description: r.Description})
	}
	return out, nil
}

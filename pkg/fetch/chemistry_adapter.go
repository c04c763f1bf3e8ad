package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/extensions/chemistry"
)

const wikipediaTimeout = 15 * time.Second

// ChemistrySearchAdapter implements chemistry.Searcher by delegating
// general search to a SearchCascade and extracting summaries from
// Wikipedia's REST API directly, kept in pkg/fetch (rather than inside
// pkg/extensions/chemistry) so the chemistry package itself stays free of
// any pkg/fetch import, per that package's own doc comment.
type ChemistrySearchAdapter struct {
	cascade  *SearchCascade
	clientID string
	client   *http.Client
}

// NewChemistrySearchAdapter builds an adapter over an existing search
// cascade. clientID identifies this adapter's caller to the capacity gate
// (the orchestrator's S-1 chemistry stage has no per-request client id of
// its own to thread through).
func NewChemistrySearchAdapter(cascade *SearchCascade, clientID string) *ChemistrySearchAdapter {
	return &ChemistrySearchAdapter{
		cascade:  cascade,
		clientID: clientID,
		client:   &http.Client{Timeout: wikipediaTimeout},
	}
}

func (a *ChemistrySearchAdapter) Search(ctx context.Context, query string) (string, error) {
	resp := a.cascade.BestEffort(ctx, a.clientID, query)
	if resp == nil {
		return "", nil
	}
	return resp.Text, nil
}

type wikipediaSummary struct {
	Extract string `json:"extract"`
}

// WikipediaExtract fetches the plain-text summary for an article title via
// Wikipedia's REST summary endpoint.
func (a *ChemistrySearchAdapter) WikipediaExtract(ctx context.Context, title string) (string, error) {
	endpoint := "https://en.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("fetch: build wikipedia request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalTimeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch: read wikipedia response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch: wikipedia returned status %d", resp.StatusCode)
	}

	var parsed wikipediaSummary
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("fetch: unmarshal wikipedia response: %w", err)
	}
	return parsed.Extract, nil
}

var _ chemistry.Searcher = (*ChemistrySearchAdapter)(nil)

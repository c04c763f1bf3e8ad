package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/fetch/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearch struct {
	resp  *SearchResponse
	err   error
	calls int
}

func (s *stubSearch) Search(ctx context.Context, query string) (*SearchResponse, error) {
	s.calls++
	return s.resp, s.err
}

func TestBestEffortPrefersDDG(t *testing.T) {
	ddg := &stubSearch{resp: &SearchResponse{Text: "ddg result"}}
	brave := &stubSearch{resp: &SearchResponse{Text: "brave result"}}
	cascade := NewSearchCascade(ddg, brave, nil)

	resp := cascade.BestEffort(context.Background(), "client-a", "query")
	require.NotNil(t, resp)
	assert.Equal(t, "ddg result", resp.Text)
	assert.Equal(t, 0, brave.calls)
}

func TestBestEffortFallsBackToBraveOnDDGMiss(t *testing.T) {
	ddg := &stubSearch{resp: nil}
	brave := &stubSearch{resp: &SearchResponse{Text: "brave result"}}
	cascade := NewSearchCascade(ddg, brave, nil)

	resp := cascade.BestEffort(context.Background(), "client-a", "query")
	require.NotNil(t, resp)
	assert.Equal(t, "brave result", resp.Text)
}

func TestBestEffortReturnsNilWhenGateDenies(t *testing.T) {
	ddg := &stubSearch{resp: nil}
	brave := &stubSearch{resp: &SearchResponse{Text: "brave result"}}
	gate := ratelimit.NewGate(1, 0) // burst 0: always denies
	cascade := NewSearchCascade(ddg, brave, gate)

	resp := cascade.BestEffort(context.Background(), "client-a", "query")
	assert.Nil(t, resp)
}

func TestRateLimitedFanoutSpacesRequests(t *testing.T) {
	brave := &stubSearch{resp: &SearchResponse{Text: "r"}}
	ddg := &stubSearch{resp: nil, err: errors.New("unused")}
	cascade := NewSearchCascade(ddg, brave, nil)

	start := time.Now()
	blocks, err := cascade.RateLimitedFanout(context.Background(), "client-a", []string{"q1", "q2", "q3"})
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.GreaterOrEqual(t, time.Since(start), 2*fanoutSpacing)
	assert.Equal(t, 3, brave.calls)
}

func TestRateLimitedFanoutFallsBackToDDGWhenBraveGateDenies(t *testing.T) {
	brave := &stubSearch{resp: &SearchResponse{Text: "brave"}}
	ddg := &stubSearch{resp: &SearchResponse{Text: "ddg"}}
	gate := ratelimit.NewGate(1, 0)
	cascade := NewSearchCascade(ddg, brave, gate)

	blocks, err := cascade.RateLimitedFanout(context.Background(), "client-a", []string{"q1"})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "ddg", blocks[0].Response.Text)
}

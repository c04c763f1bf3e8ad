package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubForexProvider struct {
	data ForexData
	err  error
}

func (s *stubForexProvider) FetchForex(ctx context.Context, pair string) (ForexData, error) {
	return s.data, s.err
}

func TestForexFetcherRejectsInvalidPair(t *testing.T) {
	f := NewForexFetcher(&stubForexProvider{})
	_, err := f.Fetch(context.Background(), "USDJPY")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPair)
}

func TestForexFetcherReturnsNormalizedPair(t *testing.T) {
	f := NewForexFetcher(&stubForexProvider{data: ForexData{Rate: 148.2, Source: "test"}})
	data, err := f.Fetch(context.Background(), "usd/jpy")
	require.NoError(t, err)
	assert.Equal(t, "USD/JPY", data.Pair)
	assert.Equal(t, 148.2, data.Rate)
}

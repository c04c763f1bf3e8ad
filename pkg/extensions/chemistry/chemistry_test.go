package chemistry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	searchResult string
	searchErr    error
	wikiExtract  string
}

func (s *stubSearcher) Search(ctx context.Context, query string) (string, error) {
	return s.searchResult, s.searchErr
}

func (s *stubSearcher) WikipediaExtract(ctx context.Context, title string) (string, error) {
	return s.wikiExtract, nil
}

func TestLookupSettledMatchesCanonicalName(t *testing.T) {
	c, ok := LookupSettled("looks like a water molecule")
	require.True(t, ok)
	assert.Equal(t, "H2O", c.Formula)
}

func TestLookupSettledMatchesAlias(t *testing.T) {
	c, ok := LookupSettled("this is table salt crystal")
	require.True(t, ok)
	assert.Equal(t, "NaCl", c.Formula)
}

func TestLookupSettledMisses(t *testing.T) {
	_, ok := LookupSettled("some unrecognized organic compound")
	assert.False(t, ok)
}

func TestExtractFormulaToken(t *testing.T) {
	token, ok := ExtractFormulaToken("the structure shown is C6H12O6 in solution")
	require.True(t, ok)
	assert.Equal(t, "C6H12O6", token)
}

func TestFuzzyMatchHCAllowsOneAtomDifference(t *testing.T) {
	assert.True(t, FuzzyMatchHC("C6H12O6", "C6H13O6"))
	assert.False(t, FuzzyMatchHC("C6H12O6", "C6H20O6"))
	assert.False(t, FuzzyMatchHC("C6H12O6", "C6H12N6"))
}

func TestArbitratePicksVisionWhenSearchSupportsIt(t *testing.T) {
	s := &stubSearcher{searchResult: "the structure shown is commonly known as ethanol"}
	name, err := Arbitrate(context.Background(), s, "ethanol", "methanol")
	require.NoError(t, err)
	assert.Equal(t, "ethanol", name)
}

func TestArbitrateFallsBackOnSearchError(t *testing.T) {
	s := &stubSearcher{searchErr: errors.New("network down")}
	name, err := Arbitrate(context.Background(), s, "ethanol", "methanol")
	require.Error(t, err)
	assert.Equal(t, "methanol", name)
}

func TestIdentifySettledTierWins(t *testing.T) {
	id := Identify(context.Background(), nil, "clear water droplet")
	assert.Equal(t, TierSettled, id.Tier)
	assert.GreaterOrEqual(t, id.Confidence, 0.9)
}

func TestBuildHeaderRejectsLowConfidence(t *testing.T) {
	_, ok := BuildHeader(Identification{Name: "ethanol", Confidence: 0.5})
	assert.False(t, ok)
}

func TestBuildHeaderRejectsGenericName(t *testing.T) {
	_, ok := BuildHeader(Identification{Name: "compound", Confidence: 0.9})
	assert.False(t, ok)
}

func TestBuildHeaderAcceptsConfidentSpecificName(t *testing.T) {
	header, ok := BuildHeader(Identification{Name: "glucose", Formula: "C6H12O6", Confidence: 0.8})
	require.True(t, ok)
	assert.Contains(t, header, "glucose")
}

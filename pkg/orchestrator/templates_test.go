package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSeedMetricTableScopesEachCityToItsOwnBlocks(t *testing.T) {
	searchContext := "" +
		"[1] New York average land price per square meter\n" +
		"Price: 12000 per sqm in Manhattan.\n" +
		"[2] New York median annual household income\n" +
		"Income: 65000 for NYC residents.\n" +
		"[3] New York real estate price per sqm 2024\n" +
		"Price: 12000 per sqm citywide.\n" +
		"[4] New York cost of living income statistics\n" +
		"Income: 65000 average.\n" +
		"[5] Los Angeles average land price per square meter\n" +
		"Price: 9000 per sqm in downtown LA.\n" +
		"[6] Los Angeles median annual household income\n" +
		"Income: 58000 for LA residents.\n" +
		"[7] Los Angeles real estate price per sqm 2024\n" +
		"Price: 9000 per sqm citywide.\n" +
		"[8] Los Angeles cost of living income statistics\n" +
		"Income: 58000 average.\n"

	table, ok := renderSeedMetricTable(searchContext)
	require.True(t, ok)

	assert.Contains(t, table, "| New York | 12000.00 | 65000.00 |")
	assert.Contains(t, table, "| Los Angeles | 9000.00 | 58000.00 |")
}

func TestCityBlockReturnsEmptyPastLastCity(t *testing.T) {
	searchContext := "[1] New York average land price per square meter\nPrice: 12000 per sqm.\n"
	assert.NotEmpty(t, cityBlock(searchContext, 0))
	assert.Empty(t, cityBlock(searchContext, 1))
}

package polymarket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryGammaMarket() gammaMarket {
	return gammaMarket{
		ConditionID:   "0xabc",
		Question:      "Will X happen by Friday?",
		Slug:          "will-x-happen",
		Category:      "Science",
		EndDateISO:    "2026-03-01T12:00:00Z",
		Volume:        "125000.5",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.97","0.03"]`,
		ClobTokenIDs:  `["111","222"]`,
		Active:        true,
		Events: []gammaEvent{
			{Tags: []gammaTag{{Label: "Tech"}, {Label: "AI"}}},
		},
	}
}

func TestMapGammaMarketBinary(t *testing.T) {
	m, ok := mapGammaMarket(binaryGammaMarket())
	require.True(t, ok)

	assert.Equal(t, "0xabc", m.ConditionID)
	assert.Equal(t, "111", m.TokenID) // first token is the YES side
	assert.Equal(t, "Science", m.Category)
	assert.Equal(t, []string{"Tech", "AI"}, m.Tags)
	assert.InDelta(t, 125000.5, m.Volume, 1e-9)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), m.EndDate)
	assert.Nil(t, m.ResolvedAt)
	assert.False(t, m.IsResolved())
}

func TestMapGammaMarketRejectsNonBinary(t *testing.T) {
	gm := binaryGammaMarket()
	gm.Outcomes = `["Trump","Biden","Other"]`
	_, ok := mapGammaMarket(gm)
	assert.False(t, ok)

	gm = binaryGammaMarket()
	gm.ClobTokenIDs = `[]`
	_, ok = mapGammaMarket(gm)
	assert.False(t, ok)
}

func TestMapGammaMarketResolvedInference(t *testing.T) {
	gm := binaryGammaMarket()
	gm.Closed = true
	gm.ClosedTime = "2026-03-01T11:30:00Z"
	gm.OutcomePrices = `["0.999","0.001"]`

	m, ok := mapGammaMarket(gm)
	require.True(t, ok)
	require.True(t, m.IsResolved())
	assert.Equal(t, "Yes", m.WinningOutcome)
	assert.Equal(t, 1.0, m.SettlementPrice())
	assert.Equal(t, time.Date(2026, 3, 1, 11, 30, 0, 0, time.UTC), *m.ResolvedAt)
}

func TestMapGammaMarketAmbiguousOutcomeNotResolved(t *testing.T) {
	gm := binaryGammaMarket()
	gm.Closed = true
	gm.ClosedTime = "2026-03-01T11:30:00Z"
	gm.OutcomePrices = `["0.60","0.40"]` // nadie por encima del umbral

	m, ok := mapGammaMarket(gm)
	require.True(t, ok)
	assert.Empty(t, m.WinningOutcome)
	assert.False(t, m.IsResolved())
}

func TestBestPrice(t *testing.T) {
	bids := []bookEntryRaw{
		{Price: "0.95", Size: "100"},
		{Price: "0.97", Size: "50"},
		{Price: "0.96", Size: "10"},
	}
	best, ok := bestPrice(bids, false)
	require.True(t, ok)
	assert.InDelta(t, 0.97, best, 1e-9)

	asks := []bookEntryRaw{
		{Price: "0.99", Size: "20"},
		{Price: "0.98", Size: "5"},
	}
	best, ok = bestPrice(asks, true)
	require.True(t, ok)
	assert.InDelta(t, 0.98, best, 1e-9)

	_, ok = bestPrice(nil, false)
	assert.False(t, ok)
}

func TestParseGammaTimeFormats(t *testing.T) {
	for _, s := range []string{
		"2026-03-01T12:00:00Z",
		"2026-03-01T12:00:00.000Z",
	} {
		got := parseGammaTime(s)
		assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got, s)
	}
	assert.True(t, parseGammaTime("").IsZero())
	assert.True(t, parseGammaTime("garbage").IsZero())
}

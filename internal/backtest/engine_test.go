package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tierbot/internal/domain"
	"github.com/alejandrodnm/tierbot/internal/strategy"
)

// --- helpers ---

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func resolvedMarket(tokenID string, resolvedAt time.Time, outcome string) domain.Market {
	return domain.Market{
		ConditionID:    "cond-" + tokenID,
		TokenID:        tokenID,
		Question:       "Will the thing happen?",
		Category:       "Science",
		EndDate:        resolvedAt,
		ResolvedAt:     &resolvedAt,
		WinningOutcome: outcome,
	}
}

func series(start time.Time, prices ...float64) []domain.PricePoint {
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{Timestamp: start.Add(time.Duration(i) * time.Minute), Price: p}
	}
	return out
}

// --- tests ---

func TestRunTakeProfitRoundTrip(t *testing.T) {
	// Tick 0 is below the band, tick 1 enters, tick 2 hits take-profit.
	resolved := baseTime.Add(6 * time.Hour)
	market := resolvedMarket("tok-tp", resolved, "Yes")
	prices := series(baseTime, 0.930, 0.950, 0.991)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-tp": prices,
	})

	require.Equal(t, 1, res.MarketsScanned)
	require.Len(t, res.Trades, 1)

	trade := res.Trades[0]
	assert.Equal(t, "TierA", trade.TierName)
	assert.InDelta(t, 0.951, trade.EntryPrice, 1e-9) // observed + tick improvement
	assert.Equal(t, baseTime.Add(1*time.Minute), trade.EntryTime)

	require.NotNil(t, trade.ExitPrice)
	assert.InDelta(t, 0.99, *trade.ExitPrice, 1e-9) // fills at the threshold, not 0.991
	assert.Equal(t, domain.ExitTakeProfit, trade.ExitReason)
	assert.Equal(t, baseTime.Add(2*time.Minute), *trade.ExitTime)

	// Maker in, maker out: zero fees, so PnL is pure price difference.
	assert.Zero(t, trade.FeesPaid)
	assert.Greater(t, trade.PnL(), 0.0)
	assert.Greater(t, res.FinalValue, 10_000.0)
}

func TestRunHardStopConfirmation(t *testing.T) {
	// Enter at 0.95, breach at 0.80 (arms the trigger), confirm at 0.80 with
	// no rebound in the look-ahead. Exit at observed − slippage = 0.79.
	resolved := baseTime.Add(6 * time.Hour)
	market := resolvedMarket("tok-hs", resolved, "No")
	prices := series(baseTime, 0.950, 0.800, 0.800, 0.790)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-hs": prices,
	})

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]

	assert.Equal(t, domain.ExitHardStop, trade.ExitReason)
	require.NotNil(t, trade.ExitPrice)
	assert.InDelta(t, 0.79, *trade.ExitPrice, 1e-9)
	assert.Equal(t, baseTime.Add(2*time.Minute), *trade.ExitTime)

	// Taker exit pays the fee.
	assert.Greater(t, trade.FeesPaid, 0.0)
	assert.Less(t, trade.PnL(), 0.0)
}

func TestRunHardStopRebound(t *testing.T) {
	// Breach arms at tick 1, but the look-ahead from tick 2 shows a rebound
	// above hardStop + margin — trigger clears, the position survives to
	// settlement.
	resolved := baseTime.Add(6 * time.Hour)
	market := resolvedMarket("tok-rb", resolved, "Yes")
	prices := series(baseTime, 0.950, 0.800, 0.800, 0.870, 0.900)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-rb": prices,
	})

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, domain.ExitSettledWin, trade.ExitReason)
	require.NotNil(t, trade.ExitPrice)
	assert.Equal(t, 1.0, *trade.ExitPrice)
}

func TestRunForceSettlementLoss(t *testing.T) {
	resolved := baseTime.Add(3 * time.Hour)
	market := resolvedMarket("tok-loss", resolved, "No")
	prices := series(baseTime, 0.960, 0.955)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-loss": prices,
	})

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, domain.ExitSettledLoss, trade.ExitReason)
	assert.Equal(t, 0.0, *trade.ExitPrice)
	assert.Equal(t, resolved, *trade.ExitTime)

	// Full loss of the invested amount.
	assert.InDelta(t, -trade.Investment, trade.PnL(), 1e-9)
}

func TestRunSkipsTicksPastResolution(t *testing.T) {
	// All ticks are after ResolvedAt — nothing should ever enter.
	resolved := baseTime.Add(-1 * time.Hour)
	market := resolvedMarket("tok-late", resolved, "Yes")
	prices := series(baseTime, 0.950, 0.960)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-late": prices,
	})

	assert.Equal(t, 1, res.MarketsScanned)
	assert.Empty(t, res.Trades)
	assert.Equal(t, 10_000.0, res.FinalValue)
}

func TestRunSkipsMarketsWithoutData(t *testing.T) {
	resolved := baseTime.Add(6 * time.Hour)
	noPrices := resolvedMarket("tok-nop", resolved, "Yes")
	unresolved := domain.Market{
		ConditionID: "cond-unres",
		TokenID:     "tok-unres",
		EndDate:     resolved,
	}

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run(
		[]domain.Market{noPrices, unresolved},
		map[string][]domain.PricePoint{
			"tok-unres": series(baseTime, 0.950),
		},
	)

	assert.Equal(t, 0, res.MarketsScanned)
	assert.Equal(t, 2, res.MarketsSkipped)
	assert.Empty(t, res.Trades)
}

func TestRunSameTickReentry(t *testing.T) {
	// TP exit at tick 2 frees the slot; the same tick's price (0.991) is
	// outside the band, so re-entry must wait for tick 3 back in range.
	resolved := baseTime.Add(6 * time.Hour)
	market := resolvedMarket("tok-re", resolved, "Yes")
	prices := series(baseTime, 0.950, 0.960, 0.991, 0.950, 0.991)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-re": prices,
	})

	require.Len(t, res.Trades, 2)
	assert.Equal(t, domain.ExitTakeProfit, res.Trades[0].ExitReason)
	assert.Equal(t, domain.ExitTakeProfit, res.Trades[1].ExitReason)
	assert.Equal(t, baseTime.Add(3*time.Minute), res.Trades[1].EntryTime)
}

func TestRunTakeProfitBeatsHardStop(t *testing.T) {
	// A price at the TP threshold can never also be below the hard stop, but
	// ordering still matters for the state machine: an armed trigger must not
	// shadow a later take-profit.
	resolved := baseTime.Add(6 * time.Hour)
	market := resolvedMarket("tok-ord", resolved, "Yes")
	prices := series(baseTime, 0.950, 0.840, 0.870, 0.995)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-ord": prices,
	})

	require.Len(t, res.Trades, 1)
	assert.Equal(t, domain.ExitTakeProfit, res.Trades[0].ExitReason)
}

func TestRunCashConservation(t *testing.T) {
	resolved := baseTime.Add(6 * time.Hour)
	market := resolvedMarket("tok-cash", resolved, "Yes")
	prices := series(baseTime, 0.950, 0.991)

	eng := New(strategy.New(strategy.Default()), 10_000)
	res := eng.Run([]domain.Market{market}, map[string][]domain.PricePoint{
		"tok-cash": prices,
	})

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.InDelta(t, 10_000.0+trade.PnL(), res.FinalValue, 1e-9)
	assert.Empty(t, eng.Ledger().OpenPositions())
}

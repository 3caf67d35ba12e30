package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// --- mocks ---

type mockPriceProvider struct {
	prices map[string]float64 // tokenID -> current price; missing = no data
	bids   map[string]float64
}

func (m *mockPriceProvider) FetchPriceHistory(_ context.Context, _ string) ([]domain.PricePoint, error) {
	return nil, nil
}

func (m *mockPriceProvider) FetchCurrentPrice(_ context.Context, tokenID string) (float64, bool, error) {
	p, ok := m.prices[tokenID]
	return p, ok, nil
}

func (m *mockPriceProvider) FetchBestBid(_ context.Context, tokenID string) (float64, bool, error) {
	p, ok := m.bids[tokenID]
	return p, ok, nil
}

// --- tests ---

func TestMonitorTakeProfitExit(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)
	prices := &mockPriceProvider{prices: map[string]float64{"tok-1": 0.992}}
	mon := NewMonitor(exec.strat, led, exec, &mockMarketProvider{}, prices, time.Second)

	ctx := context.Background()
	_, err := exec.TryEnter(ctx, activeMarket("tok-1"), 0.950, 6)
	require.NoError(t, err)

	mon.checkPositions(ctx)

	closed := led.ClosedPositions()
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitTakeProfit, closed[0].ExitReason)
	assert.InDelta(t, 0.99, *closed[0].ExitPrice, 1e-9)
}

func TestMonitorHardStopNeedsTwoPolls(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)
	prices := &mockPriceProvider{prices: map[string]float64{"tok-1": 0.80}}
	mon := NewMonitor(exec.strat, led, exec, &mockMarketProvider{}, prices, time.Second)

	ctx := context.Background()
	_, err := exec.TryEnter(ctx, activeMarket("tok-1"), 0.950, 6)
	require.NoError(t, err)

	// First poll below the hard stop only arms the trigger.
	mon.checkPositions(ctx)
	open := led.OpenPositions()
	require.Len(t, open, 1)
	assert.NotNil(t, open[0].SoftStopTriggeredAt)

	// Second poll still below confirms the exit.
	mon.checkPositions(ctx)
	closed := led.ClosedPositions()
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitHardStop, closed[0].ExitReason)
	assert.InDelta(t, 0.79, *closed[0].ExitPrice, 1e-9)
}

func TestMonitorStopTriggerClearsOnRecovery(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)
	prices := &mockPriceProvider{prices: map[string]float64{"tok-1": 0.80}}
	mon := NewMonitor(exec.strat, led, exec, &mockMarketProvider{}, prices, time.Second)

	ctx := context.Background()
	_, err := exec.TryEnter(ctx, activeMarket("tok-1"), 0.950, 6)
	require.NoError(t, err)

	mon.checkPositions(ctx)
	require.NotNil(t, led.OpenPositions()[0].SoftStopTriggeredAt)

	// Price back at the hard stop level reverts to normal.
	prices.prices["tok-1"] = 0.86
	mon.checkPositions(ctx)

	open := led.OpenPositions()
	require.Len(t, open, 1)
	assert.Nil(t, open[0].SoftStopTriggeredAt)
	assert.Empty(t, led.ClosedPositions())
}

func TestMonitorMissingPriceIsNoOp(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)
	prices := &mockPriceProvider{prices: map[string]float64{}}
	mon := NewMonitor(exec.strat, led, exec, &mockMarketProvider{}, prices, time.Second)

	ctx := context.Background()
	_, err := exec.TryEnter(ctx, activeMarket("tok-1"), 0.950, 6)
	require.NoError(t, err)

	mon.checkPositions(ctx)

	assert.Len(t, led.OpenPositions(), 1)
	assert.Empty(t, led.ClosedPositions())
}

func TestMonitorSettlesResolvedMarket(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)
	market := activeMarket("tok-1")

	// Resolution lands between polls: the refreshed market carries the
	// outcome while the position's entry-time snapshot stays unresolved.
	resolvedAt := time.Now().UTC()
	resolved := market
	resolved.ResolvedAt = &resolvedAt
	resolved.WinningOutcome = "Yes"

	markets := &mockMarketProvider{byID: map[string]domain.Market{
		market.ConditionID: resolved,
	}}
	prices := &mockPriceProvider{prices: map[string]float64{"tok-1": 0.97}}
	mon := NewMonitor(exec.strat, led, exec, markets, prices, time.Second)

	ctx := context.Background()
	_, err := exec.TryEnter(ctx, market, 0.950, 6)
	require.NoError(t, err)

	mon.checkPositions(ctx)

	closed := led.ClosedPositions()
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitSettledWin, closed[0].ExitReason)
	assert.Equal(t, 1.0, *closed[0].ExitPrice)
}

func TestMonitorRefreshFailureStillChecksPrices(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)

	// The resolution refresh errors out, but a take-profit price must still
	// close the position on the same poll.
	markets := &mockMarketProvider{err: errors.New("gamma timeout")}
	prices := &mockPriceProvider{prices: map[string]float64{"tok-1": 0.995}}
	mon := NewMonitor(exec.strat, led, exec, markets, prices, time.Second)

	ctx := context.Background()
	_, err := exec.TryEnter(ctx, activeMarket("tok-1"), 0.950, 6)
	require.NoError(t, err)

	mon.checkPositions(ctx)

	closed := led.ClosedPositions()
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ExitTakeProfit, closed[0].ExitReason)
}

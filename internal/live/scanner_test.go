package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// --- mocks ---

type mockMarketProvider struct {
	active []domain.Market
	byID   map[string]domain.Market // FetchMarket lookups by condition ID
	err    error
}

func (m *mockMarketProvider) FetchResolvedMarkets(_ context.Context) ([]domain.Market, error) {
	return nil, nil
}

func (m *mockMarketProvider) FetchActiveMarkets(_ context.Context) ([]domain.Market, error) {
	return m.active, m.err
}

func (m *mockMarketProvider) FetchMarket(_ context.Context, conditionID string) (domain.Market, bool, error) {
	if m.err != nil {
		return domain.Market{}, false, m.err
	}
	mk, ok := m.byID[conditionID]
	return mk, ok, nil
}

// --- tests ---

func TestScannerOpensEligibleMarkets(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)

	inBand := activeMarket("tok-in")
	outOfBand := activeMarket("tok-out")
	noBook := activeMarket("tok-thin")

	markets := &mockMarketProvider{active: []domain.Market{inBand, outOfBand, noBook}}
	prices := &mockPriceProvider{bids: map[string]float64{
		"tok-in":  0.955,
		"tok-out": 0.500,
	}}
	scanner := NewScanner(markets, prices, exec, time.Second)

	scanner.scanOnce(context.Background())

	open := led.OpenPositions()
	require.Len(t, open, 1)
	assert.Equal(t, "tok-in", open[0].Market.TokenID)
}

func TestScannerSkipsExpiredMarkets(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)

	expired := activeMarket("tok-exp")
	expired.EndDate = time.Now().UTC().Add(-1 * time.Hour)

	markets := &mockMarketProvider{active: []domain.Market{expired}}
	prices := &mockPriceProvider{bids: map[string]float64{"tok-exp": 0.955}}
	scanner := NewScanner(markets, prices, exec, time.Second)

	scanner.scanOnce(context.Background())

	assert.Empty(t, led.OpenPositions())
}

func TestScannerStopsOnCancelledContext(t *testing.T) {
	client := &mockOrderClient{}
	exec, led, _ := newTestExecutor(client)

	markets := &mockMarketProvider{active: []domain.Market{activeMarket("tok-1")}}
	prices := &mockPriceProvider{bids: map[string]float64{"tok-1": 0.955}}
	scanner := NewScanner(markets, prices, exec, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scanner.scanOnce(ctx)

	assert.Empty(t, led.OpenPositions())
}

package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func openPosition(id, tokenID string, investment, entryPrice float64) domain.Position {
	return domain.Position{
		ID:         id,
		Market:     domain.Market{ConditionID: "cond-" + id, TokenID: tokenID},
		TierName:   "TierA",
		EntryPrice: entryPrice,
		EntryTime:  t0,
		Shares:     investment / entryPrice,
		Investment: investment,
	}
}

func TestOpenDebitsCash(t *testing.T) {
	led := New(1_000, 0, 0.005)
	require.NoError(t, led.Open(openPosition("p1", "tok-1", 50, 0.95)))

	assert.InDelta(t, 950, led.Cash(), 1e-9)
	assert.InDelta(t, 50, led.TotalExposure(), 1e-9)
	assert.InDelta(t, 1_000, led.TotalValue(), 1e-9)
	assert.Len(t, led.OpenPositions(), 1)
}

func TestOpenRejectsInsufficientCash(t *testing.T) {
	led := New(40, 0, 0.005)
	err := led.Open(openPosition("p1", "tok-1", 50, 0.95))
	require.Error(t, err)
	assert.Equal(t, 40.0, led.Cash())
	assert.Empty(t, led.OpenPositions())
}

func TestCloseMakerZeroFee(t *testing.T) {
	led := New(1_000, 0, 0.005)
	pos := openPosition("p1", "tok-1", 50, 0.95)
	require.NoError(t, led.Open(pos))

	closed, err := led.Close("p1", 0.99, t0.Add(time.Hour), domain.ExitTakeProfit)
	require.NoError(t, err)

	exitValue := pos.Shares * 0.99
	assert.InDelta(t, 950+exitValue, led.Cash(), 1e-9)
	assert.Zero(t, closed.FeesPaid)
	assert.InDelta(t, (0.99-0.95)*pos.Shares, closed.PnL(), 1e-9)

	assert.Empty(t, led.OpenPositions())
	assert.Len(t, led.ClosedPositions(), 1)
}

func TestCloseTakerFee(t *testing.T) {
	led := New(1_000, 0, 0.005)
	pos := openPosition("p1", "tok-1", 50, 0.95)
	require.NoError(t, led.Open(pos))

	closed, err := led.Close("p1", 0.79, t0.Add(time.Hour), domain.ExitHardStop)
	require.NoError(t, err)

	exitValue := pos.Shares * 0.79
	fee := exitValue * 0.005
	assert.InDelta(t, 950+exitValue-fee, led.Cash(), 1e-9)
	assert.InDelta(t, fee, closed.FeesPaid, 1e-9)
	assert.InDelta(t, (0.79-0.95)*pos.Shares-fee, closed.PnL(), 1e-9)
}

func TestCloseZeroFeeRoundTripIsFlat(t *testing.T) {
	// Salir al precio de entrada sin fees deja el PnL exactamente en cero.
	led := New(1_000, 0, 0.005)
	pos := openPosition("p1", "tok-1", 50, 0.95)
	require.NoError(t, led.Open(pos))

	closed, err := led.Close("p1", 0.95, t0.Add(time.Hour), domain.ExitTakeProfit)
	require.NoError(t, err)
	assert.InDelta(t, 0, closed.PnL(), 1e-12)
	assert.InDelta(t, 1_000, led.Cash(), 1e-9)
}

func TestCloseUnknownPosition(t *testing.T) {
	led := New(1_000, 0, 0.005)
	_, err := led.Close("nope", 0.99, t0, domain.ExitTakeProfit)
	assert.Error(t, err)
}

func TestCloseTwiceFails(t *testing.T) {
	led := New(1_000, 0, 0.005)
	require.NoError(t, led.Open(openPosition("p1", "tok-1", 50, 0.95)))

	_, err := led.Close("p1", 0.99, t0, domain.ExitTakeProfit)
	require.NoError(t, err)
	_, err = led.Close("p1", 0.99, t0, domain.ExitTakeProfit)
	assert.Error(t, err)
	assert.Len(t, led.ClosedPositions(), 1)
}

func TestSoftStopRoundTrip(t *testing.T) {
	led := New(1_000, 0, 0.005)
	require.NoError(t, led.Open(openPosition("p1", "tok-1", 50, 0.95)))

	ts := t0.Add(time.Minute)
	require.NoError(t, led.SetSoftStop("p1", &ts))
	assert.NotNil(t, led.OpenPositions()[0].SoftStopTriggeredAt)

	require.NoError(t, led.SetSoftStop("p1", nil))
	assert.Nil(t, led.OpenPositions()[0].SoftStopTriggeredAt)

	assert.Error(t, led.SetSoftStop("missing", nil))
}

func TestOpenByToken(t *testing.T) {
	led := New(1_000, 0, 0.005)
	require.NoError(t, led.Open(openPosition("p1", "tok-1", 50, 0.95)))

	pos, ok := led.OpenByToken("tok-1")
	require.True(t, ok)
	assert.Equal(t, "p1", pos.ID)

	_, ok = led.OpenByToken("tok-2")
	assert.False(t, ok)
}

func TestEquityCurveSampledOnClose(t *testing.T) {
	led := New(1_000, 0, 0.005)
	require.NoError(t, led.Open(openPosition("p1", "tok-1", 50, 0.95)))
	_, err := led.Close("p1", 0.99, t0.Add(time.Hour), domain.ExitTakeProfit)
	require.NoError(t, err)

	curve := led.EquityCurve()
	require.Len(t, curve, 1)
	assert.Equal(t, t0.Add(time.Hour), curve[0].Timestamp)
	assert.InDelta(t, led.TotalValue(), curve[0].Value, 1e-9)
}

func TestAttachOrders(t *testing.T) {
	led := New(1_000, 0, 0.005)
	require.NoError(t, led.Open(openPosition("p1", "tok-1", 50, 0.95)))

	require.NoError(t, led.AttachOrders("p1", "buy-1", "tp-1"))
	pos := led.OpenPositions()[0]
	assert.Equal(t, "buy-1", pos.EntryOrderID)
	assert.Equal(t, "tp-1", pos.TPOrderID)
}

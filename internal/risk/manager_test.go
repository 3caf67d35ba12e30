package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

func TestTripOnAbsoluteLoss(t *testing.T) {
	m := New(10_000, DefaultLimits())
	require.True(t, m.CanOpen())

	m.RecordTrade(-499.99)
	assert.True(t, m.CanOpen())

	m.RecordTrade(-0.01) // realized = -500 exactly
	assert.False(t, m.CanOpen())
}

func TestTripOnPctLoss(t *testing.T) {
	// Con capital pequeño el límite porcentual salta antes que el absoluto.
	m := New(1_000, DefaultLimits())

	m.RecordTrade(-99.99)
	assert.True(t, m.CanOpen())

	m.RecordTrade(-0.01) // -100 = 10% of 1000
	assert.False(t, m.CanOpen())
}

func TestTripOnConsecutiveLosses(t *testing.T) {
	m := New(1_000_000, DefaultLimits())

	for i := 0; i < 9; i++ {
		m.RecordTrade(-1)
	}
	assert.True(t, m.CanOpen())

	m.RecordTrade(-1)
	assert.False(t, m.CanOpen())
}

func TestBreakevenCountsAsLoss(t *testing.T) {
	m := New(1_000_000, DefaultLimits())
	for i := 0; i < 10; i++ {
		m.RecordTrade(0)
	}
	assert.False(t, m.CanOpen())
}

func TestWinResetsCounterNotBreaker(t *testing.T) {
	m := New(1_000_000, DefaultLimits())

	for i := 0; i < 9; i++ {
		m.RecordTrade(-1)
	}
	m.RecordTrade(5)
	assert.Equal(t, 0, m.Snapshot().ConsecutiveLosses)
	assert.True(t, m.CanOpen())

	for i := 0; i < 10; i++ {
		m.RecordTrade(-1)
	}
	require.False(t, m.CanOpen())

	// A win after tripping does not re-arm entries.
	m.RecordTrade(100)
	assert.False(t, m.CanOpen())
	assert.Equal(t, 0, m.Snapshot().ConsecutiveLosses)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := New(10_000, DefaultLimits())
	m.RecordTrade(-30)
	m.RecordTrade(-20)
	m.RecordTrade(10)
	snap := m.Snapshot()

	fresh := New(10_000, DefaultLimits())
	fresh.Restore(snap)

	got := fresh.Snapshot()
	assert.Equal(t, snap.RealizedPnL, got.RealizedPnL)
	assert.Equal(t, snap.ConsecutiveLosses, got.ConsecutiveLosses)
	assert.Equal(t, snap.TotalTrades, got.TotalTrades)
	assert.Equal(t, snap.Tripped, got.Tripped)
}

func TestRestoreTrippedState(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := New(10_000, DefaultLimits())
	m.Restore(domain.RiskState{
		RealizedPnL:       -600,
		ConsecutiveLosses: 3,
		TotalTrades:       40,
		Tripped:           true,
		TrippedAt:         &ts,
	})
	assert.False(t, m.CanOpen())
	assert.Contains(t, m.StatusText(), "TRIPPED")
}

func TestReset(t *testing.T) {
	m := New(1_000_000, DefaultLimits())
	for i := 0; i < 10; i++ {
		m.RecordTrade(-1)
	}
	require.False(t, m.CanOpen())

	m.Reset()
	assert.True(t, m.CanOpen())
	snap := m.Snapshot()
	assert.Equal(t, 0, snap.ConsecutiveLosses)
	assert.Nil(t, snap.TrippedAt)
	// Realized PnL is history, not breaker state — it survives the reset.
	assert.InDelta(t, -10, snap.RealizedPnL, 1e-9)
}

func TestStatusText(t *testing.T) {
	m := New(10_000, DefaultLimits())
	assert.Equal(t, "Risk[OK] pnl=$+0.00 trades=0 consec_losses=0", m.StatusText())

	m.RecordTrade(-12.5)
	assert.Equal(t, "Risk[OK] pnl=$-12.50 trades=1 consec_losses=1", m.StatusText())
}

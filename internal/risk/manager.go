package risk

// manager.go — Circuit breaker over the realized PnL stream.
//
// Tripping is a deliberate entry-gating state change, not an error. Once
// tripped, only an explicit manual Reset clears the flag — a winning trade
// resets the consecutive-loss counter but never un-trips the breaker.

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// Limits configure when the breaker trips.
type Limits struct {
	MaxLossUSD           float64 // absolute realized loss
	MaxLossPct           float64 // realized loss relative to initial capital
	MaxConsecutiveLosses int
}

// DefaultLimits mirror the live-trading defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxLossUSD:           500,
		MaxLossPct:           0.10,
		MaxConsecutiveLosses: 10,
	}
}

// Manager tracks realized PnL and gates new entries once a limit is breached.
type Manager struct {
	mu sync.Mutex

	initialCapital    float64
	limits            Limits
	realizedPnL       float64
	consecutiveLosses int
	totalTrades       int
	tripped           bool
	trippedAt         *time.Time
}

// New creates a risk manager for the given starting capital.
func New(initialCapital float64, limits Limits) *Manager {
	return &Manager{initialCapital: initialCapital, limits: limits}
}

// RecordTrade records one completed trade's PnL and re-evaluates the breaker.
// A non-positive PnL counts as a loss for the consecutive counter.
func (m *Manager) RecordTrade(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.realizedPnL += pnl
	m.totalTrades++

	if pnl <= 0 {
		m.consecutiveLosses++
	} else {
		m.consecutiveLosses = 0
	}

	if !m.tripped && m.shouldTripLocked() {
		now := time.Now().UTC()
		m.tripped = true
		m.trippedAt = &now
		slog.Warn("risk: CIRCUIT BREAKER TRIPPED",
			"realized_pnl", fmt.Sprintf("$%.2f", m.realizedPnL),
			"consecutive_losses", m.consecutiveLosses,
			"total_trades", m.totalTrades,
		)
	}
}

func (m *Manager) shouldTripLocked() bool {
	if m.realizedPnL <= -m.limits.MaxLossUSD {
		return true
	}
	if m.initialCapital > 0 && m.realizedPnL < 0 {
		if -m.realizedPnL/m.initialCapital >= m.limits.MaxLossPct {
			return true
		}
	}
	return m.consecutiveLosses >= m.limits.MaxConsecutiveLosses
}

// CanOpen reports whether new entries are allowed.
func (m *Manager) CanOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.tripped
}

// Snapshot returns the current risk state for persistence and reporting.
func (m *Manager) Snapshot() domain.RiskState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.RiskState{
		InitialCapital:    m.initialCapital,
		RealizedPnL:       m.realizedPnL,
		ConsecutiveLosses: m.consecutiveLosses,
		TotalTrades:       m.totalTrades,
		Tripped:           m.tripped,
		TrippedAt:         m.trippedAt,
	}
}

// Restore loads a previously persisted risk state. Limits are kept from
// construction — only counters and the trip flag carry over.
func (m *Manager) Restore(state domain.RiskState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.realizedPnL = state.RealizedPnL
	m.consecutiveLosses = state.ConsecutiveLosses
	m.totalTrades = state.TotalTrades
	m.tripped = state.Tripped
	m.trippedAt = state.TrippedAt
}

// StatusText is a one-line human-readable summary.
func (m *Manager) StatusText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "OK"
	if m.tripped {
		status = "TRIPPED"
	}
	return fmt.Sprintf("Risk[%s] pnl=$%+.2f trades=%d consec_losses=%d",
		status, m.realizedPnL, m.totalTrades, m.consecutiveLosses)
}

// Reset clears the trip flag and the consecutive-loss counter. Manual
// intervention only — nothing in the engines calls this.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tripped = false
	m.trippedAt = nil
	m.consecutiveLosses = 0
	slog.Info("risk: circuit breaker reset manually")
}

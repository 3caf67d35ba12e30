package domain

import "time"

// ExitReason is the closed set of ways a position can be closed.
type ExitReason string

const (
	ExitTakeProfit  ExitReason = "take_profit"
	ExitSoftStop    ExitReason = "soft_stop" // defined for completeness; the state machine always escalates or recovers
	ExitHardStop    ExitReason = "hard_stop"
	ExitSettledWin  ExitReason = "settled_win"
	ExitSettledLoss ExitReason = "settled_loss"
)

// IsTaker reports whether this exit crosses the book and pays the taker fee.
// Only confirmed hard stops exit via market order; everything else rests.
func (r ExitReason) IsTaker() bool {
	return r == ExitHardStop
}

// Position is a single YES-token holding in one market. Owned exclusively by
// the ledger while open; once closed it is never mutated again.
type Position struct {
	ID         string // UUID (local tracking)
	Market     Market
	TierName   string
	EntryPrice float64
	EntryTime  time.Time
	Shares     float64
	Investment float64 // USDC debited at entry
	FeesPaid   float64 // accumulated entry + exit fees

	ExitPrice  *float64
	ExitTime   *time.Time
	ExitReason ExitReason

	// SoftStopTriggeredAt non-nil means a stop breach was observed and the
	// position is awaiting the confirming observation (or a rebound).
	SoftStopTriggeredAt *time.Time

	// Live order tracking
	EntryOrderID string
	TPOrderID    string
	ExitOrderID  string
}

// IsOpen reports whether the position has not been closed yet.
func (p Position) IsOpen() bool {
	return p.ExitPrice == nil
}

// PnL is the realized profit/loss. Zero while the position is open.
func (p Position) PnL() float64 {
	if p.ExitPrice == nil {
		return 0
	}
	return (*p.ExitPrice-p.EntryPrice)*p.Shares - p.FeesPaid
}

// PnLPct is the realized PnL relative to the invested amount.
func (p Position) PnLPct() float64 {
	if p.Investment == 0 {
		return 0
	}
	return p.PnL() / p.Investment
}

// HoldingHours is the time between entry and exit, 0 while open.
func (p Position) HoldingHours() float64 {
	if p.ExitTime == nil {
		return 0
	}
	return p.ExitTime.Sub(p.EntryTime).Hours()
}

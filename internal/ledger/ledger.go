package ledger

// ledger.go — Portfolio state: cash, open/closed positions, equity curve.
//
// All access is serialized behind a single mutex. In live mode two loops
// (scanner and monitor) hit this state concurrently; compound check-then-act
// sequences additionally serialize through the executor. Value between events
// is mark-to-cost: cash + invested amounts, never mark-to-market.

import (
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// EquityPoint is one (timestamp, total value) sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Value     float64
}

// Ledger owns the portfolio. Positions are moved from open to closed exactly
// once and are immutable afterwards.
type Ledger struct {
	mu sync.Mutex

	initialCapital float64
	cash           float64
	open           []domain.Position
	closed         []domain.Position
	equity         []EquityPoint

	takerFeeRate float64
	makerFeeRate float64
}

// New creates a ledger with the given starting capital and fee schedule.
func New(initialCapital, makerFeeRate, takerFeeRate float64) *Ledger {
	return &Ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		makerFeeRate:   makerFeeRate,
		takerFeeRate:   takerFeeRate,
	}
}

// Open debits the position's investment from cash and adds it to the open
// set. The position must be open (no exit fields set).
func (l *Ledger) Open(pos domain.Position) error {
	if !pos.IsOpen() {
		return fmt.Errorf("ledger.Open: position %s already closed", pos.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if pos.Investment > l.cash {
		return fmt.Errorf("ledger.Open: investment $%.2f exceeds cash $%.2f", pos.Investment, l.cash)
	}

	l.cash -= pos.Investment
	l.open = append(l.open, pos)
	return nil
}

// Close settles the position at exitPrice: computes the exit fee, credits
// cash with (exit value − fee), and moves the position to the closed set.
// Returns the closed position.
func (l *Ledger) Close(positionID string, exitPrice float64, exitTime time.Time, reason domain.ExitReason) (domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.open {
		if l.open[i].ID == positionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Position{}, fmt.Errorf("ledger.Close: position %s not open", positionID)
	}

	pos := l.open[idx]

	feeRate := l.makerFeeRate
	if reason.IsTaker() {
		feeRate = l.takerFeeRate
	}
	exitValue := pos.Shares * exitPrice
	fee := exitValue * feeRate

	pos.ExitPrice = &exitPrice
	pos.ExitTime = &exitTime
	pos.ExitReason = reason
	pos.FeesPaid += fee

	l.cash += exitValue - fee
	l.open = append(l.open[:idx], l.open[idx+1:]...)
	l.closed = append(l.closed, pos)
	l.equity = append(l.equity, EquityPoint{
		Timestamp: exitTime,
		Value:     l.totalValueLocked(),
	})

	return pos, nil
}

// SetSoftStop updates the soft-stop trigger timestamp of an open position.
// nil clears the trigger (rebound recovery).
func (l *Ledger) SetSoftStop(positionID string, at *time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.open {
		if l.open[i].ID == positionID {
			l.open[i].SoftStopTriggeredAt = at
			return nil
		}
	}
	return fmt.Errorf("ledger.SetSoftStop: position %s not open", positionID)
}

// AttachOrders records the live order IDs on an open position.
func (l *Ledger) AttachOrders(positionID, entryOrderID, tpOrderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.open {
		if l.open[i].ID == positionID {
			l.open[i].EntryOrderID = entryOrderID
			l.open[i].TPOrderID = tpOrderID
			return nil
		}
	}
	return fmt.Errorf("ledger.AttachOrders: position %s not open", positionID)
}

// OpenPositions returns a copy of the open position set.
func (l *Ledger) OpenPositions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Position, len(l.open))
	copy(out, l.open)
	return out
}

// ClosedPositions returns a copy of the realized-trade log, in close order.
func (l *Ledger) ClosedPositions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Position, len(l.closed))
	copy(out, l.closed)
	return out
}

// OpenByToken returns the open position holding tokenID, if any.
func (l *Ledger) OpenByToken(tokenID string) (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.open {
		if p.Market.TokenID == tokenID {
			return p, true
		}
	}
	return domain.Position{}, false
}

// Cash returns the current free cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// InitialCapital returns the starting capital.
func (l *Ledger) InitialCapital() float64 {
	return l.initialCapital
}

// TotalExposure is the sum of invested amounts across open positions.
func (l *Ledger) TotalExposure() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exposureLocked()
}

// TotalValue is cash + open exposure (mark-to-cost).
func (l *Ledger) TotalValue() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalValueLocked()
}

// EquityCurve returns a copy of the equity samples, one per closed trade.
func (l *Ledger) EquityCurve() []EquityPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EquityPoint, len(l.equity))
	copy(out, l.equity)
	return out
}

// MarkEquity appends an equity sample at the given time, for callers that
// want samples outside of trade closes (e.g. a settlement sweep).
func (l *Ledger) MarkEquity(at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.equity = append(l.equity, EquityPoint{Timestamp: at, Value: l.totalValueLocked()})
}

func (l *Ledger) exposureLocked() float64 {
	var total float64
	for _, p := range l.open {
		total += p.Investment
	}
	return total
}

func (l *Ledger) totalValueLocked() float64 {
	return l.cash + l.exposureLocked()
}

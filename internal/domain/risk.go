package domain

import "time"

// RiskState is the persisted snapshot of the circuit breaker.
type RiskState struct {
	InitialCapital    float64
	RealizedPnL       float64
	ConsecutiveLosses int
	TotalTrades       int
	Tripped           bool
	TrippedAt         *time.Time
}

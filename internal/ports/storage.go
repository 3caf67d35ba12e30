package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// TradeJournal persists closed trades, equity samples, and risk state so a
// run can be inspected afterwards and the circuit breaker survives restarts.
type TradeJournal interface {
	SaveTrade(ctx context.Context, pos domain.Position) error
	SaveEquityPoint(ctx context.Context, at time.Time, value float64) error
	GetTrades(ctx context.Context) ([]domain.Position, error)

	SaveRiskState(ctx context.Context, state domain.RiskState) error
	LoadRiskState(ctx context.Context) (domain.RiskState, bool, error)

	Close() error
}

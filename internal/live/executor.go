package live

// executor.go — Serialized order execution shared by the scanner and monitor
// loops.
//
// The ledger protects individual operations, but entry and exit are compound
// check-then-act sequences (eligibility check, order placement, ledger
// mutation). The executor's mutex makes each sequence atomic with respect to
// the other loop, so two concurrent entries can never both pass the cash or
// category checks against the same stale view.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tierbot/internal/domain"
	"github.com/alejandrodnm/tierbot/internal/ledger"
	"github.com/alejandrodnm/tierbot/internal/ports"
	"github.com/alejandrodnm/tierbot/internal/risk"
	"github.com/alejandrodnm/tierbot/internal/strategy"
)

// Executor turns strategy decisions into orders and ledger mutations.
type Executor struct {
	mu sync.Mutex

	strat   strategy.Strategy
	ledger  *ledger.Ledger
	riskMgr *risk.Manager
	client  ports.OrderClient
	journal ports.TradeJournal
}

// NewExecutor wires the executor. journal may be nil (no persistence).
func NewExecutor(
	strat strategy.Strategy,
	led *ledger.Ledger,
	riskMgr *risk.Manager,
	client ports.OrderClient,
	journal ports.TradeJournal,
) *Executor {
	return &Executor{
		strat:   strat,
		ledger:  led,
		riskMgr: riskMgr,
		client:  client,
		journal: journal,
	}
}

// TryEnter evaluates entry eligibility for a market at the observed price and,
// if eligible, places the entry buy and the resting take-profit sell. Returns
// true if a position was opened. A rejected or failed buy aborts cleanly with
// no ledger mutation.
func (e *Executor) TryEnter(ctx context.Context, market domain.Market, price, hoursToRes float64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.riskMgr.CanOpen() {
		return false, nil
	}

	tier := e.strat.EntryEligible(market, price, hoursToRes,
		e.ledger.OpenPositions(), e.ledger.Cash())
	if tier == nil {
		return false, nil
	}

	entryPrice := e.strat.EntryPrice(price, tier.PriceHigh)
	investment := tier.PositionSize
	shares := investment / entryPrice

	buyRes, err := e.client.PlaceOrder(ctx, domain.OrderRequest{
		TokenID:  market.TokenID,
		Side:     domain.SideBuy,
		Price:    entryPrice,
		Size:     shares,
		Type:     domain.OrderGTC,
		PostOnly: true,
	})
	if err != nil {
		return false, fmt.Errorf("live.TryEnter: place buy: %w", err)
	}
	if buyRes.Failed() {
		slog.Warn("live: entry buy rejected",
			"market", domain.TruncateQuestion(market.Question, market.ConditionID, 60),
			"price", entryPrice,
		)
		return false, nil
	}

	pos := domain.Position{
		ID:         uuid.New().String(),
		Market:     market,
		TierName:   tier.Name,
		EntryPrice: entryPrice,
		EntryTime:  time.Now().UTC(),
		Shares:     shares,
		Investment: investment,
		FeesPaid:   investment * e.strat.FeeRate(false),
	}
	if err := e.ledger.Open(pos); err != nil {
		// Cash raced away between the check and the open. Undo the buy.
		if cErr := e.client.CancelOrder(ctx, buyRes.OrderID); cErr != nil {
			slog.Error("live: cancel after failed open", "order", buyRes.OrderID, "err", cErr)
		}
		return false, fmt.Errorf("live.TryEnter: open position: %w", err)
	}

	// Rest the take-profit sell immediately so it fills without polling.
	// Post-only: the exit is modeled as a maker fill at the threshold, never
	// a taker fill against a crossed book.
	tpOrderID := ""
	tpRes, err := e.client.PlaceOrder(ctx, domain.OrderRequest{
		TokenID:  market.TokenID,
		Side:     domain.SideSell,
		Price:    e.strat.TakeProfitPrice(),
		Size:     shares,
		Type:     domain.OrderGTC,
		PostOnly: true,
	})
	if err != nil || tpRes.Failed() {
		// The position stands; the monitor closes it at threshold instead.
		slog.Warn("live: take-profit placement failed, monitor will handle exit",
			"position", pos.ID, "err", err)
	} else {
		tpOrderID = tpRes.OrderID
	}

	if err := e.ledger.AttachOrders(pos.ID, buyRes.OrderID, tpOrderID); err != nil {
		slog.Error("live: attach orders", "position", pos.ID, "err", err)
	}

	slog.Info("live: position opened",
		"market", domain.TruncateQuestion(market.Question, market.ConditionID, 60),
		"tier", tier.Name,
		"entry", fmt.Sprintf("%.3f", entryPrice),
		"shares", fmt.Sprintf("%.2f", shares),
		"hours_to_res", fmt.Sprintf("%.1f", hoursToRes),
	)
	return true, nil
}

// ClosePosition exits an open position: cancels the resting take-profit order,
// settles the ledger, and records the trade with the risk manager and journal.
// Only confirmed hard stops place a new order — a fill-or-kill taker sell at
// the slippage-adjusted price. A take-profit close means the resting sell
// already filled at the threshold, and settlements redeem at the outcome
// price; neither leaves shares to sell.
//
// If the exit order cannot be placed the position stays open and the monitor
// retries on its next poll.
func (e *Executor) ClosePosition(ctx context.Context, positionID string, exitPrice float64, reason domain.ExitReason) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := findOpen(e.ledger.OpenPositions(), positionID)
	if !ok {
		return nil // already closed by the other loop
	}

	if pos.TPOrderID != "" {
		if err := e.client.CancelOrder(ctx, pos.TPOrderID); err != nil {
			return fmt.Errorf("live.ClosePosition: cancel take-profit: %w", err)
		}
	}

	if reason.IsTaker() {
		sellRes, err := e.client.PlaceOrder(ctx, domain.OrderRequest{
			TokenID: pos.Market.TokenID,
			Side:    domain.SideSell,
			Price:   exitPrice,
			Size:    pos.Shares,
			Type:    domain.OrderFOK,
		})
		if err != nil {
			return fmt.Errorf("live.ClosePosition: place sell: %w", err)
		}
		if sellRes.Failed() {
			return fmt.Errorf("live.ClosePosition: sell rejected for position %s", positionID)
		}
	}

	closed, err := e.ledger.Close(positionID, exitPrice, time.Now().UTC(), reason)
	if err != nil {
		return fmt.Errorf("live.ClosePosition: settle ledger: %w", err)
	}

	// Risk accounting is synchronous with the close: the very next entry
	// check must already see a tripped breaker.
	e.riskMgr.RecordTrade(closed.PnL())

	if e.journal != nil {
		if err := e.journal.SaveTrade(ctx, closed); err != nil {
			slog.Error("live: journal trade", "position", positionID, "err", err)
		}
		if err := e.journal.SaveRiskState(ctx, e.riskMgr.Snapshot()); err != nil {
			slog.Error("live: journal risk state", "err", err)
		}
		now := time.Now().UTC()
		if err := e.journal.SaveEquityPoint(ctx, now, e.ledger.TotalValue()); err != nil {
			slog.Error("live: journal equity", "err", err)
		}
	}

	slog.Info("live: position closed",
		"market", domain.TruncateQuestion(closed.Market.Question, closed.Market.ConditionID, 60),
		"reason", string(reason),
		"exit", fmt.Sprintf("%.3f", exitPrice),
		"pnl", fmt.Sprintf("$%+.2f", closed.PnL()),
		"held_hours", fmt.Sprintf("%.1f", closed.HoldingHours()),
	)
	return nil
}

// SetSoftStop forwards the soft-stop state change to the ledger.
func (e *Executor) SetSoftStop(positionID string, at *time.Time) error {
	return e.ledger.SetSoftStop(positionID, at)
}

// CancelAllTakeProfits cancels every resting take-profit order. Called on
// shutdown so no orphaned sells survive the process.
func (e *Executor) CancelAllTakeProfits(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, pos := range e.ledger.OpenPositions() {
		if pos.TPOrderID == "" {
			continue
		}
		if err := e.client.CancelOrder(ctx, pos.TPOrderID); err != nil {
			slog.Error("live: cancel take-profit on shutdown",
				"position", pos.ID, "order", pos.TPOrderID, "err", err)
		}
	}
}

func findOpen(positions []domain.Position, id string) (domain.Position, bool) {
	for _, p := range positions {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Position{}, false
}

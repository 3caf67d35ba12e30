package live

// monitor.go — Polling loop over open positions.
//
// Every interval the monitor re-prices each open position and runs the exit
// chain: settlement, take-profit, then the two-stage hard stop. Live mode has
// no look-ahead — the hard-stop confirmation happens one poll later, which is
// the same state machine the replay engine drives with its next-tick price.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tierbot/internal/domain"
	"github.com/alejandrodnm/tierbot/internal/ledger"
	"github.com/alejandrodnm/tierbot/internal/ports"
	"github.com/alejandrodnm/tierbot/internal/strategy"
)

// Monitor watches open positions and triggers exits through the executor.
type Monitor struct {
	strat    strategy.Strategy
	ledger   *ledger.Ledger
	exec     *Executor
	markets  ports.MarketProvider
	prices   ports.PriceProvider
	interval time.Duration
}

// NewMonitor wires the monitor loop.
func NewMonitor(
	strat strategy.Strategy,
	led *ledger.Ledger,
	exec *Executor,
	markets ports.MarketProvider,
	prices ports.PriceProvider,
	interval time.Duration,
) *Monitor {
	return &Monitor{
		strat:    strat,
		ledger:   led,
		exec:     exec,
		markets:  markets,
		prices:   prices,
		interval: interval,
	}
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("live: monitor started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("live: monitor stopped")
			return
		case <-ticker.C:
			m.checkPositions(ctx)
		}
	}
}

// checkPositions runs one monitoring pass over the open set.
func (m *Monitor) checkPositions(ctx context.Context) {
	open := m.ledger.OpenPositions()
	if len(open) == 0 {
		return
	}

	for _, pos := range open {
		if ctx.Err() != nil {
			return
		}
		if err := m.checkPosition(ctx, pos); err != nil {
			slog.Error("live: monitor check",
				"position", pos.ID,
				"market", domain.TruncateQuestion(pos.Market.Question, pos.Market.ConditionID, 60),
				"err", err,
			)
		}
	}
}

func (m *Monitor) checkPosition(ctx context.Context, pos domain.Position) error {
	// Settlement first: a resolved market overrides any price signal. The
	// market snapshot was taken at entry (necessarily unresolved then), so
	// the resolution state must come from a fresh fetch each poll.
	if pos.Market.IsResolved() {
		return m.settle(ctx, pos, pos.Market)
	}
	fresh, found, err := m.markets.FetchMarket(ctx, pos.Market.ConditionID)
	if err != nil {
		// Stop monitoring must not stall on a flaky resolution check.
		slog.Warn("live: market refresh failed, checking prices anyway",
			"market", domain.TruncateQuestion(pos.Market.Question, pos.Market.ConditionID, 60),
			"err", err,
		)
	} else if found && fresh.IsResolved() {
		return m.settle(ctx, pos, fresh)
	}

	price, ok, err := m.prices.FetchCurrentPrice(ctx, pos.Market.TokenID)
	if err != nil {
		return fmt.Errorf("live.checkPosition: fetch price: %w", err)
	}
	if !ok {
		return nil // thin book, nothing to act on
	}

	if m.strat.TakeProfitHit(price) {
		return m.exec.ClosePosition(ctx, pos.ID, m.strat.TakeProfitPrice(), domain.ExitTakeProfit)
	}

	tier, found := m.strat.TierByName(pos.TierName)
	if !found {
		return fmt.Errorf("live.checkPosition: unknown tier %q", pos.TierName)
	}

	softTriggered := pos.SoftStopTriggeredAt != nil
	shouldExit, triggered := m.strat.HardStop(price, tier, softTriggered, nil)

	if shouldExit {
		exitPrice := m.strat.StopExitPrice(price)
		slog.Warn("live: hard stop confirmed",
			"market", domain.TruncateQuestion(pos.Market.Question, pos.Market.ConditionID, 60),
			"price", fmt.Sprintf("%.3f", price),
			"exit", fmt.Sprintf("%.3f", exitPrice),
		)
		return m.exec.ClosePosition(ctx, pos.ID, exitPrice, domain.ExitHardStop)
	}

	switch {
	case triggered && !softTriggered:
		now := time.Now().UTC()
		slog.Warn("live: stop breach, awaiting confirmation",
			"market", domain.TruncateQuestion(pos.Market.Question, pos.Market.ConditionID, 60),
			"price", fmt.Sprintf("%.3f", price),
			"hard_stop", fmt.Sprintf("%.3f", tier.HardStopLoss),
		)
		return m.exec.SetSoftStop(pos.ID, &now)
	case !triggered && softTriggered:
		slog.Info("live: price recovered, stop trigger cleared",
			"market", domain.TruncateQuestion(pos.Market.Question, pos.Market.ConditionID, 60),
			"price", fmt.Sprintf("%.3f", price),
		)
		return m.exec.SetSoftStop(pos.ID, nil)
	}
	return nil
}

// settle closes at the outcome price of market, which may be a fresher copy
// than the snapshot held by the position.
func (m *Monitor) settle(ctx context.Context, pos domain.Position, market domain.Market) error {
	settlement := market.SettlementPrice()
	reason := domain.ExitSettledLoss
	if settlement == 1.0 {
		reason = domain.ExitSettledWin
	}
	return m.exec.ClosePosition(ctx, pos.ID, settlement, reason)
}

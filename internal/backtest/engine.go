package backtest

// engine.go — Replay of the tier strategy over historical price series.
//
// Strictly single-threaded and deterministic: a fold over each market's
// ordered ticks. Within a market the sequence matters (the stop state at tick
// N depends on tick N−1); across markets there is no shared position state,
// only the portfolio-wide caps enforced through the ledger.

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tierbot/internal/domain"
	"github.com/alejandrodnm/tierbot/internal/ledger"
	"github.com/alejandrodnm/tierbot/internal/strategy"
)

const progressEvery = 200

// Result summarizes one backtest run.
type Result struct {
	MarketsScanned int
	MarketsSkipped int
	Trades         []domain.Position
	FinalValue     float64
}

// Engine replays historical data through the shared strategy primitives.
type Engine struct {
	strat  strategy.Strategy
	ledger *ledger.Ledger
}

// New creates a backtest engine over a fresh ledger.
func New(strat strategy.Strategy, initialCapital float64) *Engine {
	cfg := strat.Config()
	return &Engine{
		strat:  strat,
		ledger: ledger.New(initialCapital, cfg.MakerFeeRate, cfg.TakerFeeRate),
	}
}

// Ledger exposes the read-only portfolio view for reporting.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Run replays every market against its price history. Markets without
// resolution data or price history are skipped — zero-trade, not an error.
func (e *Engine) Run(markets []domain.Market, histories map[string][]domain.PricePoint) Result {
	res := Result{}
	total := len(markets)

	for i, market := range markets {
		prices := histories[market.TokenID]
		if len(prices) == 0 || !market.IsResolved() {
			res.MarketsSkipped++
			continue
		}

		e.scanMarket(market, prices)
		res.MarketsScanned++

		if (i+1)%progressEvery == 0 {
			slog.Info("backtest: progress",
				"scanned", i+1,
				"total", total,
				"trades", len(e.ledger.ClosedPositions()),
				"capital", fmt.Sprintf("$%.2f", e.ledger.TotalValue()),
			)
		}
	}

	res.Trades = e.ledger.ClosedPositions()
	res.FinalValue = e.ledger.TotalValue()

	slog.Info("backtest: complete",
		"markets_scanned", res.MarketsScanned,
		"markets_skipped", res.MarketsSkipped,
		"trades", len(res.Trades),
		"final_value", fmt.Sprintf("$%.2f", res.FinalValue),
	)
	return res
}

// scanMarket walks one market's ticks in order, holding at most one open
// position in this market at a time. Exit checks run before entry checks; a
// slot freed by an exit may re-enter at the same tick.
func (e *Engine) scanMarket(market domain.Market, prices []domain.PricePoint) {
	var openID string
	var tier domain.Tier

	for i, pp := range prices {
		hoursToRes := market.ResolvedAt.Sub(pp.Timestamp).Hours()
		if hoursToRes < 0 {
			continue
		}

		var nextPrice *float64
		if i+1 < len(prices) {
			nextPrice = &prices[i+1].Price
		}

		if openID != "" {
			exited := e.checkExits(openID, tier, pp, nextPrice)
			if !exited {
				continue
			}
			openID = ""
		}

		candidate := e.strat.EntryEligible(market, pp.Price, hoursToRes,
			e.ledger.OpenPositions(), e.ledger.Cash())
		if candidate == nil {
			continue
		}

		id, err := e.openPosition(market, pp.Price, *candidate, pp.Timestamp)
		if err != nil {
			slog.Warn("backtest: entry failed", "market", market.ConditionID, "err", err)
			continue
		}
		openID = id
		tier = *candidate
	}

	// Force-settle whatever is still open when the series ends.
	if openID != "" {
		e.settle(openID, market)
	}
}

// checkExits evaluates take-profit, then the hard-stop state machine, for one
// tick. Returns true if the position was closed.
func (e *Engine) checkExits(positionID string, tier domain.Tier, pp domain.PricePoint, nextPrice *float64) bool {
	// Take-profit first: closes at the threshold, not the observed price.
	if e.strat.TakeProfitHit(pp.Price) {
		if _, err := e.ledger.Close(positionID, e.strat.TakeProfitPrice(), pp.Timestamp, domain.ExitTakeProfit); err != nil {
			slog.Warn("backtest: close failed", "position", positionID, "err", err)
		}
		return true
	}

	pos, ok := findPosition(e.ledger.OpenPositions(), positionID)
	if !ok {
		return true
	}

	shouldExit, triggered := e.strat.HardStop(pp.Price, tier, pos.SoftStopTriggeredAt != nil, nextPrice)
	if shouldExit {
		exitPrice := e.strat.StopExitPrice(pp.Price)
		if _, err := e.ledger.Close(positionID, exitPrice, pp.Timestamp, domain.ExitHardStop); err != nil {
			slog.Warn("backtest: close failed", "position", positionID, "err", err)
		}
		return true
	}

	var at *time.Time
	if triggered {
		ts := pp.Timestamp
		at = &ts
	}
	_ = e.ledger.SetSoftStop(positionID, at)
	return false
}

// openPosition prices the entry with the tick improvement and debits the ledger.
func (e *Engine) openPosition(market domain.Market, observed float64, tier domain.Tier, at time.Time) (string, error) {
	entryPrice := e.strat.EntryPrice(observed, tier.PriceHigh)
	investment := tier.PositionSize
	shares := investment / entryPrice

	pos := domain.Position{
		ID:         uuid.New().String(),
		Market:     market,
		TierName:   tier.Name,
		EntryPrice: entryPrice,
		EntryTime:  at,
		Shares:     shares,
		Investment: investment,
		FeesPaid:   investment * e.strat.FeeRate(false), // maker entry
	}

	if err := e.ledger.Open(pos); err != nil {
		return "", err
	}
	return pos.ID, nil
}

// settle closes an open position at the market's resolution outcome.
func (e *Engine) settle(positionID string, market domain.Market) {
	settledAt := market.EndDate
	if market.ResolvedAt != nil {
		settledAt = *market.ResolvedAt
	}

	reason := domain.ExitSettledLoss
	if market.SettlementPrice() == 1.0 {
		reason = domain.ExitSettledWin
	}

	if _, err := e.ledger.Close(positionID, market.SettlementPrice(), settledAt, reason); err != nil {
		slog.Warn("backtest: settlement failed", "position", positionID, "err", err)
	}
}

func findPosition(positions []domain.Position, id string) (domain.Position, bool) {
	for _, p := range positions {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Position{}, false
}

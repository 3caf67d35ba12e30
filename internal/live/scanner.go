package live

// scanner.go — Periodic discovery of entry candidates among active markets.
//
// Each cycle fetches the active market list, prices every candidate off the
// best bid, and hands eligible ones to the executor. All portfolio-level entry
// constraints live in the strategy/executor — the scanner only feeds
// observations.

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tierbot/internal/ports"
)

// Scanner drives the entry side of live trading.
type Scanner struct {
	markets  ports.MarketProvider
	prices   ports.PriceProvider
	exec     *Executor
	interval time.Duration
}

// NewScanner wires the scanner loop.
func NewScanner(
	markets ports.MarketProvider,
	prices ports.PriceProvider,
	exec *Executor,
	interval time.Duration,
) *Scanner {
	return &Scanner{
		markets:  markets,
		prices:   prices,
		exec:     exec,
		interval: interval,
	}
}

// Run scans immediately, then on every tick, until ctx is cancelled. Once
// cancelled no new entries are attempted — open positions are the monitor's
// responsibility.
func (s *Scanner) Run(ctx context.Context) {
	slog.Info("live: scanner started", "interval", s.interval)

	s.scanOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("live: scanner stopped")
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

func (s *Scanner) scanOnce(ctx context.Context) {
	markets, err := s.markets.FetchActiveMarkets(ctx)
	if err != nil {
		slog.Error("live: fetch active markets", "err", err)
		return
	}

	now := time.Now().UTC()
	entries := 0

	for _, market := range markets {
		if ctx.Err() != nil {
			return
		}

		hoursToRes := market.HoursToResolution(now)
		if hoursToRes <= 0 {
			continue
		}

		// Entries fill as makers resting at the bid side, so the best bid is
		// the observed price — the mid would overstate what we can be filled at.
		bid, ok, err := s.prices.FetchBestBid(ctx, market.TokenID)
		if err != nil {
			slog.Warn("live: fetch best bid", "token", market.TokenID, "err", err)
			continue
		}
		if !ok {
			continue
		}

		opened, err := s.exec.TryEnter(ctx, market, bid, hoursToRes)
		if err != nil {
			slog.Error("live: entry attempt", "market", market.ConditionID, "err", err)
			continue
		}
		if opened {
			entries++
		}
	}

	slog.Debug("live: scan cycle complete", "candidates", len(markets), "entries", entries)
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/tierbot/config"
	"github.com/alejandrodnm/tierbot/internal/adapters/notify"
	"github.com/alejandrodnm/tierbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/tierbot/internal/backtest"
	"github.com/alejandrodnm/tierbot/internal/domain"
	"github.com/alejandrodnm/tierbot/internal/strategy"
)

// runBacktest fetches resolved market history (through the disk cache) and
// replays the strategy over it.
func runBacktest(ctx context.Context, cfg *config.Config, table bool) {
	strat := strategy.New(cfg.StrategyParams())

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
	gamma := polymarket.NewGammaProvider(client, polymarket.MarketFilter{
		MinVolume: cfg.Backtest.MinVolume,
		Excluded:  strat.Blacklisted,
	})
	clob := polymarket.NewCLOBProvider(client)

	provider, err := polymarket.NewCachedProvider(gamma, clob, cfg.Backtest.CacheDir)
	if err != nil {
		slog.Error("failed to init cache", "err", err, "dir", cfg.Backtest.CacheDir)
		os.Exit(1)
	}

	markets, err := provider.FetchResolvedMarkets(ctx)
	if err != nil {
		slog.Error("failed to fetch resolved markets", "err", err)
		os.Exit(1)
	}
	if len(markets) == 0 {
		slog.Warn("no resolved markets matched the filters — nothing to replay")
		return
	}

	slog.Info("backtest: fetching price histories", "markets", len(markets))

	histories := make(map[string][]domain.PricePoint, len(markets))
	for i, m := range markets {
		if ctx.Err() != nil {
			slog.Info("backtest: interrupted during fetch")
			return
		}
		prices, err := provider.FetchPriceHistory(ctx, m.TokenID)
		if err != nil {
			slog.Warn("backtest: price history fetch failed, skipping market",
				"market", m.ConditionID, "err", err)
			continue
		}
		histories[m.TokenID] = prices

		if (i+1)%200 == 0 {
			slog.Info("backtest: histories fetched", "done", i+1, "total", len(markets))
		}
	}

	eng := backtest.New(strat, cfg.Backtest.InitialCapital)
	res := eng.Run(markets, histories)

	console := notify.NewConsole(table)
	console.PrintBacktestReport(eng.Ledger(), res.MarketsScanned, res.MarketsSkipped)
}

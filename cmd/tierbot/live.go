package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/tierbot/config"
	"github.com/alejandrodnm/tierbot/internal/adapters/notify"
	"github.com/alejandrodnm/tierbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/tierbot/internal/adapters/storage"
	"github.com/alejandrodnm/tierbot/internal/ledger"
	"github.com/alejandrodnm/tierbot/internal/live"
	"github.com/alejandrodnm/tierbot/internal/ports"
	"github.com/alejandrodnm/tierbot/internal/risk"
	"github.com/alejandrodnm/tierbot/internal/strategy"
)

const statusInterval = 5 * time.Minute

// runLive wires the scanner and monitor loops against the real (or dry-run)
// order client and blocks until the context is cancelled.
func runLive(ctx context.Context, cfg *config.Config, dryRun bool) {
	params := cfg.StrategyParams()
	strat := strategy.New(params)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
	gamma := polymarket.NewGammaProvider(client, polymarket.MarketFilter{
		MinVolume: cfg.Live.MinVolume,
		Excluded:  strat.Blacklisted,
	})
	clob := polymarket.NewCLOBProvider(client)

	orderClient := buildOrderClient(ctx, cfg, dryRun)

	journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer journal.Close()

	led := ledger.New(cfg.Live.InitialCapital, params.MakerFeeRate, params.TakerFeeRate)
	riskMgr := risk.New(cfg.Live.InitialCapital, risk.Limits{
		MaxLossUSD:           cfg.Live.MaxLossUSD,
		MaxLossPct:           cfg.Live.MaxLossPct,
		MaxConsecutiveLosses: cfg.Live.MaxConsecutiveLoss,
	})
	restoreRiskState(ctx, riskMgr, journal)

	exec := live.NewExecutor(strat, led, riskMgr, orderClient, journal)
	scanner := live.NewScanner(gamma, clob, exec, cfg.ScanInterval())
	monitor := live.NewMonitor(strat, led, exec, gamma, clob, cfg.PollInterval())

	if !dryRun {
		fmt.Printf("\n⚠️  LIVE TRADING MODE — REAL MONEY WILL BE SPENT\n")
		fmt.Printf("   Capital: $%.2f | Position size: $%.2f | Max positions: %d\n",
			cfg.Live.InitialCapital, params.Tiers[0].PositionSize, params.MaxConcurrentPositions)
		fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")

		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			slog.Info("live trading aborted by user")
			return
		}
	}

	slog.Info("live trading started",
		"dry_run", dryRun,
		"scan_interval", cfg.ScanInterval(),
		"poll_interval", cfg.PollInterval(),
	)

	done := make(chan struct{}, 2)
	go func() {
		scanner.Run(ctx)
		done <- struct{}{}
	}()
	go func() {
		monitor.Run(ctx)
		done <- struct{}{}
	}()

	console := notify.NewConsole(false)
	statusTicker := time.NewTicker(statusInterval)
	defer statusTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-done
			<-done
			shutdown(exec, orderClient)
			return
		case <-statusTicker.C:
			console.PrintLiveStatus(led, riskMgr.StatusText())
		}
	}
}

// buildOrderClient returns the dry-run client or the authenticated trading
// client. Missing credentials are fatal only for real trading.
func buildOrderClient(ctx context.Context, cfg *config.Config, dryRun bool) ports.OrderClient {
	if dryRun {
		slog.Info("live: dry-run order client — no orders will reach the exchange")
		return polymarket.NewDryRunClient()
	}

	if !cfg.HasTradingCreds() {
		slog.Error("live trading requires POLY_PRIVATE_KEY — set it in the environment or .env")
		os.Exit(1)
	}

	auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.PrivateKey,
		polymarket.Credentials{
			APIKey:     cfg.APIKey,
			Secret:     cfg.APISecret,
			Passphrase: cfg.APIPassphrase,
		})
	if err != nil {
		slog.Error("failed to create auth client", "err", err)
		os.Exit(1)
	}

	if err := auth.EnsureCreds(ctx); err != nil {
		slog.Error("failed to derive API credentials — check POLY_PRIVATE_KEY", "err", err)
		os.Exit(1)
	}
	slog.Info("live: authenticated with Polymarket CLOB", "address", auth.Address())

	return polymarket.NewTradingClient(auth)
}

// restoreRiskState reloads the circuit breaker across restarts. A tripped
// breaker stays tripped until someone resets it deliberately.
func restoreRiskState(ctx context.Context, riskMgr *risk.Manager, journal ports.TradeJournal) {
	state, found, err := journal.LoadRiskState(ctx)
	if err != nil {
		slog.Warn("live: could not load risk state, starting fresh", "err", err)
		return
	}
	if !found {
		return
	}

	riskMgr.Restore(state)
	slog.Info("live: risk state restored",
		"realized_pnl", fmt.Sprintf("$%.2f", state.RealizedPnL),
		"consecutive_losses", state.ConsecutiveLosses,
		"tripped", state.Tripped,
	)
}

// shutdown cancels resting take-profit orders so nothing survives the process.
// Runs with a fresh context — the run context is already cancelled.
func shutdown(exec *live.Executor, orderClient ports.OrderClient) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.Info("live: cancelling resting take-profit orders before exit")
	exec.CancelAllTakeProfits(shutdownCtx)

	if err := orderClient.CancelAll(shutdownCtx); err != nil {
		slog.Error("live: cancel all on shutdown", "err", err)
	}
}

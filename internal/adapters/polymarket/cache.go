package polymarket

// cache.go — Cache local en disco para datos de backtest.
//
// Los fetches de backtest son caros (cientos de mercados, una serie minutal
// por token). El cache guarda el resultado parseado como JSON en un
// directorio local: markets.json para la lista de mercados resueltos y
// prices/<tokenID>.json por serie. Borrar el directorio invalida el cache.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alejandrodnm/tierbot/internal/domain"
	"github.com/alejandrodnm/tierbot/internal/ports"
)

const (
	marketsCacheFile = "markets.json"
	pricesCacheDir   = "prices"
)

// CachedProvider envuelve un MarketProvider y un PriceProvider con cache en
// disco. Solo cachea los datos históricos (mercados resueltos y series);
// los datos live pasan directo al provider subyacente.
type CachedProvider struct {
	markets ports.MarketProvider
	prices  ports.PriceProvider
	dir     string
}

// NewCachedProvider crea el cache sobre el directorio dado.
func NewCachedProvider(markets ports.MarketProvider, prices ports.PriceProvider, dir string) (*CachedProvider, error) {
	if err := os.MkdirAll(filepath.Join(dir, pricesCacheDir), 0o755); err != nil {
		return nil, fmt.Errorf("cache.NewCachedProvider: mkdir %q: %w", dir, err)
	}
	return &CachedProvider{markets: markets, prices: prices, dir: dir}, nil
}

// FetchResolvedMarkets devuelve los mercados cacheados si existen, o los
// obtiene del provider y los guarda.
func (c *CachedProvider) FetchResolvedMarkets(ctx context.Context) ([]domain.Market, error) {
	path := filepath.Join(c.dir, marketsCacheFile)

	var cached []domain.Market
	if ok := c.readJSON(path, &cached); ok {
		slog.Info("backtest: markets loaded from cache", "total", len(cached), "path", path)
		return cached, nil
	}

	markets, err := c.markets.FetchResolvedMarkets(ctx)
	if err != nil {
		return nil, err
	}
	c.writeJSON(path, markets)
	return markets, nil
}

// FetchActiveMarkets nunca se cachea — siempre datos frescos.
func (c *CachedProvider) FetchActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	return c.markets.FetchActiveMarkets(ctx)
}

// FetchMarket pasa directo — el estado de resolución debe ser siempre fresco.
func (c *CachedProvider) FetchMarket(ctx context.Context, conditionID string) (domain.Market, bool, error) {
	return c.markets.FetchMarket(ctx, conditionID)
}

// FetchPriceHistory devuelve la serie cacheada si existe. Una serie vacía
// también se cachea — reconsultar un token sin histórico es igual de caro.
func (c *CachedProvider) FetchPriceHistory(ctx context.Context, tokenID string) ([]domain.PricePoint, error) {
	path := filepath.Join(c.dir, pricesCacheDir, tokenID+".json")

	var cached []domain.PricePoint
	if ok := c.readJSON(path, &cached); ok {
		return cached, nil
	}

	points, err := c.prices.FetchPriceHistory(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	c.writeJSON(path, points)
	return points, nil
}

// FetchCurrentPrice pasa directo — los precios live no se cachean.
func (c *CachedProvider) FetchCurrentPrice(ctx context.Context, tokenID string) (float64, bool, error) {
	return c.prices.FetchCurrentPrice(ctx, tokenID)
}

// FetchBestBid pasa directo.
func (c *CachedProvider) FetchBestBid(ctx context.Context, tokenID string) (float64, bool, error) {
	return c.prices.FetchBestBid(ctx, tokenID)
}

// readJSON carga y parsea un archivo de cache. false si no existe o corrupto.
func (c *CachedProvider) readJSON(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("cache: corrupt file, refetching", "path", path, "err", err)
		return false
	}
	return true
}

// writeJSON guarda el valor en el cache. Un fallo de escritura solo se loguea
// — el cache es una optimización, nunca bloquea el run.
func (c *CachedProvider) writeJSON(path string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache: marshal failed", "path", path, "err", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("cache: write failed", "path", path, "err", err)
	}
}

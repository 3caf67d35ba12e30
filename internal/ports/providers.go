package ports

import (
	"context"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// MarketProvider obtiene mercados binarios desde la API de Gamma.
// Los adapters aplican upstream los filtros de construcción: mercados
// binarios YES/NO, volumen mínimo y blacklist de keywords.
type MarketProvider interface {
	// FetchResolvedMarkets devuelve mercados ya resueltos (para backtest).
	// Pagina automáticamente. Mercados sin resolución clara se descartan.
	FetchResolvedMarkets(ctx context.Context) ([]domain.Market, error)

	// FetchActiveMarkets devuelve mercados activos aún no resueltos (live).
	FetchActiveMarkets(ctx context.Context) ([]domain.Market, error)

	// FetchMarket devuelve el estado actual de un mercado por condition ID,
	// sin aplicar filtros de construcción. found=false si no existe.
	// El monitor lo usa para detectar resoluciones de mercados con posición.
	FetchMarket(ctx context.Context, conditionID string) (market domain.Market, found bool, err error)
}

// PriceProvider obtiene precios del CLOB para un token YES.
// Todas las llamadas pueden devolver datos vacíos; el core degrada a no-op.
type PriceProvider interface {
	// FetchPriceHistory devuelve la serie histórica ordenada ascendentemente
	// por timestamp. Una serie vacía no es un error.
	FetchPriceHistory(ctx context.Context, tokenID string) ([]domain.PricePoint, error)

	// FetchCurrentPrice devuelve el mid-price actual. ok=false si el book
	// está vacío o el dato no está disponible.
	FetchCurrentPrice(ctx context.Context, tokenID string) (price float64, ok bool, err error)

	// FetchBestBid devuelve el mejor bid actual. ok=false si no hay bids.
	FetchBestBid(ctx context.Context, tokenID string) (price float64, ok bool, err error)
}

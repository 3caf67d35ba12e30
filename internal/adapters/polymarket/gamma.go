package polymarket

// gamma.go — Gamma API adapter: descubrimiento de mercados binarios.
//
// Implementa ports.MarketProvider. Los filtros de construcción (binario
// YES/NO, volumen mínimo, blacklist de keywords) se aplican aquí, antes de
// que los mercados lleguen al core — el strategy nunca ve mercados excluidos.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 500
	maxGammaPages    = 100 // corte de seguridad en la paginación por offset
)

// MarketFilter decide qué mercados pasan a la capa de decisión.
type MarketFilter struct {
	MinVolume float64
	// Excluded devuelve true si el mercado debe descartarse por su texto
	// (mercados disputables o de criterio subjetivo).
	Excluded func(question string, tags []string) bool
}

// GammaProvider implementa ports.MarketProvider sobre la API de Gamma.
type GammaProvider struct {
	client *Client
	filter MarketFilter
}

// NewGammaProvider crea el provider con el filtro dado.
func NewGammaProvider(client *Client, filter MarketFilter) *GammaProvider {
	return &GammaProvider{client: client, filter: filter}
}

// FetchResolvedMarkets devuelve mercados binarios ya cerrados y con outcome
// conocido, paginando por offset hasta agotar resultados.
func (g *GammaProvider) FetchResolvedMarkets(ctx context.Context) ([]domain.Market, error) {
	markets, err := g.fetchMarkets(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("gamma.FetchResolvedMarkets: %w", err)
	}

	resolved := markets[:0]
	for _, m := range markets {
		if m.IsResolved() {
			resolved = append(resolved, m)
		}
	}

	slog.Info("resolved markets fetched", "total", len(resolved))
	return resolved, nil
}

// FetchActiveMarkets devuelve mercados binarios activos aún sin resolver.
func (g *GammaProvider) FetchActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	markets, err := g.fetchMarkets(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("gamma.FetchActiveMarkets: %w", err)
	}

	slog.Debug("active markets fetched", "total", len(markets))
	return markets, nil
}

// FetchMarket devuelve el estado actual de un mercado por condition ID.
// No aplica los filtros de construcción — se usa para refrescar la resolución
// de mercados en los que ya hay posición abierta.
func (g *GammaProvider) FetchMarket(ctx context.Context, conditionID string) (domain.Market, bool, error) {
	url := fmt.Sprintf("%s%s?condition_ids=%s", g.client.gammaBase, gammaMarketsPath, conditionID)

	var resp gammaMarketsResponse
	if err := g.client.get(ctx, g.client.gammaLimiter, url, &resp); err != nil {
		return domain.Market{}, false, fmt.Errorf("gamma.FetchMarket: %s: %w", conditionID, err)
	}

	for _, gm := range resp {
		m, ok := mapGammaMarket(gm)
		if ok && m.ConditionID == conditionID {
			return m, true, nil
		}
	}
	return domain.Market{}, false, nil
}

// fetchMarkets pagina GET /markets y aplica los filtros de construcción.
func (g *GammaProvider) fetchMarkets(ctx context.Context, closed bool) ([]domain.Market, error) {
	var all []domain.Market
	dropped := 0

	for page := 0; page < maxGammaPages; page++ {
		url := fmt.Sprintf("%s%s?closed=%t&limit=%d&offset=%d",
			g.client.gammaBase, gammaMarketsPath, closed, gammaPageSize, page*gammaPageSize)

		var resp gammaMarketsResponse
		if err := g.client.get(ctx, g.client.gammaLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(resp) == 0 {
			break
		}

		for _, gm := range resp {
			m, ok := mapGammaMarket(gm)
			if !ok {
				dropped++
				continue
			}
			if !g.accept(m) {
				dropped++
				continue
			}
			all = append(all, m)
		}

		slog.Debug("fetched gamma markets page",
			"page", page,
			"count", len(resp),
			"kept", len(all),
		)

		if len(resp) < gammaPageSize {
			break
		}
	}

	slog.Debug("gamma fetch complete", "kept", len(all), "dropped", dropped)
	return all, nil
}

// accept aplica volumen mínimo y blacklist.
func (g *GammaProvider) accept(m domain.Market) bool {
	if m.Volume < g.filter.MinVolume {
		return false
	}
	if g.filter.Excluded != nil && g.filter.Excluded(m.Question, m.Tags) {
		return false
	}
	return true
}

package polymarket

// clob.go — CLOB API adapter: precios históricos y orderbook.
//
// Implementa ports.PriceProvider. El histórico usa fidelity=60 (una
// observación por minuto); el precio actual se toma del mid-point del book y
// el best bid del primer nivel de compra.

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

const (
	pricesHistoryPath = "/prices-history"
	bookPath          = "/book"

	// fidelity=60 → resolución de 1 minuto, interval=max → todo el histórico.
	historyFidelity = 60
)

// CLOBProvider implementa ports.PriceProvider sobre la API del CLOB.
type CLOBProvider struct {
	client *Client
}

// NewCLOBProvider crea el provider de precios.
func NewCLOBProvider(client *Client) *CLOBProvider {
	return &CLOBProvider{client: client}
}

// FetchPriceHistory devuelve la serie minutal completa del token, ordenada
// ascendentemente por timestamp. Una serie vacía no es un error.
func (p *CLOBProvider) FetchPriceHistory(ctx context.Context, tokenID string) ([]domain.PricePoint, error) {
	url := fmt.Sprintf("%s%s?market=%s&interval=max&fidelity=%d",
		p.client.clobBase, pricesHistoryPath, tokenID, historyFidelity)

	var resp priceHistoryResponse
	if err := p.client.get(ctx, p.client.pricesLimiter, url, &resp); err != nil {
		return nil, fmt.Errorf("clob.FetchPriceHistory: %w", err)
	}

	points := make([]domain.PricePoint, 0, len(resp.History))
	for _, raw := range resp.History {
		if raw.P <= 0 || raw.P > 1 {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.Unix(raw.T, 0).UTC(),
			Price:     raw.P,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// FetchCurrentPrice devuelve el mid-point del book. ok=false con book vacío.
func (p *CLOBProvider) FetchCurrentPrice(ctx context.Context, tokenID string) (float64, bool, error) {
	book, err := p.fetchBook(ctx, tokenID)
	if err != nil {
		return 0, false, fmt.Errorf("clob.FetchCurrentPrice: %w", err)
	}

	bestBid, bidOK := bestPrice(book.Bids, false)
	bestAsk, askOK := bestPrice(book.Asks, true)
	if !bidOK || !askOK {
		return 0, false, nil
	}
	return (bestBid + bestAsk) / 2, true, nil
}

// FetchBestBid devuelve el mejor bid del book. ok=false sin bids.
func (p *CLOBProvider) FetchBestBid(ctx context.Context, tokenID string) (float64, bool, error) {
	book, err := p.fetchBook(ctx, tokenID)
	if err != nil {
		return 0, false, fmt.Errorf("clob.FetchBestBid: %w", err)
	}

	bid, ok := bestPrice(book.Bids, false)
	return bid, ok, nil
}

func (p *CLOBProvider) fetchBook(ctx context.Context, tokenID string) (bookResponse, error) {
	url := fmt.Sprintf("%s%s?token_id=%s", p.client.clobBase, bookPath, tokenID)

	var resp bookResponse
	if err := p.client.get(ctx, p.client.pricesLimiter, url, &resp); err != nil {
		return bookResponse{}, err
	}
	return resp, nil
}

// bestPrice devuelve el mejor nivel del lado dado: el mínimo para asks
// (ascending=true), el máximo para bids.
func bestPrice(entries []bookEntryRaw, ascending bool) (float64, bool) {
	best := 0.0
	found := false
	for _, e := range entries {
		price, err := strconv.ParseFloat(e.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		if !found || (ascending && price < best) || (!ascending && price > best) {
			best = price
			found = true
		}
	}
	return best, found
}

package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket contiene la metadata de un mercado binario.
// Gamma devuelve varios campos como strings JSON anidados (outcomes,
// outcomePrices, clobTokenIds) — se parsean en mapping.go.
type gammaMarket struct {
	ConditionID    string      `json:"conditionId"`
	Question       string      `json:"question"`
	Slug           string      `json:"slug"`
	Category       string      `json:"category"`
	EndDateISO     string      `json:"endDate"`
	ClosedTime     string      `json:"closedTime"`
	Volume         json.Number `json:"volumeNum"`
	Outcomes       string      `json:"outcomes"`       // `["Yes","No"]`
	OutcomePrices  string      `json:"outcomePrices"`  // `["0.98","0.02"]`
	ClobTokenIDs   string      `json:"clobTokenIds"`   // `["123...","456..."]`
	Active         bool        `json:"active"`
	Closed         bool        `json:"closed"`
	Events         []gammaEvent `json:"events"`
}

// gammaEvent agrupa mercados relacionados y aporta los tags.
type gammaEvent struct {
	Tags []gammaTag `json:"tags"`
}

type gammaTag struct {
	Label string `json:"label"`
}

// --- CLOB API ---

// priceHistoryResponse es la respuesta de GET /prices-history.
type priceHistoryResponse struct {
	History []pricePointRaw `json:"history"`
}

// pricePointRaw es una observación de precio (t = Unix seconds).
type pricePointRaw struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

// bookResponse es la respuesta de GET /book para un token.
type bookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

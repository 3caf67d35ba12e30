package polymarket

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// winnerInferenceThreshold: si Gamma no reporta el outcome ganador de un
// mercado cerrado, lo inferimos del precio final — un YES por encima de este
// umbral se considera resuelto afirmativamente.
const winnerInferenceThreshold = 0.99

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
// Devuelve ok=false si el mercado no es binario YES/NO o le falta el token.
func mapGammaMarket(gm gammaMarket) (domain.Market, bool) {
	outcomes := parseJSONStringList(gm.Outcomes)
	if len(outcomes) != 2 || !strings.EqualFold(outcomes[0], "yes") || !strings.EqualFold(outcomes[1], "no") {
		return domain.Market{}, false
	}

	tokenIDs := parseJSONStringList(gm.ClobTokenIDs)
	if len(tokenIDs) < 1 || tokenIDs[0] == "" {
		return domain.Market{}, false
	}

	m := domain.Market{
		ConditionID: gm.ConditionID,
		TokenID:     tokenIDs[0], // primer token = lado YES
		Question:    gm.Question,
		Slug:        gm.Slug,
		Category:    gm.Category,
		EndDate:     parseGammaTime(gm.EndDateISO),
	}

	if v, err := gm.Volume.Float64(); err == nil {
		m.Volume = v
	}

	for _, ev := range gm.Events {
		for _, tag := range ev.Tags {
			if tag.Label != "" {
				m.Tags = append(m.Tags, tag.Label)
			}
		}
	}

	if gm.Closed {
		resolvedAt := parseGammaTime(gm.ClosedTime)
		if resolvedAt.IsZero() {
			resolvedAt = m.EndDate
		}
		if !resolvedAt.IsZero() {
			m.ResolvedAt = &resolvedAt
		}
		m.WinningOutcome = inferWinningOutcome(gm)
	}

	return m, true
}

// inferWinningOutcome determina el lado ganador de un mercado cerrado a partir
// de los precios finales de Gamma. Devuelve "" si no se puede determinar.
func inferWinningOutcome(gm gammaMarket) string {
	prices := parseJSONStringList(gm.OutcomePrices)
	if len(prices) != 2 {
		return ""
	}

	yes := parseFloatStr(prices[0])
	no := parseFloatStr(prices[1])

	switch {
	case yes >= winnerInferenceThreshold:
		return "Yes"
	case no >= winnerInferenceThreshold:
		return "No"
	}
	return ""
}

// parseJSONStringList parsea campos tipo `["Yes","No"]` que Gamma devuelve
// como string JSON anidado.
func parseJSONStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func parseFloatStr(s string) float64 {
	var f float64
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return 0
	}
	return f
}

// parseGammaTime intenta los formatos de fecha que usa Polymarket.
func parseGammaTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05-07",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

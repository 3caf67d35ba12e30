package domain

import (
	"strings"
	"time"
)

// Market representa un mercado de predicción binario en Polymarket.
// Inmutable una vez construido — los mercados históricos nunca cambian
// después de conocerse su resolución.
type Market struct {
	ConditionID    string
	TokenID        string // YES token — el único lado que tradeamos
	Question       string
	Slug           string
	Category       string
	Tags           []string
	Volume         float64
	EndDate        time.Time  // fecha programada de resolución
	ResolvedAt     *time.Time // nil si aún no resuelto
	WinningOutcome string     // "" si aún no resuelto
}

// HoursToResolution devuelve las horas desde at hasta la resolución del
// mercado. Usa ResolvedAt si se conoce, EndDate en caso contrario.
func (m Market) HoursToResolution(at time.Time) float64 {
	end := m.EndDate
	if m.ResolvedAt != nil {
		end = *m.ResolvedAt
	}
	if end.IsZero() {
		return 0
	}
	return end.Sub(at).Hours()
}

// IsResolved devuelve true si el mercado tiene datos de resolución completos.
func (m Market) IsResolved() bool {
	return m.ResolvedAt != nil && m.WinningOutcome != ""
}

// SettlementPrice devuelve el precio de liquidación del token YES: 1.0 si
// el outcome ganador es afirmativo, 0.0 en caso contrario.
func (m Market) SettlementPrice() float64 {
	switch strings.ToLower(m.WinningOutcome) {
	case "yes", "y", "1", "true":
		return 1.0
	}
	return 0.0
}

// CombinedText devuelve categoría + tags + pregunta en minúsculas, el texto
// sobre el que se aplican los filtros de keywords (blacklist y super-categorías).
func (m Market) CombinedText() string {
	return strings.ToLower(m.Category + " " + strings.Join(m.Tags, " ") + " " + m.Question)
}

// PricePoint es una observación de precio del token YES en [0,1].
// Las series históricas llegan ordenadas ascendentemente por timestamp.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// TruncateQuestion trunca la pregunta a maxLen caracteres para logging.
// Si está vacía usa el conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		if len(conditionID) > 20 {
			q = conditionID[:20] + "..."
		} else {
			q = conditionID
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}

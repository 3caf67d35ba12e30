package domain

import "fmt"

// Tier define una banda de precio operable y sus parámetros de riesgo.
// Los tiers se evalúan en orden de declaración; gana el primero que matchea.
type Tier struct {
	Name         string
	PriceLow     float64 // límite inferior de la banda, inclusivo
	PriceHigh    float64 // límite superior de la banda, inclusivo
	MaxHours     float64 // horas máximas hasta resolución
	PositionSize float64 // USDC por posición
	SoftStopLoss float64
	HardStopLoss float64
}

// Contains devuelve true si el precio cae dentro de la banda del tier.
func (t Tier) Contains(price float64) bool {
	return price >= t.PriceLow && price <= t.PriceHigh
}

// Validate comprueba la coherencia interna de los parámetros del tier.
func (t Tier) Validate() error {
	if t.PriceLow >= t.PriceHigh {
		return fmt.Errorf("tier %s: price band [%.3f, %.3f] is empty", t.Name, t.PriceLow, t.PriceHigh)
	}
	if t.HardStopLoss >= t.SoftStopLoss || t.SoftStopLoss >= t.PriceHigh {
		return fmt.Errorf("tier %s: stops must satisfy hard < soft < high (hard=%.3f soft=%.3f high=%.3f)",
			t.Name, t.HardStopLoss, t.SoftStopLoss, t.PriceHigh)
	}
	if t.MaxHours <= 0 {
		return fmt.Errorf("tier %s: max hours must be positive", t.Name)
	}
	if t.PositionSize <= 0 {
		return fmt.Errorf("tier %s: position size must be positive", t.Name)
	}
	return nil
}

package polymarket

// dryrun.go — Order client sin ejecución real.
//
// Implementa ports.OrderClient devolviendo siempre éxito con IDs sintéticos.
// Permite correr el modo live completo (scanner, monitor, ledger, riesgo)
// contra datos de mercado reales sin arriesgar capital.

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// DryRunClient simula la ejecución de órdenes.
type DryRunClient struct {
	mu     sync.Mutex
	placed int
}

// NewDryRunClient crea el cliente de simulación.
func NewDryRunClient() *DryRunClient {
	return &DryRunClient{}
}

// PlaceOrder registra la orden y devuelve un resultado sintético exitoso.
func (d *DryRunClient) PlaceOrder(_ context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	d.mu.Lock()
	d.placed++
	d.mu.Unlock()

	slog.Info("dry-run: order placed",
		"side", string(req.Side),
		"type", string(req.Type),
		"price", req.Price,
		"size", req.Size,
	)

	return domain.OrderResult{
		OrderID:      "dry-" + uuid.New().String(),
		Status:       domain.OrderStatusDryRun,
		FilledSize:   req.Size,
		AvgFillPrice: req.Price,
	}, nil
}

// CancelOrder es un no-op que siempre tiene éxito.
func (d *DryRunClient) CancelOrder(_ context.Context, orderID string) error {
	slog.Debug("dry-run: order cancelled", "order", orderID)
	return nil
}

// CancelAll es un no-op que siempre tiene éxito.
func (d *DryRunClient) CancelAll(_ context.Context) error {
	slog.Debug("dry-run: all orders cancelled")
	return nil
}

// PlacedCount devuelve el número de órdenes simuladas.
func (d *DryRunClient) PlacedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.placed
}

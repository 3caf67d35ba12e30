package ports

import (
	"context"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// OrderClient places and cancels orders on the exchange. The dry-run
// implementation satisfies the same interface with synthetic always-success
// results, so the executor can be exercised without capital at risk.
type OrderClient interface {
	// PlaceOrder submits an order. A rejected placement is reported via
	// OrderResult.Status == FAILED, not via error — errors are transport
	// failures.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)

	// CancelOrder cancels an order by ID. Cancelling an already-filled or
	// unknown order is not an error.
	CancelOrder(ctx context.Context, orderID string) error

	// CancelAll cancels every open order for this account.
	CancelAll(ctx context.Context) error
}

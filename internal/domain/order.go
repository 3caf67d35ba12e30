package domain

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType is the CLOB time-in-force.
type OrderType string

const (
	OrderGTC OrderType = "GTC" // good-till-cancelled (resting maker)
	OrderGTD OrderType = "GTD"
	OrderFOK OrderType = "FOK" // fill-or-kill (taker)
	OrderFAK OrderType = "FAK"
)

// OrderStatus is the closed set of placement outcomes.
type OrderStatus string

const (
	OrderStatusLive      OrderStatus = "LIVE"
	OrderStatusMatched   OrderStatus = "MATCHED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusDryRun    OrderStatus = "DRY_RUN"
)

// OrderRequest is an immutable order intent passed to the order client.
type OrderRequest struct {
	TokenID  string
	Side     OrderSide
	Price    float64
	Size     float64 // shares
	Type     OrderType
	PostOnly bool
}

// OrderResult is the immutable outcome of an order placement.
type OrderResult struct {
	OrderID      string
	Status       OrderStatus
	FilledSize   float64
	AvgFillPrice float64
}

// Failed reports whether the placement did not result in a working order.
func (r OrderResult) Failed() bool {
	return r.Status == OrderStatusFailed
}

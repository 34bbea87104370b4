package broker

import (
	"context"

	"github.com/shopspring/decimal"
)

// Connection describes one reachable brokerage connection as reported by the
// registry snapshot. LoadScore is the connection's active + pending order
// count at snapshot time.
type Connection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LoadScore int    `json:"loadScore"`
	Priority  int    `json:"priority"`
}

type OrderRequest struct {
	ClientOrderID string
	Token         int64
	Symbol        string
	Side          string
	Type          string
	Price         string
	TriggerPrice  string
	Qty           int
	Product       string
}

type OrderResponse struct {
	BrokerOrderID string
	Price         decimal.Decimal
}

// Adapter is the single capability a concrete brokerage integration exposes:
// submit one order, get back a result or an error.
type Adapter interface {
	Submit(ctx context.Context, req OrderRequest) (OrderResponse, error)
}

// Registry exposes the currently healthy connection set and routes a submit
// to the adapter behind a connection id.
type Registry interface {
	ListActive(ctx context.Context) []Connection
	Submit(ctx context.Context, brokerID string, req OrderRequest) (OrderResponse, error)
}

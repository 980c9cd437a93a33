package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// OrderExecutor envía órdenes reales al CLOB.
type OrderExecutor interface {
	// MarketBuy firma y envía una compra marketable por AmountUSD.
	// Un error significa que la orden no quedó confirmada.
	MarketBuy(ctx context.Context, req domain.OrderRequest) (domain.OrderResponse, error)
}

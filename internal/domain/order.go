package domain

// MaxLiveOrderUSD es el techo absoluto de una orden real, independiente de la config.
const MaxLiveOrderUSD = 5.0

// OrderRequest es una compra marketable enviada al exchange.
type OrderRequest struct {
	TokenID    string
	AmountUSD  float64
	LimitPrice float64 // peor precio aceptado, normalmente el último nivel del fill simulado
}

// OrderResponse es la confirmación del exchange.
type OrderResponse struct {
	OrderID      string
	Status       string
	TakingAmount float64 // shares recibidas
	MakingAmount float64 // USDC entregados
}

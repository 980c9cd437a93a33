package domain

import "math"

// minCostOrderUSD evita dividir el gas por un notional cero.
const minCostOrderUSD = 0.01

// CostModel convierte un edge bruto en edge neto.
// Todos los costes se expresan como fracción del notional.
type CostModel struct {
	FeeBps      float64
	SlippageBps float64
	GasUSD      float64
}

// CostBreakdown es el detalle de costes para un notional dado.
type CostBreakdown struct {
	FeeFrac      float64 `json:"fee_frac"`
	SlippageFrac float64 `json:"slippage_frac"`
	GasFrac      float64 `json:"gas_frac"`
	Total        float64 `json:"total"`
}

// Breakdown calcula los costes proporcionales para orderUSD.
// El gas es fijo en USD, así que pesa más cuanto menor es la orden.
func (c CostModel) Breakdown(orderUSD float64) CostBreakdown {
	b := CostBreakdown{
		FeeFrac:      c.FeeBps / 1e4,
		SlippageFrac: c.SlippageBps / 1e4,
		GasFrac:      c.GasUSD / math.Max(orderUSD, minCostOrderUSD),
	}
	b.Total = b.FeeFrac + b.SlippageFrac + b.GasFrac
	return b
}

// NetEdge devuelve grossEdge menos el coste total para orderUSD.
func (c CostModel) NetEdge(grossEdge, orderUSD float64) float64 {
	return grossEdge - c.Breakdown(orderUSD).Total
}

package domain

import "math"

const fillEpsilon = 1e-9

// FillResult es el resultado de simular una compra contra el ask.
type FillResult struct {
	AvgPrice    float64 `json:"avg_price"`
	Shares      float64 `json:"shares"`
	SpentUSD    float64 `json:"spent_usd"`
	LevelsUsed  int     `json:"levels_used"`
	SlippageBps float64 `json:"slippage_bps"`
	WorstPrice  float64 `json:"worst_price"`
}

// SimulateBuy recorre asks en el orden dado consumiendo hasta requestedUSD.
// Los niveles con precio o tamaño no positivo se ignoran. El slippage se mide
// contra el primer nivel válido del libro.
// Devuelve false si no se puede comprar ninguna share.
func SimulateBuy(asks []BookEntry, requestedUSD float64) (FillResult, bool) {
	if requestedUSD <= 0 || len(asks) == 0 {
		return FillResult{}, false
	}

	var res FillResult
	remaining := requestedUSD
	for _, lvl := range asks {
		if !lvl.valid() {
			continue
		}
		take := math.Min(remaining, lvl.Price*lvl.Size)
		if take <= 0 {
			continue
		}
		res.Shares += take / lvl.Price
		res.SpentUSD += take
		res.LevelsUsed++
		res.WorstPrice = lvl.Price
		remaining -= take
		if remaining <= fillEpsilon {
			break
		}
	}

	if res.Shares <= 0 || res.SpentUSD <= 0 {
		return FillResult{}, false
	}

	res.AvgPrice = res.SpentUSD / res.Shares
	top := bestPrice(asks)
	res.SlippageBps = (res.AvgPrice/top - 1) * 1e4
	return res, true
}

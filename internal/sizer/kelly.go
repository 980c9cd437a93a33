package sizer

import (
	"math"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const (
	kellyName        = "kelly"
	riskFractionName = "risk_fraction"

	defaultKellyFraction = 0.25
	defaultKellyMaxUSD   = 250
	defaultRiskFraction  = 0.02
	defaultRiskMaxUSD    = 200
)

// Kelly apuesta una fracción del Kelly completo, con tope en USD.
type Kelly struct {
	fraction float64
	maxUSD   float64
}

// NewKelly crea el sizer. Parámetros: fraction (se recorta a [0,1]), max_usd.
func NewKelly(p domain.Params) *Kelly {
	return &Kelly{
		fraction: domain.Clamp(p.Get("fraction", defaultKellyFraction), 0, 1),
		maxUSD:   p.Get("max_usd", defaultKellyMaxUSD),
	}
}

func (k *Kelly) Name() string { return kellyName }

// Size usa p = ModelPrice y q = MarketPrice de la señal.
func (k *Kelly) Size(sig domain.Signal, cash float64) (domain.SizedOrder, bool) {
	full := domain.KellyFraction(sig.ModelPrice, sig.MarketPrice)
	usd := math.Min(math.Min(cash*k.fraction*full, k.maxUSD), cash)
	return order(kellyName, sig, usd, map[string]any{
		"kelly_full":     full,
		"kelly_fraction": k.fraction,
		"max_usd":        k.maxUSD,
	})
}

// RiskFraction arriesga un porcentaje fijo del cash, con tope en USD.
type RiskFraction struct {
	fraction float64
	maxUSD   float64
}

// NewRiskFraction crea el sizer. Parámetros: risk_fraction, max_usd.
func NewRiskFraction(p domain.Params) *RiskFraction {
	return &RiskFraction{
		fraction: domain.Clamp(p.Get("risk_fraction", defaultRiskFraction), 0, 1),
		maxUSD:   p.Get("max_usd", defaultRiskMaxUSD),
	}
}

func (r *RiskFraction) Name() string { return riskFractionName }

func (r *RiskFraction) Size(sig domain.Signal, cash float64) (domain.SizedOrder, bool) {
	usd := math.Min(math.Min(cash*r.fraction, r.maxUSD), cash)
	return order(riskFractionName, sig, usd, map[string]any{"risk_fraction": r.fraction})
}

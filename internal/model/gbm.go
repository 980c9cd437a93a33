package model

import (
	"math"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const (
	gbmName = "kelly_gbm"

	defaultMinEdge         = 0.002
	defaultMinExpirySecs   = 60
	defaultConfidenceScale = 0.1
)

// GBM valora mercados de umbral de precio suponiendo que el subyacente sigue
// un movimiento browniano geométrico con drift igual al basis anualizado.
type GBM struct {
	minEdge         float64
	minExpiry       time.Duration
	confidenceScale float64
}

// NewGBM crea el modelo. Parámetros: min_edge, min_expiry_secs, confidence_scale.
func NewGBM(p domain.Params) *GBM {
	scale := p.Get("confidence_scale", defaultConfidenceScale)
	if scale <= 0 {
		scale = defaultConfidenceScale
	}
	return &GBM{
		minEdge:         p.Get("min_edge", defaultMinEdge),
		minExpiry:       time.Duration(p.Get("min_expiry_secs", defaultMinExpirySecs) * float64(time.Second)),
		confidenceScale: scale,
	}
}

// Name implementa Model.
func (g *GBM) Name() string { return gbmName }

// Evaluate implementa Model.
func (g *GBM) Evaluate(m domain.MarketSnapshot, ref domain.ReferenceState) (domain.Signal, bool) {
	if !m.HasMids() || ref.Spot <= 0 {
		return domain.Signal{}, false
	}
	target, ok := ParseTarget(m.Question)
	if !ok {
		return domain.Signal{}, false
	}
	t := m.TimeToExpiryYears(g.minExpiry)
	if t <= 0 {
		return domain.Signal{}, false
	}

	above := domain.ProbabilityAbove(ref.Spot, target.Strike, ref.BasisAnnual, ref.SigmaAnnual, t)
	pYes := above
	if target.Direction == AtOrBelow {
		pYes = 1 - above
	}

	side, model, market := domain.SideYes, pYes, m.YesMid
	if noEdge := (1 - pYes) - m.NoMid; noEdge > pYes-m.YesMid {
		side, model, market = domain.SideNo, 1-pYes, m.NoMid
	}

	edge := model - market
	if edge < g.minEdge {
		return domain.Signal{}, false
	}

	return domain.Signal{
		Model:       gbmName,
		Side:        side,
		TokenID:     m.TokenFor(side),
		MarketPrice: market,
		ModelPrice:  model,
		Edge:        edge,
		Confidence:  domain.Clamp(edge/g.confidenceScale, 0, 1),
		Metadata: map[string]any{
			"spot":         ref.Spot,
			"sigma_annual": math.Round(ref.SigmaAnnual*1e6) / 1e6,
			"basis_annual": ref.BasisAnnual,
			"strike":       target.Strike,
			"kind":         string(target.Direction),
			"t_years":      t,
		},
	}, true
}

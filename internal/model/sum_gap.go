package model

import "github.com/alejandrodnm/polyedge/internal/domain"

const (
	midSumGapName        = "mid_sum_gap"
	defaultEdgeThreshold = 0.01
)

// MidSumGap compra el lado más barato cuando yes_mid + no_mid queda por
// debajo de 1 en al menos edge_threshold. No usa el estado de referencia.
type MidSumGap struct {
	threshold float64
}

// NewMidSumGap crea el modelo. Parámetro: edge_threshold.
func NewMidSumGap(p domain.Params) *MidSumGap {
	return &MidSumGap{threshold: p.Get("edge_threshold", defaultEdgeThreshold)}
}

// Name implementa Model.
func (s *MidSumGap) Name() string { return midSumGapName }

// Evaluate implementa Model.
func (s *MidSumGap) Evaluate(m domain.MarketSnapshot, _ domain.ReferenceState) (domain.Signal, bool) {
	if !m.HasMids() {
		return domain.Signal{}, false
	}
	total := m.YesMid + m.NoMid
	gap := 1 - total
	if gap < s.threshold {
		return domain.Signal{}, false
	}

	side := domain.SideYes
	if m.NoMid < m.YesMid {
		side = domain.SideNo
	}
	market := m.MidFor(side)
	model := domain.Clamp(market+gap, 0, 1)
	edge := model - market
	if edge <= 0 {
		return domain.Signal{}, false
	}

	return domain.Signal{
		Model:       midSumGapName,
		Side:        side,
		TokenID:     m.TokenFor(side),
		MarketPrice: market,
		ModelPrice:  model,
		Edge:        edge,
		Confidence:  domain.Clamp(edge/defaultConfidenceScale, 0, 1),
		Metadata:    map[string]any{"total_mid": total},
	}, true
}

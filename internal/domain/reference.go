package domain

import "time"

// Fuentes de referencia tal como aparecen en metadata y logs.
const (
	SourceFallbackEqualsSpot = "fallback_equals_spot"
)

// ReferenceState es el estado del subyacente calculado una vez por ciclo.
type ReferenceState struct {
	Symbol           string
	Spot             float64
	Derivative       float64 // precio del perpetuo; igual a Spot si no hay fuente
	BasisAnnual      float64 // drift usado por los modelos
	SigmaAnnual      float64
	SpotSource       string
	DerivativeSource string
	VolSource        string
	ComputedAt       time.Time
}

// Fields devuelve el estado como pares para el event log.
func (r ReferenceState) Fields() map[string]any {
	return map[string]any{
		"symbol":            r.Symbol,
		"spot":              r.Spot,
		"derivative":        r.Derivative,
		"basis_annual":      r.BasisAnnual,
		"sigma_annual":      r.SigmaAnnual,
		"spot_source":       r.SpotSource,
		"derivative_source": r.DerivativeSource,
		"vol_source":        r.VolSource,
	}
}

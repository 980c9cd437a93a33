package model

import "github.com/alejandrodnm/polyedge/internal/domain"

const alwaysPassName = "always_pass"

// AlwaysPass nunca emite señal. Sirve de línea base.
type AlwaysPass struct{}

// Name implementa Model.
func (AlwaysPass) Name() string { return alwaysPassName }

// Evaluate implementa Model.
func (AlwaysPass) Evaluate(domain.MarketSnapshot, domain.ReferenceState) (domain.Signal, bool) {
	return domain.Signal{}, false
}

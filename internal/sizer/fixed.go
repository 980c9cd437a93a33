package sizer

import (
	"math"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const (
	fixedName       = "fixed"
	equalWeightName = "equal_weight"

	defaultFixedUSD = 25
	defaultSlots    = 10
)

// Fixed asigna siempre el mismo notional, limitado por el cash.
type Fixed struct {
	usd float64
}

// NewFixed crea el sizer. Parámetro: usd.
func NewFixed(p domain.Params) *Fixed {
	return &Fixed{usd: p.Get("usd", defaultFixedUSD)}
}

func (f *Fixed) Name() string { return fixedName }

func (f *Fixed) Size(sig domain.Signal, cash float64) (domain.SizedOrder, bool) {
	return order(fixedName, sig, math.Min(f.usd, cash), map[string]any{"usd": f.usd})
}

// EqualWeight reparte el cash en slots iguales.
type EqualWeight struct {
	slots int
}

// NewEqualWeight crea el sizer. Parámetro: slots (mínimo 1).
func NewEqualWeight(p domain.Params) *EqualWeight {
	slots := int(p.Get("slots", defaultSlots))
	if slots < 1 {
		slots = 1
	}
	return &EqualWeight{slots: slots}
}

func (e *EqualWeight) Name() string { return equalWeightName }

func (e *EqualWeight) Size(sig domain.Signal, cash float64) (domain.SizedOrder, bool) {
	return order(equalWeightName, sig, cash/float64(e.slots), map[string]any{"slots": e.slots})
}

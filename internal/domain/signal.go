package domain

import (
	"fmt"
	"strings"
)

// Side es el lado que compra una señal.
type Side string

const (
	SideYes Side = "buy_yes"
	SideNo  Side = "buy_no"
)

// Valid devuelve true si el lado es uno de los dos conocidos.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Outcome es el resultado de resolución de un mercado.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// ParseOutcome acepta yes/no/1/0/true/false, sin importar mayúsculas.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "1", "true":
		return OutcomeYes, nil
	case "no", "0", "false":
		return OutcomeNo, nil
	}
	return "", fmt.Errorf("invalid outcome %q: use yes/no", s)
}

// Pays devuelve el payout por share del lado dado bajo este resultado.
func (o Outcome) Pays(side Side) float64 {
	if (o == OutcomeYes && side == SideYes) || (o == OutcomeNo && side == SideNo) {
		return 1
	}
	return 0
}

// Signal es la recomendación de un modelo para un mercado.
type Signal struct {
	Model       string
	Side        Side
	TokenID     string
	MarketPrice float64 // midpoint del lado
	ModelPrice  float64 // probabilidad estimada del lado
	Edge        float64 // ModelPrice - MarketPrice
	Confidence  float64 // [0, 1]
	Metadata    map[string]any
}

// SizedOrder es el notional que un sizer asigna a una señal.
type SizedOrder struct {
	Sizer    string
	Side     Side
	TokenID  string
	OrderUSD float64
	Metadata map[string]any
}

// Package sizer convierte una Signal y el cash disponible en un notional.
package sizer

import (
	"fmt"
	"sort"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/plugins"
)

// Sizer define el contrato de dimensionamiento. El notional devuelto nunca
// supera cash y siempre es positivo cuando ok es true.
type Sizer interface {
	Name() string
	Size(sig domain.Signal, cash float64) (domain.SizedOrder, bool)
}

// Factory construye un sizer a partir de sus parámetros.
type Factory func(params domain.Params) (Sizer, error)

// Registry mantiene los sizers disponibles indexados por nombre.
type Registry map[string]Factory

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// Builtins devuelve un registry con los sizers incluidos.
func Builtins() Registry {
	r := NewRegistry()
	r.Register(fixedName, func(p domain.Params) (Sizer, error) { return NewFixed(p), nil })
	r.Register(equalWeightName, func(p domain.Params) (Sizer, error) { return NewEqualWeight(p), nil })
	r.Register(kellyName, func(p domain.Params) (Sizer, error) { return NewKelly(p), nil })
	r.Register(riskFractionName, func(p domain.Params) (Sizer, error) { return NewRiskFraction(p), nil })
	return r
}

// Register añade un sizer al registry.
func (r Registry) Register(name string, f Factory) {
	r[name] = f
}

// Names devuelve los nombres registrados ordenados.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New construye el sizer name, builtin o "archivo.so:Simbolo".
func (r Registry) New(name string, params domain.Params) (Sizer, error) {
	if f, ok := r[name]; ok {
		return f(params)
	}
	if !plugins.IsRef(name) {
		return nil, fmt.Errorf("sizer.New: %q: %w", name, domain.ErrUnknownSizer)
	}

	sym, err := plugins.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("sizer.New: %w", err)
	}
	switch f := sym.(type) {
	case func(domain.Params) (Sizer, error):
		return f(params)
	case *Factory:
		return (*f)(params)
	}
	return nil, fmt.Errorf("sizer.New: %q has type %T, want sizer.Factory", name, sym)
}

// order arma el SizedOrder o devuelve false si el notional no es positivo.
func order(name string, sig domain.Signal, usd float64, meta map[string]any) (domain.SizedOrder, bool) {
	if usd <= 0 {
		return domain.SizedOrder{}, false
	}
	return domain.SizedOrder{
		Sizer:    name,
		Side:     sig.Side,
		TokenID:  sig.TokenID,
		OrderUSD: usd,
		Metadata: meta,
	}, true
}

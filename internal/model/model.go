// Package model contiene los estimadores de valor justo que convierten un
// snapshot de mercado y el estado de referencia en una Signal.
package model

import (
	"fmt"
	"sort"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/plugins"
)

// Model define el contrato de un estimador. Los modelos no tienen estado
// más allá de su configuración.
type Model interface {
	// Name devuelve el identificador único del modelo.
	Name() string

	// Evaluate devuelve la señal del mercado, o false si no hay edge suficiente
	// o la pregunta no es interpretable por el modelo.
	Evaluate(market domain.MarketSnapshot, ref domain.ReferenceState) (domain.Signal, bool)
}

// Factory construye un modelo a partir de sus parámetros.
type Factory func(params domain.Params) (Model, error)

// Registry mantiene los modelos disponibles indexados por nombre.
type Registry map[string]Factory

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// Builtins devuelve un registry con los modelos incluidos.
func Builtins() Registry {
	r := NewRegistry()
	r.Register(alwaysPassName, func(domain.Params) (Model, error) { return AlwaysPass{}, nil })
	r.Register(gbmName, func(p domain.Params) (Model, error) { return NewGBM(p), nil })
	r.Register(midSumGapName, func(p domain.Params) (Model, error) { return NewMidSumGap(p), nil })
	return r
}

// Register añade un modelo al registry.
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

// New construye el modelo name. Acepta también "archivo.so:Simbolo", donde
// el símbolo debe ser un Factory o un func(domain.Params) (Model, error).
func (r Registry) New(name string, params domain.Params) (Model, error) {
	if f, ok := r[name]; ok {
		return f(params)
	}
	if !plugins.IsRef(name) {
		return nil, fmt.Errorf("model.New: %q: %w", name, domain.ErrUnknownModel)
	}

	sym, err := plugins.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("model.New: %w", err)
	}
	switch f := sym.(type) {
	case func(domain.Params) (Model, error):
		return f(params)
	case *Factory:
		return (*f)(params)
	}
	return nil, fmt.Errorf("model.New: %q has type %T, want model.Factory", name, sym)
}

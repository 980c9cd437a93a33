// Package reference calcula el estado del subyacente que consumen los modelos:
// spot, basis anualizado contra el perpetuo y volatilidad realizada.
package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

// Params controla la anualización y los pisos del cálculo.
type Params struct {
	Symbol              string
	BasisPeriodsPerYear float64 // 365
	VolPeriodsPerYear   float64 // 24×365 para velas horarias
	VolFloor            float64
	Window              int // número de cierres pedidos al CandleFeed
}

// DefaultParams devuelve los valores usados contra velas horarias de BTC.
func DefaultParams() Params {
	return Params{
		Symbol:              "BTC",
		BasisPeriodsPerYear: 365,
		VolPeriodsPerYear:   24 * 365,
		VolFloor:            0.05,
		Window:              240,
	}
}

// Inputs son los precios crudos de un ciclo.
type Inputs struct {
	Spot             float64
	Derivative       float64 // 0 si la fuente falló
	Closes           []float64
	SpotSource       string
	DerivativeSource string
	VolSource        string
}

// Compute construye el ReferenceState a partir de los inputs.
func Compute(in Inputs, p Params, at time.Time) (domain.ReferenceState, error) {
	if in.Spot <= 0 {
		return domain.ReferenceState{}, fmt.Errorf("reference.Compute: spot %.4f: %w", in.Spot, domain.ErrReferenceUnavailable)
	}

	sigma, err := RealizedVol(in.Closes, p.VolPeriodsPerYear, p.VolFloor)
	if err != nil {
		return domain.ReferenceState{}, fmt.Errorf("reference.Compute: %w", err)
	}

	deriv, derivSource := in.Derivative, in.DerivativeSource
	if deriv <= 0 {
		deriv, derivSource = in.Spot, domain.SourceFallbackEqualsSpot
	}

	return domain.ReferenceState{
		Symbol:           p.Symbol,
		Spot:             in.Spot,
		Derivative:       deriv,
		BasisAnnual:      Basis(in.Spot, deriv, p.BasisPeriodsPerYear),
		SigmaAnnual:      sigma,
		SpotSource:       in.SpotSource,
		DerivativeSource: derivSource,
		VolSource:        in.VolSource,
		ComputedAt:       at,
	}, nil
}

// Basis es la prima del perpetuo sobre spot anualizada.
func Basis(spot, derivative, periodsPerYear float64) float64 {
	if spot <= 0 {
		return 0
	}
	return (derivative/spot - 1) * periodsPerYear
}

// RealizedVol es la desviación estándar poblacional de los log-retornos
// anualizada por sqrt(periodsPerYear), con piso floor.
// Los cierres no positivos se ignoran.
func RealizedVol(closes []float64, periodsPerYear, floor float64) (float64, error) {
	var returns []float64
	prev := 0.0
	for _, c := range closes {
		if c <= 0 {
			continue
		}
		if prev > 0 {
			returns = append(returns, math.Log(c/prev))
		}
		prev = c
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("%d returns: %w", len(returns), domain.ErrInsufficientHistory)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Max(math.Sqrt(variance)*math.Sqrt(periodsPerYear), floor), nil
}

// Source implementa ports.ReferenceProvider sobre los tres feeds.
type Source struct {
	spot    ports.SpotFeed
	deriv   ports.DerivativeFeed // opcional
	candles ports.CandleFeed
	params  Params
	now     func() time.Time
}

// NewSource crea un Source. deriv puede ser nil: el basis será 0.
func NewSource(spot ports.SpotFeed, deriv ports.DerivativeFeed, candles ports.CandleFeed, p Params) *Source {
	return &Source{spot: spot, deriv: deriv, candles: candles, params: p, now: func() time.Time { return time.Now().UTC() }}
}

// Fetch consulta los feeds y calcula el estado. Un fallo de spot o de velas
// es fatal; un fallo del perpetuo cae a spot y se loguea.
func (s *Source) Fetch(ctx context.Context) (domain.ReferenceState, error) {
	in := Inputs{SpotSource: s.spot.Name(), VolSource: s.candles.Name()}

	spot, err := s.spot.SpotPrice(ctx)
	if err != nil {
		return domain.ReferenceState{}, fmt.Errorf("reference.Fetch: spot from %s: %w: %w", s.spot.Name(), domain.ErrReferenceUnavailable, err)
	}
	in.Spot = spot

	closes, err := s.candles.Closes(ctx, s.params.Window)
	if err != nil {
		return domain.ReferenceState{}, fmt.Errorf("reference.Fetch: candles from %s: %w: %w", s.candles.Name(), domain.ErrReferenceUnavailable, err)
	}
	in.Closes = closes

	if s.deriv != nil {
		in.DerivativeSource = s.deriv.Name()
		d, err := s.deriv.DerivativePrice(ctx)
		if err != nil {
			slog.Warn("derivative price unavailable, using spot", "source", s.deriv.Name(), "err", err)
		} else {
			in.Derivative = d
		}
	}

	state, err := Compute(in, s.params, s.now())
	if err != nil {
		if !errors.Is(err, domain.ErrReferenceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrReferenceUnavailable, err)
		}
		return domain.ReferenceState{}, err
	}

	slog.Debug("reference state computed",
		"spot", state.Spot,
		"basis_annual", state.BasisAnnual,
		"sigma_annual", state.SigmaAnnual,
		"derivative_source", state.DerivativeSource,
	)
	return state, nil
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrReferenceUnavailable aborta el ciclo: sin spot o sin volatilidad no hay modelo.
	ErrReferenceUnavailable = errors.New("reference state unavailable")
	// ErrInsufficientHistory indica menos de dos retornos para estimar volatilidad.
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrMissingPrice        = errors.New("missing midpoint")
	ErrUnfillable          = errors.New("order not fillable against book")
	ErrInsufficientCash    = errors.New("insufficient cash")
	ErrLiveOverCap         = errors.New("live order above hard cap")
	ErrLiveNotConfirmed    = errors.New("live execution not confirmed")
	ErrUnknownModel        = errors.New("unknown model")
	ErrUnknownSizer        = errors.New("unknown sizer")
	ErrNoAccount           = errors.New("ledger account not initialized")
)

// MarketError es un fallo aislado a un mercado; nunca aborta el ciclo.
type MarketError struct {
	Slug string
	Op   string
	Err  error
}

func (e *MarketError) Error() string {
	return fmt.Sprintf("market %s: %s: %v", e.Slug, e.Op, e.Err)
}

func (e *MarketError) Unwrap() error {
	return e.Err
}

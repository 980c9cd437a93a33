package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// SpotFeed devuelve el último precio spot del subyacente.
type SpotFeed interface {
	SpotPrice(ctx context.Context) (float64, error)
	Name() string
}

// DerivativeFeed devuelve el último precio del perpetuo.
type DerivativeFeed interface {
	DerivativePrice(ctx context.Context) (float64, error)
	Name() string
}

// CandleFeed devuelve cierres horarios, del más antiguo al más reciente.
type CandleFeed interface {
	Closes(ctx context.Context, count int) ([]float64, error)
	Name() string
}

// ReferenceProvider calcula el estado de referencia de un ciclo.
type ReferenceProvider interface {
	Fetch(ctx context.Context) (domain.ReferenceState, error)
}

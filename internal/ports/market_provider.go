package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// MarketProvider obtiene el listado de mercados activos.
type MarketProvider interface {
	// FetchMarkets devuelve hasta limit mercados activos sin cerrar.
	// Los midpoints vienen vacíos; se rellenan con MidpointProvider.
	FetchMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error)
}

// MidpointProvider obtiene midpoints del CLOB en lotes.
type MidpointProvider interface {
	// FetchMidpoints devuelve tokenID → mid. Los tokens sin mid no aparecen.
	FetchMidpoints(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}

package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// LedgerStore persiste la cuenta, los trades y los runs.
// Toda operación que mueve cash lo hace en la misma transacción que el trade.
type LedgerStore interface {
	// InitAccount crea la cuenta con el bankroll dado si no existe.
	// Devuelve false si ya existía (y no la modifica).
	InitAccount(ctx context.Context, bankroll float64) (bool, error)

	GetAccount(ctx context.Context) (domain.Account, error)

	// OpenTrade debita t.Notional e inserta el trade abierto de forma atómica.
	// Devuelve domain.ErrInsufficientCash sin escribir nada si no alcanza.
	OpenTrade(ctx context.Context, t domain.Trade) (int64, error)

	// SettleMarket cierra todos los trades abiertos del slug y acredita el payout.
	SettleMarket(ctx context.Context, slug string, outcome domain.Outcome, at time.Time) ([]domain.Trade, error)

	OpenTrades(ctx context.Context) ([]domain.Trade, error)
	ClosedTrades(ctx context.Context) ([]domain.Trade, error)

	SaveRun(ctx context.Context, run domain.Run) error
	Runs(ctx context.Context, limit int) ([]domain.Run, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

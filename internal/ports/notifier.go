package ports

import (
	"context"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// Notifier presenta el resultado de cada ciclo al usuario.
type Notifier interface {
	NotifyCycle(ctx context.Context, summary domain.CycleSummary) error
}

// EventLog es el log estructurado append-only de decisiones.
type EventLog interface {
	Append(ev domain.Event) error
}

package domain

import (
	"encoding/json"
	"time"
)

// Acciones del event log. Son contrato de salida: no renombrar.
const (
	ActionRunStart           = "run_start"
	ActionEvaluation         = "evaluation"
	ActionMarketError        = "market_error"
	ActionDecision           = "decision"
	ActionBlockedThreshold   = "signal_blocked_threshold"
	ActionBlockedPersistence = "signal_blocked_persistence"
	ActionBlockedCooldown    = "signal_blocked_cooldown"
	ActionUnfillable         = "unfillable"
	ActionPaperTradeSignal   = "paper_trade_signal"
	ActionBlockedMissingLive = "blocked_missing_confirm_live"
	ActionBlockedLiveOverCap = "blocked_live_over_cap"
	ActionLiveOrderSubmitted = "live_order_submitted"
	ActionExecutionError     = "execution_error"
	ActionLedgerError        = "ledger_error"
	ActionRunSummary         = "run_summary"
	ActionRunError           = "run_error"
)

// Event es un registro del event log. Fields se aplana al mismo nivel que
// las claves fijas al serializar.
type Event struct {
	TS     time.Time
	Action string
	RunID  string
	RunSeq int
	Slug   string
	Fields map[string]any
}

// NewEvent crea un evento con timestamp UTC.
func NewEvent(action, runID string, seq int) Event {
	return Event{TS: time.Now().UTC(), Action: action, RunID: runID, RunSeq: seq, Fields: map[string]any{}}
}

// With añade un campo y devuelve el evento para encadenar.
func (e Event) With(key string, value any) Event {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[key] = value
	return e
}

// WithSlug fija el mercado del evento.
func (e Event) WithSlug(slug string) Event {
	e.Slug = slug
	return e
}

// MarshalJSON serializa el evento como un objeto plano.
func (e Event) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Fields)+5)
	for k, v := range e.Fields {
		flat[k] = v
	}
	flat["ts"] = e.TS.UTC().Format(time.RFC3339Nano)
	flat["action"] = e.Action
	if e.RunID != "" {
		flat["run_id"] = e.RunID
		flat["run_seq"] = e.RunSeq
	}
	if e.Slug != "" {
		flat["slug"] = e.Slug
	}
	return json.Marshal(flat)
}

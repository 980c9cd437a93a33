package domain

import (
	"math"
	"time"
)

// TradeStatus es el estado de ciclo de vida de un trade.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// Trade es una posición hipotética o real registrada en el ledger.
type Trade struct {
	ID          int64
	RunID       string
	OpenedAt    time.Time
	MarketID    string
	Slug        string
	Question    string
	Side        Side
	TokenID     string
	EntryPrice  float64
	Shares      float64
	Notional    float64
	ModelPrice  float64
	Edge        float64
	Confidence  float64
	Status      TradeStatus
	ClosedAt    *time.Time
	ExitPrice   *float64 // payout por share al liquidar
	RealizedPnL *float64
	Label       string
	Notes       TradeNotes
}

// TradeNotes es la metadata libre que acompaña a un trade.
type TradeNotes struct {
	Mode        string         `json:"mode,omitempty"`
	SlippageBps float64        `json:"slippage_bps"`
	FillLevels  int            `json:"fill_levels"`
	Cost        CostBreakdown  `json:"cost"`
	NetEdge     float64        `json:"net_edge"`
	SizerMeta   map[string]any `json:"sizer,omitempty"`
	SignalMeta  map[string]any `json:"signal,omitempty"`
	OrderID     string         `json:"order_id,omitempty"`
	OrderStatus string         `json:"order_status,omitempty"`
}

// IsOpen devuelve true si el trade no se ha liquidado.
func (t Trade) IsOpen() bool {
	return t.Status == TradeOpen
}

// Settle devuelve el trade cerrado bajo outcome y el efectivo a acreditar.
// PnL realizado = shares × payout − notional.
func (t Trade) Settle(outcome Outcome, at time.Time) (Trade, float64) {
	payout := outcome.Pays(t.Side)
	credit := t.Shares * payout
	pnl := credit - t.Notional

	t.Status = TradeClosed
	t.ClosedAt = &at
	t.ExitPrice = &payout
	t.RealizedPnL = &pnl
	return t, credit
}

// Valuation es el mark-to-market de un trade abierto.
type Valuation struct {
	Trade            Trade
	MarkPrice        float64
	MarkValue        float64
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
}

// Mark valora los trades abiertos con los midpoints dados (tokenID → mid).
// Los trades cerrados o sin mid se omiten. No tiene efectos secundarios.
func Mark(trades []Trade, mids map[string]float64) []Valuation {
	out := make([]Valuation, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen() {
			continue
		}
		mid, ok := mids[t.TokenID]
		if !ok {
			continue
		}
		value := t.Shares * mid
		unrealized := value - t.Notional
		out = append(out, Valuation{
			Trade:            t,
			MarkPrice:        mid,
			MarkValue:        value,
			UnrealizedPnL:    unrealized,
			UnrealizedPnLPct: unrealized / math.Max(t.Notional, 1e-9),
		})
	}
	return out
}

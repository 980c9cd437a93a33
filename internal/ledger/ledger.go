// Package ledger es la contabilidad de posiciones: abre trades contra el cash,
// los valora a mercado y los liquida cuando el mercado resuelve.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/ports"
	"github.com/shopspring/decimal"
)

// OpenRequest son los datos de un fill confirmado.
type OpenRequest struct {
	RunID    string
	Market   domain.MarketSnapshot
	Signal   domain.Signal
	Fill     domain.FillResult
	Label    string
	Notes    domain.TradeNotes
	OpenedAt time.Time
}

// Ledger envuelve un LedgerStore con validación y logging.
type Ledger struct {
	store ports.LedgerStore
	now   func() time.Time
}

// New crea un Ledger sobre store.
func New(store ports.LedgerStore) *Ledger {
	return &Ledger{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Init crea la cuenta con bankroll si no existe.
func (l *Ledger) Init(ctx context.Context, bankroll float64) (bool, error) {
	if bankroll <= 0 {
		return false, fmt.Errorf("ledger.Init: bankroll must be positive, got %.2f", bankroll)
	}
	created, err := l.store.InitAccount(ctx, bankroll)
	if err != nil {
		return false, fmt.Errorf("ledger.Init: %w", err)
	}
	if created {
		slog.Info("ledger initialized", "bankroll", bankroll)
	}
	return created, nil
}

// Account devuelve la cuenta.
func (l *Ledger) Account(ctx context.Context) (domain.Account, error) {
	return l.store.GetAccount(ctx)
}

// Cash devuelve el cash disponible.
func (l *Ledger) Cash(ctx context.Context) (float64, error) {
	acct, err := l.store.GetAccount(ctx)
	if err != nil {
		return 0, err
	}
	return acct.Cash, nil
}

// Open registra un trade abierto a partir de un fill y debita su coste.
func (l *Ledger) Open(ctx context.Context, req OpenRequest) (int64, error) {
	if !req.Signal.Side.Valid() {
		return 0, fmt.Errorf("ledger.Open: invalid side %q", req.Signal.Side)
	}
	if req.Fill.Shares <= 0 || req.Fill.SpentUSD <= 0 {
		return 0, fmt.Errorf("ledger.Open: empty fill for %s: %w", req.Market.Slug, domain.ErrUnfillable)
	}

	openedAt := req.OpenedAt
	if openedAt.IsZero() {
		openedAt = l.now()
	}
	notional := roundUSD(req.Fill.SpentUSD)
	t := domain.Trade{
		RunID:      req.RunID,
		OpenedAt:   openedAt,
		MarketID:   req.Market.ID,
		Slug:       req.Market.Slug,
		Question:   req.Market.Question,
		Side:       req.Signal.Side,
		TokenID:    req.Signal.TokenID,
		EntryPrice: req.Fill.AvgPrice,
		Shares:     req.Fill.Shares,
		Notional:   notional,
		ModelPrice: req.Signal.ModelPrice,
		Edge:       req.Signal.Edge,
		Confidence: req.Signal.Confidence,
		Status:     domain.TradeOpen,
		Label:      req.Label,
		Notes:      req.Notes,
	}
	t.Notes.SlippageBps = req.Fill.SlippageBps
	t.Notes.FillLevels = req.Fill.LevelsUsed

	id, err := l.store.OpenTrade(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("ledger.Open: %s: %w", req.Market.Slug, err)
	}
	slog.Debug("trade opened",
		"id", id,
		"slug", t.Slug,
		"side", t.Side,
		"shares", t.Shares,
		"notional", t.Notional,
	)
	return id, nil
}

// Mark valora trades contra mids sin escribir nada.
func (l *Ledger) Mark(trades []domain.Trade, mids map[string]float64) []domain.Valuation {
	return domain.Mark(trades, mids)
}

// OpenTrades devuelve los trades abiertos.
func (l *Ledger) OpenTrades(ctx context.Context) ([]domain.Trade, error) {
	return l.store.OpenTrades(ctx)
}

// MarkOpen lee los trades abiertos y los valora con mids.
func (l *Ledger) MarkOpen(ctx context.Context, mids map[string]float64) ([]domain.Valuation, error) {
	open, err := l.store.OpenTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.MarkOpen: %w", err)
	}
	return domain.Mark(open, mids), nil
}

// Settle liquida todos los trades abiertos del mercado slug.
func (l *Ledger) Settle(ctx context.Context, slug string, outcome domain.Outcome) ([]domain.Trade, error) {
	if slug == "" {
		return nil, errors.New("ledger.Settle: empty slug")
	}
	closed, err := l.store.SettleMarket(ctx, slug, outcome, l.now())
	if err != nil {
		return nil, fmt.Errorf("ledger.Settle: %w", err)
	}
	var pnl float64
	for _, t := range closed {
		pnl += *t.RealizedPnL
	}
	slog.Info("market settled", "slug", slug, "outcome", outcome, "trades", len(closed), "realized_pnl", roundUSD(pnl))
	return closed, nil
}

// Summary calcula equity y PnL con los mids dados.
func (l *Ledger) Summary(ctx context.Context, mids map[string]float64) (domain.AccountSummary, []domain.Valuation, error) {
	acct, err := l.store.GetAccount(ctx)
	if err != nil {
		return domain.AccountSummary{}, nil, fmt.Errorf("ledger.Summary: %w", err)
	}
	open, err := l.store.OpenTrades(ctx)
	if err != nil {
		return domain.AccountSummary{}, nil, fmt.Errorf("ledger.Summary: %w", err)
	}
	vals := domain.Mark(open, mids)
	return domain.Summarize(acct, open, vals), vals, nil
}

// History devuelve los trades cerrados con PnL realizado y win rate.
func (l *Ledger) History(ctx context.Context) (domain.History, error) {
	closed, err := l.store.ClosedTrades(ctx)
	if err != nil {
		return domain.History{}, fmt.Errorf("ledger.History: %w", err)
	}
	return domain.NewHistory(closed), nil
}

// RecordRun persiste el registro de un ciclo.
func (l *Ledger) RecordRun(ctx context.Context, run domain.Run) error {
	return l.store.SaveRun(ctx, run)
}

// Runs devuelve los últimos limit runs.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	return l.store.Runs(ctx, limit)
}

// roundUSD redondea a 6 decimales, la precisión de USDC.
func roundUSD(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(6).Float64()
	return f
}

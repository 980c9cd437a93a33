package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// SchemaVersion versiona la forma de los envelopes JSON.
const SchemaVersion = 1

type envelope struct {
	SchemaVersion int       `json:"schema_version"`
	Kind          string    `json:"kind"`
	GeneratedAt   time.Time `json:"generated_at"`
	Data          any       `json:"data"`
}

// emit escribe un envelope por línea.
func (c *Console) emit(kind string, data any) error {
	enc := json.NewEncoder(c.out)
	if err := enc.Encode(envelope{
		SchemaVersion: SchemaVersion,
		Kind:          kind,
		GeneratedAt:   time.Now().UTC(),
		Data:          data,
	}); err != nil {
		return fmt.Errorf("notify: encode %s: %w", kind, err)
	}
	return nil
}

type marketView struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Question  string    `json:"question"`
	YesMid    float64   `json:"yes_mid"`
	NoMid     float64   `json:"no_mid"`
	Liquidity float64   `json:"liquidity"`
	Volume    float64   `json:"volume"`
	EndDate   time.Time `json:"end_date"`
}

func newMarketView(m domain.MarketSnapshot) marketView {
	return marketView{
		ID:        m.ID,
		Slug:      m.Slug,
		Question:  m.Question,
		YesMid:    m.YesMid,
		NoMid:     m.NoMid,
		Liquidity: m.Liquidity,
		Volume:    m.Volume,
		EndDate:   m.EndDate,
	}
}

type evaluationView struct {
	Slug        string               `json:"slug"`
	Side        string               `json:"side"`
	MarketPrice float64              `json:"market_price"`
	ModelPrice  float64              `json:"model_price"`
	Edge        float64              `json:"edge"`
	Cost        domain.CostBreakdown `json:"cost"`
	NetEdge     float64              `json:"net_edge"`
	OrderUSD    float64              `json:"order_usd"`
	Persistence int                  `json:"persistence"`
}

type actionView struct {
	Slug    string  `json:"slug"`
	Side    string  `json:"side"`
	NetEdge float64 `json:"net_edge"`
	Result  string  `json:"result"`
	TradeID int64   `json:"trade_id,omitempty"`
	Detail  string  `json:"detail,omitempty"`
}

type cycleView struct {
	RunID          string           `json:"run_id"`
	Seq            int              `json:"seq"`
	Mode           string           `json:"mode"`
	MarketsScanned int              `json:"markets_scanned"`
	Evaluated      int              `json:"evaluated"`
	OverThreshold  int              `json:"over_threshold"`
	Signals        int              `json:"signals"`
	Cash           float64          `json:"cash"`
	Top            []evaluationView `json:"top"`
	Actions        []actionView     `json:"actions"`
}

func newCycleView(s domain.CycleSummary) cycleView {
	v := cycleView{
		RunID:          s.RunID,
		Seq:            s.Seq,
		Mode:           s.Mode,
		MarketsScanned: s.MarketsScanned,
		Evaluated:      s.Evaluated,
		OverThreshold:  s.OverThreshold,
		Signals:        s.Signals,
		Cash:           s.Cash,
		Top:            make([]evaluationView, len(s.Top)),
		Actions:        make([]actionView, len(s.Actions)),
	}
	for i, ev := range s.Top {
		v.Top[i] = evaluationView{
			Slug:        ev.Snapshot.Slug,
			Side:        string(ev.Signal.Side),
			MarketPrice: ev.Signal.MarketPrice,
			ModelPrice:  ev.Signal.ModelPrice,
			Edge:        ev.Signal.Edge,
			Cost:        ev.Cost,
			NetEdge:     ev.NetEdge,
			OrderUSD:    ev.Order.OrderUSD,
			Persistence: ev.Persistence,
		}
	}
	for i, a := range s.Actions {
		v.Actions[i] = actionView{
			Slug:    a.Slug,
			Side:    string(a.Side),
			NetEdge: a.NetEdge,
			Result:  a.Result,
			TradeID: a.TradeID,
			Detail:  a.Detail,
		}
	}
	return v
}

type tradeView struct {
	ID          int64             `json:"id"`
	RunID       string            `json:"run_id"`
	OpenedAt    time.Time         `json:"opened_at"`
	Slug        string            `json:"slug"`
	Question    string            `json:"question"`
	Side        string            `json:"side"`
	TokenID     string            `json:"token_id"`
	EntryPrice  float64           `json:"entry_price"`
	Shares      float64           `json:"shares"`
	Notional    float64           `json:"notional"`
	ModelPrice  float64           `json:"model_price"`
	Edge        float64           `json:"edge"`
	Status      string            `json:"status"`
	ClosedAt    *time.Time        `json:"closed_at,omitempty"`
	ExitPrice   *float64          `json:"exit_price,omitempty"`
	RealizedPnL *float64          `json:"realized_pnl,omitempty"`
	Label       string            `json:"label,omitempty"`
	Notes       domain.TradeNotes `json:"notes"`
}

func newTradeView(t domain.Trade) tradeView {
	return tradeView{
		ID:          t.ID,
		RunID:       t.RunID,
		OpenedAt:    t.OpenedAt,
		Slug:        t.Slug,
		Question:    t.Question,
		Side:        string(t.Side),
		TokenID:     t.TokenID,
		EntryPrice:  t.EntryPrice,
		Shares:      t.Shares,
		Notional:    t.Notional,
		ModelPrice:  t.ModelPrice,
		Edge:        t.Edge,
		Status:      string(t.Status),
		ClosedAt:    t.ClosedAt,
		ExitPrice:   t.ExitPrice,
		RealizedPnL: t.RealizedPnL,
		Label:       t.Label,
		Notes:       t.Notes,
	}
}

type positionView struct {
	tradeView
	MarkPrice     *float64 `json:"mark_price,omitempty"`
	MarkValue     *float64 `json:"mark_value,omitempty"`
	UnrealizedPnL *float64 `json:"unrealized_pnl,omitempty"`
}

func newPositionView(t domain.Trade, v domain.Valuation, marked bool) positionView {
	p := positionView{tradeView: newTradeView(t)}
	if marked {
		p.MarkPrice = &v.MarkPrice
		p.MarkValue = &v.MarkValue
		p.UnrealizedPnL = &v.UnrealizedPnL
	}
	return p
}

type accountView struct {
	StartingCapital float64 `json:"starting_capital"`
	Cash            float64 `json:"cash"`
	OpenPositions   int     `json:"open_positions"`
	MarkValue       float64 `json:"mark_value"`
	Equity          float64 `json:"equity"`
	PnL             float64 `json:"pnl"`
}

func newAccountView(s domain.AccountSummary) accountView {
	return accountView{
		StartingCapital: s.StartingCapital,
		Cash:            s.Cash,
		OpenPositions:   s.OpenPositions,
		MarkValue:       s.MarkValue,
		Equity:          s.Equity,
		PnL:             s.PnL,
	}
}

type historyView struct {
	Trades      []tradeView `json:"trades"`
	RealizedPnL float64     `json:"realized_pnl"`
	Wins        int         `json:"wins"`
	WinRate     float64     `json:"win_rate"`
}

type runView struct {
	ID             string         `json:"id"`
	Seq            int            `json:"seq"`
	At             time.Time      `json:"at"`
	Mode           string         `json:"mode"`
	Model          string         `json:"model"`
	Sizer          string         `json:"sizer"`
	ExperimentTag  string         `json:"experiment_tag,omitempty"`
	Query          string         `json:"query"`
	MarketsScanned int            `json:"markets_scanned"`
	Opportunities  int            `json:"opportunities"`
	Signals        int            `json:"signals"`
	Params         map[string]any `json:"params,omitempty"`
}

func newRunView(r domain.Run) runView {
	return runView{
		ID:             r.ID,
		Seq:            r.Seq,
		At:             r.At,
		Mode:           r.Mode,
		Model:          r.Model,
		Sizer:          r.Sizer,
		ExperimentTag:  r.ExperimentTag,
		Query:          r.Query,
		MarketsScanned: r.MarketsScanned,
		Opportunities:  r.Opportunities,
		Signals:        r.Signals,
		Params:         r.Params,
	}
}

// Package scanner orquesta el ciclo de scan: mercados → midpoints →
// referencia → modelo → sizer → costes → gate → fill → ledger/orden real.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/gate"
	"github.com/alejandrodnm/polyedge/internal/ledger"
	"github.com/alejandrodnm/polyedge/internal/model"
	"github.com/alejandrodnm/polyedge/internal/ports"
	"github.com/alejandrodnm/polyedge/internal/sizer"
	"github.com/google/uuid"
)

// Config contiene la configuración del scanner.
type Config struct {
	// Interval entre ciclos. Cero o negativo ejecuta un único ciclo.
	Interval time.Duration
	// MaxCycles detiene el loop tras N ciclos. Cero = sin límite.
	MaxCycles    int
	Limit        int
	TopN         int
	Filter       FilterConfig
	Costs        domain.CostModel
	Mode         string
	ConfirmLive  bool
	LiveOrderUSD float64
	// MaxPaperOrderUSD limita el notional en modo paper. Cero = sin tope.
	MaxPaperOrderUSD float64
	ExperimentTag    string
	Label            string
	// Params se guarda tal cual en cada Run para reproducir el experimento.
	Params map[string]any
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Limit:            50,
		TopN:             5,
		Filter:           DefaultFilterConfig(),
		Costs:            domain.CostModel{SlippageBps: 20, GasUSD: 0.02},
		Mode:             domain.ModePaper,
		LiveOrderUSD:     domain.MaxLiveOrderUSD,
		MaxPaperOrderUSD: 100,
	}
}

// Deps son los colaboradores del scanner. Executor solo hace falta en modo
// live; Events y Notifier pueden ser nil.
type Deps struct {
	Markets   ports.MarketProvider
	Mids      ports.MidpointProvider
	Books     ports.BookProvider
	Reference ports.ReferenceProvider
	Model     model.Model
	Sizer     sizer.Sizer
	Ledger    *ledger.Ledger
	Gate      *gate.Gate
	Executor  ports.OrderExecutor
	Events    ports.EventLog
	Notifier  ports.Notifier
}

// Scanner es el orquestador principal del loop de escaneo.
type Scanner struct {
	cfg       Config
	markets   ports.MarketProvider
	mids      ports.MidpointProvider
	books     ports.BookProvider
	reference ports.ReferenceProvider
	model     model.Model
	sizer     sizer.Sizer
	ledger    *ledger.Ledger
	gate      *gate.Gate
	executor  ports.OrderExecutor
	events    ports.EventLog
	notifier  ports.Notifier
	filter    *Filter

	seq      int
	newRunID func() string
	now      func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(cfg Config, d Deps) *Scanner {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModePaper
	}
	events := d.Events
	if events == nil {
		events = nopEvents{}
	}
	g := d.Gate
	if g == nil {
		g = gate.New(gate.DefaultConfig())
	}
	return &Scanner{
		cfg:       cfg,
		markets:   d.Markets,
		mids:      d.Mids,
		books:     d.Books,
		reference: d.Reference,
		model:     d.Model,
		sizer:     d.Sizer,
		ledger:    d.Ledger,
		gate:      g,
		executor:  d.Executor,
		events:    events,
		notifier:  d.Notifier,
		filter:    NewFilter(cfg.Filter),
		newRunID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Run ejecuta ciclos hasta que el contexto se cancele o se alcance MaxCycles.
// El primer ciclo corre inmediatamente. Un ciclo fallido se registra como
// run_error y el loop sigue; con un solo ciclo el error se devuelve.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.Interval,
		"mode", s.cfg.Mode,
		"model", s.model.Name(),
		"sizer", s.sizer.Name(),
		"max_cycles", s.cfg.MaxCycles,
	)

	single := s.cfg.Interval <= 0 || s.cfg.MaxCycles == 1
	cycles := 0

	err := s.runCycle(ctx)
	cycles++
	if single {
		return err
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if s.cfg.MaxCycles > 0 && cycles >= s.cfg.MaxCycles {
			slog.Info("scanner finished", "cycles", cycles)
			return nil
		}
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped", "cycles", cycles)
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				slog.Info("scanner stopped", "cycles", cycles)
				return nil
			}
			_ = s.runCycle(ctx)
			cycles++
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve su resumen.
func (s *Scanner) RunOnce(ctx context.Context) (domain.CycleSummary, error) {
	return s.cycle(ctx)
}

// runCycle ejecuta un ciclo completo, notifica el resultado y registra el error si lo hay.
// La cancelación de ctx solo se observa entre ciclos: un ciclo empezado termina
// sus escrituras en el ledger y el registro del run.
func (s *Scanner) runCycle(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	sum, err := s.cycle(ctx)
	if err != nil {
		slog.Error("scan cycle failed", "run_id", sum.RunID, "err", err)
		s.emit(domain.NewEvent(domain.ActionRunError, sum.RunID, sum.Seq).With("error", err.Error()))
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyCycle(ctx, sum); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("scan cycle complete",
		"run_id", sum.RunID,
		"markets", sum.MarketsScanned,
		"evaluated", sum.Evaluated,
		"signals", sum.Signals,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch → evaluate → rank → gate → execute → record.
func (s *Scanner) cycle(ctx context.Context) (domain.CycleSummary, error) {
	s.seq++
	sum := domain.CycleSummary{RunID: s.newRunID(), Seq: s.seq, Mode: s.cfg.Mode}

	markets, err := s.markets.FetchMarkets(ctx, s.cfg.Limit)
	if err != nil {
		return sum, fmt.Errorf("scanner.cycle: fetch markets: %w", err)
	}
	markets = s.filter.Apply(markets)
	sum.MarketsScanned = len(markets)

	mids, err := s.mids.FetchMidpoints(ctx, tokenIDs(markets))
	if err != nil {
		return sum, fmt.Errorf("scanner.cycle: fetch midpoints: %w", err)
	}

	ref, err := s.reference.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrReferenceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrReferenceUnavailable, err)
		}
		return sum, fmt.Errorf("scanner.cycle: %w", err)
	}

	cash, err := s.ledger.Cash(ctx)
	if err != nil {
		return sum, fmt.Errorf("scanner.cycle: ledger cash: %w", err)
	}

	gcfg := s.gate.Config()
	s.emit(domain.NewEvent(domain.ActionRunStart, sum.RunID, sum.Seq).
		With("mode", s.cfg.Mode).
		With("query", s.cfg.Filter.Query).
		With("active_markets", len(markets)).
		With("model", s.model.Name()).
		With("sizer", s.sizer.Name()).
		With("experiment_tag", s.cfg.ExperimentTag).
		With("threshold", gcfg.Threshold).
		With("min_persist_runs", gcfg.MinPersistRuns).
		With("signal_cooldown_runs", gcfg.CooldownRuns).
		With("min_improvement_bps", gcfg.MinImprovementBps).
		With("fee_bps", s.cfg.Costs.FeeBps).
		With("slippage_bps", s.cfg.Costs.SlippageBps).
		With("gas_usd", s.cfg.Costs.GasUSD).
		With("live_order_usd", s.cfg.LiveOrderUSD).
		With("max_paper_order_usd", s.cfg.MaxPaperOrderUSD).
		With("cash", cash).
		With("params", s.cfg.Params).
		With("reference", ref.Fields()))

	evals := s.evaluate(sum.RunID, sum.Seq, markets, mids, ref, cash)
	rank(evals)

	edges := make(map[string]float64, len(evals))
	for _, ev := range evals {
		if ev.Snapshot.Slug == "" {
			continue
		}
		if _, seen := edges[ev.Snapshot.Slug]; !seen {
			edges[ev.Snapshot.Slug] = ev.NetEdge
		}
	}
	s.gate.Advance(edges)
	for i := range evals {
		evals[i].Persistence = s.gate.Persistence(evals[i].Snapshot.Slug)
		if evals[i].NetEdge >= gcfg.Threshold {
			sum.OverThreshold++
		}
	}
	sum.Evaluated = len(evals)

	top := evals[:min(s.cfg.TopN, len(evals))]
	sum.Top = top
	for _, ev := range top {
		act := s.decide(ctx, sum.RunID, sum.Seq, ev)
		if act.Result == domain.ActionPaperTradeSignal || act.Result == domain.ActionLiveOrderSubmitted {
			sum.Signals++
		}
		sum.Actions = append(sum.Actions, act)
	}

	s.record(ctx, &sum)
	return sum, nil
}

// evaluate pasa cada mercado con midpoints por modelo, sizer y costes.
func (s *Scanner) evaluate(
	runID string,
	seq int,
	markets []domain.MarketSnapshot,
	mids map[string]float64,
	ref domain.ReferenceState,
	cash float64,
) []domain.Evaluation {
	now := s.now()
	evals := make([]domain.Evaluation, 0, len(markets))
	for _, m := range markets {
		yes, okYes := mids[m.YesTokenID]
		no, okNo := mids[m.NoTokenID]
		if !okYes || !okNo {
			s.marketError(runID, seq, &domain.MarketError{Slug: m.Slug, Op: "midpoint", Err: domain.ErrMissingPrice})
			continue
		}
		m.YesMid, m.NoMid = yes, no
		if m.ScannedAt.IsZero() {
			m.ScannedAt = now
		}

		sig, ok, err := s.safeEvaluate(m, ref)
		if err != nil {
			s.marketError(runID, seq, &domain.MarketError{Slug: m.Slug, Op: "evaluate", Err: err})
			continue
		}
		if !ok {
			continue
		}

		ev := s.assess(m, sig, cash)
		evals = append(evals, ev)
		s.emit(withFields(domain.NewEvent(domain.ActionEvaluation, runID, seq).WithSlug(m.Slug), ev.Fields()))
	}
	return evals
}

// safeEvaluate aísla un modelo externo que entre en pánico.
func (s *Scanner) safeEvaluate(m domain.MarketSnapshot, ref domain.ReferenceState) (sig domain.Signal, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model %s panicked: %v", s.model.Name(), r)
		}
	}()
	sig, ok = s.model.Evaluate(m, ref)
	return sig, ok, nil
}

// assess dimensiona la señal y calcula su edge neto.
// Sin notional el coste de gas se calcula sobre el mínimo y el edge queda negativo.
func (s *Scanner) assess(m domain.MarketSnapshot, sig domain.Signal, cash float64) domain.Evaluation {
	order, sized := s.size(sig, cash)
	cost := s.cfg.Costs.Breakdown(order.OrderUSD)
	return domain.Evaluation{
		Snapshot: m,
		Signal:   sig,
		Order:    order,
		Sized:    sized,
		Cost:     cost,
		NetEdge:  sig.Edge - cost.Total,
	}
}

// size aplica el sizer y el tope del modo: live_order_usd o max_paper_order_usd.
func (s *Scanner) size(sig domain.Signal, cash float64) (domain.SizedOrder, bool) {
	order, ok := s.sizer.Size(sig, cash)
	if !ok {
		return domain.SizedOrder{Sizer: s.sizer.Name(), Side: sig.Side, TokenID: sig.TokenID}, false
	}
	limit := s.cfg.MaxPaperOrderUSD
	if s.cfg.Mode == domain.ModeLive {
		limit = s.cfg.LiveOrderUSD
	}
	if limit > 0 && order.OrderUSD > limit {
		order.OrderUSD = limit
	}
	return order, order.OrderUSD > 0
}

// decide consulta el gate para un candidato y ejecuta si dispara.
func (s *Scanner) decide(ctx context.Context, runID string, seq int, ev domain.Evaluation) domain.Action {
	slug := ev.Snapshot.Slug
	gcfg := s.gate.Config()
	d := s.gate.Check(slug, ev.NetEdge, seq)

	s.emit(domain.NewEvent(domain.ActionDecision, runID, seq).WithSlug(slug).
		With("side", string(ev.Signal.Side)).
		With("net_edge", ev.NetEdge).
		With("threshold", gcfg.Threshold).
		With("persist_runs", d.Persistence).
		With("reason", string(d.Reason)).
		With("mode", s.cfg.Mode))

	act := domain.Action{Slug: slug, Side: ev.Signal.Side, NetEdge: ev.NetEdge}
	switch d.Reason {
	case gate.ReasonBelowThreshold:
		act.Result = domain.ActionBlockedThreshold
		s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(slug).
			With("net_edge", ev.NetEdge).
			With("threshold", gcfg.Threshold))
		return act

	case gate.ReasonNotPersistent:
		act.Result = domain.ActionBlockedPersistence
		s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(slug).
			With("persist_runs", d.Persistence).
			With("required_runs", gcfg.MinPersistRuns).
			With("net_edge", ev.NetEdge))
		return act

	case gate.ReasonCooldown:
		act.Result = domain.ActionBlockedCooldown
		e := domain.NewEvent(act.Result, runID, seq).WithSlug(slug).
			With("runs_since_last_signal", d.RunsSinceLast).
			With("cooldown_runs", gcfg.CooldownRuns).
			With("required_improvement_bps", gcfg.MinImprovementBps).
			With("net_edge", ev.NetEdge)
		if !math.IsInf(d.ImprovementBps, 0) {
			e = e.With("improvement_bps", d.ImprovementBps)
		}
		if _, last, ok := s.gate.LastSignal(slug); ok {
			e = e.With("last_signal_net_edge", last)
		}
		s.emit(e)
		return act
	}

	return s.execute(ctx, runID, seq, ev)
}

// execute lleva un candidato que pasó el gate hasta el ledger o el exchange.
func (s *Scanner) execute(ctx context.Context, runID string, seq int, ev domain.Evaluation) domain.Action {
	slug := ev.Snapshot.Slug
	act := domain.Action{Slug: slug, Side: ev.Signal.Side, NetEdge: ev.NetEdge}

	books, err := s.books.FetchOrderBooks(ctx, []string{ev.Signal.TokenID})
	if err != nil {
		s.marketError(runID, seq, &domain.MarketError{Slug: slug, Op: "orderbook", Err: err})
		act.Result, act.Detail = domain.ActionMarketError, err.Error()
		return act
	}

	cash, err := s.ledger.Cash(ctx)
	if err != nil {
		return s.ledgerError(runID, seq, act, err)
	}

	book := books[ev.Signal.TokenID]
	order, ok := s.size(ev.Signal, cash)
	if !ok {
		return s.unfillable(runID, seq, act, "no notional for current cash", cash, book)
	}
	fill, ok := domain.SimulateBuy(book.Asks, order.OrderUSD)
	if !ok {
		return s.unfillable(runID, seq, act, "empty or invalid book", order.OrderUSD, book)
	}

	cost := s.cfg.Costs.Breakdown(order.OrderUSD)
	notes := domain.TradeNotes{
		Mode:       s.cfg.Mode,
		Cost:       cost,
		NetEdge:    ev.Signal.Edge - cost.Total,
		SizerMeta:  order.Metadata,
		SignalMeta: ev.Signal.Metadata,
	}

	if s.cfg.Mode == domain.ModeLive {
		return s.submitLive(ctx, runID, seq, ev, order, fill, notes)
	}
	return s.recordPaper(ctx, runID, seq, ev, order, fill, notes)
}

func (s *Scanner) recordPaper(
	ctx context.Context,
	runID string,
	seq int,
	ev domain.Evaluation,
	order domain.SizedOrder,
	fill domain.FillResult,
	notes domain.TradeNotes,
) domain.Action {
	act := domain.Action{Slug: ev.Snapshot.Slug, Side: ev.Signal.Side, NetEdge: ev.NetEdge}

	id, err := s.ledger.Open(ctx, s.openRequest(runID, ev, fill, notes))
	if err != nil {
		return s.ledgerError(runID, seq, act, err)
	}
	s.gate.Commit(ev.Snapshot.Slug, ev.NetEdge, seq)

	act.Result, act.TradeID = domain.ActionPaperTradeSignal, id
	s.emit(withFields(domain.NewEvent(act.Result, runID, seq).WithSlug(ev.Snapshot.Slug), ev.Fields()).
		With("order_usd", order.OrderUSD).
		With("persist_runs", ev.Persistence).
		With("fill", fill).
		With("trade_id", id))
	return act
}

func (s *Scanner) submitLive(
	ctx context.Context,
	runID string,
	seq int,
	ev domain.Evaluation,
	order domain.SizedOrder,
	fill domain.FillResult,
	notes domain.TradeNotes,
) domain.Action {
	slug := ev.Snapshot.Slug
	act := domain.Action{Slug: slug, Side: ev.Signal.Side, NetEdge: ev.NetEdge}

	if !s.cfg.ConfirmLive {
		act.Result, act.Detail = domain.ActionBlockedMissingLive, domain.ErrLiveNotConfirmed.Error()
		s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(slug).With("order_usd", order.OrderUSD))
		return act
	}
	if order.OrderUSD > domain.MaxLiveOrderUSD {
		act.Result, act.Detail = domain.ActionBlockedLiveOverCap, domain.ErrLiveOverCap.Error()
		s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(slug).
			With("order_usd", order.OrderUSD).
			With("cap_usd", domain.MaxLiveOrderUSD))
		return act
	}
	if s.executor == nil {
		return s.executionError(runID, seq, act, errors.New("no order executor configured"))
	}

	resp, err := s.executor.MarketBuy(ctx, domain.OrderRequest{
		TokenID:    ev.Signal.TokenID,
		AmountUSD:  order.OrderUSD,
		LimitPrice: fill.WorstPrice,
	})
	if err != nil {
		return s.executionError(runID, seq, act, err)
	}
	s.gate.Commit(slug, ev.NetEdge, seq)

	act.Result = domain.ActionLiveOrderSubmitted
	s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(slug).
		With("token_id", ev.Signal.TokenID).
		With("order_usd", order.OrderUSD).
		With("limit_price", fill.WorstPrice).
		With("net_edge", ev.NetEdge).
		With("order_id", resp.OrderID).
		With("status", resp.Status))

	if resp.TakingAmount > 0 && resp.MakingAmount > 0 {
		fill.Shares = resp.TakingAmount
		fill.SpentUSD = resp.MakingAmount
		fill.AvgPrice = resp.MakingAmount / resp.TakingAmount
	}
	notes.OrderID, notes.OrderStatus = resp.OrderID, resp.Status

	id, err := s.ledger.Open(ctx, s.openRequest(runID, ev, fill, notes))
	if err != nil {
		s.ledgerError(runID, seq, act, err)
		act.Detail = err.Error()
		return act
	}
	act.TradeID = id
	return act
}

func (s *Scanner) openRequest(runID string, ev domain.Evaluation, fill domain.FillResult, notes domain.TradeNotes) ledger.OpenRequest {
	return ledger.OpenRequest{
		RunID:    runID,
		Market:   ev.Snapshot,
		Signal:   ev.Signal,
		Fill:     fill,
		Label:    s.cfg.Label,
		Notes:    notes,
		OpenedAt: s.now(),
	}
}

// record guarda el Run y emite run_summary.
func (s *Scanner) record(ctx context.Context, sum *domain.CycleSummary) {
	run := domain.Run{
		ID:             sum.RunID,
		Seq:            sum.Seq,
		At:             s.now(),
		Mode:           s.cfg.Mode,
		Model:          s.model.Name(),
		Sizer:          s.sizer.Name(),
		ExperimentTag:  s.cfg.ExperimentTag,
		Query:          s.cfg.Filter.Query,
		MarketsScanned: sum.MarketsScanned,
		Opportunities:  sum.Evaluated,
		Signals:        sum.Signals,
		Params:         s.cfg.Params,
	}
	if err := s.ledger.RecordRun(ctx, run); err != nil {
		slog.Warn("run not recorded", "run_id", sum.RunID, "err", err)
		s.emit(domain.NewEvent(domain.ActionLedgerError, sum.RunID, sum.Seq).With("error", err.Error()))
	}

	if cash, err := s.ledger.Cash(ctx); err == nil {
		sum.Cash = cash
	}

	top := make([]map[string]any, 0, len(sum.Top))
	for _, ev := range sum.Top {
		top = append(top, map[string]any{
			"slug":           ev.Snapshot.Slug,
			"side":           string(ev.Signal.Side),
			"net_edge_pct":   round3(ev.NetEdge * 100),
			"gross_edge_pct": round3(ev.Signal.Edge * 100),
			"cost_pct":       round3(ev.Cost.Total * 100),
			"order_usd":      math.Round(ev.Order.OrderUSD*100) / 100,
			"persist_runs":   ev.Persistence,
		})
	}
	s.emit(domain.NewEvent(domain.ActionRunSummary, sum.RunID, sum.Seq).
		With("mode", sum.Mode).
		With("active_markets_scanned", sum.MarketsScanned).
		With("evaluated", sum.Evaluated).
		With("candidates_over_threshold", sum.OverThreshold).
		With("signals", sum.Signals).
		With("cash", sum.Cash).
		With("top_candidates", top))
}

// OpenMids devuelve los midpoints actuales de los tokens con posiciones abiertas.
func (s *Scanner) OpenMids(ctx context.Context) (map[string]float64, error) {
	open, err := s.ledger.OpenTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanner.OpenMids: %w", err)
	}
	if len(open) == 0 {
		return map[string]float64{}, nil
	}
	seen := make(map[string]bool, len(open))
	ids := make([]string, 0, len(open))
	for _, t := range open {
		if t.TokenID != "" && !seen[t.TokenID] {
			seen[t.TokenID] = true
			ids = append(ids, t.TokenID)
		}
	}
	mids, err := s.mids.FetchMidpoints(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("scanner.OpenMids: %w", err)
	}
	return mids, nil
}

// MarkPositions valora las posiciones abiertas con los midpoints actuales.
func (s *Scanner) MarkPositions(ctx context.Context) ([]domain.Valuation, error) {
	mids, err := s.OpenMids(ctx)
	if err != nil {
		return nil, err
	}
	return s.ledger.MarkOpen(ctx, mids)
}

func (s *Scanner) marketError(runID string, seq int, err *domain.MarketError) {
	slog.Debug("market skipped", "slug", err.Slug, "op", err.Op, "err", err.Err)
	s.emit(domain.NewEvent(domain.ActionMarketError, runID, seq).WithSlug(err.Slug).
		With("op", err.Op).
		With("error", err.Error()))
}

func (s *Scanner) unfillable(runID string, seq int, act domain.Action, reason string, usd float64, book domain.OrderBook) domain.Action {
	act.Result, act.Detail = domain.ActionUnfillable, reason
	s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(act.Slug).
		With("reason", reason).
		With("order_usd", usd).
		With("best_ask", book.BestAsk()).
		With("ask_depth_usd", round3(book.AskDepthUSD())))
	return act
}

func (s *Scanner) ledgerError(runID string, seq int, act domain.Action, err error) domain.Action {
	slog.Warn("ledger write failed", "slug", act.Slug, "err", err)
	act.Result, act.Detail = domain.ActionLedgerError, err.Error()
	s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(act.Slug).With("error", err.Error()))
	return act
}

func (s *Scanner) executionError(runID string, seq int, act domain.Action, err error) domain.Action {
	slog.Warn("live order failed", "slug", act.Slug, "err", err)
	act.Result, act.Detail = domain.ActionExecutionError, err.Error()
	s.emit(domain.NewEvent(act.Result, runID, seq).WithSlug(act.Slug).With("error", err.Error()))
	return act
}

func (s *Scanner) emit(ev domain.Event) {
	if err := s.events.Append(ev); err != nil {
		slog.Warn("event log write failed", "action", ev.Action, "err", err)
	}
}

func withFields(ev domain.Event, fields map[string]any) domain.Event {
	for k, v := range fields {
		ev = ev.With(k, v)
	}
	return ev
}

// tokenIDs devuelve los tokens YES y NO de cada mercado.
func tokenIDs(markets []domain.MarketSnapshot) []string {
	ids := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		ids = append(ids, m.YesTokenID, m.NoTokenID)
	}
	return ids
}

// rank ordena por edge neto descendente; los empates conservan el orden del feed.
func rank(evals []domain.Evaluation) {
	sort.SliceStable(evals, func(i, j int) bool {
		return evals[i].NetEdge > evals[j].NetEdge
	})
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

type nopEvents struct{}

func (nopEvents) Append(domain.Event) error { return nil }

package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier y pinta el resto de vistas del CLI.
// Con jsonOut cada vista se emite como un envelope JSON en lugar de tabla.
type Console struct {
	out     io.Writer
	table   bool
	jsonOut bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table, jsonOut bool) *Console {
	return &Console{out: os.Stdout, table: table, jsonOut: jsonOut}
}

// NewConsoleWriter crea un notificador sobre w, para tests.
func NewConsoleWriter(w io.Writer, table, jsonOut bool) *Console {
	return &Console{out: w, table: table, jsonOut: jsonOut}
}

// NotifyCycle imprime el resultado de un ciclo de scan.
func (c *Console) NotifyCycle(_ context.Context, s domain.CycleSummary) error {
	if c.jsonOut {
		return c.emit("cycle", newCycleView(s))
	}

	now := time.Now().Format("15:04:05")
	if len(s.Top) == 0 {
		fmt.Fprintf(c.out, "[%s][%s] run %d: %d mkts, no candidates\n",
			now, strings.ToUpper(s.Mode), s.Seq, s.MarketsScanned)
		return nil
	}

	if c.table {
		c.printCycleTable(now, s)
	} else {
		c.printCycleCompact(now, s)
	}
	return nil
}

// printCycleCompact imprime lo esencial en una línea más una por acción.
func (c *Console) printCycleCompact(now string, s domain.CycleSummary) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s][%s] run %d: %d mkts → %d eval | %d over thr | %d signals | cash $%.2f",
		now, strings.ToUpper(s.Mode), s.Seq, s.MarketsScanned, s.Evaluated, s.OverThreshold, s.Signals, s.Cash)

	for i, ev := range s.Top {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&sb, " | %s %s net%+.4f p%d",
			compactName(ev.Snapshot.Question, 25), sideLabel(ev.Signal.Side), ev.NetEdge, ev.Persistence)
	}
	for _, a := range s.Actions {
		fmt.Fprintf(&sb, "\n  >> %s %s %s", a.Result, a.Slug, a.Detail)
	}
	fmt.Fprintln(c.out, sb.String())
}

// printCycleTable imprime los candidatos y las acciones del gate.
func (c *Console) printCycleTable(now string, s domain.CycleSummary) {
	fmt.Fprintf(c.out, "\n[%s][%s] run %d (%s): %d markets, %d evaluated, %d over threshold, %d signals\n",
		now, strings.ToUpper(s.Mode), s.Seq, shortID(s.RunID), s.MarketsScanned, s.Evaluated, s.OverThreshold, s.Signals)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Side", "Mid", "Model", "Edge", "Cost", "Net", "Order$", "Persist")
	for i, ev := range s.Top {
		table.Append(
			fmt.Sprintf("%d", i+1),
			marketLabel(ev.Snapshot),
			sideLabel(ev.Signal.Side),
			fmt.Sprintf("%.4f", ev.Signal.MarketPrice),
			fmt.Sprintf("%.4f", ev.Signal.ModelPrice),
			fmt.Sprintf("%+.4f", ev.Signal.Edge),
			fmt.Sprintf("%.4f", ev.Cost.Total),
			fmt.Sprintf("%+.4f", ev.NetEdge),
			fmt.Sprintf("$%.2f", ev.Order.OrderUSD),
			fmt.Sprintf("%d", ev.Persistence),
		)
	}
	table.Render()

	for _, a := range s.Actions {
		line := fmt.Sprintf("  %-28s %s %s net%+.4f", a.Result, a.Slug, sideLabel(a.Side), a.NetEdge)
		if a.TradeID > 0 {
			line += fmt.Sprintf(" trade#%d", a.TradeID)
		}
		if a.Detail != "" {
			line += " (" + a.Detail + ")"
		}
		fmt.Fprintln(c.out, line)
	}
	fmt.Fprintf(c.out, "  Cash: $%.2f\n\n", s.Cash)
}

// PrintMarkets lista los mercados filtrados con sus midpoints.
func (c *Console) PrintMarkets(markets []domain.MarketSnapshot) error {
	if c.jsonOut {
		views := make([]marketView, len(markets))
		for i, m := range markets {
			views[i] = newMarketView(m)
		}
		return c.emit("markets", views)
	}
	if len(markets) == 0 {
		fmt.Fprintln(c.out, "  No markets match the filter.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "YES", "NO", "Liquidity", "Volume", "End")
	for i, m := range markets {
		table.Append(
			fmt.Sprintf("%d", i+1),
			marketLabel(m),
			priceLabel(m.YesMid),
			priceLabel(m.NoMid),
			fmt.Sprintf("$%.0f", m.Liquidity),
			fmt.Sprintf("$%.0f", m.Volume),
			endDateLabel(m),
		)
	}
	table.Render()
	return nil
}

// PrintPositions muestra los trades abiertos; los que no tienen mid salen sin valorar.
func (c *Console) PrintPositions(open []domain.Trade, vals []domain.Valuation) error {
	byID := make(map[int64]domain.Valuation, len(vals))
	for _, v := range vals {
		byID[v.Trade.ID] = v
	}

	if c.jsonOut {
		views := make([]positionView, len(open))
		for i, t := range open {
			v, ok := byID[t.ID]
			views[i] = newPositionView(t, v, ok)
		}
		return c.emit("positions", views)
	}
	if len(open) == 0 {
		fmt.Fprintln(c.out, "  No open positions.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Market", "Side", "Shares", "Entry", "Cost$", "Mark", "Value$", "uPnL")
	for _, t := range open {
		mark, value, upnl := "-", "-", "-"
		if v, ok := byID[t.ID]; ok {
			mark = fmt.Sprintf("%.4f", v.MarkPrice)
			value = fmt.Sprintf("$%.2f", v.MarkValue)
			upnl = fmt.Sprintf("$%+.2f (%+.1f%%)", v.UnrealizedPnL, v.UnrealizedPnLPct*100)
		}
		table.Append(
			fmt.Sprintf("%d", t.ID),
			truncate(t.Question, 38),
			sideLabel(t.Side),
			fmt.Sprintf("%.2f", t.Shares),
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("$%.2f", t.Notional),
			mark, value, upnl,
		)
	}
	table.Render()
	return nil
}

// PrintAccount muestra cash, equity y PnL.
func (c *Console) PrintAccount(s domain.AccountSummary) error {
	if c.jsonOut {
		return c.emit("account", newAccountView(s))
	}
	fmt.Fprintf(c.out, "\n  --- ACCOUNT ---\n")
	fmt.Fprintf(c.out, "  Starting capital:  $%.2f\n", s.StartingCapital)
	fmt.Fprintf(c.out, "  Cash:              $%.2f\n", s.Cash)
	fmt.Fprintf(c.out, "  Open positions:    %d (mark $%.2f)\n", s.OpenPositions, s.MarkValue)
	fmt.Fprintf(c.out, "  Equity:            $%.2f\n", s.Equity)
	fmt.Fprintf(c.out, "  PnL:               $%+.2f (%+.2f%%)\n\n", s.PnL, pctOf(s.PnL, s.StartingCapital))
	return nil
}

// PrintHistory muestra los trades cerrados y el PnL realizado.
func (c *Console) PrintHistory(h domain.History) error {
	if c.jsonOut {
		views := make([]tradeView, len(h.Trades))
		for i, t := range h.Trades {
			views[i] = newTradeView(t)
		}
		return c.emit("history", historyView{
			Trades:      views,
			RealizedPnL: h.RealizedPnL,
			Wins:        h.Wins,
			WinRate:     h.WinRate,
		})
	}
	if len(h.Trades) == 0 {
		fmt.Fprintln(c.out, "  No closed trades yet.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Market", "Side", "Shares", "Entry", "Cost$", "Exit", "PnL", "Closed")
	for _, t := range h.Trades {
		table.Append(
			fmt.Sprintf("%d", t.ID),
			truncate(t.Question, 38),
			sideLabel(t.Side),
			fmt.Sprintf("%.2f", t.Shares),
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("$%.2f", t.Notional),
			optFloat(t.ExitPrice, "%.2f"),
			optFloat(t.RealizedPnL, "$%+.2f"),
			optTime(t.ClosedAt),
		)
	}
	table.Render()
	fmt.Fprintf(c.out, "  Realized PnL: $%+.2f | wins %d/%d (%.0f%%)\n\n",
		h.RealizedPnL, h.Wins, len(h.Trades), h.WinRate*100)
	return nil
}

// PrintRuns muestra los últimos runs registrados.
func (c *Console) PrintRuns(runs []domain.Run) error {
	if c.jsonOut {
		views := make([]runView, len(runs))
		for i, r := range runs {
			views[i] = newRunView(r)
		}
		return c.emit("runs", views)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "  No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Seq", "At", "Mode", "Model", "Sizer", "Tag", "Mkts", "Opps", "Signals")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			fmt.Sprintf("%d", r.Seq),
			r.At.Local().Format("01-02 15:04:05"),
			r.Mode,
			r.Model,
			r.Sizer,
			dash(r.ExperimentTag),
			fmt.Sprintf("%d", r.MarketsScanned),
			fmt.Sprintf("%d", r.Opportunities),
			fmt.Sprintf("%d", r.Signals),
		)
	}
	table.Render()
	return nil
}

// PrintSettled muestra el resultado de resolver un mercado.
func (c *Console) PrintSettled(slug string, outcome domain.Outcome, closed []domain.Trade) error {
	var pnl float64
	for _, t := range closed {
		if t.RealizedPnL != nil {
			pnl += *t.RealizedPnL
		}
	}
	if c.jsonOut {
		return c.emit("resolve", map[string]any{
			"slug":         slug,
			"outcome":      string(outcome),
			"closed":       len(closed),
			"realized_pnl": pnl,
		})
	}
	if len(closed) == 0 {
		fmt.Fprintf(c.out, "  No open trades on %s.\n", slug)
		return nil
	}
	fmt.Fprintf(c.out, "  Resolved %s as %s: %d trades closed, realized $%+.2f\n",
		slug, strings.ToUpper(string(outcome)), len(closed), pnl)
	return nil
}

// PrintRegistry lista los modelos y sizers disponibles.
func (c *Console) PrintRegistry(models, sizers []string) error {
	if c.jsonOut {
		return c.emit("models", map[string][]string{"models": models, "sizers": sizers})
	}
	fmt.Fprintf(c.out, "  Models: %s\n", strings.Join(models, ", "))
	fmt.Fprintf(c.out, "  Sizers: %s\n", strings.Join(sizers, ", "))
	fmt.Fprintln(c.out, "  Plugins: pass path/to/file.so:Symbol as the model or sizer name.")
	return nil
}

// --- helpers ---

func marketLabel(m domain.MarketSnapshot) string {
	if m.Question != "" {
		return truncate(m.Question, 38)
	}
	return truncate(m.Slug, 38)
}

func endDateLabel(m domain.MarketSnapshot) string {
	if m.EndDate.IsZero() {
		return "-"
	}
	hours := m.HoursToResolution()
	if hours < 48 {
		return fmt.Sprintf("%s (!%.0fh)", m.EndDate.Format("01-02"), hours)
	}
	return m.EndDate.Format("2006-01-02")
}

func sideLabel(s domain.Side) string {
	switch s {
	case domain.SideYes:
		return "YES"
	case domain.SideNo:
		return "NO"
	}
	return "-"
}

func priceLabel(p float64) string {
	if p <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f", p)
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func optTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}

func pctOf(v, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return v / base * 100
}

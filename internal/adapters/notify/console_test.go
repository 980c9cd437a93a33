package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/polyedge/internal/adapters/notify"
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEval(question string, net float64) domain.Evaluation {
	return domain.Evaluation{
		Snapshot: domain.MarketSnapshot{Slug: "btc-" + question, Question: question},
		Signal:   domain.Signal{Side: domain.SideYes, MarketPrice: 0.4, ModelPrice: 0.45, Edge: 0.05},
		Order:    domain.SizedOrder{OrderUSD: 25},
		Cost:     domain.CostBreakdown{Total: 0.0028},
		NetEdge:  net,
	}
}

func cycle() domain.CycleSummary {
	return domain.CycleSummary{
		RunID:          "0f1e2d3c-aaaa-bbbb-cccc-000000000000",
		Seq:            3,
		Mode:           domain.ModePaper,
		MarketsScanned: 12,
		Evaluated:      4,
		OverThreshold:  2,
		Signals:        1,
		Top: []domain.Evaluation{
			makeEval("Will BTC hit 150k?", 0.0472),
			makeEval(strings.Repeat("A", 50), 0.013),
		},
		Actions: []domain.Action{{Slug: "btc-150k", Side: domain.SideYes, NetEdge: 0.0472, Result: domain.ActionPaperTradeSignal, TradeID: 7}},
		Cash:    9975,
	}
}

func TestConsole_NotifyCycle_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, false)

	require.NoError(t, n.NotifyCycle(context.Background(), cycle()))

	out := buf.String()
	assert.Contains(t, out, "Will BTC hit 150k?")
	assert.Contains(t, out, "+0.0472")
	assert.Contains(t, out, "...", "las preguntas largas se truncan")
	assert.Contains(t, out, "paper_trade_signal")
	assert.Contains(t, out, "trade#7")
	assert.Contains(t, out, "0f1e2d3c")
}

func TestConsole_NotifyCycle_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, false)

	require.NoError(t, n.NotifyCycle(context.Background(), cycle()))

	out := buf.String()
	assert.Contains(t, out, "[PAPER] run 3")
	assert.Contains(t, out, "1 signals")
	assert.Contains(t, out, ">> paper_trade_signal btc-150k")
}

func TestConsole_NotifyCycle_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, false)

	require.NoError(t, n.NotifyCycle(context.Background(), domain.CycleSummary{Mode: domain.ModeLive, Seq: 1, MarketsScanned: 5}))
	assert.Contains(t, buf.String(), "no candidates")
}

func TestConsole_NotifyCycle_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, true)

	require.NoError(t, n.NotifyCycle(context.Background(), cycle()))

	var env struct {
		SchemaVersion int    `json:"schema_version"`
		Kind          string `json:"kind"`
		Data          struct {
			Seq     int `json:"seq"`
			Signals int `json:"signals"`
			Top     []struct {
				NetEdge float64 `json:"net_edge"`
			} `json:"top"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, notify.SchemaVersion, env.SchemaVersion)
	assert.Equal(t, "cycle", env.Kind)
	assert.Equal(t, 3, env.Data.Seq)
	require.Len(t, env.Data.Top, 2)
	assert.InDelta(t, 0.0472, env.Data.Top[0].NetEdge, 1e-12)
}

func TestConsole_PrintPositions_UnmarkedShowDash(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, false)

	open := []domain.Trade{
		{ID: 1, Question: "Will BTC hit 150k?", Side: domain.SideYes, TokenID: "y", Shares: 100, EntryPrice: 0.4, Notional: 40, Status: domain.TradeOpen},
		{ID: 2, Question: "Will ETH hit 10k?", Side: domain.SideNo, TokenID: "n", Shares: 10, EntryPrice: 0.5, Notional: 5, Status: domain.TradeOpen},
	}
	vals := domain.Mark(open, map[string]float64{"y": 0.5})

	require.NoError(t, n.PrintPositions(open, vals))
	out := buf.String()
	assert.Contains(t, out, "$50.00")
	assert.Contains(t, out, "$+10.00")
	assert.Contains(t, out, "Will ETH hit 10k?")
}

func TestConsole_PrintAccountAndHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, false)

	require.NoError(t, n.PrintAccount(domain.AccountSummary{
		Account: domain.Account{StartingCapital: 1000, Cash: 960},
		Equity:  1010, PnL: 10, OpenPositions: 1, MarkValue: 50,
	}))
	assert.Contains(t, buf.String(), "$1010.00")
	assert.Contains(t, buf.String(), "+1.00%")

	buf.Reset()
	pnl, exit := 12.5, 1.0
	closedAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	h := domain.NewHistory([]domain.Trade{{ID: 3, Question: "Q", Side: domain.SideYes, RealizedPnL: &pnl, ExitPrice: &exit, ClosedAt: &closedAt}})
	require.NoError(t, n.PrintHistory(h))
	assert.Contains(t, buf.String(), "wins 1/1")
}

func TestConsole_PrintRuns_JSON(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, true)

	require.NoError(t, n.PrintRuns([]domain.Run{{ID: "abc", Seq: 1, Model: "kelly_gbm", Sizer: "kelly", ExperimentTag: "t1"}}))

	var env map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, "runs", env["kind"])
	runs := env["data"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, "t1", runs[0].(map[string]any)["experiment_tag"])
}

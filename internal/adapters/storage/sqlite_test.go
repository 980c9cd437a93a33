package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polyedge/internal/adapters/storage"
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newStore(t *testing.T, bankroll float64) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	created, err := db.InitAccount(context.Background(), bankroll)
	require.NoError(t, err)
	require.True(t, created)
	return db
}

func makeTrade(slug string, side domain.Side, shares, notional float64) domain.Trade {
	return domain.Trade{
		RunID:      "run1",
		OpenedAt:   time.Now().UTC(),
		MarketID:   "m-" + slug,
		Slug:       slug,
		Question:   "Will Bitcoin reach $120k?",
		Side:       side,
		TokenID:    "tok-" + string(side),
		EntryPrice: notional / shares,
		Shares:     shares,
		Notional:   notional,
		ModelPrice: 0.6,
		Edge:       0.1,
		Confidence: 1,
		Notes:      domain.TradeNotes{Mode: domain.ModePaper, SlippageBps: 12.5, FillLevels: 2},
	}
}

func TestSQLiteStorage_InitAccountIsIdempotent(t *testing.T) {
	db := newStore(t, 1000)

	created, err := db.InitAccount(context.Background(), 5000)
	require.NoError(t, err)
	assert.False(t, created)

	acct, err := db.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, acct.StartingCapital)
	assert.Equal(t, 1000.0, acct.Cash)
}

func TestSQLiteStorage_GetAccountMissing(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetAccount(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoAccount)
}

func TestSQLiteStorage_OpenTradeDebitsCash(t *testing.T) {
	ctx := context.Background()
	db := newStore(t, 100)

	id, err := db.OpenTrade(ctx, makeTrade("btc-120k", domain.SideYes, 80, 40))
	require.NoError(t, err)
	assert.Positive(t, id)

	acct, err := db.GetAccount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, acct.Cash, 1e-9)

	open, err := db.OpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, id, open[0].ID)
	assert.Equal(t, domain.TradeOpen, open[0].Status)
	assert.Equal(t, domain.SideYes, open[0].Side)
	assert.InDelta(t, 12.5, open[0].Notes.SlippageBps, 1e-9)
	assert.Nil(t, open[0].ClosedAt)
}

func TestSQLiteStorage_OpenTradeInsufficientCash(t *testing.T) {
	ctx := context.Background()
	db := newStore(t, 10)

	_, err := db.OpenTrade(ctx, makeTrade("btc-120k", domain.SideYes, 80, 40))
	assert.ErrorIs(t, err, domain.ErrInsufficientCash)

	acct, err := db.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, acct.Cash, "nada se escribe si no alcanza")
	open, err := db.OpenTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSQLiteStorage_SettleMarket(t *testing.T) {
	ctx := context.Background()
	db := newStore(t, 1000)

	_, err := db.OpenTrade(ctx, makeTrade("btc-120k", domain.SideYes, 100, 40))
	require.NoError(t, err)
	_, err = db.OpenTrade(ctx, makeTrade("btc-120k", domain.SideNo, 50, 30))
	require.NoError(t, err)
	_, err = db.OpenTrade(ctx, makeTrade("eth-5k", domain.SideYes, 10, 5))
	require.NoError(t, err)

	closed, err := db.SettleMarket(ctx, "btc-120k", domain.OutcomeYes, time.Now())
	require.NoError(t, err)
	require.Len(t, closed, 2)
	assert.InDelta(t, 60.0, *closed[0].RealizedPnL, 1e-9)
	assert.InDelta(t, -30.0, *closed[1].RealizedPnL, 1e-9)

	acct, err := db.GetAccount(ctx)
	require.NoError(t, err)
	// 1000 - 40 - 30 - 5 + 100
	assert.InDelta(t, 1025.0, acct.Cash, 1e-9)

	open, err := db.OpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1, "otros mercados no se tocan")
	assert.Equal(t, "eth-5k", open[0].Slug)

	// liquidar otra vez no cambia nada
	again, err := db.SettleMarket(ctx, "btc-120k", domain.OutcomeNo, time.Now())
	require.NoError(t, err)
	assert.Empty(t, again)
	acct2, err := db.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, acct.Cash, acct2.Cash)

	hist, err := db.ClosedTrades(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	for _, tr := range hist {
		assert.Equal(t, domain.TradeClosed, tr.Status)
		require.NotNil(t, tr.ClosedAt)
		require.NotNil(t, tr.ExitPrice)
	}
}

func TestSQLiteStorage_Runs(t *testing.T) {
	ctx := context.Background()
	db := newStore(t, 1000)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		require.NoError(t, db.SaveRun(ctx, domain.Run{
			ID:             "run" + string(rune('0'+i)),
			Seq:            i,
			At:             base.Add(time.Duration(i) * time.Minute),
			Model:          "kelly_gbm",
			Sizer:          "kelly",
			ExperimentTag:  "baseline",
			Query:          "bitcoin",
			MarketsScanned: 10 * i,
			Params:         map[string]any{"threshold": 0.012},
		}))
	}

	runs, err := db.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run3", runs[0].ID)
	assert.Equal(t, "baseline", runs[0].ExperimentTag)
	assert.Equal(t, domain.ModePaper, runs[0].Mode)
	assert.InDelta(t, 0.012, runs[0].Params["threshold"], 1e-12)
}

func TestSQLiteStorage_MigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.sqlite3")

	// base creada sin las columnas opcionales
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`
		CREATE TABLE runs (
			id TEXT PRIMARY KEY, seq INTEGER NOT NULL DEFAULT 0, ts TEXT NOT NULL,
			mode TEXT NOT NULL DEFAULT 'paper', model TEXT NOT NULL, sizer TEXT NOT NULL,
			query TEXT NOT NULL DEFAULT '', markets_scanned INTEGER NOT NULL DEFAULT 0,
			opportunities INTEGER NOT NULL DEFAULT 0, signals INTEGER NOT NULL DEFAULT 0,
			params_json TEXT NOT NULL DEFAULT '{}'
		);
		INSERT INTO runs (id, ts, model, sizer) VALUES ('old', '2025-01-01T00:00:00Z', 'always_pass', 'fixed');
	`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "", runs[0].ExperimentTag)

	v, err := db.Meta(context.Background(), "schema_version")
	require.NoError(t, err)
	assert.Equal(t, storage.SchemaVersion, v)
}

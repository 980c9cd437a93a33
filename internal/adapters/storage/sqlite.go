package storage

// sqlite.go — ledger persistente.
//
// Estrategia:
//   - `accounts`: una sola fila (id=1) con el bankroll inicial y el cash.
//   - `trades`: append-only salvo la transición open → closed, que es única.
//   - `runs`: una fila por ciclo de scan, con los parámetros en JSON.
//   - Todo movimiento de cash ocurre en la misma transacción que el trade.
//   - Las lecturas nombran sus columnas: una columna nueva opcional no rompe nada.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SchemaVersion se guarda en meta y en los envelopes JSON del CLI.
const SchemaVersion = "1"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Cuenta única del ledger
CREATE TABLE IF NOT EXISTS accounts (
    id                INTEGER PRIMARY KEY CHECK (id = 1),
    starting_bankroll REAL NOT NULL,
    cash              REAL NOT NULL,
    created_at        TEXT NOT NULL,
    updated_at        TEXT NOT NULL
);

-- Un registro por ciclo de scan
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    seq             INTEGER NOT NULL DEFAULT 0,
    ts              TEXT    NOT NULL,
    mode            TEXT    NOT NULL DEFAULT 'paper',
    model           TEXT    NOT NULL,
    sizer           TEXT    NOT NULL,
    query           TEXT    NOT NULL DEFAULT '',
    markets_scanned INTEGER NOT NULL DEFAULT 0,
    opportunities   INTEGER NOT NULL DEFAULT 0,
    signals         INTEGER NOT NULL DEFAULT 0,
    params_json     TEXT    NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS trades (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT    NOT NULL,
    opened_at    TEXT    NOT NULL,
    market_id    TEXT    NOT NULL,
    market_slug  TEXT    NOT NULL,
    question     TEXT    NOT NULL DEFAULT '',
    side         TEXT    NOT NULL,
    token_id     TEXT    NOT NULL,
    entry_price  REAL    NOT NULL,
    shares       REAL    NOT NULL,
    notional_usd REAL    NOT NULL,
    model_price  REAL    NOT NULL DEFAULT 0,
    edge         REAL    NOT NULL DEFAULT 0,
    confidence   REAL    NOT NULL DEFAULT 0,
    status       TEXT    NOT NULL DEFAULT 'open',
    closed_at    TEXT,
    exit_price   REAL,
    realized_pnl REAL,
    notes_json   TEXT    NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_slug   ON trades(market_slug, status);
CREATE INDEX IF NOT EXISTS idx_runs_ts       ON runs(ts DESC);
`

// migrations añade columnas opcionales a bases creadas con un schema anterior.
var migrations = []struct {
	table, column, decl string
}{
	{"runs", "experiment_tag", "TEXT NOT NULL DEFAULT ''"},
	{"trades", "label", "TEXT NOT NULL DEFAULT ''"},
}

const tradeColumns = `id, run_id, opened_at, market_id, market_slug, question, side, token_id,
	entry_price, shares, notional_usd, model_price, edge, confidence, status,
	closed_at, exit_price, realized_pnl, label, notes_json`

// SQLiteStorage implementa ports.LedgerStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada
// y aplica schema y migraciones.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	ctx := context.Background()
	for _, m := range migrations {
		if err := s.ensureColumn(ctx, m.table, m.column, m.decl); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStorage: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, SchemaVersion,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: meta: %w", err)
	}
	return s, nil
}

// ensureColumn añade la columna si la tabla no la tiene.
func (s *SQLiteStorage) ensureColumn(ctx context.Context, table, column, decl string) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return fmt.Errorf("ensureColumn %s.%s: %w", table, column, err)
	}
	found := false
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("ensureColumn %s.%s: scan: %w", table, column, err)
		}
		if name == column {
			found = true
		}
	}
	rows.Close()
	if found {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl)); err != nil {
		return fmt.Errorf("ensureColumn %s.%s: alter: %w", table, column, err)
	}
	return nil
}

// Meta devuelve un valor de la tabla meta.
func (s *SQLiteStorage) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", fmt.Errorf("storage.Meta %q: %w", key, err)
	}
	return v, nil
}

// --- cuenta ---

// InitAccount implementa ports.LedgerStore.
func (s *SQLiteStorage) InitAccount(ctx context.Context, bankroll float64) (bool, error) {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO accounts (id, starting_bankroll, cash, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?)`, bankroll, bankroll, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("storage.InitAccount: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// GetAccount implementa ports.LedgerStore.
func (s *SQLiteStorage) GetAccount(ctx context.Context) (domain.Account, error) {
	return getAccount(ctx, s.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getAccount(ctx context.Context, q queryer) (domain.Account, error) {
	var (
		acct             domain.Account
		created, updated string
	)
	err := q.QueryRowContext(ctx,
		`SELECT starting_bankroll, cash, created_at, updated_at FROM accounts WHERE id = 1`,
	).Scan(&acct.StartingCapital, &acct.Cash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrNoAccount
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("storage.GetAccount: %w", err)
	}
	acct.CreatedAt = parseTime(created)
	acct.UpdatedAt = parseTime(updated)
	return acct, nil
}

// --- trades ---

// OpenTrade implementa ports.LedgerStore.
func (s *SQLiteStorage) OpenTrade(ctx context.Context, t domain.Trade) (int64, error) {
	notes, err := json.Marshal(t.Notes)
	if err != nil {
		return 0, fmt.Errorf("storage.OpenTrade: marshal notes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.OpenTrade: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := getAccount(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("storage.OpenTrade: %w", err)
	}
	cash := decimal.NewFromFloat(acct.Cash)
	notional := decimal.NewFromFloat(t.Notional)
	if cash.LessThan(notional) {
		return 0, fmt.Errorf("storage.OpenTrade: cash %.2f < notional %.2f: %w", acct.Cash, t.Notional, domain.ErrInsufficientCash)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO trades
			(run_id, opened_at, market_id, market_slug, question, side, token_id,
			 entry_price, shares, notional_usd, model_price, edge, confidence,
			 status, label, notes_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'open', ?, ?)`,
		t.RunID, formatTime(t.OpenedAt), t.MarketID, t.Slug, t.Question, string(t.Side), t.TokenID,
		t.EntryPrice, t.Shares, t.Notional, t.ModelPrice, t.Edge, t.Confidence,
		t.Label, string(notes),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.OpenTrade: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.OpenTrade: last id: %w", err)
	}

	newCash, _ := cash.Sub(notional).Float64()
	if err := setCash(ctx, tx, newCash); err != nil {
		return 0, fmt.Errorf("storage.OpenTrade: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.OpenTrade: commit: %w", err)
	}
	return id, nil
}

// SettleMarket implementa ports.LedgerStore.
func (s *SQLiteStorage) SettleMarket(ctx context.Context, slug string, outcome domain.Outcome, at time.Time) ([]domain.Trade, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage.SettleMarket: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := getAccount(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("storage.SettleMarket: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE market_slug = ? AND status = 'open' ORDER BY id`, slug)
	if err != nil {
		return nil, fmt.Errorf("storage.SettleMarket: query: %w", err)
	}
	open, err := scanTrades(rows)
	if err != nil {
		return nil, fmt.Errorf("storage.SettleMarket: %w", err)
	}

	cash := decimal.NewFromFloat(acct.Cash)
	closed := make([]domain.Trade, 0, len(open))
	for _, t := range open {
		c, credit := t.Settle(outcome, at)
		if _, err := tx.ExecContext(ctx,
			`UPDATE trades SET status = 'closed', closed_at = ?, exit_price = ?, realized_pnl = ?
			 WHERE id = ? AND status = 'open'`,
			formatTime(at), *c.ExitPrice, *c.RealizedPnL, c.ID,
		); err != nil {
			return nil, fmt.Errorf("storage.SettleMarket: close %d: %w", c.ID, err)
		}
		cash = cash.Add(decimal.NewFromFloat(credit))
		closed = append(closed, c)
	}

	if len(closed) == 0 {
		return nil, nil
	}
	newCash, _ := cash.Float64()
	if err := setCash(ctx, tx, newCash); err != nil {
		return nil, fmt.Errorf("storage.SettleMarket: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage.SettleMarket: commit: %w", err)
	}
	return closed, nil
}

// OpenTrades implementa ports.LedgerStore.
func (s *SQLiteStorage) OpenTrades(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE status = 'open' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage.OpenTrades: %w", err)
	}
	return scanTrades(rows)
}

// ClosedTrades implementa ports.LedgerStore.
func (s *SQLiteStorage) ClosedTrades(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE status = 'closed' ORDER BY closed_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage.ClosedTrades: %w", err)
	}
	return scanTrades(rows)
}

// --- runs ---

// SaveRun implementa ports.LedgerStore.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run) error {
	params := run.Params
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: marshal params: %w", err)
	}
	mode := run.Mode
	if mode == "" {
		mode = domain.ModePaper
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
			(id, seq, ts, mode, model, sizer, experiment_tag, query,
			 markets_scanned, opportunities, signals, params_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Seq, formatTime(run.At), mode, run.Model, run.Sizer, run.ExperimentTag, run.Query,
		run.MarketsScanned, run.Opportunities, run.Signals, string(raw),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert %s: %w", run.ID, err)
	}
	return nil
}

// Runs implementa ports.LedgerStore. Los más recientes primero.
func (s *SQLiteStorage) Runs(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, ts, mode, model, sizer, experiment_tag, query,
		       markets_scanned, opportunities, signals, params_json
		FROM runs ORDER BY ts DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.Runs: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			r      domain.Run
			ts     string
			params string
		)
		if err := rows.Scan(&r.ID, &r.Seq, &ts, &r.Mode, &r.Model, &r.Sizer, &r.ExperimentTag, &r.Query,
			&r.MarketsScanned, &r.Opportunities, &r.Signals, &params); err != nil {
			return nil, fmt.Errorf("storage.Runs: scan row: %w", err)
		}
		r.At = parseTime(ts)
		_ = json.Unmarshal([]byte(params), &r.Params)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func setCash(ctx context.Context, tx *sql.Tx, cash float64) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET cash = ?, updated_at = ? WHERE id = 1`, cash, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("update cash: %w", err)
	}
	return nil
}

func scanTrades(rows *sql.Rows) ([]domain.Trade, error) {
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var (
			t              domain.Trade
			opened, side   string
			status, notes  string
			closedAt       sql.NullString
			exitPrice, pnl sql.NullFloat64
		)
		if err := rows.Scan(
			&t.ID, &t.RunID, &opened, &t.MarketID, &t.Slug, &t.Question, &side, &t.TokenID,
			&t.EntryPrice, &t.Shares, &t.Notional, &t.ModelPrice, &t.Edge, &t.Confidence, &status,
			&closedAt, &exitPrice, &pnl, &t.Label, &notes,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.OpenedAt = parseTime(opened)
		t.Side = domain.Side(side)
		t.Status = domain.TradeStatus(status)
		if closedAt.Valid {
			at := parseTime(closedAt.String)
			t.ClosedAt = &at
		}
		if exitPrice.Valid {
			v := exitPrice.Float64
			t.ExitPrice = &v
		}
		if pnl.Valid {
			v := pnl.Float64
			t.RealizedPnL = &v
		}
		_ = json.Unmarshal([]byte(notes), &t.Notes)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

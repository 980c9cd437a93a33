package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alejandrodnm/polyedge/config"
	"github.com/alejandrodnm/polyedge/internal/adapters/eventlog"
	"github.com/alejandrodnm/polyedge/internal/adapters/exchange"
	"github.com/alejandrodnm/polyedge/internal/adapters/httpx"
	"github.com/alejandrodnm/polyedge/internal/adapters/notify"
	"github.com/alejandrodnm/polyedge/internal/adapters/onchain"
	"github.com/alejandrodnm/polyedge/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyedge/internal/adapters/storage"
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/alejandrodnm/polyedge/internal/gate"
	"github.com/alejandrodnm/polyedge/internal/ledger"
	"github.com/alejandrodnm/polyedge/internal/model"
	"github.com/alejandrodnm/polyedge/internal/ports"
	"github.com/alejandrodnm/polyedge/internal/reference"
	"github.com/alejandrodnm/polyedge/internal/scanner"
	"github.com/alejandrodnm/polyedge/internal/sizer"
)

// app agrupa la config y los adapters que comparten los subcomandos.
type app struct {
	cfg     *config.Config
	console *notify.Console
	store   *storage.SQLiteStorage
	ledger  *ledger.Ledger
}

// loadConfig lee la config y aplica los flags persistentes. Si el path por
// defecto no existe se usan los defaults.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Storage.DSN = o.dbPath
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

// open carga la config y abre el ledger.
func (o *rootOptions) open() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open ledger %q: %w", cfg.Storage.DSN, err)
	}
	return &app{
		cfg:     cfg,
		console: o.console(),
		store:   store,
		ledger:  ledger.New(store),
	}, nil
}

func (o *rootOptions) console() *notify.Console {
	return notify.NewConsole(o.table, o.jsonOut)
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("close ledger", "err", err)
	}
}

func (a *app) httpOptions() []httpx.Option {
	return []httpx.Option{
		httpx.WithTimeout(a.cfg.APITimeout()),
		httpx.WithMaxRetries(a.cfg.API.MaxRetries),
	}
}

func (a *app) polymarketClient() *polymarket.Client {
	return polymarket.NewClient(a.cfg.API.CLOBBase, a.cfg.API.GammaBase, a.httpOptions()...)
}

// referenceSource arma spot y velas de Kraken con el perpetuo de Bybit opcional.
func (a *app) referenceSource() *reference.Source {
	rc := a.cfg.Reference
	kraken := exchange.NewKraken(rc.KrakenBase, rc.KrakenPair, a.httpOptions()...)

	var deriv ports.DerivativeFeed
	if rc.UseBybit {
		deriv = exchange.NewBybit(rc.BybitBase, rc.BybitSymbol, a.httpOptions()...)
	}

	p := reference.DefaultParams()
	p.Symbol = rc.Symbol
	p.Window = rc.CandleWindow
	p.VolFloor = rc.VolFloor
	return reference.NewSource(kraken, deriv, kraken.OHLC(), p)
}

func (a *app) filterConfig() scanner.FilterConfig {
	sc := a.cfg.Scanner
	return scanner.FilterConfig{
		Query:                  sc.Query,
		CryptoTerms:            sc.CryptoTerms,
		MinLiquidity:           sc.MinLiquidityUSD,
		MinVolume:              sc.MinVolumeUSD,
		RequireAcceptingOrders: sc.RequireAcceptingOrders,
		RequireOrderBook:       sc.RequireOrderBook,
		MinHoursToResolution:   sc.MinHoursToResolution,
	}
}

// marker devuelve un scanner mínimo para valorar posiciones abiertas.
func (a *app) marker() *scanner.Scanner {
	return scanner.New(scanner.DefaultConfig(), scanner.Deps{
		Mids:   a.polymarketClient(),
		Ledger: a.ledger,
	})
}

// buildScanner cablea el orquestador completo. El cleanup cierra el event log.
func (a *app) buildScanner(ctx context.Context) (*scanner.Scanner, func(), error) {
	cfg := a.cfg

	m, err := model.Builtins().New(cfg.Model.Name, domain.Params(cfg.Model.Params))
	if err != nil {
		return nil, nil, err
	}
	sz, err := sizer.Builtins().New(cfg.Sizer.Name, domain.Params(cfg.Sizer.Params))
	if err != nil {
		return nil, nil, err
	}

	if _, err := a.ledger.Init(ctx, cfg.Execution.BankrollUSD); err != nil {
		return nil, nil, err
	}

	client := a.polymarketClient()
	mode := domain.ModePaper
	var executor ports.OrderExecutor
	if cfg.Live() {
		if cfg.Execution.PrivateKey == "" {
			return nil, nil, errors.New("live execution requires POLYEDGE_PRIVATE_KEY")
		}
		auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.Execution.PrivateKey, a.httpOptions()...)
		if err != nil {
			return nil, nil, err
		}
		slog.Warn("live execution enabled",
			"address", auth.Address(),
			"confirm_live", cfg.Execution.ConfirmLive,
			"live_order_usd", cfg.Execution.LiveOrderUSD,
		)
		if err := a.checkFunds(ctx, auth.Address()); err != nil {
			return nil, nil, err
		}
		executor = polymarket.NewTradingClient(auth)
		mode = domain.ModeLive
	}

	events := eventlog.New(cfg.Events.Path, eventlog.Options{
		MaxSizeMB:  cfg.Events.MaxSizeMB,
		MaxBackups: cfg.Events.MaxBackups,
		MaxAgeDays: cfg.Events.MaxAgeDays,
		Compress:   cfg.Events.Compress,
	})
	cleanup := func() {
		if err := events.Close(); err != nil {
			slog.Warn("close event log", "err", err)
		}
	}

	g := gate.New(gate.Config{
		Threshold:         cfg.Gate.Threshold,
		MinPersistRuns:    cfg.Gate.MinPersistRuns,
		CooldownRuns:      cfg.Gate.CooldownRuns,
		MinImprovementBps: cfg.Gate.MinImprovementBps,
	})

	sc := scanner.Config{
		Interval:         cfg.ScanInterval(),
		MaxCycles:        cfg.Scanner.MaxCycles,
		Limit:            cfg.Scanner.Limit,
		TopN:             cfg.Scanner.TopN,
		Filter:           a.filterConfig(),
		Costs:            domain.CostModel{FeeBps: cfg.Costs.FeeBps, SlippageBps: cfg.Costs.SlippageBps, GasUSD: cfg.Costs.GasUSD},
		Mode:             mode,
		ConfirmLive:      cfg.Execution.ConfirmLive,
		LiveOrderUSD:     cfg.Execution.LiveOrderUSD,
		MaxPaperOrderUSD: cfg.Execution.MaxPaperOrderUSD,
		ExperimentTag:    cfg.Scanner.ExperimentTag,
		Label:            cfg.Scanner.Label,
		Params:           runParams(cfg),
	}

	s := scanner.New(sc, scanner.Deps{
		Markets:   client,
		Mids:      client,
		Books:     client,
		Reference: a.referenceSource(),
		Model:     m,
		Sizer:     sz,
		Ledger:    a.ledger,
		Gate:      g,
		Executor:  executor,
		Events:    events,
		Notifier:  a.console,
	})
	return s, cleanup, nil
}

// checkFunds exige que la wallet pueda pagar al menos una orden live.
func (a *app) checkFunds(ctx context.Context, address string) error {
	ec := a.cfg.Execution
	if ec.SkipFundsCheck {
		slog.Warn("USDC.e funds check skipped")
		return nil
	}
	w, err := onchain.Dial(ctx, ec.PolygonRPC, address)
	if err != nil {
		return err
	}
	defer w.Close()

	funds, err := w.Require(ctx, ec.LiveOrderUSD)
	if err != nil {
		return err
	}
	slog.Info("live wallet funded",
		"address", funds.Address,
		"balance_usd", funds.BalanceUSD,
		"allowance_usd", funds.AllowanceUSD,
	)
	return nil
}

// runParams es la foto de parámetros guardada con cada run.
func runParams(cfg *config.Config) map[string]any {
	return map[string]any{
		"model":               cfg.Model.Name,
		"model_params":        cfg.Model.Params,
		"sizer":               cfg.Sizer.Name,
		"sizer_params":        cfg.Sizer.Params,
		"threshold":           cfg.Gate.Threshold,
		"min_persist_runs":    cfg.Gate.MinPersistRuns,
		"signal_cooldown":     cfg.Gate.CooldownRuns,
		"min_improvement_bps": cfg.Gate.MinImprovementBps,
		"fee_bps":             cfg.Costs.FeeBps,
		"slippage_bps":        cfg.Costs.SlippageBps,
		"gas_usd":             cfg.Costs.GasUSD,
		"min_liquidity_usd":   cfg.Scanner.MinLiquidityUSD,
		"min_volume_usd":      cfg.Scanner.MinVolumeUSD,
		"limit":               cfg.Scanner.Limit,
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polyedge/config"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

// rootOptions son los flags persistentes compartidos por todos los subcomandos.
type rootOptions struct {
	configPath string
	dbPath     string
	jsonOut    bool
	table      bool
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "polyedge",
		Short: "Fair-value edge scanner for Polymarket crypto price markets",
		Long: `polyedge compares Polymarket midpoints for crypto price-target markets with a
log-normal fair value built from spot, perpetual basis and realized volatility.
Signals that persist across cycles are recorded in a paper ledger or, with two
explicit switches, sent as small capped live orders.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", defaultConfigPath, "path to config file")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite ledger path (overrides config and POLYEDGE_DB)")
	pf.BoolVar(&opts.jsonOut, "json", false, "print JSON envelopes instead of text")
	pf.BoolVar(&opts.table, "table", false, "print full tables for scan cycles")
	pf.BoolVar(&opts.verbose, "verbose", false, "set log level to debug")

	root.AddCommand(
		initCommand(opts),
		marketsCommand(opts),
		scanCommand(opts),
		monitorCommand(opts),
		positionsCommand(opts),
		accountCommand(opts),
		resolveCommand(opts),
		historyCommand(opts),
		runsCommand(opts),
		modelsCommand(opts),
		walletCommand(opts),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stderr para no mezclar logs con la salida --json
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

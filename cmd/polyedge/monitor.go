package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// stopFile detiene el monitor de forma ordenada si aparece en el directorio actual.
const stopFile = "STOP"

func monitorCommand(opts *rootOptions) *cobra.Command {
	var (
		interval time.Duration
		maxRuns  int
	)
	sf := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Scan in a loop until interrupted, --max-runs is reached or a STOP file appears",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := sf.apply(cmd.Flags(), a.cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				a.cfg.Scanner.IntervalSeconds = int(interval.Seconds())
			}
			if a.cfg.Scanner.IntervalSeconds <= 0 {
				a.cfg.Scanner.IntervalSeconds = 60
			}
			if cmd.Flags().Changed("max-runs") {
				a.cfg.Scanner.MaxCycles = maxRuns
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go watchStopFile(ctx, cancel, time.Second)

			s, cleanup, err := a.buildScanner(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			slog.Info("monitor started",
				"interval", a.cfg.ScanInterval(),
				"max_runs", a.cfg.Scanner.MaxCycles,
				"live", a.cfg.Live(),
			)
			if err := s.Run(ctx); err != nil {
				return err
			}

			// resumen final con contexto propio: el del loop puede estar cancelado
			sumCtx, sumCancel := context.WithTimeout(context.Background(), a.cfg.APITimeout())
			defer sumCancel()
			mids, err := s.OpenMids(sumCtx)
			if err != nil {
				slog.Warn("open position midpoints unavailable", "err", err)
			}
			summary, _, err := a.ledger.Summary(sumCtx, mids)
			if err != nil {
				return err
			}
			return a.console.PrintAccount(summary)
		},
	}
	f := cmd.Flags()
	f.DurationVar(&interval, "interval", 0, "time between cycles (default from config, or 60s)")
	f.IntVar(&maxRuns, "max-runs", 0, "stop after N cycles (0 = unlimited)")
	sf.register(f)
	return cmd
}

// watchStopFile cancela el contexto cuando aparece el archivo STOP.
func watchStopFile(ctx context.Context, cancel context.CancelFunc, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("STOP file found, stopping monitor")
				cancel()
				return
			} else if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("stat STOP file", "err", err)
			}
		}
	}
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func positionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show open positions marked at current midpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			open, err := a.ledger.OpenTrades(ctx)
			if err != nil {
				return err
			}
			vals, err := a.marker().MarkPositions(ctx)
			if err != nil {
				slog.Warn("positions shown without marks", "err", err)
			}
			return a.console.PrintPositions(open, vals)
		},
	}
}

func accountCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Show cash, mark value of open positions, equity and PnL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			mids, err := a.marker().OpenMids(ctx)
			if err != nil {
				slog.Warn("open positions valued at zero", "err", err)
			}
			summary, _, err := a.ledger.Summary(ctx, mids)
			if err != nil {
				return err
			}
			return a.console.PrintAccount(summary)
		},
	}
}

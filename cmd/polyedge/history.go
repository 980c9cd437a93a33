package main

import (
	"github.com/alejandrodnm/polyedge/internal/model"
	"github.com/alejandrodnm/polyedge/internal/sizer"
	"github.com/spf13/cobra"
)

func historyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show settled trades with realized PnL and win rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.ledger.History(cmd.Context())
			if err != nil {
				return err
			}
			return a.console.PrintHistory(h)
		},
	}
}

func runsCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent scan runs with their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.ledger.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return a.console.PrintRuns(runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func modelsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the built-in models and sizers",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return opts.console().PrintRegistry(model.Builtins().Names(), sizer.Builtins().Names())
		},
	}
}

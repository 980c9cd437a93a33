package main

import (
	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/spf13/cobra"
)

func resolveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <slug> <yes|no>",
		Short: "Settle every open trade of a market at its final outcome",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := domain.ParseOutcome(args[1])
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			closed, err := a.ledger.Settle(cmd.Context(), args[0], outcome)
			if err != nil {
				return err
			}
			return a.console.PrintSettled(args[0], outcome, closed)
		},
	}
}

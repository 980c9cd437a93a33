package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCommand(opts *rootOptions) *cobra.Command {
	var bankroll float64
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the ledger account with a starting bankroll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("bankroll") {
				bankroll = a.cfg.Execution.BankrollUSD
			}
			created, err := a.ledger.Init(cmd.Context(), bankroll)
			if err != nil {
				return err
			}
			acct, err := a.ledger.Account(cmd.Context())
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("ledger initialized at %s with $%.2f\n", a.cfg.Storage.DSN, acct.StartingCapital)
			} else {
				fmt.Printf("ledger already exists at %s (cash $%.2f)\n", a.cfg.Storage.DSN, acct.Cash)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&bankroll, "bankroll", 0, "starting bankroll in USD (default from config)")
	return cmd
}

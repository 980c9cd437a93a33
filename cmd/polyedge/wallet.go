package main

import (
	"errors"
	"fmt"

	"github.com/alejandrodnm/polyedge/internal/adapters/onchain"
	"github.com/alejandrodnm/polyedge/internal/adapters/polymarket"
	"github.com/spf13/cobra"
)

func walletCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Show USDC.e balance and exchange allowance of the live wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Execution.PrivateKey == "" {
				return errors.New("wallet requires POLYEDGE_PRIVATE_KEY")
			}
			auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.Execution.PrivateKey)
			if err != nil {
				return err
			}
			w, err := onchain.Dial(cmd.Context(), cfg.Execution.PolygonRPC, auth.Address())
			if err != nil {
				return err
			}
			defer w.Close()

			f, err := w.Funds(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("  Address:   %s\n", f.Address)
			fmt.Printf("  Balance:   $%.2f\n", f.BalanceUSD)
			fmt.Printf("  Allowance: $%.2f\n", f.AllowanceUSD)
			if f.Available() < cfg.Execution.LiveOrderUSD {
				fmt.Printf("  ⚠ cannot cover a $%.2f live order\n", cfg.Execution.LiveOrderUSD)
			}
			return nil
		},
	}
}

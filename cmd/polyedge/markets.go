package main

import (
	"log/slog"

	"github.com/alejandrodnm/polyedge/internal/scanner"
	"github.com/spf13/cobra"
)

func marketsCommand(opts *rootOptions) *cobra.Command {
	var (
		all   bool
		limit int
		query string
	)
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List the markets that pass the scan filters, with current midpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a := &app{cfg: cfg}
			ctx := cmd.Context()

			if !cmd.Flags().Changed("limit") {
				limit = cfg.Scanner.Limit
			}
			client := a.polymarketClient()
			markets, err := client.FetchMarkets(ctx, limit)
			if err != nil {
				return err
			}
			if !all {
				fc := a.filterConfig()
				if cmd.Flags().Changed("query") {
					fc.Query = query
				}
				markets = scanner.NewFilter(fc).Apply(markets)
			}

			ids := make([]string, 0, 2*len(markets))
			for _, m := range markets {
				ids = append(ids, m.YesTokenID, m.NoTokenID)
			}
			if len(ids) > 0 {
				mids, err := client.FetchMidpoints(ctx, ids)
				if err != nil {
					slog.Warn("midpoints unavailable", "err", err)
				}
				for i := range markets {
					markets[i].YesMid = mids[markets[i].YesTokenID]
					markets[i].NoMid = mids[markets[i].NoTokenID]
				}
			}
			return opts.console().PrintMarkets(markets)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&all, "all", false, "skip the liquidity and topic filters")
	f.IntVar(&limit, "limit", 0, "number of markets to fetch (default from config)")
	f.StringVar(&query, "query", "", "substring required in question, slug or category")
	return cmd
}

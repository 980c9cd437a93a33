package main

import (
	"github.com/alejandrodnm/polyedge/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// scanFlags son los overrides de config comunes a scan y monitor.
type scanFlags struct {
	query       string
	limit       int
	threshold   float64
	executeLive bool
	confirmLive bool
	paperOnly   bool
	tag         string
	label       string
}

func (sf *scanFlags) register(f *pflag.FlagSet) {
	f.StringVar(&sf.query, "query", "", "substring required in question, slug or category")
	f.IntVar(&sf.limit, "limit", 0, "number of markets to fetch per cycle")
	f.Float64Var(&sf.threshold, "threshold", 0, "minimum net edge for a signal")
	f.BoolVar(&sf.executeLive, "execute-live", false, "send real orders (also needs --confirm-live)")
	f.BoolVar(&sf.confirmLive, "confirm-live", false, "second switch for live orders")
	f.BoolVar(&sf.paperOnly, "paper-only", false, "force paper mode regardless of config")
	f.StringVar(&sf.tag, "tag", "", "experiment tag stored with each run")
	f.StringVar(&sf.label, "label", "", "free-form label stored with each run")
}

// apply copia a cfg solo los flags indicados explícitamente y revalida.
func (sf *scanFlags) apply(f *pflag.FlagSet, cfg *config.Config) error {
	if f.Changed("query") {
		cfg.Scanner.Query = sf.query
	}
	if f.Changed("limit") {
		cfg.Scanner.Limit = sf.limit
	}
	if f.Changed("threshold") {
		cfg.Gate.Threshold = sf.threshold
	}
	if f.Changed("execute-live") {
		cfg.Execution.ExecuteLive = sf.executeLive
	}
	if f.Changed("confirm-live") {
		cfg.Execution.ConfirmLive = sf.confirmLive
	}
	if f.Changed("tag") {
		cfg.Scanner.ExperimentTag = sf.tag
	}
	if f.Changed("label") {
		cfg.Scanner.Label = sf.label
	}
	if sf.paperOnly {
		cfg.ForcePaper()
	}
	return cfg.Validate()
}

func scanCommand(opts *rootOptions) *cobra.Command {
	sf := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle",
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
			a.cfg.Scanner.IntervalSeconds = 0
			a.cfg.Scanner.MaxCycles = 1

			s, cleanup, err := a.buildScanner(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return s.Run(cmd.Context())
		},
	}
	sf.register(cmd.Flags())
	return cmd
}

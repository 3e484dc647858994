package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/aouyang1/go-descent/sweep"
	"github.com/spf13/cobra"
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		rates       []float64
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Fit the configured samples once per learning rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("rates") {
				a.cfg.Sweep.Rates = rates
			}
			if cmd.Flags().Changed("concurrency") {
				a.cfg.Sweep.Concurrency = concurrency
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runSweep(cmd)
		},
	}

	cmd.Flags().Float64SliceVar(&rates, "rates", nil, "comma separated learning rates to try")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of fits to run at once, 0 uses GOMAXPROCS")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command) error {
	samples, err := a.cfg.Samples()
	if err != nil {
		return fmt.Errorf("unable to load samples, %w", err)
	}

	trials, err := sweep.Run(cmd.Context(), samples, a.cfg.Sweep.Rates, a.cfg.SweepOptions())
	if err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tbl, "learning_rate\tintercept\tslope\tmse\tdiverged")
	for _, t := range trials {
		fmt.Fprintf(tbl, "%s\t%s\t%s\t%s\t%t\n",
			formatFloat(t.LearningRate),
			formatFloat(t.Params.Intercept),
			formatFloat(t.Params.Slope),
			formatFloat(t.MSE),
			t.Diverged,
		)
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	best, err := sweep.Best(trials)
	if errors.Is(err, sweep.ErrNoFiniteTrial) {
		fmt.Fprintln(cmd.OutOrStdout(), "best: none")
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "best: %s\n", formatFloat(best.LearningRate))
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

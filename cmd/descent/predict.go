package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	descent "github.com/aouyang1/go-descent"
	"github.com/spf13/cobra"
)

var ErrNoModel = errors.New("no model path provided")

func newPredictCmd(a *app) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "predict [flags] x...",
		Short: "Predict the target of each feature value with a saved model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				modelPath = a.cfg.Output.ModelPath
			}
			if modelPath == "" {
				return ErrNoModel
			}
			return a.runPredict(cmd, modelPath, args)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "JSON model written by fit --model-out")
	return cmd
}

func (a *app) runPredict(cmd *cobra.Command, modelPath string, args []string) error {
	x := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid feature value %q, %w", arg, err)
		}
		x = append(x, v)
	}

	m, err := readModel(modelPath)
	if err != nil {
		return err
	}
	f, err := descent.NewFromModel(m)
	if err != nil {
		return err
	}
	a.logger.Debug("loaded model", "path", modelPath, "id", m.ID.String(), "trained_at", m.TrainedAt)

	res, err := f.Predict(x)
	if err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	if res.Reference == nil {
		fmt.Fprintln(tbl, "x\tprediction")
	} else {
		fmt.Fprintln(tbl, "x\tprediction\treference")
	}
	for i, v := range res.X {
		if res.Reference == nil {
			fmt.Fprintf(tbl, "%s\t%s\n", formatFloat(v), formatFloat(res.Predicted[i]))
			continue
		}
		fmt.Fprintf(tbl, "%s\t%s\t%s\n", formatFloat(v), formatFloat(res.Predicted[i]), formatFloat(res.Reference[i]))
	}
	return tbl.Flush()
}

package main

import (
	"fmt"
	"os"
	"strconv"

	descent "github.com/aouyang1/go-descent"
	"github.com/aouyang1/go-descent/gradient"
	"github.com/cheggaaa/pb/v3"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type fitFlags struct {
	learningRate float64
	epochs       int
	rule         string
	data         string
	modelOut     string
	plot         string
	progress     bool
}

func newFitCmd(a *app) *cobra.Command {
	var ff fitFlags

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the configured samples and print the intercept and slope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFit(cmd, ff)
		},
	}

	cmd.Flags().Float64Var(&ff.learningRate, "learning-rate", gradient.DefaultLearningRate, "step size of each epoch")
	cmd.Flags().IntVar(&ff.epochs, "epochs", gradient.DefaultEpochs, "number of passes over the samples")
	cmd.Flags().StringVar(&ff.rule, "rule", gradient.MeanErrorRule.String(), "slope update rule, mean_error or gradient")
	cmd.Flags().StringVar(&ff.data, "data", "", "JSON samples file, defaults to the housing dataset")
	cmd.Flags().StringVar(&ff.modelOut, "model-out", "", "write the trained model as JSON")
	cmd.Flags().StringVar(&ff.plot, "plot", "", "write an html plot of the fit")
	cmd.Flags().BoolVar(&ff.progress, "progress", false, "show a progress bar over the epochs")
	return cmd
}

// applyFitFlags overrides the configuration with any flag set on the command line
func (a *app) applyFitFlags(cmd *cobra.Command, ff fitFlags) error {
	flags := cmd.Flags()
	if flags.Changed("learning-rate") {
		a.cfg.Fit.LearningRate = ff.learningRate
	}
	if flags.Changed("epochs") {
		a.cfg.Fit.Epochs = ff.epochs
	}
	if flags.Changed("rule") {
		rule, err := gradient.ParseUpdateRule(ff.rule)
		if err != nil {
			return err
		}
		a.cfg.Fit.Rule = rule
	}
	if flags.Changed("data") {
		a.cfg.Data.Path = ff.data
		a.cfg.Data.Features = nil
		a.cfg.Data.Targets = nil
	}
	if flags.Changed("model-out") {
		a.cfg.Output.ModelPath = ff.modelOut
	}
	if flags.Changed("plot") {
		a.cfg.Output.PlotPath = ff.plot
	}
	return a.cfg.Validate()
}

func (a *app) runFit(cmd *cobra.Command, ff fitFlags) error {
	if err := a.applyFitFlags(cmd, ff); err != nil {
		return err
	}

	samples, err := a.cfg.Samples()
	if err != nil {
		return fmt.Errorf("unable to load samples, %w", err)
	}

	opt := a.cfg.FitterOptions()
	if ff.progress {
		passes := 1
		if opt.OutlierOptions != nil {
			passes += opt.OutlierOptions.NumPasses
		}
		bar := pb.New(opt.Gradient.Epochs * passes).SetWriter(cmd.ErrOrStderr()).Start()
		defer bar.Finish()
		opt.Gradient.Hook = func(e gradient.Epoch) {
			bar.Increment()
		}
	}

	f, err := descent.New(opt)
	if err != nil {
		return err
	}
	a.logger.Info("fitting samples",
		"samples", len(samples),
		"learning_rate", opt.Gradient.LearningRate,
		"epochs", opt.Gradient.Epochs,
		"rule", opt.Gradient.Rule.String(),
	)
	if err := f.Fit(cmd.Context(), samples.Features(), samples.Targets()); err != nil {
		return err
	}

	for _, h := range f.History() {
		a.logger.Debug("epoch",
			"epoch", h.Epoch,
			"intercept", h.Params.Intercept,
			"slope", h.Params.Slope,
			"mse", h.MSE,
		)
	}
	if outliers := f.Outliers(); len(outliers) > 0 {
		a.logger.Info("removed outliers", "indices", outliers)
	}

	m, err := f.Model()
	if err != nil {
		return err
	}
	if a.verbose {
		if err := m.TablePrint(cmd.ErrOrStderr(), "", "  "); err != nil {
			return err
		}
	}

	if path := a.cfg.Output.ModelPath; path != "" {
		if err := writeModel(path, m); err != nil {
			return err
		}
		a.logger.Info("wrote model", "path", path, "id", m.ID.String())
	}

	if path := a.cfg.Output.PlotPath; path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("unable to create plot file, %w", err)
		}
		defer file.Close()
		if err := f.PlotFit(file); err != nil {
			return fmt.Errorf("unable to plot fit, %w", err)
		}
		a.logger.Info("wrote plot", "path", path)
	}

	// results are printed only once every output has been written
	p := f.Params()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "intercept: %s\n", strconv.FormatFloat(p.Intercept, 'g', -1, 64))
	fmt.Fprintf(out, "slope: %s\n", strconv.FormatFloat(p.Slope, 'g', -1, 64))
	return nil
}

func writeModel(path string, m descent.Model) error {
	bytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal model, %w", err)
	}
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return fmt.Errorf("unable to write model, %w", err)
	}
	return nil
}

func readModel(path string) (descent.Model, error) {
	var m descent.Model
	bytes, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("unable to read model, %w", err)
	}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return m, fmt.Errorf("unable to parse model %s, %w", path, err)
	}
	return m, nil
}

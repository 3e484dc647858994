package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aouyang1/go-descent/config"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

var ErrUnknownProfile = errors.New("unknown profile mode, expected cpu or mem")

// app is the state shared by every subcommand once the persistent flags are parsed
type app struct {
	configPath  string
	verbose     bool
	profileMode string
	profileDir  string

	cfg      *config.Config
	logger   *slog.Logger
	profiler interface{ Stop() }
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "descent",
		Short: "Fit a line with batch gradient descent",
		Long: `descent fits intercept + slope * feature to a set of samples using batch gradient descent
with a fixed learning rate and number of epochs.

With no configuration the five point housing dataset is fit with a learning rate of 0.0001
over 1000 epochs.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "descent.yaml", "path to the YAML run configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().StringVar(&a.profileMode, "profile", "", "write a cpu or mem profile")
	root.PersistentFlags().StringVar(&a.profileDir, "profile-path", ".", "directory to write profiles to")

	root.AddCommand(
		newFitCmd(a),
		newSweepCmd(a),
		newPredictCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	a.cfg = cfg
	a.logger = logger

	switch a.profileMode {
	case "":
	case "cpu":
		a.profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(a.profileDir), profile.Quiet)
	case "mem":
		a.profiler = profile.Start(profile.MemProfile, profile.ProfilePath(a.profileDir), profile.Quiet)
	default:
		return fmt.Errorf("%q, %w", a.profileMode, ErrUnknownProfile)
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.profiler != nil {
		a.profiler.Stop()
		a.profiler = nil
	}
	return nil
}

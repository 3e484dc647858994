// Package config loads the YAML run configuration shared by the descent commands.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	descent "github.com/aouyang1/go-descent"
	"github.com/aouyang1/go-descent/dataset"
	"github.com/aouyang1/go-descent/gradient"
	"github.com/aouyang1/go-descent/sweep"
	"gopkg.in/yaml.v3"
)

var (
	ErrAmbiguousData    = errors.New("data path and inline samples are both set")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")
)

// Config holds a full run configuration
type Config struct {
	Data     DataConfig    `yaml:"data"`
	Fit      FitConfig     `yaml:"fit"`
	Outliers OutlierConfig `yaml:"outliers"`
	Sweep    SweepConfig   `yaml:"sweep"`
	Output   OutputConfig  `yaml:"output"`
	Logging  LoggingConfig `yaml:"logging"`
}

// DataConfig points at the samples to fit. With nothing set the housing dataset is used.
type DataConfig struct {
	Path     string    `yaml:"path"`
	Features []float64 `yaml:"features,omitempty"`
	Targets  []float64 `yaml:"targets,omitempty"`
}

type FitConfig struct {
	LearningRate     float64             `yaml:"learning_rate"`
	Epochs           int                 `yaml:"epochs"`
	Rule             gradient.UpdateRule `yaml:"rule"`
	HistoryInterval  int                 `yaml:"history_interval"`
	HaltOnDivergence bool                `yaml:"halt_on_divergence"`
}

// OutlierConfig enables outlier passes when NumPasses is greater than 0
type OutlierConfig struct {
	NumPasses       int     `yaml:"num_passes"`
	LowerPercentile float64 `yaml:"lower_percentile"`
	UpperPercentile float64 `yaml:"upper_percentile"`
	TukeyFactor     float64 `yaml:"tukey_factor"`
}

type SweepConfig struct {
	Rates       []float64 `yaml:"rates"`
	Concurrency int       `yaml:"concurrency"`
}

type OutputConfig struct {
	ModelPath string `yaml:"model_path"`
	PlotPath  string `yaml:"plot_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig fits the housing dataset with the default gradient options
func DefaultConfig() *Config {
	outliers := descent.NewOutlierOptions()
	return &Config{
		Fit: FitConfig{
			LearningRate:    gradient.DefaultLearningRate,
			Epochs:          gradient.DefaultEpochs,
			Rule:            gradient.MeanErrorRule,
			HistoryInterval: descent.DefaultHistoryInterval,
		},
		Outliers: OutlierConfig{
			LowerPercentile: outliers.LowerPercentile,
			UpperPercentile: outliers.UpperPercentile,
			TukeyFactor:     outliers.TukeyFactor,
		},
		Sweep: SweepConfig{
			Rates:       []float64{1e-7, 1e-6, 1e-5, 1e-4},
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from path over the defaults. A missing file returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the parent directory if needed
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks every section without loading the data file
func (c *Config) Validate() error {
	if c.Data.Path != "" && (len(c.Data.Features) > 0 || len(c.Data.Targets) > 0) {
		return ErrAmbiguousData
	}
	if _, err := c.FitterOptions().Validate(); err != nil {
		return err
	}
	if _, err := c.SweepOptions().Validate(); err != nil {
		return err
	}
	for _, lr := range c.Sweep.Rates {
		o := &gradient.Options{LearningRate: lr, Epochs: c.Fit.Epochs, Rule: c.Fit.Rule}
		if _, err := o.Validate(); err != nil {
			return fmt.Errorf("invalid sweep rate, %w", err)
		}
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%q, %w", c.Logging.Format, ErrUnknownLogFormat)
	}
	return nil
}

// Samples resolves the configured dataset
func (c *Config) Samples() (dataset.Samples, error) {
	switch {
	case c.Data.Path != "":
		return dataset.LoadFile(c.Data.Path)
	case len(c.Data.Features) > 0 || len(c.Data.Targets) > 0:
		return dataset.New(c.Data.Features, c.Data.Targets)
	default:
		return dataset.Housing(), nil
	}
}

// FitterOptions converts the fit and outlier sections into Fitter options
func (c *Config) FitterOptions() *descent.Options {
	opt := &descent.Options{
		Gradient: &gradient.Options{
			LearningRate:     c.Fit.LearningRate,
			Epochs:           c.Fit.Epochs,
			Rule:             c.Fit.Rule,
			HaltOnDivergence: c.Fit.HaltOnDivergence,
		},
		HistoryInterval: c.Fit.HistoryInterval,
	}
	if c.Outliers.NumPasses != 0 {
		opt.OutlierOptions = &descent.OutlierOptions{
			NumPasses:       c.Outliers.NumPasses,
			LowerPercentile: c.Outliers.LowerPercentile,
			UpperPercentile: c.Outliers.UpperPercentile,
			TukeyFactor:     c.Outliers.TukeyFactor,
		}
	}
	return opt
}

// SweepOptions uses the fit section as the base of every trial. The learning rate of each trial
// comes from the sweep rates.
func (c *Config) SweepOptions() *sweep.Options {
	return &sweep.Options{
		Base: &gradient.Options{
			LearningRate: c.Fit.LearningRate,
			Epochs:       c.Fit.Epochs,
			Rule:         c.Fit.Rule,
		},
		Concurrency: c.Sweep.Concurrency,
	}
}

// NewLogger builds the slog logger described by the logging section
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	handlerOpt := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpt)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpt)), nil
	default:
		return nil, fmt.Errorf("%q, %w", c.Logging.Format, ErrUnknownLogFormat)
	}
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%q, %w", name, ErrUnknownLogLevel)
	}
}

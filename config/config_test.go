package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	descent "github.com/aouyang1/go-descent"
	"github.com/aouyang1/go-descent/dataset"
	"github.com/aouyang1/go-descent/gradient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "descent.yaml")
	require.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Nil(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad(t *testing.T) {
	testData := map[string]struct {
		content  string
		expected func() *Config
		err      error
	}{
		"empty": {
			content:  "",
			expected: DefaultConfig,
		},
		"partial fit": {
			content: `
fit:
  learning_rate: 0.5
  rule: gradient
logging:
  format: json
`,
			expected: func() *Config {
				cfg := DefaultConfig()
				cfg.Fit.LearningRate = 0.5
				cfg.Fit.Rule = gradient.GradientRule
				cfg.Logging.Format = "json"
				return cfg
			},
		},
		"inline data": {
			content: `
data:
  features: [1, 2, 3]
  targets: [2, 4, 6]
sweep:
  rates: [0.1, 0.01]
  concurrency: 1
`,
			expected: func() *Config {
				cfg := DefaultConfig()
				cfg.Data.Features = []float64{1, 2, 3}
				cfg.Data.Targets = []float64{2, 4, 6}
				cfg.Sweep.Rates = []float64{0.1, 0.01}
				cfg.Sweep.Concurrency = 1
				return cfg
			},
		},
		"unknown rule":       {content: "fit: {rule: newton}", err: gradient.ErrUnknownRule},
		"zero learning rate": {content: "fit: {learning_rate: 0}", err: gradient.ErrNonPositiveLearningRate},
		"negative epochs":    {content: "fit: {epochs: -3}", err: gradient.ErrNegativeEpochs},
		"bad sweep rate":     {content: "sweep: {rates: [0.1, -1]}", err: gradient.ErrNonPositiveLearningRate},
		"bad percentiles": {
			content: "outliers: {num_passes: 1, lower_percentile: 0.9, upper_percentile: 0.1}",
			err:     descent.ErrInvalidPercentiles,
		},
		"ambiguous data": {
			content: "data: {path: samples.json, features: [1], targets: [1]}",
			err:     ErrAmbiguousData,
		},
		"bad log level":  {content: "logging: {level: loud}", err: ErrUnknownLogLevel},
		"bad log format": {content: "logging: {format: xml}", err: ErrUnknownLogFormat},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, td.content))
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected(), cfg)
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "fit: [unterminated"))
	assert.NotNil(t, err)
}

func TestSaveLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fit.Rule = gradient.GradientRule
	cfg.Outliers.NumPasses = 2
	cfg.Output.ModelPath = "model.json"

	path := filepath.Join(t.TempDir(), "nested", "descent.yaml")
	require.Nil(t, cfg.Save(path))

	out, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Contains(t, string(out), "rule: gradient")

	loaded, err := Load(path)
	require.Nil(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSamples(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "samples.json")
	require.Nil(t, os.WriteFile(dataPath, []byte(`{"features": [1, 2], "targets": [3, 5]}`), 0o644))

	testData := map[string]struct {
		data     DataConfig
		expected dataset.Samples
		err      error
	}{
		"housing": {expected: dataset.Housing()},
		"inline": {
			data:     DataConfig{Features: []float64{1, 2}, Targets: []float64{3, 5}},
			expected: dataset.Samples{{Feature: 1, Target: 3}, {Feature: 2, Target: 5}},
		},
		"inline mismatch": {
			data: DataConfig{Features: []float64{1, 2}, Targets: []float64{3}},
			err:  dataset.ErrLengthMismatch,
		},
		"file": {
			data:     DataConfig{Path: dataPath},
			expected: dataset.Samples{{Feature: 1, Target: 3}, {Feature: 2, Target: 5}},
		},
		"missing file": {
			data: DataConfig{Path: filepath.Join(t.TempDir(), "missing.json")},
			err:  os.ErrNotExist,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Data = td.data
			s, err := cfg.Samples()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, s)
		})
	}
}

func TestFitterOptions(t *testing.T) {
	cfg := DefaultConfig()
	opt := cfg.FitterOptions()
	assert.Nil(t, opt.OutlierOptions)
	assert.Equal(t, gradient.NewDefaultOptions(), opt.Gradient)
	assert.Equal(t, descent.DefaultHistoryInterval, opt.HistoryInterval)

	cfg.Outliers.NumPasses = 3
	cfg.Fit.HaltOnDivergence = true
	opt = cfg.FitterOptions()
	assert.Equal(t, descent.NewOutlierOptions(), opt.OutlierOptions)
	assert.True(t, opt.Gradient.HaltOnDivergence)

	sOpt := cfg.SweepOptions()
	assert.Equal(t, 4, sOpt.Concurrency)
	assert.Equal(t, cfg.Fit.Epochs, sOpt.Base.Epochs)
	assert.Nil(t, sOpt.Base.Hook)
}

func TestNewLogger(t *testing.T) {
	testData := map[string]struct {
		logging  LoggingConfig
		contains string
		empty    bool
		err      error
	}{
		"text info drops debug": {LoggingConfig{Level: "info", Format: "text"}, "", true, nil},
		"text debug":            {LoggingConfig{Level: "debug", Format: "text"}, "level=DEBUG msg=hello epoch=3", false, nil},
		"json debug":            {LoggingConfig{Level: "DEBUG", Format: "json"}, `"msg":"hello","epoch":3`, false, nil},
		"unknown level":         {LoggingConfig{Level: "loud"}, "", false, ErrUnknownLogLevel},
		"unknown format":        {LoggingConfig{Format: "xml"}, "", false, ErrUnknownLogFormat},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Logging = td.logging

			var buf bytes.Buffer
			logger, err := cfg.NewLogger(&buf)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)

			logger.Debug("hello", "epoch", 3)
			if td.empty {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), td.contains)
		})
	}
}

package descent

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-descent/gradient"
)

const (
	DefaultHistoryInterval  = 10
	MinSamplesAfterOutliers = 2
)

var (
	ErrNegativeHistoryInterval = errors.New("negative history interval")
	ErrNegativeOutlierPasses   = errors.New("negative number of outlier passes")
	ErrInvalidPercentiles      = errors.New("outlier lower percentile must be less than upper percentile within [0, 1]")
)

// OutlierOptions configures the passes that drop samples whose residual falls outside the Tukey
// fences before refitting
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

func (o *OutlierOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.NumPasses < 0 {
		return ErrNegativeOutlierPasses
	}
	if o.LowerPercentile < 0 || o.UpperPercentile > 1 || o.LowerPercentile >= o.UpperPercentile {
		return fmt.Errorf("lower %.3f, upper %.3f, %w", o.LowerPercentile, o.UpperPercentile, ErrInvalidPercentiles)
	}
	return nil
}

// Options configures a Fitter
type Options struct {
	// Gradient are the gradient descent hyperparameters. A hook set here is called in addition to
	// the history recording.
	Gradient *gradient.Options `json:"gradient"`

	// OutlierOptions enables outlier removal passes when set
	OutlierOptions *OutlierOptions `json:"outlier_options,omitempty"`

	// HistoryInterval records the parameters and mean squared error every n epochs. The final
	// epoch is always recorded. 0 records only the final epoch.
	HistoryInterval int `json:"history_interval"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Gradient:        gradient.NewDefaultOptions(),
		HistoryInterval: DefaultHistoryInterval,
	}
}

// Validate runs basic validation on the fitter options, filling in defaults for nil values
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	gOpt, err := o.Gradient.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid gradient options, %w", err)
	}
	o.Gradient = gOpt

	if err := o.OutlierOptions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outlier options, %w", err)
	}
	if o.HistoryInterval < 0 {
		return nil, ErrNegativeHistoryInterval
	}
	return o, nil
}

package gradient

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultLearningRate = 0.0001
	DefaultEpochs       = 1000
)

// UpdateRule selects the term subtracted from the slope on every epoch
type UpdateRule int

const (
	// MeanErrorRule updates the slope with the mean raw error, the same term used for the
	// intercept. This does not follow the slope gradient of the mean squared error.
	MeanErrorRule UpdateRule = iota

	// GradientRule updates the slope with mean(error * feature), the partial derivative of the
	// mean squared error with respect to the slope (up to a constant factor of 2).
	GradientRule
)

var ruleNames = map[UpdateRule]string{
	MeanErrorRule: "mean_error",
	GradientRule:  "gradient",
}

func (r UpdateRule) String() string {
	if name, exists := ruleNames[r]; exists {
		return name
	}
	return fmt.Sprintf("UpdateRule(%d)", int(r))
}

// ParseUpdateRule converts the name of a rule e.g. "gradient" into an UpdateRule
func ParseUpdateRule(name string) (UpdateRule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for r, n := range ruleNames {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%q, %w", name, ErrUnknownRule)
}

func (r UpdateRule) MarshalText() ([]byte, error) {
	if _, exists := ruleNames[r]; !exists {
		return nil, fmt.Errorf("%d, %w", int(r), ErrUnknownRule)
	}
	return []byte(r.String()), nil
}

func (r *UpdateRule) UnmarshalText(text []byte) error {
	parsed, err := ParseUpdateRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Options configures a gradient descent fit
type Options struct {
	// LearningRate is the step size multiplier applied to each epoch's update. There is no
	// stability check so a rate that is too large for the scale of the features will diverge.
	LearningRate float64 `json:"learning_rate"`

	// Epochs is the number of full passes over the samples. 0 returns the initial parameters.
	Epochs int `json:"epochs"`

	// Rule selects how the slope is updated
	Rule UpdateRule `json:"rule"`

	// Hook is called after every epoch's update with the new parameters
	Hook Hook `json:"-"`

	// HaltOnDivergence stops the fit with ErrDiverged as soon as a parameter becomes non-finite
	HaltOnDivergence bool `json:"halt_on_divergence"`
}

// NewDefaultOptions returns the learning rate and epochs used by the housing price exercise with the
// mean error update rule
func NewDefaultOptions() *Options {
	return &Options{
		LearningRate: DefaultLearningRate,
		Epochs:       DefaultEpochs,
		Rule:         MeanErrorRule,
	}
}

// Validate runs basic validation on the options. A nil receiver returns the default options.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	if !(o.LearningRate > 0) || math.IsInf(o.LearningRate, 0) {
		return nil, fmt.Errorf("got %g, %w", o.LearningRate, ErrNonPositiveLearningRate)
	}
	if o.Epochs < 0 {
		return nil, fmt.Errorf("got %d, %w", o.Epochs, ErrNegativeEpochs)
	}
	if _, exists := ruleNames[o.Rule]; !exists {
		return nil, fmt.Errorf("%s, %w", o.Rule, ErrUnknownRule)
	}
	return o, nil
}

// Copy returns a shallow copy of the options. The hook is shared.
func (o *Options) Copy() *Options {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

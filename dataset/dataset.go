// Package dataset holds the ordered feature/target sample sets that the regressions in this module
// are fit against.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is the single kind of every sample set validation failure
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrNoSamples      = fmt.Errorf("no samples, %w", ErrInvalidInput)
	ErrLengthMismatch = fmt.Errorf("features have a different length than targets, %w", ErrInvalidInput)
	ErrNonFinite      = fmt.Errorf("sample contains a non-finite value, %w", ErrInvalidInput)
)

// Sample is a single observation of a feature and the target it should predict
type Sample struct {
	Feature float64 `json:"feature" yaml:"feature"`
	Target  float64 `json:"target" yaml:"target"`
}

// Samples is an ordered set of observations. Fits only ever read from it.
type Samples []Sample

// New returns a sample set pairing each feature with the target at the same index. Both must be
// of the same length and non-empty.
func New(x, y []float64) (Samples, error) {
	if len(x) == 0 && len(y) == 0 {
		return nil, ErrNoSamples
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf(
			"features have length of %d, but targets have a length of %d, %w",
			len(x), len(y), ErrLengthMismatch,
		)
	}

	s := make(Samples, len(x))
	for i := range x {
		s[i] = Sample{Feature: x[i], Target: y[i]}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that there is at least one sample and every value is finite
func (s Samples) Validate() error {
	if len(s) == 0 {
		return ErrNoSamples
	}
	for i, smp := range s {
		if !isFinite(smp.Feature) || !isFinite(smp.Target) {
			return fmt.Errorf("at index %d, %w", i, ErrNonFinite)
		}
	}
	return nil
}

func (s Samples) Len() int {
	return len(s)
}

// Features returns a copy of the feature values in sample order
func (s Samples) Features() []float64 {
	x := make([]float64, len(s))
	for i, smp := range s {
		x[i] = smp.Feature
	}
	return x
}

// Targets returns a copy of the target values in sample order
func (s Samples) Targets() []float64 {
	y := make([]float64, len(s))
	for i, smp := range s {
		y[i] = smp.Target
	}
	return y
}

func (s Samples) Copy() Samples {
	if s == nil {
		return nil
	}
	c := make(Samples, len(s))
	copy(c, s)
	return c
}

// Without returns a copy of the samples excluding the provided indices. Out of range indices are
// ignored.
func (s Samples) Without(idx []int) Samples {
	skip := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		skip[i] = struct{}{}
	}

	res := make(Samples, 0, len(s))
	for i, smp := range s {
		if _, exists := skip[i]; exists {
			continue
		}
		res = append(res, smp)
	}
	return res
}

// Housing is the house size (square feet) to price (thousands) dataset commonly used to introduce
// linear regression
func Housing() Samples {
	return Samples{
		{Feature: 2104, Target: 400},
		{Feature: 1600, Target: 330},
		{Feature: 2400, Target: 369},
		{Feature: 1416, Target: 232},
		{Feature: 3000, Target: 540},
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

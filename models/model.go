// Package models is a collection of single feature linear regression fitting implementations
// used by the descent Fitter
package models

import (
	"fmt"

	"github.com/aouyang1/go-descent/dataset"
	"github.com/aouyang1/go-descent/stats"
)

// Model fits a line, prediction = intercept + slope * feature, to a set of samples
type Model interface {
	Fit(s dataset.Samples) error
	Predict(x []float64) ([]float64, error)
	Score(s dataset.Samples) (float64, error)
	Intercept() float64
	Slope() float64
}

func predictLine(intercept, slope float64, x []float64) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	res := make([]float64, len(x))
	for i, v := range x {
		res[i] = intercept + slope*v
	}
	return res, nil
}

// scoreModel computes the r squared of the model predictions against the sample targets
func scoreModel(m Model, s dataset.Samples) (float64, error) {
	if len(s) == 0 {
		return 0.0, ErrNoTrainingData
	}
	res, err := m.Predict(s.Features())
	if err != nil {
		return 0.0, err
	}
	r2, err := stats.RSquared(res, s.Targets())
	if err != nil {
		return 0.0, fmt.Errorf("unable to score model, %w", err)
	}
	return r2, nil
}

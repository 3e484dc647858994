// Package gradient fits the intercept and slope of a single feature linear model,
// prediction = intercept + slope * feature, using batch gradient descent with a fixed step size
// and a fixed number of epochs.
package gradient

import (
	"context"
	"fmt"
	"math"

	"github.com/aouyang1/go-descent/dataset"
)

// Params is the state of the linear model being fit
type Params struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
}

// Predict evaluates the linear model at x
func (p Params) Predict(x float64) float64 {
	return p.Intercept + p.Slope*x
}

// Finite reports whether both parameters are neither NaN nor infinite
func (p Params) Finite() bool {
	return !math.IsNaN(p.Intercept) && !math.IsInf(p.Intercept, 0) &&
		!math.IsNaN(p.Slope) && !math.IsInf(p.Slope, 0)
}

// Diverged reports whether the parameters have overflowed to a non-finite value
func (p Params) Diverged() bool {
	return !p.Finite()
}

// Epoch describes the model after a single update
type Epoch struct {
	// Index is the zero based epoch number
	Index int `json:"index"`

	// Params are the parameters after this epoch's update
	Params Params `json:"params"`

	// MeanError is mean(prediction - target) using the parameters before the update
	MeanError float64 `json:"mean_error"`

	// SlopeTerm is the quantity the slope was moved against, scaled by the learning rate
	SlopeTerm float64 `json:"slope_term"`
}

// Hook observes the progress of a fit. It is called synchronously after each epoch.
type Hook func(e Epoch)

// Fit runs epochs passes of batch gradient descent with the mean error update rule starting from
// (0, 0) and returns the final parameters.
func Fit(samples dataset.Samples, learningRate float64, epochs int) (Params, error) {
	opt := &Options{
		LearningRate: learningRate,
		Epochs:       epochs,
		Rule:         MeanErrorRule,
	}
	return FitContext(context.Background(), samples, opt)
}

// FitContext runs the fit described by opt. The context is checked once per epoch. On
// cancellation the parameters reached so far are returned with the context error.
func FitContext(ctx context.Context, samples dataset.Samples, opt *Options) (Params, error) {
	opt, err := opt.Validate()
	if err != nil {
		return Params{}, err
	}
	if err := samples.Validate(); err != nil {
		return Params{}, err
	}

	var p Params
	n := float64(len(samples))
	for i := 0; i < opt.Epochs; i++ {
		if err := ctx.Err(); err != nil {
			return p, fmt.Errorf("stopped at epoch %d of %d, %w", i, opt.Epochs, err)
		}

		var sumErr, sumScaledErr float64
		for _, s := range samples {
			e := p.Predict(s.Feature) - s.Target
			sumErr += e
			sumScaledErr += e * s.Feature
		}
		meanErr := sumErr / n

		slopeTerm := meanErr
		if opt.Rule == GradientRule {
			slopeTerm = sumScaledErr / n
		}

		next := Params{
			Intercept: p.Intercept - opt.LearningRate*meanErr,
			Slope:     p.Slope - opt.LearningRate*slopeTerm,
		}

		if opt.HaltOnDivergence && next.Diverged() {
			return p, fmt.Errorf("at epoch %d, %w", i, ErrDiverged)
		}
		p = next

		if opt.Hook != nil {
			opt.Hook(Epoch{
				Index:     i,
				Params:    p,
				MeanError: meanErr,
				SlopeTerm: slopeTerm,
			})
		}
	}
	return p, nil
}

// Trace fits the samples and returns the parameters after every epoch. Any hook already set on
// opt is still called.
func Trace(samples dataset.Samples, opt *Options) ([]Epoch, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	history := make([]Epoch, 0, opt.Epochs)
	traced := opt.Copy()
	traced.Hook = func(e Epoch) {
		history = append(history, e)
		if opt.Hook != nil {
			opt.Hook(e)
		}
	}
	if _, err := FitContext(context.Background(), samples, traced); err != nil {
		return history, err
	}
	return history, nil
}

// MSE computes the mean squared error of the parameters over the samples. Unlike stats.MSE it
// evaluates the line itself, so it can run inside an epoch hook without allocating predictions.
func MSE(samples dataset.Samples, p Params) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		e := p.Predict(s.Feature) - s.Target
		sum += e * e
	}
	return sum / float64(len(samples))
}

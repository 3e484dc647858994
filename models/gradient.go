package models

import (
	"context"

	"github.com/aouyang1/go-descent/dataset"
	"github.com/aouyang1/go-descent/gradient"
)

// GradientDescentRegression fits the line with batch gradient descent starting from (0, 0)
type GradientDescentRegression struct {
	opt    *gradient.Options
	params gradient.Params
	fit    bool
}

// NewGradientDescentRegression validates the options, using the defaults when nil
func NewGradientDescentRegression(opt *gradient.Options) (*GradientDescentRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &GradientDescentRegression{
		opt: opt,
	}, nil
}

func (g *GradientDescentRegression) Fit(s dataset.Samples) error {
	return g.FitContext(context.Background(), s)
}

// FitContext fits the samples, checking the context once per epoch. A failed fit leaves the
// model unfit.
func (g *GradientDescentRegression) FitContext(ctx context.Context, s dataset.Samples) error {
	if g.opt == nil {
		return ErrNoOptions
	}
	g.fit = false

	p, err := gradient.FitContext(ctx, s, g.opt)
	if err != nil {
		return err
	}
	g.params = p
	g.fit = true
	return nil
}

func (g *GradientDescentRegression) Predict(x []float64) ([]float64, error) {
	if g.opt == nil {
		return nil, ErrNoOptions
	}
	if !g.fit {
		return nil, ErrUnfitModel
	}
	return predictLine(g.params.Intercept, g.params.Slope, x)
}

// Score returns the r squared of the fit line against the samples
func (g *GradientDescentRegression) Score(s dataset.Samples) (float64, error) {
	if g.opt == nil {
		return 0.0, ErrNoOptions
	}
	return scoreModel(g, s)
}

func (g *GradientDescentRegression) Params() gradient.Params {
	return g.params
}

func (g *GradientDescentRegression) Intercept() float64 {
	return g.params.Intercept
}

func (g *GradientDescentRegression) Slope() float64 {
	return g.params.Slope
}

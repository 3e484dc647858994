package models

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-descent/dataset"
	"gonum.org/v1/gonum/mat"
)

// rank deficiency threshold relative to the largest diagonal of R
const singularTol = 1e-12

type OLSOptions struct {
	// FitIntercept adds a constant 1.0 column to the design matrix. Without it the line is forced
	// through the origin.
	FitIntercept bool `json:"fit_intercept"`
}

// Validate runs basic validation on OLS options
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		o = NewDefaultOLSOptions()
	}
	return o, nil
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes the closed form least squares line using QR factorization. It is the
// reference optimum a gradient descent fit is compared against.
type OLSRegression struct {
	opt       *OLSOptions
	intercept float64
	slope     float64
	fit       bool
}

func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

func (o *OLSRegression) Fit(s dataset.Samples) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if len(s) == 0 {
		return ErrNoTrainingData
	}

	x := o.designMatrix(s.Features())
	m, n := x.Dims()
	if m < n {
		return fmt.Errorf("got %d samples for %d coefficients, %w", m, n, ErrInsufficientSamples)
	}
	y := mat.NewDense(m, 1, s.Targets())

	qr := new(mat.QR)
	qr.Factorize(x)

	// an exactly collinear design leaves a zero pivot on the diagonal of R
	r := new(mat.Dense)
	qr.RTo(r)
	scale := math.Abs(r.At(0, 0))
	for i := 0; i < n; i++ {
		rii := math.Abs(r.At(i, i))
		if rii == 0 || rii <= singularTol*scale {
			return fmt.Errorf("zero pivot at coefficient %d, %w", i, ErrSingularDesign)
		}
	}

	var coef mat.Dense
	if err := qr.SolveTo(&coef, false, y); err != nil {
		return fmt.Errorf("unable to solve least squares, %w", err)
	}
	c := mat.Col(nil, 0, &coef)

	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.slope = c[1]
	} else {
		o.intercept = 0
		o.slope = c[0]
	}
	o.fit = true
	return nil
}

func (o *OLSRegression) designMatrix(x []float64) *mat.Dense {
	m := len(x)
	if !o.opt.FitIntercept {
		return mat.NewDense(m, 1, append([]float64(nil), x...))
	}

	data := make([]float64, 0, 2*m)
	for _, v := range x {
		data = append(data, 1.0, v)
	}
	return mat.NewDense(m, 2, data)
}

func (o *OLSRegression) Predict(x []float64) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if !o.fit {
		return nil, ErrUnfitModel
	}
	return predictLine(o.intercept, o.slope, x)
}

// Score returns the r squared of the fit line against the samples
func (o *OLSRegression) Score(s dataset.Samples) (float64, error) {
	if o.opt == nil {
		return 0.0, ErrNoOptions
	}
	return scoreModel(o, s)
}

func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

func (o *OLSRegression) Slope() float64 {
	return o.slope
}

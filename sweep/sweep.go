// Package sweep fits the same samples over a range of learning rates concurrently so the
// largest stable step size can be picked out.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/aouyang1/go-descent/dataset"
	"github.com/aouyang1/go-descent/gradient"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoRates             = fmt.Errorf("no learning rates to sweep, %w", gradient.ErrInvalidInput)
	ErrNegativeConcurrency = fmt.Errorf("negative concurrency, %w", gradient.ErrInvalidInput)
	ErrNoFiniteTrial       = errors.New("every trial diverged")
)

// Options configures a sweep. Base supplies every hyperparameter except the learning rate.
type Options struct {
	Base *gradient.Options `json:"base"`

	// Concurrency limits the number of fits running at once. 0 uses GOMAXPROCS.
	Concurrency int `json:"concurrency"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Base: gradient.NewDefaultOptions(),
	}
}

func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	if o.Base == nil {
		o.Base = gradient.NewDefaultOptions()
	}
	if o.Concurrency < 0 {
		return nil, fmt.Errorf("got %d, %w", o.Concurrency, ErrNegativeConcurrency)
	}
	return o, nil
}

// Trial is the outcome of a single learning rate
type Trial struct {
	LearningRate float64         `json:"learning_rate"`
	Params       gradient.Params `json:"params"`
	MSE          float64         `json:"mean_squared_error"`
	Diverged     bool            `json:"diverged"`
}

// Run fits the samples once per learning rate. Trials are returned in the order of rates. A
// diverged trial is not an error, it is flagged on the trial instead.
func Run(ctx context.Context, samples dataset.Samples, rates []float64, opt *Options) ([]Trial, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, ErrNoRates
	}

	// reject every bad rate before spending any time fitting
	base := opt.Base.Copy()
	base.Hook = nil
	base.HaltOnDivergence = false
	for _, lr := range rates {
		trialOpt := base.Copy()
		trialOpt.LearningRate = lr
		if _, err := trialOpt.Validate(); err != nil {
			return nil, fmt.Errorf("invalid sweep rate, %w", err)
		}
	}
	if err := samples.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep samples, %w", err)
	}

	limit := opt.Concurrency
	if limit == 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	trials := make([]Trial, len(rates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, lr := range rates {
		g.Go(func() error {
			trialOpt := base.Copy()
			trialOpt.LearningRate = lr

			p, err := gradient.FitContext(gctx, samples, trialOpt)
			if err != nil {
				return fmt.Errorf("learning rate %g, %w", lr, err)
			}

			t := Trial{
				LearningRate: lr,
				Params:       p,
				Diverged:     p.Diverged(),
				MSE:          math.Inf(1),
			}
			if !t.Diverged {
				t.MSE = gradient.MSE(samples, p)
			}
			slog.Debug("sweep trial complete", "learning_rate", lr, "diverged", t.Diverged, "mse", t.MSE)

			// each goroutine owns a distinct index
			trials[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trials, nil
}

// Best returns the finite trial with the lowest mean squared error. Ties keep the earlier trial.
func Best(trials []Trial) (Trial, error) {
	var best Trial
	found := false
	for _, t := range trials {
		if t.Diverged || math.IsNaN(t.MSE) || math.IsInf(t.MSE, 0) {
			continue
		}
		if !found || t.MSE < best.MSE {
			best = t
			found = true
		}
	}
	if !found {
		return Trial{}, ErrNoFiniteTrial
	}
	return best, nil
}

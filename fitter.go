// Package descent fits a single feature line to a sample set with batch gradient descent. A Fitter
// tracks the training history, optional outlier removal passes, the closed form least squares
// reference line and the resulting fit scores. The fit can be exported as a Model for later
// inference and plotted as an html page.
package descent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aouyang1/go-descent/dataset"
	"github.com/aouyang1/go-descent/gradient"
	"github.com/aouyang1/go-descent/models"
	"github.com/aouyang1/go-descent/stats"
	"github.com/google/uuid"
)

var (
	ErrUninitializedFitter = errors.New("uninitialized fitter")
	ErrUntrainedFitter     = errors.New("fitter has not been trained yet")
	ErrNoTrainingData      = errors.New("no training data available, fitter was restored from a model")
	ErrNoOptionsInModel    = errors.New("no options set in model")
	ErrNonFiniteScores     = fmt.Errorf("fit scores are not finite, %w", gradient.ErrDiverged)
)

// HistoryPoint is the state of the fit after an epoch
type HistoryPoint struct {
	Epoch  int             `json:"epoch"`
	Params gradient.Params `json:"params"`
	MSE    float64         `json:"mean_squared_error"`
}

// Fitter fits a line with gradient descent and can be used to generate predictions
type Fitter struct {
	opt *Options

	id        uuid.UUID
	trainedAt time.Time
	nowFunc   func() time.Time

	params    gradient.Params
	reference *gradient.Params
	scores    *stats.Scores

	trainingData dataset.Samples
	residual     []float64
	outliers     []int
	history      []HistoryPoint
	trained      bool
}

// New creates a new instance of a Fitter using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Fitter, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Fitter{
		opt:     opt,
		nowFunc: time.Now,
	}, nil
}

// NewFromModel creates a new instance of Fitter from a pre-existing model. The fitter can predict
// immediately but has no training data or history.
func NewFromModel(model Model) (*Fitter, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt, err := model.Options.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to load model options, %w", err)
	}

	f := &Fitter{
		opt:       opt,
		id:        model.ID,
		trainedAt: model.TrainedAt,
		nowFunc:   time.Now,
		params:    model.Weights,
		reference: model.Reference,
		scores:    model.Scores,
		trained:   true,
	}
	return f, nil
}

// Fit trains on the paired feature and target values. Outlier passes, when enabled, refit
// after dropping samples with extreme residuals. A fit whose parameters or scores overflow
// returns gradient.ErrDiverged. Any failure leaves the fitter untrained with all fit state
// cleared.
func (f *Fitter) Fit(ctx context.Context, x, y []float64) (err error) {
	if f == nil || f.opt == nil {
		return ErrUninitializedFitter
	}
	f.reset()
	defer func() {
		if err != nil {
			f.reset()
		}
	}()

	s, err := dataset.New(x, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}

	train, err := f.fitWithOutliers(ctx, s)
	if err != nil {
		return err
	}
	if f.params.Diverged() {
		return fmt.Errorf("learning rate %g is too large for the data, %w", f.opt.Gradient.LearningRate, gradient.ErrDiverged)
	}

	ref, err := models.NewOLSRegression(nil)
	if err != nil {
		return fmt.Errorf("unable to initialize reference regression, %w", err)
	}
	if err := ref.Fit(train); err != nil {
		slog.Warn("unable to fit least squares reference line", "samples", len(train), "error", err.Error())
	} else if p := (gradient.Params{Intercept: ref.Intercept(), Slope: ref.Slope()}); p.Finite() {
		f.reference = &p
	} else {
		slog.Warn("least squares reference line is not finite", "intercept", p.Intercept, "slope", p.Slope)
	}

	predicted := make([]float64, len(train))
	for i, smp := range train {
		predicted[i] = f.params.Predict(smp.Feature)
	}
	f.scores, err = stats.NewScores(predicted, train.Targets())
	if err != nil {
		return fmt.Errorf("unable to score fit, %w", err)
	}
	if !f.scores.Finite() {
		return fmt.Errorf("mse %g, mape %g, r2 %g, %w", f.scores.MSE, f.scores.MAPE, f.scores.R2, ErrNonFiniteScores)
	}

	f.residual = make([]float64, len(s))
	for i, smp := range s {
		f.residual[i] = smp.Target - f.params.Predict(smp.Feature)
	}

	f.trainingData = s
	f.id = uuid.New()
	f.trainedAt = f.nowFunc()
	f.trained = true
	return nil
}

// reset clears the state of a previous fit
func (f *Fitter) reset() {
	f.trained = false
	f.id = uuid.Nil
	f.trainedAt = time.Time{}
	f.params = gradient.Params{}
	f.reference = nil
	f.scores = nil
	f.trainingData = nil
	f.residual = nil
	f.outliers = nil
	f.history = nil
}

func (f *Fitter) fitWithOutliers(ctx context.Context, s dataset.Samples) (dataset.Samples, error) {
	numPasses := 0
	if f.opt.OutlierOptions != nil {
		numPasses = f.opt.OutlierOptions.NumPasses
	}

	// maps the position in the current training set back to the input sample index
	origIdx := make([]int, len(s))
	for i := range origIdx {
		origIdx[i] = i
	}
	f.outliers = nil

	train := s.Copy()
	for i := 0; i <= numPasses; i++ {
		if err := f.fitGradient(ctx, train); err != nil {
			return nil, err
		}

		// break out if no outlier options provided or there is nothing left to refit
		if f.opt.OutlierOptions == nil || i == numPasses || f.params.Diverged() {
			break
		}

		residual := make([]float64, len(train))
		for j, smp := range train {
			residual[j] = smp.Target - f.params.Predict(smp.Feature)
		}
		outlierIdxs := stats.DetectOutliers(
			residual,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)

		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}
		if len(train)-len(outlierIdxs) < MinSamplesAfterOutliers {
			slog.Warn("not removing outliers, too few samples would remain",
				"pass", i, "samples", len(train), "outliers", len(outlierIdxs))
			break
		}

		for _, idx := range outlierIdxs {
			f.outliers = append(f.outliers, origIdx[idx])
		}
		keep := make([]int, 0, len(train)-len(outlierIdxs))
		skip := make(map[int]struct{}, len(outlierIdxs))
		for _, idx := range outlierIdxs {
			skip[idx] = struct{}{}
		}
		for j := range train {
			if _, exists := skip[j]; !exists {
				keep = append(keep, origIdx[j])
			}
		}
		origIdx = keep
		train = train.Without(outlierIdxs)
	}
	return train, nil
}

// fitGradient runs a single gradient descent fit recording the history of this pass
func (f *Fitter) fitGradient(ctx context.Context, train dataset.Samples) error {
	gOpt := f.opt.Gradient.Copy()
	userHook := f.opt.Gradient.Hook
	interval := f.opt.HistoryInterval
	lastEpoch := gOpt.Epochs - 1

	f.history = make([]HistoryPoint, 0)
	gOpt.Hook = func(e gradient.Epoch) {
		if e.Index == lastEpoch || (interval > 0 && e.Index%interval == 0) {
			f.history = append(f.history, HistoryPoint{
				Epoch:  e.Index,
				Params: e.Params,
				MSE:    gradient.MSE(train, e.Params),
			})
		}
		if userHook != nil {
			userHook(e)
		}
	}

	p, err := gradient.FitContext(ctx, train, gOpt)
	if err != nil {
		return fmt.Errorf("unable to fit gradient descent, %w", err)
	}
	f.params = p
	return nil
}

// Predict evaluates the fit line, and the reference line when available, at every feature value
func (f *Fitter) Predict(x []float64) (*Results, error) {
	if f == nil {
		return nil, ErrUninitializedFitter
	}
	if !f.trained {
		return nil, ErrUntrainedFitter
	}

	r := &Results{
		X:         append([]float64(nil), x...),
		Predicted: make([]float64, len(x)),
	}
	for i, v := range x {
		r.Predicted[i] = f.params.Predict(v)
	}
	if f.reference != nil {
		r.Reference = make([]float64, len(x))
		for i, v := range x {
			r.Reference[i] = f.reference.Predict(v)
		}
	}
	return r, nil
}

// Params returns the fit intercept and slope
func (f *Fitter) Params() gradient.Params {
	if f == nil {
		return gradient.Params{}
	}
	return f.params
}

// Reference returns the least squares line of the training data used in the final pass. ok is
// false when the reference could not be computed e.g. a single sample.
func (f *Fitter) Reference() (gradient.Params, bool) {
	if f == nil || f.reference == nil {
		return gradient.Params{}, false
	}
	return *f.reference, true
}

// Scores returns the fit scores over the samples used in the final pass
func (f *Fitter) Scores() stats.Scores {
	if f == nil || f.scores == nil {
		return stats.Scores{}
	}
	return *f.scores
}

// Residuals returns target - prediction for every input sample including removed outliers
func (f *Fitter) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// Outliers returns the input indices removed by the outlier passes
func (f *Fitter) Outliers() []int {
	if f == nil {
		return nil
	}
	res := make([]int, len(f.outliers))
	copy(res, f.outliers)
	return res
}

// History returns the recorded epochs of the final fit pass
func (f *Fitter) History() []HistoryPoint {
	if f == nil {
		return nil
	}
	res := make([]HistoryPoint, len(f.history))
	copy(res, f.history)
	return res
}

// TrainingData returns the samples used to fit the current model
func (f *Fitter) TrainingData() dataset.Samples {
	if f == nil {
		return nil
	}
	return f.trainingData.Copy()
}

// ModelEq returns a string representation of the fit line as y ~ b+m*x
func (f *Fitter) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedFitter
	}
	if !f.trained {
		return "", ErrUntrainedFitter
	}
	return fmt.Sprintf("y ~ %.4f%+.4f*x", f.params.Intercept, f.params.Slope), nil
}

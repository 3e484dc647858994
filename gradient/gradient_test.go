package gradient

import (
	"context"
	"math"
	"testing"

	"github.com/aouyang1/go-descent/dataset"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identitySamples() dataset.Samples {
	return dataset.Samples{
		{Feature: 1, Target: 1},
		{Feature: 2, Target: 2},
		{Feature: 3, Target: 3},
		{Feature: 4, Target: 4},
		{Feature: 5, Target: 5},
	}
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		err      error
		expected *Options
	}{
		"nil": {nil, nil, NewDefaultOptions()},
		"valid": {
			&Options{LearningRate: 0.1, Epochs: 0, Rule: GradientRule}, nil,
			&Options{LearningRate: 0.1, Epochs: 0, Rule: GradientRule},
		},
		"zero learning rate": {
			&Options{LearningRate: 0}, ErrNonPositiveLearningRate, nil,
		},
		"negative learning rate": {
			&Options{LearningRate: -0.1}, ErrNonPositiveLearningRate, nil,
		},
		"nan learning rate": {
			&Options{LearningRate: math.NaN()}, ErrNonPositiveLearningRate, nil,
		},
		"inf learning rate": {
			&Options{LearningRate: math.Inf(1)}, ErrNonPositiveLearningRate, nil,
		},
		"negative epochs": {
			&Options{LearningRate: 0.1, Epochs: -1}, ErrNegativeEpochs, nil,
		},
		"unknown rule": {
			&Options{LearningRate: 0.1, Rule: UpdateRule(7)}, ErrUnknownRule, nil,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func TestUpdateRuleText(t *testing.T) {
	r, err := ParseUpdateRule(" Gradient ")
	require.Nil(t, err)
	assert.Equal(t, GradientRule, r)

	r, err = ParseUpdateRule("mean_error")
	require.Nil(t, err)
	assert.Equal(t, MeanErrorRule, r)

	_, err = ParseUpdateRule("newton")
	assert.ErrorIs(t, err, ErrUnknownRule)

	assert.Equal(t, "UpdateRule(9)", UpdateRule(9).String())

	out, err := json.Marshal(&Options{LearningRate: 0.5, Epochs: 3, Rule: GradientRule})
	require.Nil(t, err)
	assert.JSONEq(t, `{"learning_rate":0.5,"epochs":3,"rule":"gradient","halt_on_divergence":false}`, string(out))

	var opt Options
	require.Nil(t, json.Unmarshal(out, &opt))
	assert.Equal(t, GradientRule, opt.Rule)
}

func TestFitInvalidInput(t *testing.T) {
	testData := map[string]struct {
		samples      dataset.Samples
		learningRate float64
		epochs       int
		err          error
	}{
		"empty samples":          {nil, 0.1, 10, ErrNoSamples},
		"empty samples no epoch": {dataset.Samples{}, 0.1, 0, ErrNoSamples},
		"zero learning rate":     {identitySamples(), 0, 10, ErrNonPositiveLearningRate},
		"negative epochs":        {identitySamples(), 0.1, -5, ErrNegativeEpochs},
		"nan sample":             {dataset.Samples{{Feature: math.NaN(), Target: 1}}, 0.1, 10, ErrNonFiniteSample},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			p, err := Fit(td.samples, td.learningRate, td.epochs)
			assert.ErrorIs(t, err, td.err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, Params{}, p)
		})
	}
}

func TestFitZeroEpochs(t *testing.T) {
	for name, samples := range map[string]dataset.Samples{
		"identity": identitySamples(),
		"housing":  dataset.Housing(),
	} {
		t.Run(name, func(t *testing.T) {
			p, err := Fit(samples, 0.01, 0)
			require.Nil(t, err)
			assert.Equal(t, Params{Intercept: 0, Slope: 0}, p)
		})
	}
}

func TestFitHousing(t *testing.T) {
	samples := dataset.Housing()

	p, err := Fit(samples, 0.0001, 1)
	require.Nil(t, err)
	assert.InDelta(t, 0.03742, p.Intercept, 1e-15)
	assert.InDelta(t, 0.03742, p.Slope, 1e-15)

	p, err = Fit(samples, 0.0001, 1000)
	require.Nil(t, err)
	assert.InDelta(t, 0.17776722090261277, p.Intercept, 1e-12)
	assert.InDelta(t, 0.17776722090261277, p.Slope, 1e-12)
	assert.Equal(t, p.Intercept, p.Slope)

	// both parameters receive the same update so they settle where the summed error is zero
	fixed := 1871.0 / (5.0 + 10520.0)
	assert.InDelta(t, fixed, p.Intercept, 1e-9)
}

func TestFitHousingTrajectory(t *testing.T) {
	history, err := Trace(dataset.Housing(), &Options{LearningRate: 0.0001, Epochs: 1000})
	require.Nil(t, err)
	require.Len(t, history, 1000)

	prev := Params{}
	for _, e := range history {
		assert.Equal(t, e.Params.Intercept, e.Params.Slope, "epoch %d", e.Index)
		assert.Greater(t, e.Params.Intercept, 0.0)
		assert.GreaterOrEqual(t, e.Params.Intercept, prev.Intercept, "epoch %d", e.Index)
		assert.Equal(t, e.MeanError, e.SlopeTerm)
		prev = e.Params
	}

	expected := []Epoch{
		{Index: 0, Params: Params{0.03742, 0.03742}, MeanError: -374.2, SlopeTerm: -374.2},
		{Index: 1, Params: Params{0.06696309, 0.06696309}},
		{Index: 2, Params: Params{0.090287359555, 0.090287359555}},
	}
	opts := cmp.Options{
		cmpopts.EquateApprox(0, 1e-12),
		cmpopts.IgnoreFields(Epoch{}, "MeanError", "SlopeTerm"),
	}
	if diff := cmp.Diff(expected, history[:3], opts); diff != "" {
		t.Errorf("unexpected first epochs (-want +got):\n%s", diff)
	}
	assert.InDelta(t, -374.2, history[0].MeanError, 1e-9)
}

func TestFitIdentityMonotonic(t *testing.T) {
	samples := identitySamples()
	for _, rule := range []UpdateRule{MeanErrorRule, GradientRule} {
		t.Run(rule.String(), func(t *testing.T) {
			prevMSE := MSE(samples, Params{})
			opt := &Options{
				LearningRate: 0.01,
				Epochs:       200,
				Rule:         rule,
				Hook: func(e Epoch) {
					mse := MSE(samples, e.Params)
					assert.LessOrEqual(t, mse, prevMSE+1e-12, "epoch %d", e.Index)
					prevMSE = mse
				},
			}
			_, err := FitContext(context.Background(), samples, opt)
			require.Nil(t, err)
			assert.Less(t, prevMSE, MSE(samples, Params{}))
		})
	}
}

func TestFitGradientRule(t *testing.T) {
	p, err := FitContext(context.Background(), identitySamples(), &Options{
		LearningRate: 0.01,
		Epochs:       5000,
		Rule:         GradientRule,
	})
	require.Nil(t, err)
	assert.InDelta(t, 0.0, p.Intercept, 1e-3)
	assert.InDelta(t, 1.0, p.Slope, 1e-3)

	x := dataset.GenerateX(5, 1, 1)
	samples, err := dataset.New(x, dataset.GenerateLine(x, 1, 2))
	require.Nil(t, err)
	p, err = FitContext(context.Background(), samples, &Options{
		LearningRate: 0.05,
		Epochs:       5000,
		Rule:         GradientRule,
	})
	require.Nil(t, err)
	assert.InDelta(t, 1.0, p.Intercept, 1e-9)
	assert.InDelta(t, 2.0, p.Slope, 1e-9)

	p, err = FitContext(context.Background(), dataset.Housing(), &Options{
		LearningRate: 1e-7,
		Epochs:       1000,
		Rule:         GradientRule,
	})
	require.Nil(t, err)
	assert.InDelta(t, 0.00026085915413730687, p.Intercept, 1e-12)
	assert.InDelta(t, 0.17698433453172063, p.Slope, 1e-12)
}

func TestFitDeterministic(t *testing.T) {
	samples := dataset.Housing()
	for _, rule := range []UpdateRule{MeanErrorRule, GradientRule} {
		opt := &Options{LearningRate: 1e-7, Epochs: 500, Rule: rule}
		p1, err := FitContext(context.Background(), samples, opt)
		require.Nil(t, err)
		p2, err := FitContext(context.Background(), samples, opt)
		require.Nil(t, err)
		assert.Equal(t, math.Float64bits(p1.Intercept), math.Float64bits(p2.Intercept))
		assert.Equal(t, math.Float64bits(p1.Slope), math.Float64bits(p2.Slope))
	}
}

func TestFitDiverges(t *testing.T) {
	samples := dataset.Housing()

	p, err := Fit(samples, 1.0, 1000)
	require.Nil(t, err)
	assert.False(t, p.Finite())
	assert.True(t, p.Diverged())

	var last Epoch
	p, err = FitContext(context.Background(), samples, &Options{
		LearningRate:     1.0,
		Epochs:           1000,
		HaltOnDivergence: true,
		Hook:             func(e Epoch) { last = e },
	})
	assert.ErrorIs(t, err, ErrDiverged)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.True(t, p.Finite())
	assert.Equal(t, 91, last.Index)
	assert.Equal(t, last.Params, p)
	assert.Greater(t, math.Abs(p.Intercept), 1e300)
}

func TestFitContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var epochs int
	opt := &Options{
		LearningRate: 0.0001,
		Epochs:       1000,
		Hook: func(e Epoch) {
			epochs++
			if e.Index == 9 {
				cancel()
			}
		},
	}
	p, err := FitContext(ctx, dataset.Housing(), opt)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, epochs)

	expected, err := Fit(dataset.Housing(), 0.0001, 10)
	require.Nil(t, err)
	assert.Equal(t, expected, p)
}

func TestTraceKeepsHook(t *testing.T) {
	var calls int
	history, err := Trace(identitySamples(), &Options{
		LearningRate: 0.01,
		Epochs:       25,
		Hook:         func(e Epoch) { calls++ },
	})
	require.Nil(t, err)
	assert.Len(t, history, 25)
	assert.Equal(t, 25, calls)
	for i, e := range history {
		assert.Equal(t, i, e.Index)
	}

	_, err = Trace(nil, nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestMSE(t *testing.T) {
	assert.Equal(t, 0.0, MSE(nil, Params{}))
	assert.Equal(t, 0.0, MSE(identitySamples(), Params{Intercept: 0, Slope: 1}))
	assert.InDelta(t, 11.0, MSE(identitySamples(), Params{}), 1e-12)
	assert.InDelta(t, 1.0, MSE(identitySamples(), Params{Intercept: 1, Slope: 1}), 1e-12)
}

package descent

import (
	"io"
	"math"
	"sort"

	"github.com/aouyang1/go-descent/dataset"
	"github.com/aouyang1/go-descent/gradient"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineSeries generates an echart multi-line chart over epochs. The input y is a slice of series
// that must each have the same length as the epochs. Non-finite values are left as gaps.
func LineSeries(title string, seriesName []string, epochs []int, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithXAxisOpts(
			opts.XAxis{
				Name: "epoch",
			},
		),
	)

	line = line.SetXAxis(epochs)
	for i, series := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				lineData = append(lineData, opts.LineData{Value: "-"})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(series, lineData)
	}
	return line
}

// ScatterFit generates an echart scatter plot of the samples overlaid with the fit line and,
// when available, the least squares reference line.
func ScatterFit(samples dataset.Samples, fit gradient.Params, reference *gradient.Params) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Fit",
			},
		),
		charts.WithXAxisOpts(
			opts.XAxis{
				Name: "feature",
				Type: "value",
			},
		),
		charts.WithYAxisOpts(
			opts.YAxis{
				Name: "target",
				Type: "value",
			},
		),
	)

	scatterData := make([]opts.ScatterData, 0, len(samples))
	for _, s := range samples {
		scatterData = append(scatterData, opts.ScatterData{Value: []float64{s.Feature, s.Target}})
	}
	scatter.AddSeries("Samples", scatterData)

	// lines only need the two extreme features
	x := samples.Features()
	sort.Float64s(x)
	var ends []float64
	if len(x) > 0 {
		ends = []float64{x[0], x[len(x)-1]}
	}

	line := charts.NewLine()
	line.AddSeries("Descent", lineEnds(ends, fit))
	if reference != nil {
		line.AddSeries("Reference", lineEnds(ends, *reference))
	}
	scatter.Overlap(line)
	return scatter
}

func lineEnds(x []float64, p gradient.Params) []opts.LineData {
	data := make([]opts.LineData, 0, len(x))
	for _, v := range x {
		data = append(data, opts.LineData{Value: []float64{v, p.Predict(v)}})
	}
	return data
}

// PlotFit uses the Apache Echarts library to generate an html page showing the resulting fit
// against the samples, the mean squared error over the recorded epochs, and the parameter
// trajectories.
func (f *Fitter) PlotFit(w io.Writer) error {
	if f == nil {
		return ErrUninitializedFitter
	}
	if !f.trained {
		return ErrUntrainedFitter
	}
	if len(f.trainingData) == 0 {
		return ErrNoTrainingData
	}

	epochs := make([]int, 0, len(f.history))
	mse := make([]float64, 0, len(f.history))
	intercept := make([]float64, 0, len(f.history))
	slope := make([]float64, 0, len(f.history))
	for _, h := range f.history {
		epochs = append(epochs, h.Epoch)
		mse = append(mse, h.MSE)
		intercept = append(intercept, h.Params.Intercept)
		slope = append(slope, h.Params.Slope)
	}

	page := components.NewPage()
	page.AddCharts(
		ScatterFit(f.trainingData, f.params, f.reference),
		LineSeries("Loss", []string{"MSE"}, epochs, [][]float64{mse}),
		LineSeries("Parameters", []string{"Intercept", "Slope"}, epochs, [][]float64{intercept, slope}),
	)
	return page.Render(w)
}

package descent

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-descent/gradient"
	"github.com/aouyang1/go-descent/stats"
	"github.com/google/uuid"
)

// Model represents a serializeable format of a fit storing the options, fit scores, and line
// parameters. It can be used to initialize a new Fitter for immediate predictions skipping the
// training step.
type Model struct {
	ID        uuid.UUID        `json:"id"`
	TrainedAt time.Time        `json:"trained_at"`
	Options   *Options         `json:"options"`
	Scores    *stats.Scores    `json:"scores"`
	Weights   gradient.Params  `json:"weights"`
	Reference *gradient.Params `json:"reference,omitempty"`
}

// Model generates the serializeable representation of the trained fitter
func (f *Fitter) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedFitter
	}
	if !f.trained {
		return Model{}, ErrUntrainedFitter
	}

	m := Model{
		ID:        f.id,
		TrainedAt: f.trainedAt,
		Options:   f.opt,
		Scores:    f.scores,
		Weights:   f.params,
		Reference: f.reference,
	}
	return m, nil
}

// TablePrint writes a human readable summary of the model
func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sFit:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sID: %s\n", prefix, indentExpand(indent, 1), m.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sTrained At: %s\n", prefix, indentExpand(indent, 1), m.TrainedAt); err != nil {
		return err
	}

	if m.Options != nil && m.Options.Gradient != nil {
		g := m.Options.Gradient
		if _, err := fmt.Fprintf(w, "%s%sRule: %s    Learning Rate: %g    Epochs: %d\n",
			prefix, indentExpand(indent, 1), g.Rule, g.LearningRate, g.Epochs); err != nil {
			return err
		}
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 0)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    MSE: %.3f    R2: %.3f\n",
			prefix, indentExpand(indent, 1),
			m.Scores.MAPE,
			m.Scores.MSE,
			m.Scores.R2,
		); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%s%sWeights:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if _, err := fmt.Fprintf(tbl, "%s%sParameter\tDescent\tReference\n", prefix, indentExpand(indent, 1)); err != nil {
		return err
	}
	rows := []struct {
		name string
		val  float64
		ref  func(p gradient.Params) float64
	}{
		{"Intercept", m.Weights.Intercept, func(p gradient.Params) float64 { return p.Intercept }},
		{"Slope", m.Weights.Slope, func(p gradient.Params) float64 { return p.Slope }},
	}
	for _, row := range rows {
		ref := "..."
		if m.Reference != nil {
			ref = fmt.Sprintf("%.6f", row.ref(*m.Reference))
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%.6f\t%s\n",
			prefix, indentExpand(indent, 1), row.name, row.val, ref); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

func indentExpand(indent string, growth int) string {
	return strings.Repeat(indent, growth)
}

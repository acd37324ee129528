package automl

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
)

// RenderLeaderboard formats the top entries as an aligned text block
// for terminal output. topN at or below zero renders every entry.
func RenderLeaderboard(task dataset.Task, entries []LeaderboardEntry, topN int) string {
	metric := "R2"
	if task == dataset.TaskClassification {
		metric = "Accuracy"
	}
	if topN <= 0 || topN > len(entries) {
		topN = len(entries)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-28s %10s %8s\n", "#", "Model", metric, "Std")
	for i := 0; i < topN; i++ {
		e := entries[i]
		if e.Err != nil {
			fmt.Fprintf(&b, "%-4d %-28s %10s %8s  %v\n", i+1, e.Name, "failed", "", e.Err)
			continue
		}
		fmt.Fprintf(&b, "%-4d %-28s %10.4f %8.4f\n", i+1, e.Name, e.MeanScore, e.StdScore)
	}
	return b.String()
}

// SaveRegressionDiagnostics writes a predicted-vs-actual scatter of the
// holdout rows, with the identity line for reference, as a PNG at path.
func SaveRegressionDiagnostics(path string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return errors.NewValueError("automl.SaveRegressionDiagnostics", "no holdout predictions to plot")
	}
	if yTrue.Len() != yPred.Len() {
		return errors.NewDimensionError("automl.SaveRegressionDiagnostics", yTrue.Len(), yPred.Len(), 0)
	}

	p := plot.New()
	p.Title.Text = "Holdout: predicted vs actual"
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Predicted"

	pts := make(plotter.XYs, yTrue.Len())
	lo := yTrue.AtVec(0)
	hi := lo
	for i := 0; i < yTrue.Len(); i++ {
		a := yTrue.AtVec(i)
		pr := yPred.AtVec(i)
		pts[i].X = a
		pts[i].Y = pr
		lo = math.Min(lo, math.Min(a, pr))
		hi = math.Max(hi, math.Max(a, pr))
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "failed to build scatter")
	}
	scatter.Color = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	p.Add(scatter)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "failed to build identity line")
	}
	identity.Color = color.RGBA{R: 255, A: 255}
	p.Add(identity)

	return errors.Wrap(p.Save(6*vg.Inch, 4*vg.Inch, path), "failed to save plot")
}

// SaveClassificationDiagnostics writes a per-class F1 bar chart of the
// holdout rows as a PNG at path.
func SaveClassificationDiagnostics(path string, perClass []metrics.ClassReport) error {
	if len(perClass) == 0 {
		return errors.NewValueError("automl.SaveClassificationDiagnostics", "no per-class metrics to plot")
	}

	p := plot.New()
	p.Title.Text = "Holdout: F1 by class"
	p.Y.Label.Text = "F1"
	p.Y.Max = 1

	values := make(plotter.Values, len(perClass))
	names := make([]string, len(perClass))
	for i, r := range perClass {
		values[i] = r.F1
		names[i] = strconv.FormatFloat(r.Label, 'g', -1, 64)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "failed to build bar chart")
	}
	bars.Color = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	p.Add(bars)
	p.NominalX(names...)

	return errors.Wrap(p.Save(6*vg.Inch, 4*vg.Inch, path), "failed to save plot")
}

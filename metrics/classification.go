package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/pkg/errors"
)

// Accuracy computes the fraction of exactly matching labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassReport holds per-class precision, recall, F1 and support.
type ClassReport struct {
	Label     float64
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ConfusionMatrix computes the confusion matrix over the union of labels in
// yTrue and yPred. labels is sorted ascending; matrix[i][j] counts samples
// with true label labels[i] predicted as labels[j].
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (labels []float64, matrix [][]int, err error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}

	seen := map[float64]struct{}{}
	for i := 0; i < n; i++ {
		seen[yTrue.AtVec(i)] = struct{}{}
		seen[yPred.AtVec(i)] = struct{}{}
	}
	labels = make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)

	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	matrix = make([][]int, len(labels))
	for i := range matrix {
		matrix[i] = make([]int, len(labels))
	}
	for i := 0; i < n; i++ {
		matrix[index[yTrue.AtVec(i)]][index[yPred.AtVec(i)]]++
	}
	return labels, matrix, nil
}

// ClassificationReport computes precision, recall and F1 per class.
//
// A class never predicted has undefined precision; it is reported as 0 with
// an UndefinedMetricWarning, matching the substitution R2Score uses for
// zero-variance targets.
func ClassificationReport(yTrue, yPred *mat.VecDense) ([]ClassReport, error) {
	labels, cm, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	reports := make([]ClassReport, len(labels))
	for i, label := range labels {
		tp := cm[i][i]
		var fp, fn, support int
		for j := range labels {
			if j != i {
				fp += cm[j][i]
				fn += cm[i][j]
			}
			support += cm[i][j]
		}

		var precision, recall float64
		if tp+fp == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples for class", 0))
		} else {
			precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall = float64(tp) / float64(tp+fn)
		}

		var f1 float64
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		reports[i] = ClassReport{
			Label:     label,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
	}
	return reports, nil
}

// MacroF1 computes the unweighted mean of per-class F1 scores.
func MacroF1(yTrue, yPred *mat.VecDense) (float64, error) {
	reports, err := ClassificationReport(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, r := range reports {
		sum += r.F1
	}
	return sum / float64(len(reports)), nil
}

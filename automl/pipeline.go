package automl

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/salecast/salecast/bayes"
	"github.com/salecast/salecast/core/model"
	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/linear"
	"github.com/salecast/salecast/neighbors"
	"github.com/salecast/salecast/pkg/errors"
	"github.com/salecast/salecast/preprocessing"
	"github.com/salecast/salecast/tree"
)

// Every concrete estimator the pool can finalize must be registered so
// the Pipeline's interface field survives gob round trips.
func init() {
	gob.Register(&linear.LinearRegression{})
	gob.Register(&linear.Ridge{})
	gob.Register(&linear.LogisticRegression{})
	gob.Register(&neighbors.KNNRegressor{})
	gob.Register(&neighbors.KNNClassifier{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&tree.DecisionTreeClassifier{})
	gob.Register(&tree.RandomForestRegressor{})
	gob.Register(&tree.RandomForestClassifier{})
	gob.Register(&tree.GradientBoostingRegressor{})
	gob.Register(&bayes.GaussianNB{})
}

// Metadata describes how and when a pipeline was trained. It feeds the
// app's model card and the run registry.
type Metadata struct {
	RunID         string
	TrainedAt     time.Time
	EstimatorID   string
	EstimatorName string
	Metric        string
	MetricValue   float64
	Rows          int
	Features      int
}

// Pipeline is the persisted training artifact: the fitted preprocessing
// chain, the finalized estimator, and enough naming to accept raw
// feature maps. Loaded pipelines are read-only and safe to share across
// concurrent request handlers.
type Pipeline struct {
	Task         dataset.Task
	FeatureNames []string
	TargetName   string
	TargetLabels []string

	Encoder *preprocessing.OrdinalEncoder
	Power   *preprocessing.PowerTransformer
	Scaler  *preprocessing.StandardScaler

	Estimator Estimator

	Meta Metadata
}

// Prediction is one row's outcome. Label and Confidence are populated
// for classification tasks only; Confidence stays zero when the
// estimator has no probability surface.
type Prediction struct {
	Value      float64
	Label      string
	Confidence float64
}

// Save writes the gob artifact to path, creating parent directories and
// overwriting any previous artifact.
func (p *Pipeline) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create model directory")
		}
	}
	return model.SaveModel(p, path)
}

// Load reads a pipeline artifact written by Save.
func Load(path string) (*Pipeline, error) {
	p := &Pipeline{}
	if err := model.LoadModel(p, path); err != nil {
		return nil, err
	}
	return p, nil
}

// Predict runs the preprocessing chain and the estimator over an
// already-encoded feature matrix.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if p.Estimator == nil {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.Estimator.Predict(Xt)
}

// PredictRow predicts from one raw feature map keyed by feature name.
// Categorical values are encoded with the fitted encoder; unseen labels
// map to the sentinel code and warn rather than fail. A missing or
// non-numeric field fails with the feature's name in the error.
func (p *Pipeline) PredictRow(fields map[string]string) (*Prediction, error) {
	if p.Estimator == nil {
		return nil, errors.NewNotFittedError("Pipeline", "PredictRow")
	}

	row := make([]float64, len(p.FeatureNames))
	for j, name := range p.FeatureNames {
		raw, ok := fields[name]
		if !ok {
			return nil, errors.NewValueError("Pipeline.PredictRow", fmt.Sprintf("missing feature %q", name))
		}
		raw = strings.TrimSpace(raw)

		if p.Encoder != nil && p.Encoder.IsCategorical(name) {
			code, err := p.Encoder.EncodeValue(name, raw)
			if err != nil {
				return nil, err
			}
			row[j] = code
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewValueError("Pipeline.PredictRow",
				fmt.Sprintf("feature %q: %q is not numeric", name, raw))
		}
		row[j] = v
	}

	X := mat.NewDense(1, len(row), row)
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	pred, err := p.Estimator.Predict(Xt)
	if err != nil {
		return nil, err
	}

	out := &Prediction{Value: pred.At(0, 0)}
	if p.Task == dataset.TaskClassification {
		out.Label = p.decodeLabel(out.Value)
		if prob, ok := p.Estimator.(Probabilistic); ok {
			if proba, perr := prob.PredictProba(Xt); perr == nil {
				out.Confidence = rowMax(proba, 0)
			}
		}
	}
	return out, nil
}

// transform applies whichever chain stages were fitted during setup.
func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	out := X
	var err error
	for _, step := range p.chain() {
		if out, err = step.Transform(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// chain returns the fitted stages in application order: power transform
// first, then scaling.
func (p *Pipeline) chain() []model.Transformer {
	steps := make([]model.Transformer, 0, 2)
	if p.Power != nil && p.Power.IsFitted() {
		steps = append(steps, p.Power)
	}
	if p.Scaler != nil && p.Scaler.IsFitted() {
		steps = append(steps, p.Scaler)
	}
	return steps
}

// decodeLabel maps a class code back to the original target label. A
// numeric target has no label table and formats the value itself.
func (p *Pipeline) decodeLabel(v float64) string {
	idx := int(v)
	if idx >= 0 && idx < len(p.TargetLabels) {
		return p.TargetLabels[idx]
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func rowMax(m mat.Matrix, i int) float64 {
	_, c := m.Dims()
	best := m.At(i, 0)
	for j := 1; j < c; j++ {
		if m.At(i, j) > best {
			best = m.At(i, j)
		}
	}
	return best
}

// Package automl runs the compare/tune/finalize loop over the in-repo
// estimator pool: a seeded experiment is set up from a table, candidate
// families are ranked by cross-validated score, the winner's grid is
// searched, and the tuned estimator is refit on all rows and wrapped
// with its preprocessing into a persistable Pipeline.
package automl

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/salecast/salecast/core/parallel"
	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/metrics"
	"github.com/salecast/salecast/pkg/errors"
	"github.com/salecast/salecast/preprocessing"
)

// ProgressFunc receives a tick after every scored unit of work. done
// counts completed units, total the overall count, and name labels the
// unit just finished.
type ProgressFunc func(done, total int, name string)

func noProgress(int, int, string) {}

// LeaderboardEntry is one candidate's cross-validation result. A
// candidate whose folds failed carries the error and sorts last.
type LeaderboardEntry struct {
	ID         string
	Name       string
	MeanScore  float64
	StdScore   float64
	FoldScores []float64
	Err        error
}

// TuneResult summarizes a grid search over the winning family.
type TuneResult struct {
	Tried     int
	BestDesc  string
	BestScore float64
	Improved  bool
}

// HoldoutReport carries the pre-finalization evaluation on held-out
// rows. Only the fields for the experiment's task are populated. YTrue
// and YPred feed the diagnostic plot.
type HoldoutReport struct {
	R2   float64
	RMSE float64
	MAE  float64

	Accuracy float64
	MacroF1  float64
	PerClass []metrics.ClassReport

	YTrue *mat.VecDense
	YPred *mat.VecDense
}

// Headline returns the task's primary metric name and value.
func (r *HoldoutReport) Headline(task dataset.Task) (string, float64) {
	if task == dataset.TaskClassification {
		return "Accuracy", r.Accuracy
	}
	return "R2", r.R2
}

type setupParams struct {
	seed      int64
	folds     int
	holdFrac  float64
	normalize bool
	power     bool
	powerSet  bool
}

// SetupOption adjusts experiment construction.
type SetupOption func(*setupParams)

// WithSeed fixes the seed behind the holdout split, fold shuffling, and
// seeded estimators.
func WithSeed(seed int64) SetupOption {
	return func(p *setupParams) { p.seed = seed }
}

// WithFolds sets the cross-validation fold count.
func WithFolds(n int) SetupOption {
	return func(p *setupParams) { p.folds = n }
}

// WithHoldout sets the fraction of rows reserved for holdout
// evaluation. Zero disables the holdout split.
func WithHoldout(frac float64) SetupOption {
	return func(p *setupParams) { p.holdFrac = frac }
}

// WithNormalize toggles feature standardization.
func WithNormalize(enabled bool) SetupOption {
	return func(p *setupParams) { p.normalize = enabled }
}

// WithPowerTransform overrides the default power-transform policy,
// which applies Yeo-Johnson for regression tasks only.
func WithPowerTransform(enabled bool) SetupOption {
	return func(p *setupParams) {
		p.power = enabled
		p.powerSet = true
	}
}

// Experiment holds the prepared matrices, the fitted preprocessing
// chain, and the state accumulated by CompareModels and TuneModel.
type Experiment struct {
	Task  dataset.Task
	Seed  int64
	Folds int

	FeatureNames []string
	TargetName   string
	TargetLabels []string

	encoder *preprocessing.OrdinalEncoder
	power   *preprocessing.PowerTransformer
	scaler  *preprocessing.StandardScaler

	xAll, yAll     *mat.Dense
	xTrain, yTrain *mat.Dense
	xHold, yHold   *mat.Dense

	pool        []Candidate
	leaderboard []LeaderboardEntry
	best        *Candidate
	bestScore   float64
	chosen      func() Estimator
	chosenDesc  string
	holdout     *HoldoutReport
}

// Setup splits the target off tbl, fits the preprocessing chain on the
// features, and reserves a seeded holdout slice. The table must already
// be imputed; missing cells are rejected by name.
func Setup(tbl *dataset.Table, target string, task dataset.Task, opts ...SetupOption) (*Experiment, error) {
	params := setupParams{seed: 42, folds: 5, holdFrac: 0.2, normalize: true}
	for _, opt := range opts {
		opt(&params)
	}
	if !params.powerSet {
		params.power = task == dataset.TaskRegression
	}
	if params.folds < 2 {
		return nil, errors.NewValueError("automl.Setup", "cross-validation needs at least 2 folds")
	}
	if params.holdFrac < 0 || params.holdFrac >= 1 {
		return nil, errors.NewValueError("automl.Setup", "holdout fraction must be in [0, 1)")
	}

	features, targetCol, err := tbl.SplitTarget(target)
	if err != nil {
		return nil, err
	}
	if targetCol.MissingCount() > 0 {
		return nil, errors.NewValueError("automl.Setup", "target column '"+target+"' has missing values; impute first")
	}
	for i := range features.Columns {
		if features.Columns[i].MissingCount() > 0 {
			return nil, errors.NewValueError("automl.Setup",
				"feature column '"+features.Columns[i].Name+"' has missing values; impute first")
		}
	}

	e := &Experiment{
		Task:         task,
		Seed:         params.seed,
		Folds:        params.folds,
		FeatureNames: features.Names(),
		TargetName:   target,
	}

	e.encoder = preprocessing.NewOrdinalEncoder()
	encoded, err := e.encoder.FitTransform(features)
	if err != nil {
		return nil, err
	}
	X, err := encoded.Matrix()
	if err != nil {
		return nil, err
	}

	y, labels, err := targetVector(targetCol, task)
	if err != nil {
		return nil, err
	}
	e.TargetLabels = labels

	var Xt mat.Matrix = X
	if params.power {
		e.power = preprocessing.NewPowerTransformer()
		if Xt, err = e.power.FitTransform(Xt); err != nil {
			return nil, err
		}
	}
	if params.normalize {
		e.scaler = preprocessing.NewStandardScalerDefault()
		if Xt, err = e.scaler.FitTransform(Xt); err != nil {
			return nil, err
		}
	}

	e.xAll = mat.DenseCopyOf(Xt)
	e.yAll = y

	rows, _ := e.xAll.Dims()
	trainIdx := make([]int, rows)
	for i := range trainIdx {
		trainIdx[i] = i
	}
	var holdIdx []int
	if params.holdFrac > 0 {
		if task == dataset.TaskClassification {
			trainIdx, holdIdx = stratifiedHoldoutIndices(y, params.holdFrac, params.seed)
		} else {
			trainIdx, holdIdx = holdoutIndices(rows, params.holdFrac, params.seed)
		}
	}
	e.xTrain = subsetRows(e.xAll, trainIdx)
	e.yTrain = subsetColumn(y, trainIdx)
	if len(holdIdx) > 0 {
		e.xHold = subsetRows(e.xAll, holdIdx)
		e.yHold = subsetColumn(y, holdIdx)
	}

	if task == dataset.TaskClassification {
		e.pool = classificationPool(params.seed)
	} else {
		e.pool = regressionPool(params.seed)
	}
	return e, nil
}

// targetVector converts the target column into a numeric column vector.
// A categorical target is ordinal-encoded against its sorted distinct
// labels, which are returned so predictions can be decoded later.
func targetVector(c *dataset.Column, task dataset.Task) (*mat.Dense, []string, error) {
	n := c.Len()
	y := mat.NewDense(n, 1, nil)

	if c.Kind == dataset.KindNumeric {
		for i := 0; i < n; i++ {
			y.Set(i, 0, c.Floats[i])
		}
		return y, nil, nil
	}
	if task != dataset.TaskClassification {
		return nil, nil, errors.NewValueError("automl.Setup",
			"categorical target '"+c.Name+"' requires a classification task")
	}

	seen := map[string]struct{}{}
	for _, label := range c.Labels {
		seen[label] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	code := make(map[string]float64, len(labels))
	for i, label := range labels {
		code[label] = float64(i)
	}
	for i, label := range c.Labels {
		y.Set(i, 0, code[label])
	}
	return y, labels, nil
}

// PoolSize returns the number of candidate families compared.
func (e *Experiment) PoolSize() int {
	return len(e.pool)
}

// GridSize returns the number of tuning configurations for the winner,
// zero before CompareModels has run.
func (e *Experiment) GridSize() int {
	if e.best == nil {
		return 0
	}
	return len(e.best.Grid)
}

// Leaderboard returns the ranking produced by the last CompareModels.
func (e *Experiment) Leaderboard() []LeaderboardEntry {
	return e.leaderboard
}

// BestName returns the winning family's display name.
func (e *Experiment) BestName() string {
	if e.best == nil {
		return ""
	}
	return e.best.Name
}

// EstimatorLabel names the chosen configuration for reports and the
// artifact metadata.
func (e *Experiment) EstimatorLabel() string {
	if e.best == nil {
		return ""
	}
	if e.chosenDesc == "" || e.chosenDesc == "defaults" {
		return e.best.Name
	}
	return e.best.Name + " (" + e.chosenDesc + ")"
}

// TrainShape returns the training split's rows and the holdout row
// count.
func (e *Experiment) TrainShape() (trainRows, holdRows int) {
	trainRows, _ = e.xTrain.Dims()
	if e.xHold != nil {
		holdRows, _ = e.xHold.Dims()
	}
	return trainRows, holdRows
}

// CompareModels cross-validates every candidate on the training split
// and ranks them by mean score, best first. A candidate whose fold
// fails or panics is disqualified rather than aborting the comparison;
// the error is kept on its leaderboard entry. progress ticks once per
// candidate and may be nil.
func (e *Experiment) CompareModels(progress ProgressFunc) ([]LeaderboardEntry, error) {
	if progress == nil {
		progress = noProgress
	}
	rows, _ := e.xTrain.Dims()
	if rows < e.Folds {
		return nil, errors.NewValueError("Experiment.CompareModels",
			fmt.Sprintf("%d training rows cannot fill %d folds", rows, e.Folds))
	}

	entries := make([]LeaderboardEntry, len(e.pool))
	for i := range e.pool {
		cand := &e.pool[i]
		mean, std, scores, err := e.crossValidate(cand.New)
		entries[i] = LeaderboardEntry{
			ID:         cand.ID,
			Name:       cand.Name,
			MeanScore:  mean,
			StdScore:   std,
			FoldScores: scores,
			Err:        err,
		}
		progress(i+1, len(e.pool), cand.Name)
	}

	// Failed candidates sort last; the stable sort keeps pool order on
	// exact ties, so rankings are reproducible.
	sort.SliceStable(entries, func(a, b int) bool {
		if (entries[a].Err == nil) != (entries[b].Err == nil) {
			return entries[a].Err == nil
		}
		return entries[a].MeanScore > entries[b].MeanScore
	})
	e.leaderboard = entries

	if entries[0].Err != nil {
		return entries, errors.NewModelError("Experiment.CompareModels",
			"every candidate failed cross-validation", entries[0].Err)
	}
	for i := range e.pool {
		if e.pool[i].ID == entries[0].ID {
			e.best = &e.pool[i]
			break
		}
	}
	e.bestScore = entries[0].MeanScore
	e.chosen = e.best.New
	e.chosenDesc = "defaults"
	return entries, nil
}

// crossValidate scores one configuration across the experiment's folds.
// Folds run in parallel; each one fits a fresh estimator.
func (e *Experiment) crossValidate(factory func() Estimator) (mean, std float64, scores []float64, err error) {
	var splitter Splitter
	if e.Task == dataset.TaskClassification {
		splitter = NewStratifiedKFold(e.Folds, true, e.Seed)
	} else {
		splitter = NewKFold(e.Folds, true, e.Seed)
	}
	folds := splitter.Split(e.xTrain, e.yTrain)

	scores = make([]float64, len(folds))
	errs := make([]error, len(folds))
	parallel.Parallelize(len(folds), func(start, end int) {
		for i := start; i < end; i++ {
			scores[i], errs[i] = e.scoreFold(factory, folds[i])
		}
	})
	for _, foldErr := range errs {
		if foldErr != nil {
			return 0, 0, nil, foldErr
		}
	}

	return stat.Mean(scores, nil), stat.StdDev(scores, nil), scores, nil
}

// scoreFold fits a fresh estimator on the fold's training rows and
// scores its predictions on the test rows. Panics inside a candidate
// surface as errors so one broken configuration cannot kill the run.
func (e *Experiment) scoreFold(factory func() Estimator, fold CVFold) (score float64, err error) {
	err = errors.SafeExecute("automl.crossValidate", func() error {
		est := factory()
		XTrain := subsetRows(e.xTrain, fold.TrainIndices)
		yTrain := subsetColumn(e.yTrain, fold.TrainIndices)
		XTest := subsetRows(e.xTrain, fold.TestIndices)
		yTest := subsetColumn(e.yTrain, fold.TestIndices)

		if err := est.Fit(XTrain, yTrain); err != nil {
			return err
		}
		pred, err := est.Predict(XTest)
		if err != nil {
			return err
		}
		s, err := e.metricScore(yTest, pred)
		if err != nil {
			return err
		}
		score = s
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := errors.CheckFinite("automl.crossValidate", score); err != nil {
		return 0, err
	}
	return score, nil
}

// metricScore applies the task metric: R² for regression, accuracy for
// classification.
func (e *Experiment) metricScore(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := metrics.ColumnVec(yTrue)
	if err != nil {
		return 0, err
	}
	p, err := metrics.ColumnVec(yPred)
	if err != nil {
		return 0, err
	}
	if e.Task == dataset.TaskClassification {
		return metrics.Accuracy(t, p)
	}
	return metrics.R2Score(t, p)
}

// TuneModel grid-searches the winning family with the same
// cross-validation and keeps the incumbent configuration unless a grid
// point strictly beats its score. progress ticks once per grid point
// and may be nil.
func (e *Experiment) TuneModel(progress ProgressFunc) (*TuneResult, error) {
	if e.best == nil {
		return nil, errors.NewValueError("Experiment.TuneModel", "run CompareModels first")
	}
	if progress == nil {
		progress = noProgress
	}

	result := &TuneResult{BestDesc: e.chosenDesc, BestScore: e.bestScore}
	for i, point := range e.best.Grid {
		mean, _, _, err := e.crossValidate(point.New)
		result.Tried++
		// A failed grid point simply cannot win.
		if err == nil && mean > result.BestScore {
			result.BestScore = mean
			result.BestDesc = point.Desc
			result.Improved = true
			e.chosen = point.New
			e.chosenDesc = point.Desc
			e.bestScore = mean
		}
		progress(i+1, len(e.best.Grid), e.best.Name+" ["+point.Desc+"]")
	}
	return result, nil
}

// EvaluateHoldout fits the chosen configuration on the training split
// and reports its metrics on the holdout rows.
func (e *Experiment) EvaluateHoldout() (*HoldoutReport, error) {
	if e.chosen == nil {
		return nil, errors.NewValueError("Experiment.EvaluateHoldout", "run CompareModels first")
	}
	if e.xHold == nil {
		return nil, errors.NewValueError("Experiment.EvaluateHoldout", "setup reserved no holdout rows")
	}

	est := e.chosen()
	if err := est.Fit(e.xTrain, e.yTrain); err != nil {
		return nil, err
	}
	pred, err := est.Predict(e.xHold)
	if err != nil {
		return nil, err
	}

	yTrue, err := metrics.ColumnVec(e.yHold)
	if err != nil {
		return nil, err
	}
	yPred, err := metrics.ColumnVec(pred)
	if err != nil {
		return nil, err
	}

	rep := &HoldoutReport{YTrue: yTrue, YPred: yPred}
	if e.Task == dataset.TaskClassification {
		if rep.Accuracy, err = metrics.Accuracy(yTrue, yPred); err != nil {
			return nil, err
		}
		if rep.MacroF1, err = metrics.MacroF1(yTrue, yPred); err != nil {
			return nil, err
		}
		if rep.PerClass, err = metrics.ClassificationReport(yTrue, yPred); err != nil {
			return nil, err
		}
	} else {
		if rep.R2, err = metrics.R2Score(yTrue, yPred); err != nil {
			return nil, err
		}
		if rep.RMSE, err = metrics.RMSE(yTrue, yPred); err != nil {
			return nil, err
		}
		if rep.MAE, err = metrics.MAE(yTrue, yPred); err != nil {
			return nil, err
		}
	}
	e.holdout = rep
	return rep, nil
}

// FinalizeModel refits the chosen configuration on every row, train and
// holdout alike, and wraps it with the fitted preprocessing chain into
// a Pipeline ready to persist.
func (e *Experiment) FinalizeModel() (*Pipeline, error) {
	if e.chosen == nil {
		return nil, errors.NewValueError("Experiment.FinalizeModel", "run CompareModels first")
	}
	if e.holdout == nil && e.xHold != nil {
		if _, err := e.EvaluateHoldout(); err != nil {
			return nil, err
		}
	}

	est := e.chosen()
	if err := est.Fit(e.xAll, e.yAll); err != nil {
		return nil, err
	}

	rows, cols := e.xAll.Dims()
	meta := Metadata{
		RunID:         uuid.NewString(),
		TrainedAt:     time.Now().UTC(),
		EstimatorID:   e.best.ID,
		EstimatorName: e.EstimatorLabel(),
		Rows:          rows,
		Features:      cols,
	}
	if e.holdout != nil {
		meta.Metric, meta.MetricValue = e.holdout.Headline(e.Task)
	}

	return &Pipeline{
		Task:         e.Task,
		FeatureNames: append([]string(nil), e.FeatureNames...),
		TargetName:   e.TargetName,
		TargetLabels: append([]string(nil), e.TargetLabels...),
		Encoder:      e.encoder,
		Power:        e.power,
		Scaler:       e.scaler,
		Estimator:    est,
		Meta:         meta,
	}, nil
}

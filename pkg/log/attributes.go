// Standard attribute keys for salecast log records.
//
// Keys follow a dotted naming convention ("model.name", "data.samples") so
// records can be filtered per concern. Use these constants instead of ad-hoc
// strings; new keys belong here.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LinearRegression", "RandomForestRegressor"
	ModelNameKey = "model.name"

	// EstimatorIDKey is a unique identifier for one estimator instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey is the operation being performed.
	// Standard values: "fit", "predict", "transform", "compare", "tune",
	// "finalize"
	OperationKey = "ml.operation"

	// ComponentKey is the package performing the operation.
	// Examples: "dataset", "preprocessing", "automl", "app"
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase.
	// Examples: "training", "validation", "inference", "preprocessing"
	PhaseKey = "ml.phase"

	// TaskKey is the learning task: "regression" or "classification".
	TaskKey = "ml.task"

	// RunIDKey ties all records of one training run together.
	RunIDKey = "run.id"

	// ArtifactKey is the path of a persisted pipeline artifact.
	ArtifactKey = "model.artifact"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// TargetKey is the target column name.
	TargetKey = "data.target"

	// MissingKey is the number of missing cells found or filled.
	MissingKey = "data.missing"
)

// Performance and metrics.
const (
	// DurationMsKey is the elapsed time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey is classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// R2ScoreKey is the regression coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// RMSEKey is regression root mean squared error.
	RMSEKey = "metrics.rmse"

	// MacroF1Key is the unweighted mean per-class F1.
	MacroF1Key = "metrics.macro_f1"

	// IterationKey is the current iteration of an iterative solver.
	IterationKey = "training.iteration"

	// RandomSeedKey is the seed controlling splits and subsampling.
	RandomSeedKey = "config.random_seed"
)

// Prediction context.
const (
	// PredsKey is the number of predictions made.
	PredsKey = "preds.count"

	// ConfidenceKey is classification confidence in [0, 1].
	ConfidenceKey = "preds.confidence"
)

// Standard operation and phase values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationCompare      = "compare"
	OperationTune         = "tune"
	OperationFinalize     = "finalize"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)

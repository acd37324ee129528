package dataset

// Task is the learning task inferred from the target column.
type Task int

const (
	TaskRegression Task = iota
	TaskClassification
)

func (t Task) String() string {
	switch t {
	case TaskRegression:
		return "regression"
	case TaskClassification:
		return "classification"
	default:
		return "unknown"
	}
}

// DetectTask applies the cardinality policy to a target column: a
// categorical target is always classification; a numeric target is
// classification when it has at most threshold distinct values, regression
// otherwise. A threshold below 1 disables the cardinality rule, leaving
// only categorical targets as classification.
func DetectTask(target *Column, threshold int) Task {
	if target.Kind == KindCategorical {
		return TaskClassification
	}
	if threshold >= 1 && target.Distinct() <= threshold {
		return TaskClassification
	}
	return TaskRegression
}

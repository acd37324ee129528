// Package salecast predicts monthly sales for Nigerian small and
// medium enterprises from a business-profile survey.
//
// The module bundles a compact AutoML engine with the two binaries
// built on it: a trainer that compares, tunes and persists the best
// candidate model, and a web app that serves the prediction form for
// the saved artifact.
//
// # Quick Start
//
// Train from the bundled dataset, then serve predictions:
//
//	go run ./cmd/salecast-train
//	go run ./cmd/salecast-app
//
// The trainer writes model/best_model.gob together with a run registry
// and holdout diagnostics; the app refuses to start until that
// artifact exists.
//
// Programmatic use follows the same flow:
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/salecast/salecast/automl"
//	    "github.com/salecast/salecast/dataset"
//	)
//
//	func main() {
//	    tbl, err := dataset.ReadCSV("data/dataset.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    col, _ := tbl.Column("monthly_sales_naira")
//	    task := dataset.DetectTask(col, 10)
//
//	    exp, err := automl.Setup(tbl, "monthly_sales_naira", task)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if _, err := exp.CompareModels(nil); err != nil {
//	        log.Fatal(err)
//	    }
//	    pipe, err := exp.FinalizeModel()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := pipe.Save("model/best_model.gob"); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// A loaded Pipeline predicts single form submissions through
// PredictRow, which encodes and scales raw field values exactly as
// training did.
//
// # Packages
//
//   - dataset: CSV loading, column typing, task detection
//   - preprocessing: imputation, ordinal encoding, scaling, power transform
//   - linear, tree, neighbors, bayes: the candidate estimators
//   - metrics: regression and classification scores
//   - automl: experiment setup, model comparison, tuning, persistence
//   - insights: naira formatting, sales tiers, spend ratios
//   - app: the gin prediction server and its form schema
//   - pkg/config, pkg/log, pkg/errors, pkg/registry: runtime plumbing
//
// Estimators share one contract: Fit(X, y mat.Matrix) error and
// Predict(X mat.Matrix) (mat.Matrix, error) on gonum matrices, so the
// automl pool can cross-validate them interchangeably.
package salecast

// Command salecast-train runs the full training pipeline: load the
// sales CSV, impute, detect the task, compare and tune candidate
// models, evaluate on the holdout slice, and persist the winning
// pipeline artifact for the web app.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/salecast/salecast/automl"
	"github.com/salecast/salecast/dataset"
	"github.com/salecast/salecast/pkg/config"
	"github.com/salecast/salecast/pkg/errors"
	"github.com/salecast/salecast/pkg/log"
	"github.com/salecast/salecast/pkg/registry"
	"github.com/salecast/salecast/preprocessing"
)

var (
	configPath = flag.String("config", config.DefaultPath, "path to the YAML config file")
	logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}
	log.SetupLogger(*logLevel)
	logger := log.GetLoggerWithName("trainer")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", log.ErrAttr(err))
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("training failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	tbl, err := dataset.ReadCSV(cfg.Data.Path)
	if err != nil {
		return errors.Wrapf(err, "cannot read training data from %s", cfg.Data.Path)
	}

	summary := dataset.Summarize(tbl)
	missing := 0
	for _, col := range summary.Columns {
		missing += col.Missing
		logger.Debug("column profile",
			"column", col.Name,
			"kind", col.Kind.String(),
			log.MissingKey, col.Missing,
			"distinct", col.Distinct,
		)
	}
	logger.Info("dataset loaded",
		"path", cfg.Data.Path,
		log.SamplesKey, summary.Rows,
		log.FeaturesKey, summary.Cols-1,
		log.MissingKey, missing,
	)

	target := cfg.Data.Target
	if target == "" {
		names := tbl.Names()
		target = names[len(names)-1]
	}
	if _, ok := tbl.Column(target); !ok {
		return errors.NewValueError("salecast-train", "target column '"+target+"' not found in "+cfg.Data.Path)
	}

	imputer := preprocessing.NewImputer()
	tbl, err = imputer.FitTransform(tbl)
	if err != nil {
		return errors.Wrap(err, "imputation failed")
	}
	if missing > 0 {
		logger.Info("missing cells imputed", log.MissingKey, missing)
	}

	targetCol, _ := tbl.Column(target)
	task := dataset.DetectTask(targetCol, cfg.Training.ClassThreshold)
	logger.Info("task detected",
		log.TaskKey, task.String(),
		log.TargetKey, target,
		"distinct_targets", targetCol.Distinct(),
	)

	exp, err := automl.Setup(tbl, target, task,
		automl.WithSeed(cfg.Training.Seed),
		automl.WithFolds(cfg.Training.Folds),
		automl.WithHoldout(cfg.Training.HoldoutFrac),
	)
	if err != nil {
		return err
	}
	trainRows, holdRows := exp.TrainShape()
	logger.Info("experiment prepared",
		log.RandomSeedKey, cfg.Training.Seed,
		"folds", cfg.Training.Folds,
		"train_rows", trainRows,
		"holdout_rows", holdRows,
	)

	entries, err := compareWithProgress(exp)
	if err != nil {
		return err
	}
	fmt.Print(automl.RenderLeaderboard(task, entries, cfg.Training.TopN))
	logger.Info("model comparison finished",
		log.OperationKey, log.OperationCompare,
		"winner", exp.BestName(),
	)

	tuneStart := time.Now()
	tuned, err := tuneWithProgress(exp)
	if err != nil {
		return err
	}
	logger.Info("hyperparameter search finished",
		log.OperationKey, log.OperationTune,
		"configs_tried", tuned.Tried,
		"chosen", exp.EstimatorLabel(),
		"improved", tuned.Improved,
		log.DurationMsKey, time.Since(tuneStart).Milliseconds(),
	)

	var report *automl.HoldoutReport
	if cfg.Training.HoldoutFrac > 0 {
		report, err = exp.EvaluateHoldout()
		if err != nil {
			return err
		}
		logHoldout(logger, task, report)
	}

	pipe, err := exp.FinalizeModel()
	if err != nil {
		return err
	}
	artifact := cfg.Model.ArtifactPath()
	if err := pipe.Save(artifact); err != nil {
		return errors.Wrapf(err, "failed to save pipeline to %s", artifact)
	}
	logger.Info("pipeline saved",
		log.OperationKey, log.OperationFinalize,
		log.RunIDKey, pipe.Meta.RunID,
		log.ModelNameKey, pipe.Meta.EstimatorName,
		log.ArtifactKey, artifact,
	)

	// Registry and diagnostics are reporting extras; their failures are
	// logged, never fatal.
	if err := recordRun(cfg, pipe, entries); err != nil {
		logger.Warn("run registry update failed", log.ErrAttr(err))
	}
	if report != nil {
		if err := savePlot(cfg, task, report); err != nil {
			logger.Warn("diagnostics plot failed", log.ErrAttr(err))
		} else {
			logger.Info("diagnostics plot written", log.ArtifactKey, cfg.Model.PlotPath())
		}
	}
	return nil
}

func compareWithProgress(exp *automl.Experiment) ([]automl.LeaderboardEntry, error) {
	p := mpb.New(mpb.WithWidth(80))
	bar := p.AddBar(int64(exp.PoolSize()),
		mpb.PrependDecorators(
			decor.Name("Comparing models: "),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
		),
	)

	entries, err := exp.CompareModels(func(done, total int, name string) {
		bar.Increment()
	})
	p.Wait()
	return entries, err
}

func tuneWithProgress(exp *automl.Experiment) (*automl.TuneResult, error) {
	gridSize := exp.GridSize()
	if gridSize == 0 {
		return exp.TuneModel(nil)
	}

	p := mpb.New(mpb.WithWidth(80))
	bar := p.AddBar(int64(gridSize),
		mpb.PrependDecorators(
			decor.Name("Tuning "+exp.BestName()+": "),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
		),
	)

	result, err := exp.TuneModel(func(done, total int, name string) {
		bar.Increment()
	})
	p.Wait()
	return result, err
}

func logHoldout(logger log.Logger, task dataset.Task, report *automl.HoldoutReport) {
	if task == dataset.TaskClassification {
		logger.Info("holdout evaluation",
			log.AccuracyKey, report.Accuracy,
			log.MacroF1Key, report.MacroF1,
		)
		return
	}
	logger.Info("holdout evaluation",
		log.R2ScoreKey, report.R2,
		log.RMSEKey, report.RMSE,
		"mae", report.MAE,
	)
}

func recordRun(cfg *config.Config, pipe *automl.Pipeline, entries []automl.LeaderboardEntry) error {
	reg, err := registry.Open(cfg.Model.RegistryPath())
	if err != nil {
		return err
	}
	defer reg.Close()

	board := make([]registry.LeaderboardRow, len(entries))
	for i, e := range entries {
		board[i] = registry.LeaderboardRow{
			ID:   e.ID,
			Name: e.Name,
			Mean: e.MeanScore,
			Std:  e.StdScore,
		}
		if e.Err != nil {
			board[i].Error = e.Err.Error()
		}
	}

	meta := pipe.Meta
	return reg.Record(&registry.Run{
		ID:            meta.RunID,
		TrainedAt:     meta.TrainedAt,
		Task:          pipe.Task.String(),
		Target:        pipe.TargetName,
		Rows:          meta.Rows,
		Features:      meta.Features,
		EstimatorID:   meta.EstimatorID,
		EstimatorName: meta.EstimatorName,
		Metric:        meta.Metric,
		MetricValue:   meta.MetricValue,
		ArtifactPath:  cfg.Model.ArtifactPath(),
		Leaderboard:   board,
	})
}

func savePlot(cfg *config.Config, task dataset.Task, report *automl.HoldoutReport) error {
	if task == dataset.TaskClassification {
		return automl.SaveClassificationDiagnostics(cfg.Model.PlotPath(), report.PerClass)
	}
	return automl.SaveRegressionDiagnostics(cfg.Model.PlotPath(), report.YTrue, report.YPred)
}

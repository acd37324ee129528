// Package registry keeps a history of training runs in a local SQLite
// database so consecutive experiments can be compared after the fact.
package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/salecast/salecast/pkg/errors"
)

// ErrNoRuns is returned when the registry holds no recorded runs yet.
var ErrNoRuns = errors.New("registry: no runs recorded")

// LeaderboardRow is one candidate's cross-validation outcome, stored as
// JSON inside the run record.
type LeaderboardRow struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Error string  `json:"error,omitempty"`
}

// Run is one completed training run.
type Run struct {
	ID            string
	TrainedAt     time.Time
	Task          string
	Target        string
	Rows          int
	Features      int
	EstimatorID   string
	EstimatorName string
	Metric        string
	MetricValue   float64
	ArtifactPath  string
	Leaderboard   []LeaderboardRow
}

// Registry wraps the run-history database.
type Registry struct {
	db *sql.DB
}

// Open opens (creating if needed) the registry database at path. The
// parent directory is created for file-backed databases.
func Open(path string) (*Registry, error) {
	if !strings.HasPrefix(path, ":memory:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "failed to create registry directory %s", dir)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open registry %s", path)
	}

	// Writes are serialized anyway; a single connection also keeps
	// :memory: databases coherent across queries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to connect to registry %s", path)
	}

	r := &Registry{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize registry schema")
	}
	return r, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		trained_at     TEXT NOT NULL,
		task           TEXT NOT NULL,
		target         TEXT NOT NULL,
		rows           INTEGER NOT NULL,
		features       INTEGER NOT NULL,
		estimator_id   TEXT NOT NULL,
		estimator_name TEXT NOT NULL,
		metric         TEXT NOT NULL,
		metric_value   REAL NOT NULL,
		artifact_path  TEXT NOT NULL,
		leaderboard    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_trained_at ON runs(trained_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Record inserts a run, replacing any previous record with the same ID.
func (r *Registry) Record(run *Run) error {
	if run.ID == "" {
		return errors.NewValidationError("id", "must not be empty", run.ID)
	}

	board, err := json.Marshal(run.Leaderboard)
	if err != nil {
		return errors.Wrap(err, "failed to marshal leaderboard")
	}

	query := `
		INSERT OR REPLACE INTO runs
		(id, trained_at, task, target, rows, features, estimator_id, estimator_name,
		 metric, metric_value, artifact_path, leaderboard)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		run.ID,
		run.TrainedAt.UTC().Format(time.RFC3339),
		run.Task,
		run.Target,
		run.Rows,
		run.Features,
		run.EstimatorID,
		run.EstimatorName,
		run.Metric,
		run.MetricValue,
		run.ArtifactPath,
		string(board),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record run %s", run.ID)
	}
	return nil
}

const runColumns = `id, trained_at, task, target, rows, features, estimator_id,
	estimator_name, metric, metric_value, artifact_path, leaderboard`

// Latest returns the most recently trained run, or ErrNoRuns.
func (r *Registry) Latest() (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY trained_at DESC, rowid DESC LIMIT 1`
	run, err := scanRun(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load latest run")
	}
	return run, nil
}

// List returns runs newest first. A limit below 1 returns all runs.
func (r *Registry) List(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY trained_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate runs")
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run       Run
		trainedAt string
		board     string
	)
	err := s.Scan(
		&run.ID,
		&trainedAt,
		&run.Task,
		&run.Target,
		&run.Rows,
		&run.Features,
		&run.EstimatorID,
		&run.EstimatorName,
		&run.Metric,
		&run.MetricValue,
		&run.ArtifactPath,
		&board,
	)
	if err != nil {
		return nil, err
	}

	run.TrainedAt, err = time.Parse(time.RFC3339, trainedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse trained_at %q", trainedAt)
	}
	if err := json.Unmarshal([]byte(board), &run.Leaderboard); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal leaderboard")
	}
	return &run, nil
}

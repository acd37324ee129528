package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/salecast/salecast/pkg/errors"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleRun(id string, trainedAt time.Time) *Run {
	return &Run{
		ID:            id,
		TrainedAt:     trainedAt,
		Task:          "regression",
		Target:        "sales",
		Rows:          120,
		Features:      8,
		EstimatorID:   "rf",
		EstimatorName: "Random Forest Regressor",
		Metric:        "R2",
		MetricValue:   0.87,
		ArtifactPath:  "model/best_model.gob",
		Leaderboard: []LeaderboardRow{
			{ID: "rf", Name: "Random Forest Regressor", Mean: 0.87, Std: 0.02},
			{ID: "lr", Name: "Linear Regression", Mean: 0.71, Std: 0.05},
			{ID: "knn", Name: "K Neighbors Regressor", Error: "fit failed"},
		},
	}
}

func TestRecordAndLatestRoundTrip(t *testing.T) {
	r := openTestRegistry(t)

	later := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	// Insert out of chronological order; Latest must go by trained_at.
	if err := r.Record(sampleRun("run-b", later)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := r.Record(sampleRun("run-a", earlier)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := r.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.ID != "run-b" {
		t.Errorf("Latest().ID = %q, want run-b", got.ID)
	}
	if !got.TrainedAt.Equal(later) {
		t.Errorf("TrainedAt = %v, want %v", got.TrainedAt, later)
	}
	if got.Task != "regression" || got.Target != "sales" {
		t.Errorf("Task/Target = %q/%q", got.Task, got.Target)
	}
	if got.Rows != 120 || got.Features != 8 {
		t.Errorf("shape = %dx%d, want 120x8", got.Rows, got.Features)
	}
	if got.Metric != "R2" || got.MetricValue != 0.87 {
		t.Errorf("metric = %s %v", got.Metric, got.MetricValue)
	}
	if len(got.Leaderboard) != 3 {
		t.Fatalf("leaderboard rows = %d, want 3", len(got.Leaderboard))
	}
	if got.Leaderboard[0].ID != "rf" || got.Leaderboard[0].Mean != 0.87 {
		t.Errorf("leaderboard[0] = %+v", got.Leaderboard[0])
	}
	if got.Leaderboard[2].Error != "fit failed" {
		t.Errorf("leaderboard[2].Error = %q", got.Leaderboard[2].Error)
	}
}

func TestLatestOnEmptyRegistry(t *testing.T) {
	r := openTestRegistry(t)

	if _, err := r.Latest(); !errors.Is(err, ErrNoRuns) {
		t.Errorf("Latest() error = %v, want ErrNoRuns", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	r := openTestRegistry(t)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		if err := r.Record(sampleRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record(%s) error = %v", id, err)
		}
	}

	runs, err := r.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("List() returned %d runs, want 3", len(runs))
	}
	for i, want := range []string{"run-3", "run-2", "run-1"} {
		if runs[i].ID != want {
			t.Errorf("runs[%d].ID = %q, want %q", i, runs[i].ID, want)
		}
	}

	limited, err := r.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "run-3" {
		t.Errorf("List(2) = %d runs starting %q", len(limited), limited[0].ID)
	}
}

func TestRecordReplacesSameID(t *testing.T) {
	r := openTestRegistry(t)

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	run := sampleRun("run-x", at)
	if err := r.Record(run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	run.MetricValue = 0.93
	if err := r.Record(run); err != nil {
		t.Fatalf("Record() second error = %v", err)
	}

	runs, err := r.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("List() returned %d runs, want 1", len(runs))
	}
	if runs[0].MetricValue != 0.93 {
		t.Errorf("MetricValue = %v, want 0.93", runs[0].MetricValue)
	}
}

func TestRecordRejectsEmptyID(t *testing.T) {
	r := openTestRegistry(t)

	err := r.Record(&Run{TrainedAt: time.Now()})
	if err == nil {
		t.Fatal("Record() expected error for empty ID")
	}
	var valErr *errors.ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("error type = %T, want *errors.ValidationError", err)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "runs.db")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if err := r.Record(sampleRun("run-1", time.Now().UTC())); err != nil {
		t.Errorf("Record() error = %v", err)
	}
}

package db

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "vulnforest.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTrainingLogOrder(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i, runID := range []string{"run-a", "run-b", "run-c"} {
		err := store.SaveTrainingLog(TrainingLog{
			RunID:      runID,
			ModelName:  "random_forest",
			Accuracy:   0.5 + float64(i)/10,
			NumTrees:   50,
			Seed:       42,
			DataPoints: 100 + i,
			TrainedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	logs, err := store.LoadTrainingLog(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].RunID != "run-c" || logs[1].RunID != "run-b" {
		t.Fatalf("expected newest first, got %s, %s", logs[0].RunID, logs[1].RunID)
	}
	if logs[0].DataPoints != 102 || logs[0].Seed != 42 {
		t.Fatalf("unexpected log %+v", logs[0])
	}

	all, err := store.LoadTrainingLog(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(all))
	}
}

func TestSaveTrainingLogRequiresRunID(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveTrainingLog(TrainingLog{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestPredictions(t *testing.T) {
	store := newTestStore(t)
	if err := store.SavePrediction(PredictionLog{
		ModelPath:      "model/rf.json",
		ExamplePath:    "example.csv",
		PredictedLabel: 1,
		ProbVulnerable: 0.82,
		Tier:           "CRITICAL",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := store.RecentPredictions(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(predictions))
	}
	if predictions[0].Tier != "CRITICAL" || predictions[0].PredictedLabel != 1 {
		t.Fatalf("unexpected prediction %+v", predictions[0])
	}
	if predictions[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

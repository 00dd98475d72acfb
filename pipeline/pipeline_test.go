package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vulnforest/config"
	"vulnforest/dataset"
	"vulnforest/db"
	"vulnforest/ml"
	"vulnforest/risk"
)

func writeCSV(t *testing.T, path string, rows int, offset int) {
	t.Helper()
	var b strings.Builder
	for i := 0; i < rows; i++ {
		n := i + offset
		label := n % 2
		fmt.Fprintf(&b, "%d,%d,%d\n", label*10+n%5, n%7, label)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Model.NumTrees = 10
	cfg.Model.MinLeafSize = 2
	cfg.Model.MaxFeatures = 2
	cfg.Model.Seed = 5
	cfg.Output.ReportPath = filepath.Join(dir, "out", "report.csv")
	cfg.Database.Path = ""
	return cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func TestTrainerRun(t *testing.T) {
	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train.csv")
	testPath := filepath.Join(dir, "test.csv")
	writeCSV(t, trainPath, 60, 0)
	writeCSV(t, testPath, 20, 100)

	store, err := db.NewStore(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	modelPath := filepath.Join(dir, "model", "rf.json")
	predictionsPath := filepath.Join(dir, "out", "predictions.csv")
	trainer := NewTrainer(testConfig(dir), store, nil)
	summary, err := trainer.Run(trainPath, testPath, modelPath, predictionsPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TrainRows != 60 || summary.TestRows != 20 || summary.Dimension != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.RunID == "" || summary.ModelBytes == 0 {
		t.Fatalf("expected run id and model size, got %+v", summary)
	}
	if summary.Metrics.Accuracy < 0.9 {
		t.Fatalf("expected accuracy >= 0.9, got %.2f", summary.Metrics.Accuracy)
	}

	lines := readLines(t, predictionsPath)
	if len(lines) != 20 {
		t.Fatalf("expected 20 predictions, got %d", len(lines))
	}
	for i, line := range lines {
		if line != "0" && line != "1" {
			t.Fatalf("line %d: unexpected prediction %q", i+1, line)
		}
	}

	report := readLines(t, summary.ReportPath)
	if len(report) != 21 || report[0] != "row,actual,predicted,prob_vulnerable,tier" {
		t.Fatalf("unexpected report header or size: %d lines, %q", len(report), report[0])
	}

	if _, err := ml.LoadForest(modelPath); err != nil {
		t.Fatalf("expected a loadable model, got %v", err)
	}

	logs, err := store.LoadTrainingLog(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].RunID != summary.RunID || logs[0].NumTrees != 10 {
		t.Fatalf("unexpected training log %+v", logs)
	}
}

func TestTrainerRunErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	trainPath := filepath.Join(dir, "train.csv")
	writeCSV(t, trainPath, 30, 0)
	modelPath := filepath.Join(dir, "rf.json")
	predictionsPath := filepath.Join(dir, "predictions.csv")

	_, err := NewTrainer(cfg, nil, nil).Run(filepath.Join(dir, "absent.csv"), trainPath, modelPath, predictionsPath)
	if !errors.Is(err, dataset.ErrIO) {
		t.Fatalf("expected dataset.ErrIO, got %v", err)
	}

	widePath := filepath.Join(dir, "wide.csv")
	if err := os.WriteFile(widePath, []byte("1,2,3,0\n4,5,6,1\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = NewTrainer(cfg, nil, nil).Run(trainPath, widePath, modelPath, predictionsPath)
	if !errors.Is(err, ml.ErrDimension) {
		t.Fatalf("expected ml.ErrDimension, got %v", err)
	}

	emptyPath := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(emptyPath, nil, 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = NewTrainer(cfg, nil, nil).Run(emptyPath, trainPath, modelPath, predictionsPath)
	if !errors.Is(err, ml.ErrEmptyTrainingSet) {
		t.Fatalf("expected ml.ErrEmptyTrainingSet, got %v", err)
	}
}

func trainModel(t *testing.T, dir string) (*config.Config, string) {
	t.Helper()
	cfg := testConfig(dir)
	trainPath := filepath.Join(dir, "train.csv")
	writeCSV(t, trainPath, 60, 0)
	modelPath := filepath.Join(dir, "model", "rf.json")
	if _, err := TrainAndEvaluate(cfg, nil, trainPath, trainPath, modelPath, filepath.Join(dir, "predictions.csv")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cfg, modelPath
}

func TestInferenceRun(t *testing.T) {
	dir := t.TempDir()
	cfg, modelPath := trainModel(t, dir)

	examplePath := filepath.Join(dir, "example.csv")
	if err := os.WriteFile(examplePath, []byte("12,3\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store, err := db.NewStore(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()
	cache, err := NewModelCache(2, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	inference := NewInference(cfg, cache, store, nil)
	report, err := inference.Run(modelPath, examplePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Available || report.Class != 1 || !report.Vulnerable() {
		t.Fatalf("expected vulnerable prediction, got %+v", report)
	}
	if report.ProbVulnerable+report.ProbSafe < 0.999999 {
		t.Fatalf("probabilities do not sum to one: %+v", report)
	}
	if report.Advice != risk.Advise(report.ProbVulnerable) {
		t.Fatalf("advice does not match probability: %+v", report.Advice)
	}

	predictions, err := store.RecentPredictions(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 1 || predictions[0].PredictedLabel != 1 {
		t.Fatalf("unexpected prediction history %+v", predictions)
	}
}

func TestInferenceNoExample(t *testing.T) {
	dir := t.TempDir()
	cfg, modelPath := trainModel(t, dir)

	examplePath := filepath.Join(dir, "example.csv")
	if err := os.WriteFile(examplePath, []byte(""), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := ClassifyExample(cfg, nil, modelPath, examplePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Available || report.Message != NoExampleMessage {
		t.Fatalf("expected no-example report, got %+v", report)
	}
}

func TestInferenceErrors(t *testing.T) {
	dir := t.TempDir()
	cfg, modelPath := trainModel(t, dir)

	examplePath := filepath.Join(dir, "example.csv")
	if err := os.WriteFile(examplePath, []byte("1,2,3\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ClassifyExample(cfg, nil, modelPath, examplePath); !errors.Is(err, ml.ErrDimension) {
		t.Fatalf("expected ml.ErrDimension, got %v", err)
	}
	if _, err := ClassifyExample(cfg, nil, filepath.Join(dir, "absent.json"), examplePath); !errors.Is(err, ml.ErrModelNotFound) {
		t.Fatalf("expected ml.ErrModelNotFound, got %v", err)
	}
	if _, err := ClassifyExample(cfg, nil, modelPath, filepath.Join(dir, "absent.csv")); !errors.Is(err, dataset.ErrIO) {
		t.Fatalf("expected dataset.ErrIO, got %v", err)
	}

	if err := os.WriteFile(examplePath, []byte("1,x\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ClassifyExample(cfg, nil, modelPath, examplePath); !errors.Is(err, dataset.ErrFormat) {
		t.Fatalf("expected dataset.ErrFormat, got %v", err)
	}
}

func TestModelCacheReloadsRewrittenModel(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "rf.json")

	first := ml.NewRandomForest(ml.ForestConfig{NumTrees: 3, MinLeafSize: 1, Seed: 1})
	if err := first.Train([][]float64{{0}, {10}}, []int{0, 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.Save(modelPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cache, err := NewModelCache(2, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	loaded, err := cache.Get(modelPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := cache.Get(modelPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != again {
		t.Fatal("expected cached model to be reused")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one cached model, got %d", cache.Len())
	}
	cache.Invalidate(modelPath)
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after invalidate, got %d", cache.Len())
	}

	second := ml.NewRandomForest(ml.ForestConfig{NumTrees: 4, MinLeafSize: 1, Seed: 2})
	if err := second.Train([][]float64{{0, 1}, {10, 11}, {0, 2}}, []int{0, 1, 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := second.Save(modelPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := cache.Get(modelPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Dimension() != 2 || reloaded.NumTrees() != 4 {
		t.Fatalf("expected rewritten model, got dimension %d with %d trees", reloaded.Dimension(), reloaded.NumTrees())
	}

	if err := os.Remove(modelPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.Get(modelPath); !errors.Is(err, ml.ErrModelNotFound) {
		t.Fatalf("expected ml.ErrModelNotFound after removal, got %v", err)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.csv")
	err := writeReport(path, []int{1, 0}, [][]float64{{0.2, 0.8}, {0.6, 0.4}}, []int{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := readLines(t, path)
	if len(lines) != 3 || lines[1] != "1,1,1,0.8,CRITICAL" || lines[2] != "2,1,0,0.4,SAFE" {
		t.Fatalf("unexpected report %q", lines)
	}

	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = writeReport(filepath.Join(blocker, "report.csv"), []int{1}, [][]float64{{0, 1}}, []int{1})
	if !errors.Is(err, dataset.ErrIO) {
		t.Fatalf("expected dataset.ErrIO, got %v", err)
	}
}

func writeSnippets(t *testing.T, path string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Code Snippet,Vulnerability Type\n")
	for i := 0; i < rows; i++ {
		if i%2 == 0 {
			fmt.Fprintf(&b, "\"query = \"\"SELECT * FROM t WHERE id = \"\" + id%d;\", SQLi\n", i)
		} else {
			fmt.Fprintf(&b, "\"document.write(input%d);\",XSS\n", i)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPreparerRun(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw.csv")
	writeSnippets(t, rawPath, 10)
	cfg := testConfig(dir)
	trainPath := filepath.Join(dir, "csvs", "train.csv")
	testPath := filepath.Join(dir, "csvs", "test.csv")

	summary, err := PrepareDatasets(cfg, nil, rawPath, trainPath, testPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Snippets != 10 || summary.Positives != 5 || summary.TrainRows != 8 || summary.TestRows != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	positives := 0
	for _, path := range []string{trainPath, testPath} {
		ds, err := dataset.Load(path, DatasetOptions(cfg))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Dimension() != len(ml.FeatureNames()) {
			t.Fatalf("expected %d features, got %d", len(ml.FeatureNames()), ds.Dimension())
		}
		for _, label := range ds.Labels {
			positives += label
		}
	}
	if positives != 5 {
		t.Fatalf("expected 5 vulnerable rows across both files, got %d", positives)
	}

	first, err := os.ReadFile(trainPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := PrepareDatasets(cfg, nil, rawPath, trainPath, testPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := os.ReadFile(trainPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("expected identical train files for the same seed")
	}

	if _, err := TrainAndEvaluate(cfg, nil, trainPath, testPath, filepath.Join(dir, "rf.json"), filepath.Join(dir, "preds.csv")); err != nil {
		t.Fatalf("expected prepared files to train, got %v", err)
	}
}

func TestPreparerRunErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	out := filepath.Join(dir, "out.csv")

	if _, err := PrepareDatasets(cfg, nil, filepath.Join(dir, "absent.csv"), out, out); !errors.Is(err, dataset.ErrIO) {
		t.Fatalf("expected dataset.ErrIO, got %v", err)
	}

	headerOnly := filepath.Join(dir, "header.csv")
	if err := os.WriteFile(headerOnly, []byte("Code Snippet,Vulnerability Type\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := PrepareDatasets(cfg, nil, headerOnly, out, out); !errors.Is(err, dataset.ErrFormat) {
		t.Fatalf("expected dataset.ErrFormat, got %v", err)
	}
}

func TestAnalyzeDiff(t *testing.T) {
	diff := "--- a/app.c\n" +
		"+++ b/app.c\n" +
		"@@ -1 +1,3 @@\n" +
		"-  return 0;\n" +
		"+  strcpy(buf, input); system(cmd);\n" +
		"+  select from t\n" +
		"+  int x = 1;\n"

	analysis, err := AnalyzeDiff(diff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(analysis.Lines))
	}
	scores := []float64{8, 3, 0}
	for i, want := range scores {
		if analysis.Lines[i].RiskScore != want {
			t.Fatalf("line %d: expected score %v, got %v", i+1, want, analysis.Lines[i].RiskScore)
		}
	}
	if analysis.HighRisk != 1 || analysis.MediumRisk != 1 || analysis.MaxScore != 8 {
		t.Fatalf("unexpected totals %+v", analysis)
	}
	if !analysis.Lines[0].HighRisk() || analysis.Lines[1].HighRisk() {
		t.Fatal("unexpected high risk flags")
	}
	if len(analysis.Lines[0].Patterns) != 1 || analysis.Lines[0].Patterns[0] != ml.PatternDangerous {
		t.Fatalf("unexpected patterns %v", analysis.Lines[0].Patterns)
	}
	if rows := analysis.Rows(); len(rows) != 3 || rows[2][1] != 1 {
		t.Fatalf("expected one single-line feature row per added line, got %v", rows)
	}

	reportPath := filepath.Join(t.TempDir(), "reports", "diff.csv")
	if err := WriteDiffReport(reportPath, analysis); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := readLines(t, reportPath)
	if len(lines) != 4 || lines[0] != "line_number,original_line,risk_score" || lines[3] != "3,int x = 1;,0" {
		t.Fatalf("unexpected diff report %q", lines)
	}

	if _, err := AnalyzeDiff("--- a/x\n+++ b/x\n-gone\n"); !errors.Is(err, ErrNoAddedLines) {
		t.Fatalf("expected ErrNoAddedLines, got %v", err)
	}
}

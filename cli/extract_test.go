package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"vulnforest/dataset"
	"vulnforest/ml"
	"vulnforest/pipeline"
)

func TestExtractSnippetFromStdin(t *testing.T) {
	output := filepath.Join(t.TempDir(), "example.csv")
	source, err := readSource(strings.NewReader("if (x) { strcpy(buf, input); }\nsystem(cmd);"), "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, patterns, err := extractSnippet(source, output, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(row) != len(ml.FeatureNames()) {
		t.Fatalf("expected %d features, got %d", len(ml.FeatureNames()), len(row))
	}
	if len(patterns) != 1 || patterns[0] != ml.PatternDangerous {
		t.Fatalf("expected dangerous function pattern, got %v", patterns)
	}

	opts := dataset.DefaultOptions()
	opts.HasHeader = true
	loaded, ok, err := dataset.LoadExample(output, opts)
	if err != nil || !ok {
		t.Fatalf("expected a readable example row, got ok=%v err=%v", ok, err)
	}
	for i := range row {
		if loaded[i] != row[i] {
			t.Fatalf("feature %d: expected %v, got %v", i, row[i], loaded[i])
		}
	}
}

func TestExtractDiffRows(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "diff_features.csv")
	report := filepath.Join(dir, "reports", "diff_analysis.csv")
	diff := "+++ b/app.c\n+  gets(line);\n+  return 0;\n"

	analysis, err := extractDiffRows(diff, output, report, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analysis.Lines) != 2 {
		t.Fatalf("expected 2 analysed lines, got %d", len(analysis.Lines))
	}

	ds, err := dataset.Load(output, dataset.Options{HasLabel: false, Delimiter: ','})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 2 || ds.Dimension() != len(ml.FeatureNames()) {
		t.Fatalf("expected 2 rows of %d features, got %d x %d", len(ml.FeatureNames()), ds.Len(), ds.Dimension())
	}

	if _, err := extractDiffRows("+++ b/app.c\n", output, "", false); !errors.Is(err, pipeline.ErrNoAddedLines) {
		t.Fatalf("expected pipeline.ErrNoAddedLines, got %v", err)
	}
}

func TestReadSourceMissingInput(t *testing.T) {
	_, err := readSource(nil, filepath.Join(t.TempDir(), "absent.c"))
	if !errors.Is(err, dataset.ErrIO) {
		t.Fatalf("expected dataset.ErrIO, got %v", err)
	}
}

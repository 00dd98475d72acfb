package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"vulnforest/db"
	"vulnforest/pipeline"
)

func printSummary(out io.Writer, s *pipeline.TrainingSummary) {
	fmt.Fprintln(out, "Model trained successfully.")
	fmt.Fprintf(out, "  run:         %s\n", s.RunID)
	fmt.Fprintf(out, "  rows:        %d train, %d test, %d features\n", s.TrainRows, s.TestRows, s.Dimension)
	fmt.Fprintf(out, "  model:       %s (%s)\n", s.ModelPath, humanize.Bytes(uint64(s.ModelBytes)))
	fmt.Fprintf(out, "  predictions: %s\n", s.PredictionsPath)
	if s.ReportPath != "" {
		fmt.Fprintf(out, "  report:      %s\n", s.ReportPath)
	}
	m := s.Metrics
	fmt.Fprintf(out, "  accuracy=%.2f precision=%.2f recall=%.2f f1=%.2f\n", m.Accuracy, m.Precision, m.Recall, m.F1)
	fmt.Fprintf(out, "  took %s\n", s.Duration.Round(time.Millisecond))
}

func printPrepareSummary(out io.Writer, s *pipeline.PrepareSummary) {
	fmt.Fprintln(out, "Datasets prepared.")
	fmt.Fprintf(out, "  snippets: %d (%d labelled vulnerable)\n", s.Snippets, s.Positives)
	fmt.Fprintf(out, "  train:    %s (%d rows)\n", s.TrainPath, s.TrainRows)
	fmt.Fprintf(out, "  test:     %s (%d rows)\n", s.TestPath, s.TestRows)
}

func printReport(out io.Writer, r *pipeline.Report) {
	if !r.Available {
		fmt.Fprintf(out, "No prediction: %s (%s)\n", r.Message, r.ExamplePath)
		return
	}

	fmt.Fprintln(out, "\n=== VULNERABILITY ANALYSIS ===")
	fmt.Fprintf(out, "Vulnerability probability: %.2f%%\n", r.ProbVulnerable*100)
	fmt.Fprintf(out, "Safety probability:        %.2f%%\n", r.ProbSafe*100)
	fmt.Fprintf(out, "\n[%s] %s\n", r.Advice.Tier, r.Advice.Message)

	verdict := "SAFE"
	if r.Vulnerable() {
		verdict = "VULNERABLE"
	}
	fmt.Fprintf(out, "\nBinary classification: %s (class %d)\n", verdict, r.Class)
}

func printPatterns(out io.Writer, patterns []string) {
	if len(patterns) == 0 {
		return
	}
	fmt.Fprintln(out, "Patterns detected:")
	for _, p := range patterns {
		fmt.Fprintf(out, "  - %s\n", p)
	}
}

func printDiffAnalysis(out io.Writer, a *pipeline.DiffAnalysis, output string) {
	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(a.Lines), output)
	fmt.Fprintf(out, "  lines analysed: %d\n", len(a.Lines))
	fmt.Fprintf(out, "  high risk:      %d\n", a.HighRisk)
	fmt.Fprintf(out, "  medium risk:    %d\n", a.MediumRisk)
	fmt.Fprintf(out, "  score max=%.0f mean=%.2f\n", a.MaxScore, a.MeanScore)
	for _, line := range a.Lines {
		if line.HighRisk() {
			fmt.Fprintf(out, "  [%d] score %.0f: %s\n", line.Number, line.RiskScore, line.Text)
		}
	}
}

func printTrainingLog(out io.Writer, logs []db.TrainingLog) {
	if len(logs) == 0 {
		fmt.Fprintln(out, "No training runs recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTRAINED\tTREES\tMIN LEAF\tSEED\tROWS\tACCURACY\tF1\tMODEL")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d/%d\t%.2f\t%.2f\t%s\n",
			shortID(l.RunID), humanize.Time(l.TrainedAt), l.NumTrees, l.MinLeafSize, l.Seed,
			l.DataPoints, l.TestPoints, l.Accuracy, l.F1, l.ModelPath)
	}
	w.Flush()
}

func printPredictionLog(out io.Writer, logs []db.PredictionLog) {
	if len(logs) == 0 {
		fmt.Fprintln(out, "No predictions recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tCLASS\tP(VULN)\tTIER\tEXAMPLE")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%d\t%.2f%%\t%s\t%s\n",
			humanize.Time(l.CreatedAt), l.PredictedLabel, l.ProbVulnerable*100, l.Tier, l.ExamplePath)
	}
	w.Flush()
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vulnforest/dataset"
	"vulnforest/ml"
	"vulnforest/pipeline"
)

var (
	extractInput  string
	extractOutput string
	extractHeader bool
	extractDiff   bool
	extractReport string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Turn a source snippet or a diff into example feature rows",
	Long: `Count lexical risk markers in a source file and write them as a single
numeric row that predict can score. Use --input - to read from stdin.

With --diff the input is a unified diff and every added line becomes its own
row, scored and optionally reported per line.

Example:
  vulnforest extract --input handler.c
  vulnforest extract --input handler.c --output example_features.csv
  git diff HEAD~1 | vulnforest extract --diff --input - --report reports/diff_analysis.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		output := extractOutput
		if output == "" {
			output = e.cfg.Data.ExamplePath
		}
		header := extractHeader || e.cfg.Data.HasHeader
		source, err := readSource(cmd.InOrStdin(), extractInput)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if extractDiff {
			analysis, err := extractDiffRows(source, output, extractReport, header)
			if err != nil {
				return err
			}
			printDiffAnalysis(out, analysis, output)
			return nil
		}

		row, patterns, err := extractSnippet(source, output, header)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d features to %s\n", len(row), output)
		printPatterns(out, patterns)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Source file to analyse (- for stdin)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Feature row output (default data.example_path)")
	extractCmd.Flags().BoolVar(&extractHeader, "header", false, "Write a header line with feature names")
	extractCmd.Flags().BoolVar(&extractDiff, "diff", false, "Treat the input as a unified diff and score each added line")
	extractCmd.Flags().StringVar(&extractReport, "report", "", "Per-line risk report CSV (with --diff)")
	_ = extractCmd.MarkFlagRequired("input")
}

func readSource(stdin io.Reader, input string) (string, error) {
	var (
		source []byte
		err    error
	)
	if input == "-" {
		source, err = io.ReadAll(stdin)
	} else {
		source, err = os.ReadFile(input)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", dataset.ErrIO, input, err)
	}
	return string(source), nil
}

func extractSnippet(source, output string, header bool) ([]float64, []string, error) {
	row := ml.FeatureVector(ml.ExtractFeatures(source))
	if err := dataset.WriteRows(output, featureHeader(header), [][]float64{row}); err != nil {
		return nil, nil, err
	}
	return row, ml.DetectPatterns(source), nil
}

func extractDiffRows(source, output, report string, header bool) (*pipeline.DiffAnalysis, error) {
	analysis, err := pipeline.AnalyzeDiff(source)
	if err != nil {
		return nil, err
	}
	if err := dataset.WriteRows(output, featureHeader(header), analysis.Rows()); err != nil {
		return nil, err
	}
	if report != "" {
		if err := pipeline.WriteDiffReport(report, analysis); err != nil {
			return nil, err
		}
	}
	return analysis, nil
}

func featureHeader(header bool) []string {
	if !header {
		return nil
	}
	return ml.FeatureNames()
}

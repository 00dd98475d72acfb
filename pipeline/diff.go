package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"vulnforest/dataset"
	"vulnforest/ml"
)

const (
	highRiskScore   = 5
	mediumRiskScore = 2
	maxLineText     = 100
)

var ErrNoAddedLines = errors.New("diff adds no code lines")

type LineAnalysis struct {
	Number    int
	Text      string
	Features  []float64
	RiskScore float64
	Patterns  []string
}

func (l LineAnalysis) HighRisk() bool {
	return l.RiskScore > highRiskScore
}

type DiffAnalysis struct {
	Lines      []LineAnalysis
	HighRisk   int
	MediumRisk int
	MaxScore   float64
	MeanScore  float64
}

// Rows returns one feature row per added line, ready for WriteRows.
func (a *DiffAnalysis) Rows() [][]float64 {
	rows := make([][]float64, len(a.Lines))
	for i, line := range a.Lines {
		rows[i] = line.Features
	}
	return rows
}

// AnalyzeDiff scores every added line of a unified diff. Scores above 5 are high risk and
// scores in (2, 5] medium risk.
func AnalyzeDiff(diff string) (*DiffAnalysis, error) {
	added := ml.AddedLines(diff)
	if len(added) == 0 {
		return nil, ErrNoAddedLines
	}

	analysis := &DiffAnalysis{Lines: make([]LineAnalysis, len(added))}
	total := 0.0
	for i, text := range added {
		features := ml.ExtractFeatures(text)
		score := ml.RiskScore(features)
		analysis.Lines[i] = LineAnalysis{
			Number:    i + 1,
			Text:      text,
			Features:  ml.FeatureVector(features),
			RiskScore: score,
			Patterns:  ml.DetectPatterns(text),
		}
		switch {
		case score > highRiskScore:
			analysis.HighRisk++
		case score > mediumRiskScore:
			analysis.MediumRisk++
		}
		if score > analysis.MaxScore {
			analysis.MaxScore = score
		}
		total += score
	}
	analysis.MeanScore = total / float64(len(added))
	return analysis, nil
}

type lineRecord struct {
	Line      int     `csv:"line_number"`
	Text      string  `csv:"original_line"`
	RiskScore float64 `csv:"risk_score"`
}

// WriteDiffReport writes the per-line scores as CSV with line text cut to 100 runes.
func WriteDiffReport(path string, analysis *DiffAnalysis) error {
	records := make([]*lineRecord, len(analysis.Lines))
	for i, line := range analysis.Lines {
		text := []rune(line.Text)
		if len(text) > maxLineText {
			text = text[:maxLineText]
		}
		records[i] = &lineRecord{Line: line.Number, Text: string(text), RiskScore: line.RiskScore}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", dataset.ErrIO, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", dataset.ErrIO, err)
	}
	defer file.Close()
	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("%w: write diff report: %v", dataset.ErrIO, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close diff report: %v", dataset.ErrIO, err)
	}
	return nil
}

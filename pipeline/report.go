package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"vulnforest/dataset"
	"vulnforest/risk"
)

type predictionRecord struct {
	Row            int     `csv:"row"`
	Actual         int     `csv:"actual"`
	Predicted      int     `csv:"predicted"`
	ProbVulnerable float64 `csv:"prob_vulnerable"`
	Tier           string  `csv:"tier"`
}

func writeReport(path string, predictions []int, probabilities [][]float64, actual []int) error {
	records := make([]*predictionRecord, len(predictions))
	for i, label := range predictions {
		prob := vulnerableProbability(probabilities[i])
		records[i] = &predictionRecord{
			Row:            i + 1,
			Actual:         actual[i],
			Predicted:      label,
			ProbVulnerable: prob,
			Tier:           string(risk.Advise(prob).Tier),
		}
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
		return fmt.Errorf("%w: write report: %v", dataset.ErrIO, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: close report: %v", dataset.ErrIO, err)
	}
	return nil
}

func vulnerableProbability(dist []float64) float64 {
	if len(dist) > vulnerableClass {
		return dist[vulnerableClass]
	}
	return 0
}

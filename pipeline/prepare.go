package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vulnforest/config"
	"vulnforest/dataset"
	"vulnforest/ml"
)

type PrepareSummary struct {
	Snippets  int
	Positives int
	TrainRows int
	TestRows  int
	TrainPath string
	TestPath  string
}

// Preparer turns a raw snippet corpus into the labelled train and test feature files.
type Preparer struct {
	Dataset      dataset.Options
	PositiveType string
	TestRatio    float64
	Seed         int64
	Logger       *zap.Logger
}

func NewPreparer(cfg *config.Config, logger *zap.Logger) *Preparer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preparer{
		Dataset:      DatasetOptions(cfg),
		PositiveType: cfg.Data.PositiveType,
		TestRatio:    cfg.Data.TestRatio,
		Seed:         cfg.Model.Seed,
		Logger:       logger,
	}
}

// Run labels every snippet whose type equals PositiveType as class 1, extracts its features,
// and writes a seeded split to trainOutPath and testOutPath.
func (p *Preparer) Run(rawPath, trainOutPath, testOutPath string) (*PrepareSummary, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	snippets, err := dataset.LoadSnippets(rawPath, p.Dataset)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, fmt.Errorf("%w: %s holds no snippets", dataset.ErrFormat, rawPath)
	}

	summary := &PrepareSummary{Snippets: len(snippets), TrainPath: trainOutPath, TestPath: testOutPath}
	ds := &dataset.Dataset{
		Features: make([][]float64, len(snippets)),
		Labels:   make([]int, len(snippets)),
	}
	for i, s := range snippets {
		ds.Features[i] = ml.FeatureVector(ml.ExtractFeatures(s.Code))
		if strings.TrimSpace(s.Type) == p.PositiveType {
			ds.Labels[i] = vulnerableClass
			summary.Positives++
		}
	}

	train, test, err := dataset.Split(ds, p.TestRatio, p.Seed)
	if err != nil {
		return nil, err
	}

	var header []string
	if p.Dataset.HasHeader {
		header = append(ml.FeatureNames(), "label")
	}
	if err := dataset.WriteDataset(trainOutPath, train, header); err != nil {
		return nil, err
	}
	if err := dataset.WriteDataset(testOutPath, test, header); err != nil {
		return nil, err
	}
	summary.TrainRows = train.Len()
	summary.TestRows = test.Len()

	logger.Info("datasets prepared",
		zap.String("raw", rawPath),
		zap.Int("snippets", summary.Snippets),
		zap.Int("positives", summary.Positives),
		zap.Int("train_rows", summary.TrainRows),
		zap.Int("test_rows", summary.TestRows),
		zap.Float64("test_ratio", p.TestRatio),
		zap.Int64("seed", p.Seed),
	)
	return summary, nil
}

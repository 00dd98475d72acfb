package pipeline

import (
	"go.uber.org/zap"

	"vulnforest/config"
	"vulnforest/dataset"
	"vulnforest/db"
	"vulnforest/risk"
)

const NoExampleMessage = "no example available"

type Report struct {
	// Available is false when the example file held no data row; the other fields are then zero.
	Available      bool
	Message        string
	Class          int
	ProbVulnerable float64
	ProbSafe       float64
	Probabilities  []float64
	Advice         risk.Advice
	ModelPath      string
	ExamplePath    string
}

func (r *Report) Vulnerable() bool {
	return r.Available && r.Class == vulnerableClass
}

type Inference struct {
	Dataset dataset.Options
	Cache   *ModelCache
	Store   *db.Store
	Logger  *zap.Logger
}

func NewInference(cfg *config.Config, cache *ModelCache, store *db.Store, logger *zap.Logger) *Inference {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inference{
		Dataset: DatasetOptions(cfg),
		Cache:   cache,
		Store:   store,
		Logger:  logger,
	}
}

// Run classifies the single feature row in examplePath with the model at modelPath.
func (i *Inference) Run(modelPath, examplePath string) (*Report, error) {
	logger := i.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	forest, err := i.Cache.Get(modelPath)
	if err != nil {
		return nil, err
	}

	row, ok, err := dataset.LoadExample(examplePath, i.Dataset)
	if err != nil {
		return nil, err
	}
	report := &Report{ModelPath: modelPath, ExamplePath: examplePath}
	if !ok {
		logger.Warn(NoExampleMessage, zap.String("path", examplePath))
		report.Message = NoExampleMessage
		return report, nil
	}

	class, dist, err := forest.ClassifyRow(row)
	if err != nil {
		return nil, err
	}
	report.Available = true
	report.Class = class
	report.Probabilities = dist
	report.ProbVulnerable = vulnerableProbability(dist)
	report.ProbSafe = 1.0
	if len(dist) > 0 {
		report.ProbSafe = dist[0]
	}
	report.Advice = risk.Advise(report.ProbVulnerable)
	report.Message = report.Advice.Message

	logger.Info("example classified",
		zap.String("example", examplePath),
		zap.Int("class", class),
		zap.Float64("prob_vulnerable", report.ProbVulnerable),
		zap.String("tier", string(report.Advice.Tier)),
	)
	i.record(report)
	return report, nil
}

func (i *Inference) record(report *Report) {
	if i.Store == nil {
		return
	}
	err := i.Store.SavePrediction(db.PredictionLog{
		ModelPath:      report.ModelPath,
		ExamplePath:    report.ExamplePath,
		PredictedLabel: report.Class,
		ProbVulnerable: report.ProbVulnerable,
		Tier:           string(report.Advice.Tier),
	})
	if err != nil && i.Logger != nil {
		i.Logger.Warn("record prediction failed", zap.Error(err))
	}
}

package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vulnforest/config"
	"vulnforest/dataset"
	"vulnforest/db"
	"vulnforest/ml"
)

// vulnerableClass is the positive label of the binary task.
const vulnerableClass = 1

type TrainingSummary struct {
	RunID           string
	TrainRows       int
	TestRows        int
	Dimension       int
	ModelPath       string
	ModelBytes      int64
	PredictionsPath string
	ReportPath      string
	Metrics         ml.Metrics
	Duration        time.Duration
}

type Trainer struct {
	Dataset    dataset.Options
	Forest     ml.ForestConfig
	ReportPath string
	Store      *db.Store
	Logger     *zap.Logger
}

func NewTrainer(cfg *config.Config, store *db.Store, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		Dataset:    DatasetOptions(cfg),
		Forest:     ForestConfig(cfg),
		ReportPath: cfg.Output.ReportPath,
		Store:      store,
		Logger:     logger,
	}
}

// Run trains on trainPath, saves the model, and writes one predicted class per line for testPath.
// Errors from loading, training, saving or predicting are returned as produced.
func (t *Trainer) Run(trainPath, testPath, modelOutPath, predictionsOutPath string) (*TrainingSummary, error) {
	started := time.Now()
	logger := t.logger()
	summary := &TrainingSummary{
		RunID:           uuid.NewString(),
		ModelPath:       modelOutPath,
		PredictionsPath: predictionsOutPath,
	}
	logger = logger.With(zap.String("run_id", summary.RunID))

	train, err := dataset.Load(trainPath, t.Dataset)
	if err != nil {
		return nil, err
	}
	summary.TrainRows = train.Len()
	summary.Dimension = train.Dimension()
	logger.Info("training set loaded",
		zap.String("path", trainPath),
		zap.Int("rows", train.Len()),
		zap.Int("features", train.Dimension()),
	)

	forest := ml.NewRandomForest(t.Forest)
	if err := forest.Train(train.Features, train.Labels); err != nil {
		return nil, err
	}
	forestConfig := forest.Config()
	logger.Info("forest trained",
		zap.Int("trees", forestConfig.NumTrees),
		zap.Int("min_leaf_size", forestConfig.MinLeafSize),
		zap.Int64("seed", forestConfig.Seed),
	)

	if err := forest.Save(modelOutPath); err != nil {
		return nil, err
	}
	if info, err := os.Stat(modelOutPath); err == nil {
		summary.ModelBytes = info.Size()
	}

	test, err := dataset.Load(testPath, t.Dataset)
	if err != nil {
		return nil, err
	}
	summary.TestRows = test.Len()

	predictions, probabilities, err := forest.Classify(test.Features)
	if err != nil {
		return nil, err
	}
	if err := writePredictions(predictionsOutPath, predictions); err != nil {
		return nil, err
	}

	metrics, err := ml.Evaluate(predictions, test.Labels, vulnerableClass)
	if err != nil {
		return nil, err
	}
	summary.Metrics = metrics
	logger.Info("test set evaluated",
		zap.Int("rows", metrics.Total),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Float64("precision", metrics.Precision),
		zap.Float64("recall", metrics.Recall),
	)

	if t.ReportPath != "" {
		if err := writeReport(t.ReportPath, predictions, probabilities, test.Labels); err != nil {
			return nil, err
		}
		summary.ReportPath = t.ReportPath
	}

	summary.Duration = time.Since(started)
	t.record(summary, forestConfig)
	return summary, nil
}

func (t *Trainer) record(summary *TrainingSummary, forestConfig ml.ForestConfig) {
	if t.Store == nil {
		return
	}
	err := t.Store.SaveTrainingLog(db.TrainingLog{
		RunID:       summary.RunID,
		ModelName:   "random_forest",
		ModelPath:   summary.ModelPath,
		Accuracy:    summary.Metrics.Accuracy,
		Precision:   summary.Metrics.Precision,
		Recall:      summary.Metrics.Recall,
		F1:          summary.Metrics.F1,
		NumTrees:    forestConfig.NumTrees,
		MinLeafSize: forestConfig.MinLeafSize,
		Seed:        forestConfig.Seed,
		DataPoints:  summary.TrainRows,
		TestPoints:  summary.TestRows,
		TrainedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.logger().Warn("record training log failed", zap.String("run_id", summary.RunID), zap.Error(err))
	}
}

func (t *Trainer) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

func writePredictions(path string, predictions []int) error {
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

	writer := bufio.NewWriter(file)
	for _, label := range predictions {
		if _, err := fmt.Fprintf(writer, "%d\n", label); err != nil {
			return fmt.Errorf("%w: %v", dataset.ErrIO, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: %v", dataset.ErrIO, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %v", dataset.ErrIO, err)
	}
	return nil
}

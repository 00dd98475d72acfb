package pipeline

import (
	"go.uber.org/zap"

	"vulnforest/config"
	"vulnforest/dataset"
	"vulnforest/db"
	"vulnforest/ml"
)

func DatasetOptions(cfg *config.Config) dataset.Options {
	opts := dataset.DefaultOptions()
	opts.HasHeader = cfg.Data.HasHeader
	opts.Delimiter = cfg.DelimiterRune()
	opts.Encoding = cfg.Data.Encoding
	opts.NumClasses = cfg.Model.NumClasses
	return opts
}

func ForestConfig(cfg *config.Config) ml.ForestConfig {
	return ml.ForestConfig{
		NumClasses:  cfg.Model.NumClasses,
		NumTrees:    cfg.Model.NumTrees,
		MinLeafSize: cfg.Model.MinLeafSize,
		MaxFeatures: cfg.Model.MaxFeatures,
		Seed:        cfg.Model.Seed,
	}
}

// OpenStore opens the configured database. A missing path or open failure yields a nil store.
func OpenStore(cfg *config.Config, logger *zap.Logger) *db.Store {
	if cfg.Database.Path == "" {
		return nil
	}
	store, err := db.NewStore(cfg.Database.Path)
	if err != nil {
		if logger != nil {
			logger.Warn("history database unavailable", zap.String("path", cfg.Database.Path), zap.Error(err))
		}
		return nil
	}
	return store
}

// TrainAndEvaluate is the one-shot training entry point.
func TrainAndEvaluate(cfg *config.Config, logger *zap.Logger, trainPath, testPath, modelOutPath, predictionsOutPath string) (*TrainingSummary, error) {
	store := OpenStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}
	return NewTrainer(cfg, store, logger).Run(trainPath, testPath, modelOutPath, predictionsOutPath)
}

// ClassifyExample is the one-shot inference entry point.
func ClassifyExample(cfg *config.Config, logger *zap.Logger, modelPath, examplePath string) (*Report, error) {
	cache, err := NewModelCache(1, false, logger)
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	store := OpenStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}
	return NewInference(cfg, cache, store, logger).Run(modelPath, examplePath)
}

// PrepareDatasets is the one-shot dataset preparation entry point.
func PrepareDatasets(cfg *config.Config, logger *zap.Logger, rawPath, trainOutPath, testOutPath string) (*PrepareSummary, error) {
	return NewPreparer(cfg, logger).Run(rawPath, trainOutPath, testOutPath)
}

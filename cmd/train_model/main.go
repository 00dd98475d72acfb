package main

import (
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"

	"vulnforest/config"
	"vulnforest/logging"
	"vulnforest/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "configuration file")
	rawPath := flag.String("raw", "", "raw snippet CSV to split into the train and test files first")
	testRatio := flag.Float64("test_ratio", 0, "test fraction when splitting -raw (default from config)")
	trainPath := flag.String("train", "", "training CSV (default from config)")
	testPath := flag.String("test", "", "test CSV (default from config)")
	modelPath := flag.String("model_path", "", "model output path (default from config)")
	predictionsPath := flag.String("predictions", "", "predictions output path (default from config)")
	numTrees := flag.Int("trees", 0, "number of trees")
	minLeaf := flag.Int("min_leaf", 0, "minimum samples per leaf")
	seed := flag.Int64("seed", 0, "random seed (0 keeps the configured seed)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	setString(&cfg.Data.TrainPath, *trainPath)
	setString(&cfg.Data.TestPath, *testPath)
	setString(&cfg.Model.Path, *modelPath)
	setString(&cfg.Output.PredictionsPath, *predictionsPath)
	if *numTrees > 0 {
		cfg.Model.NumTrees = *numTrees
	}
	if *minLeaf > 0 {
		cfg.Model.MinLeafSize = *minLeaf
	}
	if *seed != 0 {
		cfg.Model.Seed = *seed
	}
	if *testRatio != 0 {
		cfg.Data.TestRatio = *testRatio
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if *rawPath != "" {
		prepared, err := pipeline.PrepareDatasets(cfg, logger, *rawPath, cfg.Data.TrainPath, cfg.Data.TestPath)
		if err != nil {
			logger.Fatal("dataset preparation failed", zap.Error(err))
		}
		fmt.Printf("split %d snippets into %d train and %d test rows\n", prepared.Snippets, prepared.TrainRows, prepared.TestRows)
	}

	summary, err := pipeline.TrainAndEvaluate(cfg, logger,
		cfg.Data.TrainPath, cfg.Data.TestPath, cfg.Model.Path, cfg.Output.PredictionsPath)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	m := summary.Metrics
	logger.Info("training finished",
		zap.String("run_id", summary.RunID),
		zap.Duration("took", summary.Duration),
	)
	fmt.Printf("accuracy=%.2f precision=%.2f recall=%.2f f1=%.2f\n", m.Accuracy, m.Precision, m.Recall, m.F1)
	fmt.Printf("model saved to %s\n", summary.ModelPath)
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

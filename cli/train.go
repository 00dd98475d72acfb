package cli

import (
	"github.com/spf13/cobra"
)

var (
	trainPath       string
	testPath        string
	modelOutPath    string
	predictionsPath string
	reportPath      string
	numTrees        int
	minLeafSize     int
	seed            int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the forest, save it, and score the test set",
	Long: `Train a random forest on the training CSV, save the model, and write one
predicted class per line for the test CSV. Flags override the configuration file.

Example:
  vulnforest train
  vulnforest train --train data/train.csv --test data/test.csv --trees 100 --seed 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		cfg := e.cfg
		overrideString(&cfg.Data.TrainPath, trainPath)
		overrideString(&cfg.Data.TestPath, testPath)
		overrideString(&cfg.Model.Path, modelOutPath)
		overrideString(&cfg.Output.PredictionsPath, predictionsPath)
		overrideString(&cfg.Output.ReportPath, reportPath)
		if cmd.Flags().Changed("trees") {
			cfg.Model.NumTrees = numTrees
		}
		if cmd.Flags().Changed("min-leaf") {
			cfg.Model.MinLeafSize = minLeafSize
		}
		if cmd.Flags().Changed("seed") {
			cfg.Model.Seed = seed
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return trainDefault(e, cmd.OutOrStdout())
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainPath, "train", "", "Training CSV (default from config)")
	trainCmd.Flags().StringVar(&testPath, "test", "", "Test CSV (default from config)")
	trainCmd.Flags().StringVar(&modelOutPath, "model", "", "Model output path (default from config)")
	trainCmd.Flags().StringVar(&predictionsPath, "predictions", "", "Predictions output path (default from config)")
	trainCmd.Flags().StringVar(&reportPath, "report", "", "Per-row report CSV (default from config)")
	trainCmd.Flags().IntVar(&numTrees, "trees", 0, "Number of trees")
	trainCmd.Flags().IntVar(&minLeafSize, "min-leaf", 0, "Minimum samples per leaf")
	trainCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

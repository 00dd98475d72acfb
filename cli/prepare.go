package cli

import (

	"github.com/spf13/cobra"
)

var (
	prepareInput    string
	prepareTrain    string
	prepareTest     string
	prepareRatio    float64
	prepareSeed     int64
	preparePositive string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build train and test feature files from a raw snippet CSV",
	Long: `Read a CSV with "Code Snippet" and "Vulnerability Type" columns, label snippets
of the positive type as 1, extract their features, and write a seeded split.

Example:
  vulnforest prepare
  vulnforest prepare --input csvs/code_vulnerabilities.csv --test-ratio 0.2 --seed 42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		cfg := e.cfg
		overrideString(&cfg.Data.RawPath, prepareInput)
		overrideString(&cfg.Data.TrainPath, prepareTrain)
		overrideString(&cfg.Data.TestPath, prepareTest)
		overrideString(&cfg.Data.PositiveType, preparePositive)
		if cmd.Flags().Changed("test-ratio") {
			cfg.Data.TestRatio = prepareRatio
		}
		if cmd.Flags().Changed("seed") {
			cfg.Model.Seed = prepareSeed
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return prepareDefault(e, cmd.OutOrStdout())
	},
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareInput, "input", "i", "", "Raw snippet CSV (default data.raw_path)")
	prepareCmd.Flags().StringVar(&prepareTrain, "train", "", "Training features output (default data.train_path)")
	prepareCmd.Flags().StringVar(&prepareTest, "test", "", "Test features output (default data.test_path)")
	prepareCmd.Flags().Float64Var(&prepareRatio, "test-ratio", 0.2, "Fraction of rows moved to the test set")
	prepareCmd.Flags().Int64Var(&prepareSeed, "seed", 42, "Shuffle seed (default model.seed)")
	prepareCmd.Flags().StringVar(&preparePositive, "positive", "", "Vulnerability type labelled 1 (default data.positive_type)")
}

package cli

import (
	"github.com/spf13/cobra"
)

var (
	predictModelPath string
	examplePath      string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score the example feature row with a saved model",
	Long: `Load a saved forest and classify the first row of the example CSV.

Example:
  vulnforest predict
  vulnforest predict --model model/rf_vuln_model.json --example example_features.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		overrideString(&e.cfg.Model.Path, predictModelPath)
		overrideString(&e.cfg.Data.ExamplePath, examplePath)
		return predictDefault(e, cmd.OutOrStdout())
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictModelPath, "model", "", "Saved model path (default from config)")
	predictCmd.Flags().StringVar(&examplePath, "example", "", "Example CSV (default from config)")
}

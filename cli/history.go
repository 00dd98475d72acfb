package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	historyLimit       int
	historyPredictions bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded training runs or predictions",
	Long: `Show the newest entries of the SQLite history database.

Example:
  vulnforest history
  vulnforest history --limit 5 --predictions`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if e.store == nil {
			return errors.New("history database is not configured")
		}
		out := cmd.OutOrStdout()
		if historyPredictions {
			logs, err := e.store.RecentPredictions(historyLimit)
			if err != nil {
				return err
			}
			printPredictionLog(out, logs)
			return nil
		}
		logs, err := e.store.LoadTrainingLog(historyLimit)
		if err != nil {
			return err
		}
		printTrainingLog(out, logs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Maximum number of entries (0 for all)")
	historyCmd.Flags().BoolVar(&historyPredictions, "predictions", false, "List predictions instead of training runs")
}

package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vulnforest/config"
	"vulnforest/db"
	"vulnforest/logging"
	"vulnforest/pipeline"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// Global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vulnforest",
	Short: "vulnforest - random forest vulnerability classifier",
	Long: `vulnforest trains a random forest on numeric code features and scores
new examples as vulnerable or safe.

Without a subcommand an interactive menu is shown.

Example:
  vulnforest
  vulnforest prepare --test-ratio 0.2
  vulnforest train --trees 100
  vulnforest predict --example example_features.csv
  vulnforest extract --input snippet.c
  vulnforest history --limit 5`,
	Version:      Version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		scanner := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		return runMenu(e, scanner, out, newANSITerminal(out, scanner))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// env carries the collaborators shared by the menu and subcommands.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *db.Store
	cache  *pipeline.ModelCache
}

func newEnv(cmd *cobra.Command) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	// An explicit --config must exist; the default path may be absent.
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadOrDefault(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	cache, err := pipeline.NewModelCache(cfg.Cache.Size, cfg.Cache.Watch, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("configuration loaded", zap.String("path", configPath))

	return &env{
		cfg:    cfg,
		logger: logger,
		store:  pipeline.OpenStore(cfg, logger),
		cache:  cache,
	}, nil
}

func (e *env) trainer() *pipeline.Trainer {
	return pipeline.NewTrainer(e.cfg, e.store, e.logger)
}

func (e *env) inference() *pipeline.Inference {
	return pipeline.NewInference(e.cfg, e.cache, e.store, e.logger)
}

func (e *env) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

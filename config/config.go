package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

var ErrConfig = errors.New("invalid config")

type Config struct {
	Data struct {
		RawPath      string  `yaml:"raw_path"`
		PositiveType string  `yaml:"positive_type"`
		TestRatio    float64 `yaml:"test_ratio"`
		TrainPath    string  `yaml:"train_path"`
		TestPath     string  `yaml:"test_path"`
		ExamplePath  string  `yaml:"example_path"`
		HasHeader    bool    `yaml:"has_header"`
		Delimiter    string  `yaml:"delimiter"`
		Encoding     string  `yaml:"encoding"`
	} `yaml:"data"`
	Model struct {
		Path        string `yaml:"path"`
		NumClasses  int    `yaml:"num_classes"`
		NumTrees    int    `yaml:"num_trees"`
		MinLeafSize int    `yaml:"min_leaf_size"`
		MaxFeatures int    `yaml:"max_features"`
		Seed        int64  `yaml:"seed"`
	} `yaml:"model"`
	Output struct {
		PredictionsPath string `yaml:"predictions_path"`
		ReportPath      string `yaml:"report_path"`
	} `yaml:"output"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Cache struct {
		Size  int  `yaml:"size"`
		Watch bool `yaml:"watch"`
	} `yaml:"cache"`
	Log Log `yaml:"log"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default mirrors the layout the original console tool expected.
func Default() *Config {
	cfg := &Config{}
	cfg.Data.RawPath = "csvs/code_vulnerabilities.csv"
	cfg.Data.PositiveType = "SQLi"
	cfg.Data.TestRatio = 0.2
	cfg.Data.TrainPath = "csvs/train_features.csv"
	cfg.Data.TestPath = "csvs/test_features.csv"
	cfg.Data.ExamplePath = "example_features.csv"
	cfg.Data.Delimiter = ","
	cfg.Data.Encoding = "utf-8"
	cfg.Model.Path = "model/rf_vuln_model.json"
	cfg.Model.NumClasses = 2
	cfg.Model.NumTrees = 50
	cfg.Model.MinLeafSize = 5
	cfg.Model.Seed = 42
	cfg.Output.PredictionsPath = "csvs/predictions.csv"
	cfg.Database.Path = "data/vulnforest.db"
	cfg.Cache.Size = 4
	cfg.Cache.Watch = true
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 10
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	return cfg
}

// Load reads path on top of Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfig, path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrDefault falls back to Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) Validate() error {
	if c.Model.NumClasses < 2 {
		return fmt.Errorf("%w: model.num_classes must be at least 2", ErrConfig)
	}
	if c.Model.NumTrees <= 0 {
		return fmt.Errorf("%w: model.num_trees must be positive", ErrConfig)
	}
	if c.Model.MinLeafSize <= 0 {
		return fmt.Errorf("%w: model.min_leaf_size must be positive", ErrConfig)
	}
	if c.Model.MaxFeatures < 0 {
		return fmt.Errorf("%w: model.max_features must not be negative", ErrConfig)
	}
	if c.Data.TestRatio <= 0 || c.Data.TestRatio >= 1 {
		return fmt.Errorf("%w: data.test_ratio must be inside (0, 1)", ErrConfig)
	}
	if len([]rune(c.Data.Delimiter)) > 1 {
		return fmt.Errorf("%w: data.delimiter must be a single character", ErrConfig)
	}
	return nil
}

// DelimiterRune returns the configured field separator, defaulting to a comma.
func (c *Config) DelimiterRune() rune {
	for _, r := range c.Data.Delimiter {
		return r
	}
	return ','
}

// Package config defines the evaluation run configuration: which datasets to evaluate, how
// to log progress, which evaluators to run and whether to render visualizations.
package config

import (
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Config is the root of a run configuration. Keys are upper case so that dotted override
// keys such as TEST.LOGGING_INTERVAL read the same as in the YAML file.
type Config struct {
	OutputDir     string              `yaml:"OUTPUT_DIR"`
	LogFile       string              `yaml:"LOG_FILE"`
	Datasets      DatasetsConfig      `yaml:"DATASETS"`
	Test          TestConfig          `yaml:"TEST"`
	Visualization VisualizationConfig `yaml:"VISUALIZATION"`
}

// DatasetsConfig names the registered datasets of each split.
type DatasetsConfig struct {
	Train []string `yaml:"TRAIN"`
	Test  []string `yaml:"TEST"`
}

// TestConfig configures the evaluation loop.
type TestConfig struct {
	LoggingInterval int      `yaml:"LOGGING_INTERVAL"`
	Evaluators      []string `yaml:"EVALUATORS"`
	BatchSize       int      `yaml:"BATCH_SIZE"`
}

// VisualizationConfig configures the per-image prediction overlays.
type VisualizationConfig struct {
	Show       bool    `yaml:"SHOW"`
	ConfThresh float64 `yaml:"CONF_THRESH"`
	Folder     string  `yaml:"FOLDER"`
	Scale      float64 `yaml:"SCALE"`
}

// Default returns the configuration every file and override list is applied on top of.
func Default() *Config {
	return &Config{
		OutputDir: "./output",
		Test: TestConfig{
			LoggingInterval: 50,
			Evaluators:      []string{"bbox_ap"},
			BatchSize:       1,
		},
		Visualization: VisualizationConfig{
			ConfThresh: 0.5,
			Folder:     "vis",
			Scale:      1.2,
		},
	}
}

// Validate returns an error naming the first invalid field.
func (cfg *Config) Validate() error {
	if cfg.OutputDir == "" {
		return utils.NewConfigValidationFieldRequiredError("", "OUTPUT_DIR")
	}
	if cfg.Test.LoggingInterval <= 0 {
		return utils.NewConfigValidationError("TEST", errors.New("LOGGING_INTERVAL must be positive"))
	}
	if cfg.Test.BatchSize <= 0 {
		return utils.NewConfigValidationError("TEST", errors.New("BATCH_SIZE must be positive"))
	}
	if len(cfg.Test.Evaluators) == 0 {
		return utils.NewConfigValidationFieldRequiredError("TEST", "EVALUATORS")
	}
	vis := cfg.Visualization
	if vis.ConfThresh < 0 || vis.ConfThresh > 1 {
		return utils.NewConfigValidationError("VISUALIZATION", errors.Errorf("CONF_THRESH must be in [0, 1], got %v", vis.ConfThresh))
	}
	if vis.Show {
		if vis.Folder == "" {
			return utils.NewConfigValidationFieldRequiredError("VISUALIZATION", "FOLDER")
		}
		if vis.Scale <= 0 {
			return utils.NewConfigValidationError("VISUALIZATION", errors.New("SCALE must be positive"))
		}
	}
	return nil
}

// VisualizationDir is where prediction overlays are written.
func (cfg *Config) VisualizationDir() string {
	return filepath.Join(cfg.OutputDir, cfg.Visualization.Folder)
}

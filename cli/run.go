package cli

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/evalkit/comm"
	"go.viam.com/evalkit/config"
	"go.viam.com/evalkit/data"
	"go.viam.com/evalkit/evaluation"
	"go.viam.com/evalkit/logging"
	"go.viam.com/evalkit/metadata"
	"go.viam.com/evalkit/registry"
	"go.viam.com/evalkit/vision/detection"
	"go.viam.com/evalkit/vision/visualize"
)

const (
	resultsFile     = "results.json"
	logMaxSizeMB    = 100
	logMaxBackups   = 3
	defaultDataName = "test"
)

// RunAction is the evalrun entry point. Trailing arguments are configuration overrides.
func RunAction(c *cli.Context) error {
	cfg, err := loadConfig(c.String(runFlagConfig), c.Args().Slice())
	if err != nil {
		return err
	}

	logger := logging.NewBlankLogger("evalrun")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	logger.SetLevel(logging.INFO)
	if c.Bool(runFlagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	if cfg.LogFile != "" {
		logFile := cfg.LogFile
		if !filepath.IsAbs(logFile) {
			logFile = filepath.Join(cfg.OutputDir, logFile)
		}
		fileAppender := logging.NewFileAppender(logFile, logMaxSizeMB, logMaxBackups)
		defer utils.UncheckedErrorFunc(fileAppender.Close)
		logger.AddAppender(fileAppender)
	}
	defer utils.UncheckedErrorFunc(logger.Sync)

	name := c.String(runFlagName)
	if name == "" {
		name = defaultDataName
		if len(cfg.Datasets.Test) > 0 {
			name = cfg.Datasets.Test[0]
		}
	}
	return run(c, cfg, name, logger)
}

func loadConfig(path string, overrides []string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.MergeFromList(overrides); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context, cfg *config.Config, name string, logger logging.Logger) error {
	ds, err := detection.LoadDataset(name, c.String(runFlagDataset))
	if err != nil {
		return err
	}
	meta, err := metadata.GetOrRegister(metadata.Metadata{Name: ds.Name, ThingClasses: ds.Classes})
	if err != nil {
		return err
	}

	predictions, err := detection.LoadPredictions(c.String(runFlagPredictions), ds)
	if err != nil {
		return err
	}
	commCtx, err := comm.FromEnv()
	if err != nil {
		return err
	}
	evaluator, err := registry.BuildEvaluators(cfg.Test.Evaluators, registry.EvaluatorDeps{
		Dataset: ds,
		Comm:    commCtx,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	batches, err := data.NewBatchLoader(ds.Inputs, cfg.Test.BatchSize)
	if err != nil {
		return err
	}

	params := evaluation.InferenceParams[[]detection.Input, []detection.Output]{
		Logger:          logger,
		Comm:            commCtx,
		LoggingInterval: cfg.Test.LoggingInterval,
		BatchLen:        func(inputs []detection.Input) int { return len(inputs) },
	}
	if cfg.Visualization.Show {
		hook, err := visualize.NewHook(
			cfg.Visualization, cfg.VisualizationDir(), visualizationMetadata(cfg, meta, logger), logger.Sublogger("visualize"))
		if err != nil {
			return err
		}
		params.Hooks = append(params.Hooks, hook)
	}

	logger.Infof("Evaluating %q with evaluators %v", ds.Name, cfg.Test.Evaluators)
	results, err := evaluation.InferenceOnDataset[[]detection.Input, []detection.Output](
		c.Context, detection.NewReplayModel(predictions), batches, evaluator, params)
	if err != nil {
		return errors.Wrapf(err, "cannot evaluate %q", ds.Name)
	}
	if !commCtx.IsMainProcess() {
		return nil
	}

	evaluation.LogCSVFormat(logger, results)
	fmt.Fprintln(c.App.Writer, evaluation.RenderTable(results))
	return evaluation.WriteJSON(filepath.Join(cfg.OutputDir, resultsFile), results)
}

// visualizationMetadata labels predictions with the metadata of the first training dataset, as
// the classes a model predicts are those it was trained on. It falls back to the evaluated
// dataset when no training dataset is configured or registered.
func visualizationMetadata(cfg *config.Config, evaluated *metadata.Metadata, logger logging.Logger) *metadata.Metadata {
	if len(cfg.Datasets.Train) == 0 {
		return evaluated
	}
	meta, err := metadata.Get(cfg.Datasets.Train[0])
	if err != nil {
		logger.Warnw("using the evaluated dataset for visualization labels", "error", err)
		return evaluated
	}
	logger.Infof("Visualizing with the metadata of %q", meta.Name)
	return meta
}

// Package cli contains the evalrun command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	runFlagConfig      = "config"
	runFlagDataset     = "dataset"
	runFlagName        = "name"
	runFlagPredictions = "predictions"
	runFlagDebug       = "debug"
)

var app = &cli.App{
	Name:            "evalrun",
	Usage:           "score recorded detection predictions against a COCO style dataset",
	UsageText:       "evalrun [options] [KEY VALUE]...",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    runFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load run configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:     runFlagDataset,
			Aliases:  []string{"d"},
			Required: true,
			Usage:    "COCO style annotation `FILE`",
		},
		&cli.StringFlag{
			Name:  runFlagName,
			Usage: "dataset name, defaults to the first of DATASETS.TEST",
		},
		&cli.StringFlag{
			Name:     runFlagPredictions,
			Aliases:  []string{"p"},
			Required: true,
			Usage:    "COCO results `FILE` with the predictions to score",
		},
		&cli.BoolFlag{
			Name:    runFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Action: RunAction,
}

// NewApp returns the evalrun application writing results to out and logs to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

package visualize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/evalkit/config"
	"go.viam.com/evalkit/logging"
	"go.viam.com/evalkit/metadata"
	"go.viam.com/evalkit/rimage"
	"go.viam.com/evalkit/vision/detection"
)

const maxConcurrentImages = 4

// NewHook returns a hook that renders the predictions above cfg.ConfThresh for every input of
// a batch into outputDir, named after the input file. When per-pixel uncertainty is present,
// the plain image and, for every kept instance k, the mask and its uncertainty are also saved
// as <file>_img.jpg, <file>_<k>_mean.jpg and <file>_<k>_std.jpg.
func NewHook(
	cfg config.VisualizationConfig,
	outputDir string,
	meta *metadata.Metadata,
	logger logging.Logger,
) (detection.Hook, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create visualization directory %q", outputDir)
	}
	return func(ctx context.Context, idx int, inputs []detection.Input, outputs []detection.Output) error {
		if len(inputs) != len(outputs) {
			return errors.Errorf("got %d outputs for %d inputs", len(outputs), len(inputs))
		}
		logger.Debugf("visualizing batch %d", idx)
		if err := ctx.Err(); err != nil {
			return err
		}
		errs, ctx := errgroup.WithContext(ctx)
		errs.SetLimit(maxConcurrentImages)
		for i, in := range inputs {
			errs.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := visualizeOne(cfg, outputDir, meta, in, outputs[i].Instances); err != nil {
					return errors.Wrapf(err, "cannot visualize %q", in.FileName)
				}
				return nil
			})
		}
		return errs.Wait()
	}, nil
}

func visualizeOne(
	cfg config.VisualizationConfig,
	outputDir string,
	meta *metadata.Metadata,
	in detection.Input,
	inst *detection.Instances,
) error {
	img, err := rimage.ReadImageFromFile(in.FileName)
	if err != nil {
		return err
	}
	if inst == nil {
		inst = detection.NewInstances(img.Bounds().Dx(), img.Bounds().Dy())
	}
	keep := inst.ScoreAbove(cfg.ConfThresh)
	result := inst.Select(keep)

	drawn, err := NewVisualizer(img, meta, cfg.Scale).DrawInstancePredictions(result)
	if err != nil {
		return err
	}
	fileName := filepath.Base(in.FileName)
	prefix := filepath.Join(outputDir, fileName)
	if err := rimage.WriteImageToFile(prefix, drawn); err != nil {
		return err
	}

	if !result.HasUncertainty() {
		return nil
	}
	if err := SaveImagePlot(prefix+"_img.jpg", img); err != nil {
		return err
	}
	for k := range keep {
		if result.HasMasks() {
			if err := SaveMatrixPlot(fmt.Sprintf("%s_%d_mean.jpg", prefix, k), result.Masks[k]); err != nil {
				return err
			}
		}
		if err := SaveMatrixPlot(fmt.Sprintf("%s_%d_std.jpg", prefix, k), result.Uncertainty[k]); err != nil {
			return err
		}
	}
	return nil
}

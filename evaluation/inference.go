package evaluation

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/evalkit/comm"
	"go.viam.com/evalkit/data"
	"go.viam.com/evalkit/logging"
)

// DefaultLoggingInterval is the number of iterations between two progress lines.
const DefaultLoggingInterval = 50

// Hook runs after the evaluator has processed batch idx. Rendering visualizations is a hook.
type Hook[I, O any] func(ctx context.Context, idx int, inputs I, outputs O) error

// InferenceParams configures InferenceOnDataset. Zero fields take defaults.
type InferenceParams[I, O any] struct {
	Logger logging.Logger
	// Comm reports the device count. Defaults to a local, single device run.
	Comm comm.Context
	// DeviceSync is awaited after every model call so compute time covers asynchronous work.
	DeviceSync comm.DeviceSync
	Clock      clock.Clock
	// LoggingInterval defaults to DefaultLoggingInterval.
	LoggingInterval int
	// BatchLen is the number of images in a batch. Defaults to one image per batch.
	BatchLen func(I) int
	Hooks    []Hook[I, O]
}

func (p InferenceParams[I, O]) withDefaults() InferenceParams[I, O] {
	if p.Logger == nil {
		p.Logger = logging.Global()
	}
	if p.Comm == nil {
		p.Comm = comm.Local()
	}
	if p.DeviceSync == nil {
		p.DeviceSync = comm.NoopSync
	}
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.LoggingInterval <= 0 {
		p.LoggingInterval = DefaultLoggingInterval
	}
	if p.BatchLen == nil {
		p.BatchLen = func(I) int { return 1 }
	}
	return p
}

// InferenceOnDataset runs model on every batch of loader and evaluates the outputs with
// evaluator. The model is held in inference mode for the duration of the loop and its previous
// mode is restored afterwards, whether or not the loop fails.
//
// The first min(5, LoggingInterval-1, loader.Len()-1) iterations are warm-up and do not count
// towards the reported rates. Image counts come from data.NumItems and BatchLen. An absent result
// from the evaluator is returned as empty Results.
func InferenceOnDataset[I, O any](
	ctx context.Context,
	model Model[I, O],
	loader data.Loader[I],
	evaluator Evaluator[I, O],
	params InferenceParams[I, O],
) (*Results, error) {
	ctx, span := trace.StartSpan(ctx, "evaluation::InferenceOnDataset")
	defer span.End()

	params = params.withDefaults()
	logger := params.Logger
	numDevices := params.Comm.WorldSize()
	total := loader.Len()
	totalImages := data.NumItems(loader)
	logger.Infof("Start inference on %d images", totalImages)

	evaluator.Reset()

	timer := newRoundTimer(params.Clock, params.LoggingInterval, total, totalImages)
	err := InferenceContext(model, func() error {
		idx := 0
		for inputs := range loader.All() {
			if err := ctx.Err(); err != nil {
				return err
			}
			timer.beginIteration(idx)

			var outputs O
			if err := timer.timeCompute(func() error {
				var err error
				if outputs, err = model.Forward(ctx, inputs); err != nil {
					return err
				}
				return params.DeviceSync.Synchronize(ctx)
			}); err != nil {
				return errors.Wrapf(err, "inference failed on batch %d", idx)
			}

			if err := evaluator.Process(ctx, inputs, outputs); err != nil {
				return errors.Wrapf(err, "evaluator failed on batch %d", idx)
			}
			for _, hook := range params.Hooks {
				if err := hook(ctx, idx, inputs, outputs); err != nil {
					return errors.Wrapf(err, "post-process hook failed on batch %d", idx)
				}
			}

			timer.endIteration(params.BatchLen(inputs))
			if (idx+1)%params.LoggingInterval == 0 {
				secondsPerImg, eta := timer.progress()
				logger.Infof("Inference done %d/%d. %.4f s / img. ETA=%s",
					timer.images, totalImages, secondsPerImg, formatTimedelta(eta))
			}
			idx++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Measure the time only for this worker.
	reportTotals(logger, timer, numDevices)

	results, err := evaluator.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	// Workers other than the main process may return nothing.
	if results == nil {
		results = NewResults()
	}
	return results, nil
}

// reportTotals logs the wall and pure compute time of the round. The format is parsed by grep.
func reportTotals(logger logging.Logger, timer *roundTimer, numDevices int) {
	if timer.total == 0 {
		logger.Warn("No inputs were given, skipping the inference time report")
		return
	}
	// Rates are per worker, and a worker drives one device.
	steady := float64(timer.steadyImages())
	totalTime := timer.elapsed()
	logger.Infof(
		"Total inference time: %s (%.6f s / img per device, on %d devices)",
		formatTimedelta(totalTime), totalTime.Seconds()/steady, numDevices,
	)
	logger.Infof(
		"Total inference pure compute time: %s (%.6f s / img per device, on %d devices)",
		formatTimedelta(timer.totalCompute), timer.totalCompute.Seconds()/steady, numDevices,
	)

	if len(timer.latencies) == 0 {
		return
	}
	p50, err := stats.PercentileNearestRank(timer.latencies, 50)
	if err != nil {
		return
	}
	p90, err := stats.PercentileNearestRank(timer.latencies, 90)
	if err != nil {
		return
	}
	logger.Debugw("compute latency per batch", "p50_seconds", p50, "p90_seconds", p90, "batches", len(timer.latencies))
}

package detection

import (
	"context"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/evalkit/evaluation"
)

// InstancesTask is the task name InstanceStatsEvaluator reports under.
const InstancesTask = "instances"

// InstanceStatsEvaluator summarizes the predictions themselves: how many there are and how
// confident the model is.
type InstanceStatsEvaluator struct {
	isMainProcess func() bool

	images int
	scores []float64
}

// NewInstanceStatsEvaluator returns an evaluator reporting only on the main process; a nil
// isMainProcess means a single process run.
func NewInstanceStatsEvaluator(isMainProcess func() bool) *InstanceStatsEvaluator {
	if isMainProcess == nil {
		isMainProcess = func() bool { return true }
	}
	return &InstanceStatsEvaluator{isMainProcess: isMainProcess}
}

// Reset drops everything processed so far.
func (ev *InstanceStatsEvaluator) Reset() {
	ev.images = 0
	ev.scores = nil
}

// Process records the scores of every output.
func (ev *InstanceStatsEvaluator) Process(ctx context.Context, inputs []Input, outputs []Output) error {
	if len(inputs) != len(outputs) {
		return errors.Errorf("got %d outputs for %d inputs", len(outputs), len(inputs))
	}
	for _, out := range outputs {
		ev.images++
		if out.Instances != nil {
			ev.scores = append(ev.scores, out.Instances.Scores...)
		}
	}
	return nil
}

// Evaluate reports count and per_image, plus score_mean, score_median and score_p90 when
// there is at least one instance.
func (ev *InstanceStatsEvaluator) Evaluate(ctx context.Context) (*evaluation.Results, error) {
	if !ev.isMainProcess() {
		return nil, nil
	}
	metrics := evaluation.Metrics{{Name: "count", Score: float64(len(ev.scores))}}
	if ev.images > 0 {
		metrics = append(metrics, evaluation.Metric{Name: "per_image", Score: float64(len(ev.scores)) / float64(ev.images)})
	}
	if len(ev.scores) > 0 {
		data := stats.Float64Data(ev.scores)
		mean, err := data.Mean()
		if err != nil {
			return nil, err
		}
		median, err := data.Median()
		if err != nil {
			return nil, err
		}
		p90, err := data.PercentileNearestRank(90)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics,
			evaluation.Metric{Name: "score_mean", Score: mean},
			evaluation.Metric{Name: "score_median", Score: median},
			evaluation.Metric{Name: "score_p90", Score: p90},
		)
	}
	results := evaluation.NewResults()
	if err := results.Add(InstancesTask, metrics); err != nil {
		return nil, err
	}
	return results, nil
}

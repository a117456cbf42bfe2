package registry

import (
	"github.com/pkg/errors"

	"go.viam.com/evalkit/vision/detection"
)

// Built-in evaluator names.
const (
	BBoxAP        = "bbox_ap"
	InstanceStats = "instance_stats"
)

func isMainProcess(deps EvaluatorDeps) func() bool {
	if deps.Comm == nil {
		return nil
	}
	return deps.Comm.IsMainProcess
}

func init() {
	RegisterEvaluator(BBoxAP, Evaluator{
		Constructor: func(deps EvaluatorDeps) (detection.Evaluator, error) {
			if deps.Dataset == nil {
				return nil, errors.New("box AP needs a dataset for its class names")
			}
			if deps.Logger == nil {
				return nil, errors.New("box AP needs a logger")
			}
			return detection.NewAPEvaluator(deps.Dataset.Classes, isMainProcess(deps), deps.Logger.Sublogger(BBoxAP)), nil
		},
	})
	RegisterEvaluator(InstanceStats, Evaluator{
		Constructor: func(deps EvaluatorDeps) (detection.Evaluator, error) {
			return detection.NewInstanceStatsEvaluator(isMainProcess(deps)), nil
		},
	})
}

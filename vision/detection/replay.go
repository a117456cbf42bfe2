package detection

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/evalkit/evaluation"
)

// ReplayModel serves recorded predictions instead of running a network. It is the model used
// to score a results file offline.
type ReplayModel struct {
	evaluation.ModeFlag
	predictions map[int]*Instances
}

// NewReplayModel returns a model answering from predictions, keyed by image id. The model
// starts in inference mode.
func NewReplayModel(predictions map[int]*Instances) *ReplayModel {
	return &ReplayModel{predictions: predictions}
}

// Forward returns the recorded instances of every input. Images without a recording get empty
// instances of the input size.
func (m *ReplayModel) Forward(ctx context.Context, inputs []Input) ([]Output, error) {
	if m.Training() {
		return nil, errors.New("replayed predictions can only be served in inference mode")
	}
	outputs := make([]Output, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inst, ok := m.predictions[in.ImageID]
		if !ok {
			inst = NewInstances(in.Width, in.Height)
		}
		if err := inst.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid predictions for image %d", in.ImageID)
		}
		outputs = append(outputs, Output{Instances: inst})
	}
	return outputs, nil
}

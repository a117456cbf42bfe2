package inject

import (
	"context"

	"go.viam.com/evalkit/evaluation"
)

// Evaluator is an injected evaluator. Calls without an injected function are no-ops that
// report nil results.
type Evaluator[I, O any] struct {
	ResetFunc    func()
	ProcessFunc  func(ctx context.Context, inputs I, outputs O) error
	EvaluateFunc func(ctx context.Context) (*evaluation.Results, error)

	ResetCalls    int
	ProcessCalls  int
	EvaluateCalls int
}

// Reset calls the injected Reset.
func (e *Evaluator[I, O]) Reset() {
	e.ResetCalls++
	if e.ResetFunc != nil {
		e.ResetFunc()
	}
}

// Process calls the injected Process.
func (e *Evaluator[I, O]) Process(ctx context.Context, inputs I, outputs O) error {
	e.ProcessCalls++
	if e.ProcessFunc == nil {
		return nil
	}
	return e.ProcessFunc(ctx, inputs, outputs)
}

// Evaluate calls the injected Evaluate.
func (e *Evaluator[I, O]) Evaluate(ctx context.Context) (*evaluation.Results, error) {
	e.EvaluateCalls++
	if e.EvaluateFunc == nil {
		return nil, nil
	}
	return e.EvaluateFunc(ctx)
}

// StaticResults returns an EvaluateFunc reporting a single task.
func StaticResults(task string, metrics evaluation.Metrics) func(context.Context) (*evaluation.Results, error) {
	return func(context.Context) (*evaluation.Results, error) {
		res := evaluation.NewResults()
		if err := res.Add(task, metrics); err != nil {
			return nil, err
		}
		return res, nil
	}
}

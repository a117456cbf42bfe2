package evaluation

import (
	"context"

	"go.opencensus.io/trace"
)

// Evaluators fans every call out to an ordered list of child evaluators and merges their results.
type Evaluators[I, O any] struct {
	evaluators    []Evaluator[I, O]
	isMainProcess func() bool
}

// NewEvaluators composes evaluators. isMainProcess gates result merging in a multi-process run;
// nil means a single-process run. An empty list is rejected.
func NewEvaluators[I, O any](isMainProcess func() bool, evaluators ...Evaluator[I, O]) (*Evaluators[I, O], error) {
	if len(evaluators) == 0 {
		return nil, ErrNoEvaluators
	}
	if isMainProcess == nil {
		isMainProcess = func() bool { return true }
	}
	return &Evaluators[I, O]{evaluators: evaluators, isMainProcess: isMainProcess}, nil
}

// Reset resets every child.
func (e *Evaluators[I, O]) Reset() {
	for _, evaluator := range e.evaluators {
		evaluator.Reset()
	}
}

// Process forwards the pair to every child, stopping at the first error.
func (e *Evaluators[I, O]) Process(ctx context.Context, inputs I, outputs O) error {
	for _, evaluator := range e.evaluators {
		if err := evaluator.Process(ctx, inputs, outputs); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate asks every child to evaluate. On the main process their results are merged in
// order; a task reported by two children fails with ErrDuplicateTask. Other processes get
// empty results.
func (e *Evaluators[I, O]) Evaluate(ctx context.Context) (*Results, error) {
	ctx, span := trace.StartSpan(ctx, "evaluation::Evaluators::Evaluate")
	defer span.End()

	results := NewResults()
	for _, evaluator := range e.evaluators {
		res, err := evaluator.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		if !e.isMainProcess() {
			continue
		}
		for _, task := range res.Tasks() {
			metrics, _ := res.Get(task)
			if err := results.Add(task, metrics); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

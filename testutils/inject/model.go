// Package inject provides injectable fakes of the evaluation interfaces.
package inject

import (
	"context"
	"sync"

	"go.viam.com/evalkit/evaluation"
)

// Model is an injected model. It records every mode change it receives.
type Model[I, O any] struct {
	evaluation.ModeFlag
	ForwardFunc func(ctx context.Context, inputs I) (O, error)

	mu          sync.Mutex
	transitions []bool
	calls       int
}

// NewModel returns a model starting in the given mode.
func NewModel[I, O any](training bool) *Model[I, O] {
	m := &Model[I, O]{}
	m.ModeFlag.Train(training)
	return m
}

// Forward calls the injected Forward or returns the zero output.
func (m *Model[I, O]) Forward(ctx context.Context, inputs I) (O, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ForwardFunc == nil {
		var zero O
		return zero, nil
	}
	return m.ForwardFunc(ctx, inputs)
}

// Eval records the switch to inference mode.
func (m *Model[I, O]) Eval() {
	m.record(false)
	m.ModeFlag.Eval()
}

// Train records the mode change.
func (m *Model[I, O]) Train(mode bool) {
	m.record(mode)
	m.ModeFlag.Train(mode)
}

// Transitions returns the modes set through Eval and Train, in order.
func (m *Model[I, O]) Transitions() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.transitions...)
}

// ForwardCalls returns the number of Forward calls.
func (m *Model[I, O]) ForwardCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Model[I, O]) record(mode bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, mode)
}

package evaluation

import (
	"context"
	"sync/atomic"
)

// Module is a stateful model with a training/inference mode flag.
type Module interface {
	// Training reports whether the module is in training mode.
	Training() bool
	// Eval switches the module to inference mode.
	Eval()
	// Train sets the training flag to mode.
	Train(mode bool)
}

// Model is a Module that turns an input batch into an output batch.
type Model[I, O any] interface {
	Module
	Forward(ctx context.Context, inputs I) (O, error)
}

// ModeFlag is an embeddable Module implementation. The zero value is in inference mode.
type ModeFlag struct {
	training atomic.Bool
}

// Training reports whether the flag is in training mode.
func (m *ModeFlag) Training() bool {
	return m.training.Load()
}

// Eval switches to inference mode.
func (m *ModeFlag) Eval() {
	m.training.Store(false)
}

// Train sets the training flag.
func (m *ModeFlag) Train(mode bool) {
	m.training.Store(mode)
}

// InferenceContext runs fn with m switched to inference mode, then restores the previous mode.
// The mode is restored however fn exits, including by panic.
func InferenceContext(m Module, fn func() error) error {
	trainingMode := m.Training()
	m.Eval()
	defer m.Train(trainingMode)
	return fn()
}

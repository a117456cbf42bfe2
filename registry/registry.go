// Package registry operates the global registry of evaluator factories. Evaluators named in a
// run configuration are looked up here.
package registry

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/evalkit/comm"
	"go.viam.com/evalkit/evaluation"
	"go.viam.com/evalkit/logging"
	"go.viam.com/evalkit/vision/detection"
)

// EvaluatorDeps are what a factory may build an evaluator from.
type EvaluatorDeps struct {
	Dataset *detection.Dataset
	Comm    comm.Context
	Logger  logging.Logger
}

// A CreateEvaluator creates an evaluator for a dataset.
type CreateEvaluator func(deps EvaluatorDeps) (detection.Evaluator, error)

// Evaluator stores an evaluator constructor (mandatory) and where it was registered.
type Evaluator struct {
	RegistrarLoc string
	Constructor  CreateEvaluator
}

var (
	mu                sync.RWMutex
	evaluatorRegistry = map[string]Evaluator{}
)

// RegisterEvaluator registers an evaluator factory under name. Registering a name twice or a
// nil constructor panics.
func RegisterEvaluator(name string, creator Evaluator) {
	creator.RegistrarLoc = getCallerName()
	mu.Lock()
	defer mu.Unlock()
	if old, ok := evaluatorRegistry[name]; ok {
		panic(errors.Errorf("trying to register two evaluators with the same name: %s (first registered at %s)", name, old.RegistrarLoc))
	}
	if creator.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for evaluator: %s", name))
	}
	evaluatorRegistry[name] = creator
}

// DeregisterEvaluator removes a registration. It is meant for tests.
func DeregisterEvaluator(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(evaluatorRegistry, name)
}

// EvaluatorLookup looks up an evaluator registration by name. nil is returned if there is no
// registration.
func EvaluatorLookup(name string) *Evaluator {
	mu.RLock()
	defer mu.RUnlock()
	registration, ok := evaluatorRegistry[name]
	if !ok {
		return nil
	}
	return &registration
}

// RegisteredEvaluators returns the registered names in order.
func RegisteredEvaluators() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := lo.Keys(evaluatorRegistry)
	sort.Strings(names)
	return names
}

// BuildEvaluators builds every named evaluator and combines them into a single one.
func BuildEvaluators(names []string, deps EvaluatorDeps) (*evaluation.Evaluators[[]detection.Input, []detection.Output], error) {
	if dup := lo.FindDuplicates(names); len(dup) > 0 {
		return nil, errors.Errorf("evaluators listed more than once: %v", dup)
	}
	evaluators := make([]detection.Evaluator, 0, len(names))
	for _, name := range names {
		registration := EvaluatorLookup(name)
		if registration == nil {
			return nil, errors.Errorf("unknown evaluator %q, registered: %v", name, RegisteredEvaluators())
		}
		ev, err := registration.Constructor(deps)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot build evaluator %q", name)
		}
		evaluators = append(evaluators, ev)
	}
	return evaluation.NewEvaluators(isMainProcess(deps), evaluators...)
}

func getCallerName() string {
	pc, _, line, ok := runtime.Caller(2)
	details := runtime.FuncForPC(pc)
	if ok && details != nil {
		return fmt.Sprintf("%s:%d", details.Name(), line)
	}
	return "unknown"
}

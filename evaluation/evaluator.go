// Package evaluation runs a model over a dataset and summarizes its outputs with evaluators.
//
// An Evaluator accumulates (input, output) pairs with Process and produces Results with
// Evaluate. InferenceOnDataset drives one evaluation round: it resets the evaluator, feeds it
// every batch the model produces, logs throughput and returns the evaluator's summary.
package evaluation

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	// ErrNoEvaluators is returned when a composite evaluator is built from an empty list.
	ErrNoEvaluators = errors.New("at least one evaluator is required")
	// ErrDuplicateTask is returned when two evaluators report results for the same task.
	ErrDuplicateTask = errors.New("different evaluators produce results with the same key")
)

// Evaluator accumulates model inputs/outputs over a round and summarizes them.
type Evaluator[I, O any] interface {
	// Reset prepares a new round. It is called before any Process call and is idempotent.
	Reset()
	// Process consumes one input batch and the model's output for it.
	Process(ctx context.Context, inputs I, outputs O) error
	// Evaluate summarizes the round after every Process call. Workers that are not the main
	// process may return nil results.
	Evaluate(ctx context.Context) (*Results, error)
}

// Metric is one named score.
type Metric struct {
	Name  string
	Score float64
}

// Metrics is an ordered list of scores for a single task.
type Metrics []Metric

// Get returns the score of the named metric.
func (m Metrics) Get(name string) (float64, bool) {
	for _, metric := range m {
		if metric.Name == name {
			return metric.Score, true
		}
	}
	return 0, false
}

// Names returns the metric names in order.
func (m Metrics) Names() []string {
	names := make([]string, 0, len(m))
	for _, metric := range m {
		names = append(names, metric.Name)
	}
	return names
}

// MarshalJSON encodes the metrics as an object, keeping their order.
func (m Metrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, metric := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKeyValue(&buf, metric.Name, metric.Score); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Results maps a task name (e.g. "bbox") to its metrics, in insertion order.
type Results struct {
	tasks   []string
	metrics map[string]Metrics
}

// NewResults returns an empty Results.
func NewResults() *Results {
	return &Results{metrics: map[string]Metrics{}}
}

// Add records the metrics of a task. A task can only be added once.
func (r *Results) Add(task string, metrics Metrics) error {
	if _, ok := r.metrics[task]; ok {
		return errors.Wrapf(ErrDuplicateTask, "%q", task)
	}
	r.tasks = append(r.tasks, task)
	r.metrics[task] = append(Metrics(nil), metrics...)
	return nil
}

// Len returns the number of tasks.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tasks)
}

// Tasks returns the task names in insertion order.
func (r *Results) Tasks() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.tasks...)
}

// Get returns a copy of the metrics of a task.
func (r *Results) Get(task string) (Metrics, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.metrics[task]
	if !ok {
		return nil, false
	}
	return append(Metrics(nil), m...), true
}

// AsMap flattens the results into nested maps. Ordering is lost.
func (r *Results) AsMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, r.Len())
	for _, task := range r.Tasks() {
		scores := make(map[string]float64, len(r.metrics[task]))
		for _, metric := range r.metrics[task] {
			scores[metric.Name] = metric.Score
		}
		out[task] = scores
	}
	return out
}

// MarshalJSON encodes the results as nested objects, keeping task and metric order.
func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, task := range r.Tasks() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKeyValue(&buf, task, r.metrics[task]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONKeyValue(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "cannot encode %q", key)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

package registry

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/evalkit/comm"
	"go.viam.com/evalkit/evaluation"
	"go.viam.com/evalkit/logging"
	"go.viam.com/evalkit/testutils/inject"
	"go.viam.com/evalkit/vision/detection"
)

func TestRegistry(t *testing.T) {
	ef := func(deps EvaluatorDeps) (detection.Evaluator, error) {
		return &inject.Evaluator[[]detection.Input, []detection.Output]{}, nil
	}
	RegisterEvaluator("x", Evaluator{Constructor: ef})
	defer DeregisterEvaluator("x")

	test.That(t, func() { RegisterEvaluator("x", Evaluator{Constructor: ef}) }, test.ShouldPanic)
	test.That(t, func() { RegisterEvaluator("y", Evaluator{}) }, test.ShouldPanic)

	reg := EvaluatorLookup("x")
	test.That(t, reg, test.ShouldNotBeNil)
	test.That(t, reg.Constructor, test.ShouldNotBeNil)
	test.That(t, reg.RegistrarLoc, test.ShouldContainSubstring, "TestRegistry")
	test.That(t, EvaluatorLookup("y"), test.ShouldBeNil)

	test.That(t, RegisteredEvaluators(), test.ShouldResemble, []string{BBoxAP, InstanceStats, "x"})
}

func TestBuildEvaluators(t *testing.T) {
	ctx := context.Background()
	deps := EvaluatorDeps{
		Dataset: &detection.Dataset{Name: "pets", Classes: []string{"cat"}},
		Comm:    comm.Local(),
		Logger:  logging.NewTestLogger(t),
	}
	evaluators, err := BuildEvaluators([]string{BBoxAP, InstanceStats}, deps)
	test.That(t, err, test.ShouldBeNil)

	evaluators.Reset()
	inputs := []detection.Input{{ImageID: 1, Annotations: []detection.Annotation{{Box: detection.Box{X1: 4, Y1: 4}}}}}
	preds := detection.NewInstances(8, 8)
	preds.Boxes = []detection.Box{{X1: 4, Y1: 4}}
	preds.Scores = []float64{0.9}
	preds.Classes = []int{0}
	test.That(t, evaluators.Process(ctx, inputs, []detection.Output{{Instances: preds}}), test.ShouldBeNil)

	res, err := evaluators.Evaluate(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Tasks(), test.ShouldResemble, []string{detection.BBoxTask, detection.InstancesTask})
	bbox, _ := res.Get(detection.BBoxTask)
	ap, _ := bbox.Get("AP")
	test.That(t, ap, test.ShouldAlmostEqual, 100)

	_, err = BuildEvaluators([]string{"nope"}, deps)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown evaluator "nope"`)

	_, err = BuildEvaluators([]string{InstanceStats, InstanceStats}, deps)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = BuildEvaluators([]string{BBoxAP}, EvaluatorDeps{Logger: deps.Logger})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "needs a dataset")

	_, err = BuildEvaluators(nil, deps)
	test.That(t, err, test.ShouldEqual, evaluation.ErrNoEvaluators)
}

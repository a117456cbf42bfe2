package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/evalkit/metadata"
	"go.viam.com/evalkit/rimage"
)

const (
	testAnnotations = `{
  "images": [
    {"id": 1, "file_name": "a.png", "width": 20, "height": 20},
    {"id": 2, "file_name": "b.png", "width": 20, "height": 20}
  ],
  "categories": [{"id": 1, "name": "cat"}],
  "annotations": [
    {"image_id": 1, "category_id": 1, "bbox": [2, 2, 8, 8]},
    {"image_id": 2, "category_id": 1, "bbox": [4, 4, 10, 10]}
  ]
}`
	testPredictions = `[
  {"image_id": 1, "category_id": 1, "bbox": [2, 2, 8, 8], "score": 0.9},
  {"image_id": 2, "category_id": 1, "bbox": [4, 4, 10, 10], "score": 0.8}
]`
)

func writeTestFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	annotations := filepath.Join(dir, "instances.json")
	predictions := filepath.Join(dir, "results.json")
	test.That(t, os.WriteFile(annotations, []byte(testAnnotations), 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(predictions, []byte(testPredictions), 0o600), test.ShouldBeNil)
	for _, name := range []string{"a.png", "b.png"} {
		img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
		img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
		test.That(t, rimage.WriteImageToFile(filepath.Join(dir, name), img), test.ShouldBeNil)
	}
	return annotations, predictions
}

func TestRunAction(t *testing.T) {
	annotations, predictions := writeTestFiles(t)
	outputDir := filepath.Join(t.TempDir(), "run")
	var out, errOut bytes.Buffer

	err := NewApp(&out, &errOut).Run([]string{
		"evalrun", "--dataset", annotations, "--predictions", predictions, "--name", "pets_val",
		"OUTPUT_DIR", outputDir,
		"LOG_FILE", "log.txt",
		"TEST.EVALUATORS", "[bbox_ap, instance_stats]",
		"VISUALIZATION.SHOW", "true",
	})
	test.That(t, err, test.ShouldBeNil)

	logs := errOut.String()
	test.That(t, logs, test.ShouldContainSubstring, "Start inference on 2 images")
	test.That(t, logs, test.ShouldContainSubstring, "Total inference time: 0:00:00")
	test.That(t, logs, test.ShouldContainSubstring, "copypaste: Task: bbox")
	test.That(t, logs, test.ShouldContainSubstring, "copypaste: AP,AP50,AP75,AP-cat")
	test.That(t, logs, test.ShouldContainSubstring, "copypaste: 100.0000,100.0000,100.0000,100.0000")
	test.That(t, out.String(), test.ShouldContainSubstring, "instances")

	raw, err := os.ReadFile(filepath.Join(outputDir, resultsFile))
	test.That(t, err, test.ShouldBeNil)
	var results map[string]map[string]float64
	test.That(t, json.Unmarshal(raw, &results), test.ShouldBeNil)
	test.That(t, results["bbox"]["AP"], test.ShouldAlmostEqual, 100)
	test.That(t, results["instances"]["count"], test.ShouldEqual, 2)

	for _, name := range []string{"log.txt", "vis/a.png", "vis/b.png"} {
		_, err := os.Stat(filepath.Join(outputDir, name))
		test.That(t, err, test.ShouldBeNil)
	}
}

func TestRunActionBatches(t *testing.T) {
	annotations, predictions := writeTestFiles(t)
	var out, errOut bytes.Buffer

	err := NewApp(&out, &errOut).Run([]string{
		"evalrun", "--dataset", annotations, "--predictions", predictions, "--name", "pets_batched",
		"OUTPUT_DIR", t.TempDir(),
		"TEST.BATCH_SIZE", "2",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut.String(), test.ShouldContainSubstring, "Start inference on 2 images")
	test.That(t, errOut.String(), test.ShouldContainSubstring, "copypaste: 100.0000,100.0000,100.0000,100.0000")
}

func TestRunActionVisualizationMetadata(t *testing.T) {
	annotations, predictions := writeTestFiles(t)
	test.That(t, metadata.Register(metadata.Metadata{Name: "pets_train", ThingClasses: []string{"kitty"}}), test.ShouldBeNil)
	app := func(train string) string {
		var out, errOut bytes.Buffer
		err := NewApp(&out, &errOut).Run([]string{
			"evalrun", "--dataset", annotations, "--predictions", predictions, "--name", "pets_eval",
			"OUTPUT_DIR", t.TempDir(),
			"DATASETS.TRAIN", train,
			"VISUALIZATION.SHOW", "true",
		})
		test.That(t, err, test.ShouldBeNil)
		return errOut.String()
	}

	logs := app("[pets_train]")
	test.That(t, logs, test.ShouldContainSubstring, `Visualizing with the metadata of "pets_train"`)

	// the evaluated dataset is registered by the run
	md, err := metadata.Get("pets_eval")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, md.ThingClasses, test.ShouldResemble, []string{"cat"})

	logs = app("[pets_eval]")
	test.That(t, logs, test.ShouldContainSubstring, `Visualizing with the metadata of "pets_eval"`)

	logs = app("[pets_unknown]")
	test.That(t, logs, test.ShouldContainSubstring, "using the evaluated dataset for visualization labels")
	test.That(t, logs, test.ShouldNotContainSubstring, "Visualizing with the metadata")
}

func TestRunActionErrors(t *testing.T) {
	annotations, predictions := writeTestFiles(t)
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)

	err := app.Run([]string{"evalrun", "--dataset", annotations, "--predictions", predictions, "TEST.NOPE", "1"})
	test.That(t, err, test.ShouldBeError, "non-existent config key: TEST.NOPE")

	err = app.Run([]string{"evalrun", "--dataset", annotations, "--predictions", predictions, "TEST.EVALUATORS", "[segm]",
		"OUTPUT_DIR", t.TempDir()})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown evaluator "segm"`)

	err = app.Run([]string{"evalrun", "--dataset", filepath.Join(t.TempDir(), "missing.json"), "--predictions", predictions})
	test.That(t, err, test.ShouldNotBeNil)

	cfgPath := filepath.Join(t.TempDir(), "run.yaml")
	test.That(t, os.WriteFile(cfgPath, []byte("TEST:\n  BATCH_SIZE: 0\n"), 0o600), test.ShouldBeNil)
	err = app.Run([]string{"evalrun", "-c", cfgPath, "--dataset", annotations, "--predictions", predictions})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "BATCH_SIZE must be positive")
}

// Package detection holds the instance detection domain: per-image inputs and predictions,
// COCO style datasets, a replay model and the evaluators that score detections.
package detection

import (
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/evalkit/evaluation"
)

// Annotation is a single ground-truth object.
type Annotation struct {
	Box   Box
	Class int
}

// Input describes one image of a dataset.
type Input struct {
	FileName    string
	ImageID     int
	Width       int
	Height      int
	Annotations []Annotation
}

// Output is the model prediction for one Input.
type Output struct {
	Instances *Instances
}

type (
	// Model is a model over batches of detection inputs.
	Model = evaluation.Model[[]Input, []Output]
	// Evaluator scores batches of detection outputs.
	Evaluator = evaluation.Evaluator[[]Input, []Output]
	// Hook runs after every evaluated detection batch.
	Hook = evaluation.Hook[[]Input, []Output]
)

// Instances are the detections of a single image. Boxes, Scores and Classes are parallel;
// the optional fields are either nil or parallel to them too.
type Instances struct {
	// ImageSize is (width, height).
	ImageSize image.Point
	Boxes     []Box
	Scores    []float64
	Classes   []int

	// Masks hold per-pixel foreground probabilities, one height x width matrix per instance.
	Masks []*mat.Dense
	// BoxUncertainty is the standard deviation of each box coordinate (x0, y0, x1, y1).
	BoxUncertainty [][4]float64
	// Uncertainty holds per-pixel standard deviations of the masks.
	Uncertainty []*mat.Dense
}

// NewInstances returns empty instances for an image of the given size.
func NewInstances(width, height int) *Instances {
	return &Instances{ImageSize: image.Pt(width, height)}
}

// Len returns the number of instances.
func (in *Instances) Len() int {
	if in == nil {
		return 0
	}
	return len(in.Boxes)
}

// HasMasks reports whether per-instance masks are present.
func (in *Instances) HasMasks() bool {
	return in != nil && in.Masks != nil
}

// HasBoxUncertainty reports whether per-box standard deviations are present.
func (in *Instances) HasBoxUncertainty() bool {
	return in != nil && in.BoxUncertainty != nil
}

// HasUncertainty reports whether per-pixel uncertainty maps are present.
func (in *Instances) HasUncertainty() bool {
	return in != nil && in.Uncertainty != nil
}

// Validate checks that every field is parallel to Boxes and that maps match the image size.
func (in *Instances) Validate() error {
	n := len(in.Boxes)
	if len(in.Scores) != n {
		return errors.Errorf("got %d scores for %d boxes", len(in.Scores), n)
	}
	if len(in.Classes) != n {
		return errors.Errorf("got %d classes for %d boxes", len(in.Classes), n)
	}
	if in.BoxUncertainty != nil && len(in.BoxUncertainty) != n {
		return errors.Errorf("got %d box uncertainties for %d boxes", len(in.BoxUncertainty), n)
	}
	for _, field := range []struct {
		name string
		maps []*mat.Dense
	}{{"masks", in.Masks}, {"uncertainty maps", in.Uncertainty}} {
		name, maps := field.name, field.maps
		if maps == nil {
			continue
		}
		if len(maps) != n {
			return errors.Errorf("got %d %s for %d boxes", len(maps), name, n)
		}
		for i, m := range maps {
			if m == nil {
				return errors.Errorf("%s %d is nil", name, i)
			}
			if r, c := m.Dims(); r != in.ImageSize.Y || c != in.ImageSize.X {
				return errors.Errorf("%s %d is %dx%d, expected %dx%d", name, i, r, c, in.ImageSize.Y, in.ImageSize.X)
			}
		}
	}
	return nil
}

// Select returns the instances at indices, in that order. Optional fields are carried along.
func (in *Instances) Select(indices []int) *Instances {
	out := &Instances{
		ImageSize: in.ImageSize,
		Boxes:     make([]Box, 0, len(indices)),
		Scores:    make([]float64, 0, len(indices)),
		Classes:   make([]int, 0, len(indices)),
	}
	if in.HasMasks() {
		out.Masks = make([]*mat.Dense, 0, len(indices))
	}
	if in.HasBoxUncertainty() {
		out.BoxUncertainty = make([][4]float64, 0, len(indices))
	}
	if in.HasUncertainty() {
		out.Uncertainty = make([]*mat.Dense, 0, len(indices))
	}
	for _, i := range indices {
		out.Boxes = append(out.Boxes, in.Boxes[i])
		out.Scores = append(out.Scores, in.Scores[i])
		out.Classes = append(out.Classes, in.Classes[i])
		if out.Masks != nil {
			out.Masks = append(out.Masks, in.Masks[i])
		}
		if out.BoxUncertainty != nil {
			out.BoxUncertainty = append(out.BoxUncertainty, in.BoxUncertainty[i])
		}
		if out.Uncertainty != nil {
			out.Uncertainty = append(out.Uncertainty, in.Uncertainty[i])
		}
	}
	return out
}

// ScoreAbove returns the indices of the instances scoring strictly more than thresh.
func (in *Instances) ScoreAbove(thresh float64) []int {
	return lo.Filter(lo.Range(in.Len()), func(i, _ int) bool {
		return in.Scores[i] > thresh
	})
}

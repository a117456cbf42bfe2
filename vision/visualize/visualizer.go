// Package visualize renders detection predictions on top of the images they were made on.
package visualize

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"go.viam.com/evalkit/metadata"
	"go.viam.com/evalkit/rimage"
	"go.viam.com/evalkit/vision/detection"
)

// DefaultScale is the factor images are enlarged by before drawing.
const DefaultScale = 1.2

const (
	maskAlpha  = 0.5
	maskThresh = 0.5
)

// Visualizer draws on a copy of an image.
type Visualizer struct {
	img   image.Image
	meta  *metadata.Metadata
	scale float64
}

// NewVisualizer returns a visualizer over img. meta supplies class names and colours and may
// be nil. A non-positive scale means DefaultScale.
func NewVisualizer(img image.Image, meta *metadata.Metadata, scale float64) *Visualizer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Visualizer{img: img, meta: meta, scale: scale}
}

// DrawInstancePredictions returns the scaled image with masks, boxes and "class score%" labels
// drawn on it. When box uncertainty is present, the boxes grown and shrunk by one standard
// deviation are drawn dashed.
func (v *Visualizer) DrawInstancePredictions(inst *detection.Instances) (image.Image, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	base := v.img
	if inst.HasMasks() {
		for i, mask := range inst.Masks {
			blended, err := rimage.OverlayMask(base, mask, v.meta.ColorOf(inst.Classes[i]), maskAlpha, maskThresh)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot draw mask %d", i)
			}
			base = blended
		}
	}

	bounds := base.Bounds()
	width := uint(math.Round(float64(bounds.Dx()) * v.scale))
	height := uint(math.Round(float64(bounds.Dy()) * v.scale))
	dc := gg.NewContextForImage(resize.Resize(width, height, base, resize.Bilinear))

	lineWidth := rimage.LineWidth(image.Rect(0, 0, int(width), int(height)))
	fontSize := math.Max(10, 6*lineWidth)
	for i, box := range inst.Boxes {
		c := v.meta.ColorOf(inst.Classes[i])
		scaled := box.Scale(v.scale)
		rimage.DrawRectangleEmpty(dc, scaled.Rect(), c, lineWidth)
		if inst.HasBoxUncertainty() {
			std := inst.BoxUncertainty[i]
			grown := box.Grow(std).Scale(v.scale)
			shrunk := box.Grow([4]float64{-std[0], -std[1], -std[2], -std[3]}).Scale(v.scale)
			rimage.DrawRectangleDashed(dc, grown.Rect(), c, lineWidth/2, 3*lineWidth)
			if shrunk.Area() > 0 {
				rimage.DrawRectangleDashed(dc, shrunk.Rect(), c, lineWidth/2, 3*lineWidth)
			}
		}
		rimage.DrawLabel(dc, v.label(inst.Classes[i], inst.Scores[i]),
			scaled.Rect().Min, color.White, darken(c), fontSize)
	}
	return dc.Image(), nil
}

func (v *Visualizer) label(class int, score float64) string {
	name, ok := v.meta.ClassName(class)
	if !ok {
		name = fmt.Sprintf("class %d", class)
	}
	return fmt.Sprintf("%s %.0f%%", name, 100*score)
}

func darken(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 200}
}

package detection

import (
	"image"
	"math"
)

// Box is an axis-aligned box in absolute pixel coordinates, (X0, Y0) top-left and (X1, Y1)
// bottom-right.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// BoxFromXYWH converts a COCO style [x, y, width, height] box.
func BoxFromXYWH(xywh [4]float64) Box {
	return Box{X0: xywh[0], Y0: xywh[1], X1: xywh[0] + xywh[2], Y1: xywh[1] + xywh[3]}
}

// Width is zero for degenerate boxes.
func (b Box) Width() float64 {
	return math.Max(b.X1-b.X0, 0)
}

// Height is zero for degenerate boxes.
func (b Box) Height() float64 {
	return math.Max(b.Y1-b.Y0, 0)
}

// Area of the box.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// IoU returns the intersection over union of b and other.
func (b Box) IoU(other Box) float64 {
	inter := Box{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}.Area()
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Scale multiplies every coordinate by factor.
func (b Box) Scale(factor float64) Box {
	return Box{X0: b.X0 * factor, Y0: b.Y0 * factor, X1: b.X1 * factor, Y1: b.Y1 * factor}
}

// Grow moves every side outwards by the matching entry of delta (x0, y0, x1, y1). A negative
// delta shrinks the box.
func (b Box) Grow(delta [4]float64) Box {
	return Box{X0: b.X0 - delta[0], Y0: b.Y0 - delta[1], X1: b.X1 + delta[2], Y1: b.Y1 + delta[3]}
}

// Rect rounds the box to the enclosing integer rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(b.X0)), int(math.Floor(b.Y0)),
		int(math.Ceil(b.X1)), int(math.Ceil(b.Y1)),
	)
}

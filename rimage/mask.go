package rimage

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// OverlayMask blends c with weight alpha into every pixel of img where mask is above thresh.
// mask is indexed (row, column) and must have the size of img. The result is a new image.
func OverlayMask(img image.Image, mask mat.Matrix, c color.Color, alpha, thresh float64) (*image.NRGBA, error) {
	bounds := img.Bounds()
	rows, cols := mask.Dims()
	if rows != bounds.Dy() || cols != bounds.Dx() {
		return nil, errors.Errorf("mask is %dx%d, image is %dx%d", rows, cols, bounds.Dy(), bounds.Dx())
	}
	if alpha < 0 || alpha > 1 {
		return nil, errors.Errorf("alpha must be in [0, 1], got %v", alpha)
	}

	out := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	overlay := color.NRGBAModel.Convert(c).(color.NRGBA)
	blend := func(dst, src uint8) uint8 {
		return uint8(float64(dst)*(1-alpha) + float64(src)*alpha + 0.5)
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask.At(y, x) <= thresh {
				continue
			}
			px := out.NRGBAAt(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: blend(px.R, overlay.R),
				G: blend(px.G, overlay.G),
				B: blend(px.B, overlay.B),
				A: px.A,
			})
		}
	}
	return out, nil
}

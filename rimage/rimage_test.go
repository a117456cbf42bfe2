package rimage

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestImageFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "gray.png")
	test.That(t, WriteImageToFile(path, solid(6, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})), test.ShouldBeNil)

	img, err := ReadImageFromFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 6, 4))
	r, g, b, _ := img.At(3, 2).RGBA()
	test.That(t, []uint32{r >> 8, g >> 8, b >> 8}, test.ShouldResemble, []uint32{10, 20, 30})

	_, err = ReadImageFromFile(filepath.Join(t.TempDir(), "missing.jpg"))
	test.That(t, err, test.ShouldNotBeNil)
	err = WriteImageToFile(filepath.Join(t.TempDir(), "out.unknown"), img)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOverlayMask(t *testing.T) {
	img := solid(2, 2, color.NRGBA{A: 255})
	mask := mat.NewDense(2, 2, []float64{
		0.9, 0.1,
		0.5, 0.6,
	})
	out, err := OverlayMask(img, mask, color.NRGBA{R: 200, A: 255}, 0.5, 0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{R: 100, A: 255})
	test.That(t, out.NRGBAAt(1, 0), test.ShouldResemble, color.NRGBA{A: 255})
	// the threshold is exclusive
	test.That(t, out.NRGBAAt(0, 1), test.ShouldResemble, color.NRGBA{A: 255})
	test.That(t, out.NRGBAAt(1, 1), test.ShouldResemble, color.NRGBA{R: 100, A: 255})
	// the input is left alone
	test.That(t, img.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{A: 255})

	_, err = OverlayMask(img, mat.NewDense(3, 2, nil), color.White, 0.5, 0.5)
	test.That(t, err, test.ShouldBeError, "mask is 3x2, image is 2x2")
	_, err = OverlayMask(img, mask, color.White, 2, 0.5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDraw(t *testing.T) {
	dc := gg.NewContextForImage(solid(40, 40, color.NRGBA{A: 255}))
	red := color.NRGBA{R: 255, A: 255}
	DrawRectangleEmpty(dc, image.Rect(5, 5, 35, 35), red, 2)
	r, _, _, _ := dc.Image().At(5, 20).RGBA()
	test.That(t, r>>8, test.ShouldBeGreaterThan, 100)
	r, _, _, _ = dc.Image().At(20, 20).RGBA()
	test.That(t, r>>8, test.ShouldEqual, 0)

	DrawRectangleDashed(dc, image.Rect(10, 10, 30, 30), red, 1, 3)
	DrawString(dc, "cat 90%", image.Pt(1, 1), color.White, 8)
	DrawLabel(dc, "dog 51%", image.Pt(1, 20), color.White, color.Black, 8)
	test.That(t, Font(), test.ShouldNotBeNil)
	test.That(t, LineWidth(image.Rect(0, 0, 30, 30)), test.ShouldEqual, 1)
	test.That(t, LineWidth(image.Rect(0, 0, 900, 900)), test.ShouldEqual, 3)
}

package visualize

import (
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const plotSize = 4 * vg.Inch

// matrixGrid shows a matrix the way it is printed: row 0 at the top.
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matrixGrid) X(c int) float64 {
	return float64(c)
}

func (g matrixGrid) Y(r int) float64 {
	return float64(r)
}

// SaveMatrixPlot writes a heat map of m to path. The format follows the extension of path.
func SaveMatrixPlot(path string, m mat.Matrix) error {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("cannot plot an empty matrix")
	}
	heatMap := plotter.NewHeatMap(matrixGrid{m: m}, palette.Heat(64, 1))
	heatMap.Min, heatMap.Max = mat.Min(m), mat.Max(m)
	if heatMap.Min == heatMap.Max {
		heatMap.Max = heatMap.Min + 1
	}

	p := plot.New()
	p.Add(heatMap)
	return savePlot(p, path)
}

// SaveImagePlot writes img, drawn on plot axes, to path.
func SaveImagePlot(path string, img image.Image) error {
	bounds := img.Bounds()
	p := plot.New()
	p.Add(plotter.NewImage(img, 0, 0, float64(bounds.Dx()), float64(bounds.Dy())))
	return savePlot(p, path)
}

func savePlot(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "cannot create directory for %q", path)
	}
	if err := p.Save(plotSize, plotSize, path); err != nil {
		return errors.Wrapf(err, "cannot write plot %q", path)
	}
	return nil
}

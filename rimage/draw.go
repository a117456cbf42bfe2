package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context with its top-left corner at p.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, gg.AlignLeft)
}

// DrawLabel writes text on a filled box of color bg so it stays readable on any image.
func DrawLabel(dc *gg.Context, text string, p image.Point, fg, bg color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	w, h := dc.MeasureString(text)
	pad := size / 4
	dc.SetColor(bg)
	dc.DrawRectangle(float64(p.X), float64(p.Y), w+2*pad, h+2*pad)
	dc.Fill()
	dc.SetColor(fg)
	dc.DrawStringAnchored(text, float64(p.X)+pad, float64(p.Y)+pad, 0, 1)
}

// DrawRectangleEmpty draws the outline of r into the context.
func DrawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.SetDash()
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// DrawRectangleDashed draws the outline of r with dashes of the given length.
func DrawRectangleDashed(dc *gg.Context, r image.Rectangle, c color.Color, width, dash float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.SetDash(dash, dash)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
	dc.SetDash()
}

// LineWidth is the box outline width used for an image of the given size.
func LineWidth(bounds image.Rectangle) float64 {
	return math.Max(math.Sqrt(float64(bounds.Dx()*bounds.Dy()))/300, 1)
}

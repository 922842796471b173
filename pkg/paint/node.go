// Package paint turns positioned graph elements into drawing commands.
//
// Painters draw in graph coordinates onto a Canvas whose transform has already
// been set up by the caller, so the same code drives PNG export (gg), SVG
// export (svgo) and the terminal canvas.
package paint

import (
	"image/color"
	"math"

	"github.com/vanderheijden86/kgview/pkg/model"

	"golang.org/x/image/font"
)

// LabelScaleThreshold is the zoom above which every node is labelled.
const LabelScaleThreshold = 1.2

// LabelDegreeThreshold is the degree above which a node is labelled at any
// zoom.
const LabelDegreeThreshold = 3

const (
	defaultGlowRadius = 8.0
	glowFactor        = 1.5
	coreRadius        = 4.0
	labelFontPx       = 14.0
	labelPadFactor    = 0.4
	labelOffset       = 12.0
)

// Canvas is the set of drawing commands a node needs. *gg.Context satisfies it.
type Canvas interface {
	SetColor(c color.Color)
	DrawCircle(x, y, r float64)
	DrawRectangle(x, y, w, h float64)
	Fill()
	SetFontFace(f font.Face)
	MeasureString(s string) (w, h float64)
	DrawStringAnchored(s string, x, y, ax, ay float64)
}

// FaceSource supplies font faces by pixel size.
type FaceSource interface {
	Face(size float64) font.Face
}

// Style holds the dashboard palette.
type Style struct {
	Background color.Color
	Glow       color.Color
	Core       color.Color
	LabelBg    color.Color
	LabelText  color.Color
	Link       color.Color
	Particle   color.Color
}

// DefaultStyle is the dark slate palette of the dashboard.
func DefaultStyle() Style {
	return Style{
		Background: color.NRGBA{R: 0x02, G: 0x06, B: 0x17, A: 0xff},
		Glow:       color.NRGBA{R: 56, G: 189, B: 248, A: 51},
		Core:       color.NRGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff},
		LabelBg:    color.NRGBA{R: 15, G: 23, B: 42, A: 230},
		LabelText:  color.NRGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff},
		Link:       color.NRGBA{R: 148, G: 163, B: 184, A: 51},
		Particle:   color.NRGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff},
	}
}

// Painter draws nodes and links. It holds no per-frame state.
type Painter struct {
	Style Style
	Faces FaceSource
}

// NewPainter returns a painter with the default palette and Go font faces.
func NewPainter() *Painter {
	return &Painter{Style: DefaultStyle(), Faces: DefaultFaces()}
}

// ShouldLabel reports whether a node gets a text label at the given zoom.
func ShouldLabel(scale float64, degree int) bool {
	return scale > LabelScaleThreshold || degree > LabelDegreeThreshold
}

// GlowRadius returns the radius of the soft halo around a node: val scaled by
// 1.5 when val is set, the default otherwise. Negative or non-finite values
// count as unset.
func GlowRadius(n model.Node) float64 {
	if !(n.Val > 0) || math.IsInf(n.Val, 1) {
		return defaultGlowRadius
	}
	return n.Val * glowFactor
}

// Paint draws one node: glow, core dot, and, when ShouldLabel holds, a label
// on a padded background just above the core.
func (p *Painter) Paint(n model.Node, c Canvas, scale float64) {
	c.SetColor(p.Style.Glow)
	c.DrawCircle(n.X, n.Y, GlowRadius(n))
	c.Fill()

	c.SetColor(p.Style.Core)
	c.DrawCircle(n.X, n.Y, coreRadius)
	c.Fill()

	if !ShouldLabel(scale, n.Degree) {
		return
	}

	fontSize := labelFontPx / scale
	if p.Faces != nil {
		c.SetFontFace(p.Faces.Face(fontSize))
	}
	textW, _ := c.MeasureString(n.ID)
	pad := fontSize * labelPadFactor
	bgW, bgH := textW+pad, fontSize+pad

	c.SetColor(p.Style.LabelBg)
	c.DrawRectangle(n.X-bgW/2, n.Y-bgH/2-labelOffset, bgW, bgH)
	c.Fill()

	c.SetColor(p.Style.LabelText)
	c.DrawStringAnchored(n.ID, n.X, n.Y-labelOffset, 0.5, 0.5)
}

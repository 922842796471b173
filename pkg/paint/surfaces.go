package paint

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// GGSurface adapts a raster gg context. Text and shapes follow the context's
// matrix, so labels sized in graph units come out at a constant pixel size.
type GGSurface struct {
	*gg.Context
}

// NewGGSurface allocates a w×h raster surface.
func NewGGSurface(w, h int) *GGSurface {
	return &GGSurface{Context: gg.NewContext(w, h)}
}

// SetTransform resets the context matrix to screen = graph*k + (tx, ty).
func (s *GGSurface) SetTransform(k, tx, ty float64) {
	s.Identity()
	s.Translate(tx, ty)
	s.Scale(k, k)
}

// SVGSurface emits svgo elements. Shapes are buffered until Fill or Stroke,
// mirroring the path model of a raster canvas.
type SVGSurface struct {
	canvas  *svg.SVG
	w, h    int
	color   color.Color
	lineW   float64
	face    font.Face
	k       float64
	tx, ty  float64
	pending []svgShape
}

type svgShapeKind int

const (
	svgCircle svgShapeKind = iota
	svgRect
	svgLine
)

type svgShape struct {
	kind           svgShapeKind
	x1, y1, x2, y2 float64
	r              float64
}

// NewSVGSurface starts a w×h SVG document on out. Call End to close it.
func NewSVGSurface(out io.Writer, w, h int) *SVGSurface {
	c := svg.New(out)
	c.Start(w, h)
	return &SVGSurface{canvas: c, w: w, h: h, color: color.Black, lineW: 1, face: basicfont.Face7x13, k: 1}
}

// End closes the document.
func (s *SVGSurface) End() {
	s.canvas.End()
}

func (s *SVGSurface) SetColor(c color.Color) { s.color = c }

func (s *SVGSurface) SetLineWidth(w float64) { s.lineW = w }

func (s *SVGSurface) SetFontFace(f font.Face) { s.face = f }

func (s *SVGSurface) SetTransform(k, tx, ty float64) { s.k, s.tx, s.ty = k, tx, ty }

func (s *SVGSurface) DrawCircle(x, y, r float64) {
	s.pending = append(s.pending, svgShape{kind: svgCircle, x1: x, y1: y, r: r})
}

func (s *SVGSurface) DrawRectangle(x, y, w, h float64) {
	s.pending = append(s.pending, svgShape{kind: svgRect, x1: x, y1: y, x2: x + w, y2: y + h})
}

func (s *SVGSurface) DrawLine(x1, y1, x2, y2 float64) {
	s.pending = append(s.pending, svgShape{kind: svgLine, x1: x1, y1: y1, x2: x2, y2: y2})
}

// Clear paints the whole document with the current color.
func (s *SVGSurface) Clear() {
	s.pending = s.pending[:0]
	s.canvas.Rect(0, 0, s.w, s.h, "fill:"+cssColor(s.color))
}

func (s *SVGSurface) Fill() {
	style := "fill:" + cssColor(s.color) + opacity("fill-opacity", s.color)
	for _, sh := range s.pending {
		switch sh.kind {
		case svgCircle:
			x, y := s.point(sh.x1, sh.y1)
			s.canvas.Circle(x, y, max(1, round(sh.r*s.k)), style)
		case svgRect:
			x1, y1 := s.point(sh.x1, sh.y1)
			x2, y2 := s.point(sh.x2, sh.y2)
			s.canvas.Rect(x1, y1, max(1, x2-x1), max(1, y2-y1), style)
		}
	}
	s.pending = s.pending[:0]
}

func (s *SVGSurface) Stroke() {
	style := fmt.Sprintf("stroke:%s;stroke-width:%.2f%s", cssColor(s.color), s.lineW, opacity("stroke-opacity", s.color))
	for _, sh := range s.pending {
		if sh.kind != svgLine {
			continue
		}
		x1, y1 := s.point(sh.x1, sh.y1)
		x2, y2 := s.point(sh.x2, sh.y2)
		s.canvas.Line(x1, y1, x2, y2, style)
	}
	s.pending = s.pending[:0]
}

// MeasureString reports the advance width and line height of s in graph units.
func (s *SVGSurface) MeasureString(text string) (w, h float64) {
	adv := font.MeasureString(s.face, text)
	return float64(adv) / 64, float64(s.face.Metrics().Height) / 64
}

func (s *SVGSurface) DrawStringAnchored(text string, x, y, ax, ay float64) {
	w, h := s.MeasureString(text)
	px, py := s.point(x-ax*w, y+ay*h)
	size := h * s.k
	s.canvas.Text(px, py, text, fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:sans-serif", cssColor(s.color), size))
}

func (s *SVGSurface) point(x, y float64) (int, int) {
	return round(x*s.k + s.tx), round(y*s.k + s.ty)
}

func round(f float64) int {
	return int(math.Round(f))
}

func cssColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func opacity(prop string, c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0xff {
		return ""
	}
	return fmt.Sprintf(";%s:%.2f", prop, float64(n.A)/255)
}

package ui

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"

	"github.com/vanderheijden86/kgview/pkg/paint"
	"github.com/vanderheijden86/kgview/pkg/viewport"
)

// Braille cells pack a 2x4 dot grid.
const (
	dotsPerCellX = 2
	dotsPerCellY = 4
	brailleBase  = 0x2800
	// dotThreshold is the summed channel distance from the background above
	// which a pixel lights its dot.
	dotThreshold = 24
)

var brailleBits = [dotsPerCellY][dotsPerCellX]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type cellGlyph struct {
	r    rune
	fg   color.Color
	cont bool // right half of a wide rune
}

// BrailleSurface paints onto a terminal cell grid. Shapes are rasterized by gg
// at braille dot resolution; text and label backgrounds go to a cell layer so
// they stay legible at any zoom. Coordinates passed to SetTransform are in the
// same pixel space the camera measures (cells times the cell box).
type BrailleSurface struct {
	*paint.GGSurface

	cols, rows int
	cell       viewport.CellBox
	renderer   *lipgloss.Renderer

	k, tx, ty float64
	fg        color.Color
	bg        color.Color

	glyphs []cellGlyph
	fills  []color.Color
	rect   *[4]float64

	styles map[[2]string]lipgloss.Style
}

// NewBrailleSurface returns a surface for a cols×rows cell grid.
func NewBrailleSurface(cols, rows int, cell viewport.CellBox, r *lipgloss.Renderer) *BrailleSurface {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	if cell.Width <= 0 || cell.Height <= 0 {
		cell = viewport.DefaultCellBox
	}
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return &BrailleSurface{
		GGSurface: paint.NewGGSurface(cols*dotsPerCellX, rows*dotsPerCellY),
		cols:      cols,
		rows:      rows,
		cell:      cell,
		renderer:  r,
		k:         1,
		fg:        color.White,
		bg:        color.Black,
		glyphs:    make([]cellGlyph, cols*rows),
		fills:     make([]color.Color, cols*rows),
		styles:    make(map[[2]string]lipgloss.Style),
	}
}

// Cols returns the grid width in cells.
func (s *BrailleSurface) Cols() int { return s.cols }

// Rows returns the grid height in cells.
func (s *BrailleSurface) Rows() int { return s.rows }

// SetColor sets the colour for the next fill, stroke or string.
func (s *BrailleSurface) SetColor(c color.Color) {
	s.fg = c
	s.GGSurface.SetColor(c)
}

// SetTransform maps graph coordinates to pixels, then pixels to dots.
func (s *BrailleSurface) SetTransform(k, tx, ty float64) {
	s.k, s.tx, s.ty = k, tx, ty
	s.Identity()
	s.Scale(dotsPerCellX/s.cell.Width, dotsPerCellY/s.cell.Height)
	s.Translate(tx, ty)
	s.Scale(k, k)
}

// Clear fills the raster with the current colour and empties the cell layer.
func (s *BrailleSurface) Clear() {
	s.bg = s.fg
	for i := range s.glyphs {
		s.glyphs[i] = cellGlyph{}
		s.fills[i] = nil
	}
	s.rect = nil
	s.GGSurface.Clear()
}

// DrawRectangle records a label background; it is filled at cell resolution.
func (s *BrailleSurface) DrawRectangle(x, y, w, h float64) {
	s.rect = &[4]float64{x, y, w, h}
}

// Fill fills a pending label background or the current raster path.
func (s *BrailleSurface) Fill() {
	if s.rect == nil {
		s.GGSurface.Fill()
		return
	}
	r := *s.rect
	s.rect = nil
	x0, y0 := s.toCell(r[0], r[1])
	x1, y1 := s.toCell(r[0]+r[2], r[1]+r[3])
	// Labels occupy a single text row; shade only the row through the centre.
	row := int(math.Floor((y0 + y1) / 2))
	c := blend(s.fg, s.bg)
	for col := int(math.Floor(x0)); col < int(math.Ceil(x1)); col++ {
		if i, ok := s.index(col, row); ok {
			s.fills[i] = c
		}
	}
}

// SetFontFace is a no-op: text is drawn with the terminal font.
func (s *BrailleSurface) SetFontFace(font.Face) {}

// MeasureString reports the size of text in graph units.
func (s *BrailleSurface) MeasureString(text string) (w, h float64) {
	k := s.k
	if !(k > 0) {
		k = 1
	}
	return float64(runewidth.StringWidth(text)) * s.cell.Width / k, s.cell.Height / k
}

// DrawStringAnchored places text in the cell layer. The anchor works as in gg:
// (0.5, 0.5) centres the string on (x, y).
func (s *BrailleSurface) DrawStringAnchored(text string, x, y, ax, ay float64) {
	cx, cy := s.toCell(x, y)
	w := float64(runewidth.StringWidth(text))
	col := int(math.Round(cx - ax*w))
	row := int(math.Floor(cy + 0.5 - ay))
	c := blend(s.fg, s.bg)
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if i, ok := s.index(col, row); ok {
			s.glyphs[i] = cellGlyph{r: r, fg: c}
			if rw == 2 {
				if j, ok := s.index(col+1, row); ok {
					s.glyphs[j] = cellGlyph{cont: true}
				}
			}
		}
		col += rw
	}
}

// toCell converts graph coordinates to fractional cell coordinates.
func (s *BrailleSurface) toCell(x, y float64) (float64, float64) {
	px, py := x*s.k+s.tx, y*s.k+s.ty
	return px / s.cell.Width, py / s.cell.Height
}

func (s *BrailleSurface) index(col, row int) (int, bool) {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return 0, false
	}
	return row*s.cols + col, true
}

// Cell returns the rune shown at (col, row): a label rune, a braille pattern,
// or a space.
func (s *BrailleSurface) Cell(col, row int) rune {
	i, ok := s.index(col, row)
	if !ok {
		return ' '
	}
	if g := s.glyphs[i]; g.r != 0 || g.cont {
		return g.r
	}
	r, _ := s.braille(col, row)
	if r == brailleBase {
		return ' '
	}
	return r
}

// braille builds the pattern for one cell and the colour of its brightest dot.
func (s *BrailleSurface) braille(col, row int) (rune, color.Color) {
	img := s.Image()
	var (
		bits rune
		best color.Color
		bestD = dotThreshold
	)
	for dy := 0; dy < dotsPerCellY; dy++ {
		for dx := 0; dx < dotsPerCellX; dx++ {
			px := img.At(col*dotsPerCellX+dx, row*dotsPerCellY+dy)
			d := distance(px, s.bg)
			if d <= dotThreshold {
				continue
			}
			bits |= brailleBits[dy][dx]
			if d > bestD {
				best, bestD = px, d
			}
		}
	}
	return brailleBase + bits, best
}

// String renders the grid as styled terminal rows.
func (s *BrailleSurface) String() string {
	var sb strings.Builder
	bgHex := hexColor(s.bg)
	for row := 0; row < s.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		var run strings.Builder
		var runKey [2]string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			sb.WriteString(s.style(runKey).Render(run.String()))
			run.Reset()
		}
		for col := 0; col < s.cols; col++ {
			i := row*s.cols + col
			g := s.glyphs[i]
			if g.cont {
				continue
			}
			back := bgHex
			if s.fills[i] != nil {
				back = hexColor(s.fills[i])
			}
			var r rune
			var fg color.Color
			if g.r != 0 {
				r, fg = g.r, g.fg
			} else {
				r, fg = s.braille(col, row)
				if r == brailleBase {
					r = ' '
				}
			}
			key := [2]string{"", back}
			if fg != nil && r != ' ' {
				key[0] = hexColor(fg)
			}
			if key != runKey {
				flush()
				runKey = key
			}
			run.WriteRune(r)
		}
		flush()
	}
	return sb.String()
}

func (s *BrailleSurface) style(key [2]string) lipgloss.Style {
	if st, ok := s.styles[key]; ok {
		return st
	}
	st := s.renderer.NewStyle().Background(ThemeBg(key[1]))
	if key[0] != "" {
		st = st.Foreground(ThemeFg(key[0]))
	}
	s.styles[key] = st
	return st
}

// blend composites c over bg and returns an opaque colour.
func blend(c, bg color.Color) color.Color {
	cr, cg, cb, ca := c.RGBA()
	br, bgG, bb, _ := bg.RGBA()
	if ca == 0xffff {
		return color.NRGBA{R: uint8(cr >> 8), G: uint8(cg >> 8), B: uint8(cb >> 8), A: 0xff}
	}
	// RGBA() is alpha-premultiplied.
	inv := 0xffff - ca
	mix := func(p, b uint32) uint8 { return uint8((p + b*inv/0xffff) >> 8) }
	return color.NRGBA{R: mix(cr, br), G: mix(cg, bgG), B: mix(cb, bb), A: 0xff}
}

func distance(a, b color.Color) int {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	d := func(x, y uint32) int {
		v := int(x>>8) - int(y>>8)
		if v < 0 {
			return -v
		}
		return v
	}
	return d(ar, br) + d(ag, bg) + d(ab, bb)
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	const digits = "0123456789abcdef"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint32{r >> 8, g >> 8, b >> 8} {
		buf[1+2*i] = digits[v>>4]
		buf[2+2*i] = digits[v&0xf]
	}
	return string(buf)
}

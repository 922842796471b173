package ui

import (
	"image/color"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/paint"
	"github.com/vanderheijden86/kgview/pkg/viewport"
)

func newTestSurface(cols, rows int) *BrailleSurface {
	return NewBrailleSurface(cols, rows, viewport.DefaultCellBox, lipgloss.NewRenderer(nil))
}

func rowText(s *BrailleSurface, row int) string {
	var sb strings.Builder
	for col := 0; col < s.Cols(); col++ {
		sb.WriteRune(s.Cell(col, row))
	}
	return sb.String()
}

func TestBrailleSurface_NodeLightsDots(t *testing.T) {
	s := newTestSurface(10, 5)
	p := paint.NewPainter()
	skipped := p.Render(s, paint.Frame{
		Nodes: []model.Node{{ID: "hub"}},
		View:  paint.View{Width: 80, Height: 80, K: 1},
	})
	if skipped != 0 {
		t.Fatalf("skipped = %d", skipped)
	}

	// (0,0) lands on pixel (40,40): cell column 5, row 2.
	r := s.Cell(5, 2)
	if r < brailleBase || r > brailleBase+0xff || r == brailleBase {
		t.Errorf("centre cell = %q, want a lit braille pattern", r)
	}
	if got := s.Cell(0, 0); got != ' ' {
		t.Errorf("corner cell = %q, want blank", got)
	}
	// Unlabelled at zoom 1 with degree 0.
	if strings.Contains(rowText(s, 1), "hub") || strings.Contains(rowText(s, 2), "hub") {
		t.Error("node should not be labelled at this zoom")
	}
}

func TestBrailleSurface_LabelAboveNodeWhenZoomed(t *testing.T) {
	s := newTestSurface(10, 5)
	p := paint.NewPainter()
	p.Render(s, paint.Frame{
		Nodes: []model.Node{{ID: "hub"}},
		View:  paint.View{Width: 80, Height: 80, K: 2},
	})

	// The label sits 12 graph units (24 px) above the node: pixel row 16.
	if got := rowText(s, 1); !strings.Contains(got, "hub") {
		t.Errorf("row 1 = %q, want label", got)
	}
	if !strings.Contains(s.String(), "hub") {
		t.Error("rendered output should carry the label text")
	}
}

func TestBrailleSurface_DrawStringAnchored(t *testing.T) {
	s := newTestSurface(10, 5)
	s.SetColor(color.Black)
	s.Clear()
	s.SetTransform(1, 0, 0)
	s.SetColor(color.White)
	s.DrawStringAnchored("hub", 40, 40, 0.5, 0.5)

	if s.Cell(4, 2) != 'h' || s.Cell(5, 2) != 'u' || s.Cell(6, 2) != 'b' {
		t.Errorf("row 2 = %q", rowText(s, 2))
	}

	// Text running off the grid is clipped, not wrapped.
	s.DrawStringAnchored("overflowing", 72, 8, 0, 0.5)
	if got := rowText(s, 0); !strings.HasSuffix(got, "o") {
		t.Errorf("row 0 = %q", got)
	}
}

func TestBrailleSurface_WideRunes(t *testing.T) {
	s := newTestSurface(6, 1)
	s.SetColor(color.Black)
	s.Clear()
	s.SetTransform(1, 0, 0)
	s.SetColor(color.White)
	s.DrawStringAnchored("日本", 0, 8, 0, 0.5)

	if s.Cell(0, 0) != '日' || s.Cell(2, 0) != '本' {
		t.Errorf("row = %q", rowText(s, 0))
	}
	if out := s.String(); strings.Count(out, "日") != 1 {
		t.Errorf("wide rune should be written once: %q", out)
	}
}

func TestBrailleSurface_MeasureString(t *testing.T) {
	s := newTestSurface(4, 4)
	s.SetTransform(2, 0, 0)
	w, h := s.MeasureString("abcd")
	if w != 16 || h != 8 {
		t.Errorf("MeasureString = %v, %v; want 16, 8", w, h)
	}
}

func TestBrailleSurface_ClearResetsCellLayer(t *testing.T) {
	s := newTestSurface(4, 1)
	s.SetTransform(1, 0, 0)
	s.SetColor(color.White)
	s.DrawStringAnchored("ab", 0, 8, 0, 0.5)
	s.SetColor(color.Black)
	s.Clear()
	if got := rowText(s, 0); got != "    " {
		t.Errorf("after clear row = %q", got)
	}
}

func TestBlend(t *testing.T) {
	bg := color.NRGBA{R: 0x02, G: 0x06, B: 0x17, A: 0xff}
	if got := hexColor(blend(color.NRGBA{R: 0xff, A: 0}, bg)); got != "#020617" {
		t.Errorf("transparent over bg = %s", got)
	}
	if got := hexColor(blend(color.NRGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff}, bg)); got != "#38bdf8" {
		t.Errorf("opaque over bg = %s", got)
	}
	half := blend(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}, color.Black)
	r, _, _, _ := half.RGBA()
	if r>>8 < 0x70 || r>>8 > 0x90 {
		t.Errorf("half white over black = %s", hexColor(half))
	}
}

func TestDistance(t *testing.T) {
	if d := distance(color.White, color.Black); d != 3*255 {
		t.Errorf("distance = %d", d)
	}
	if d := distance(color.Black, color.Black); d != 0 {
		t.Errorf("distance = %d", d)
	}
}

package paint

import (
	"fmt"
	"math"

	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/model"
)

// ParticlesPerLink and ParticleSpeed describe the directional particles that
// travel along every link.
const (
	ParticlesPerLink = 2
	ParticleSpeed    = 0.005
	particleWidth    = 2.0
	linkWidth        = 1.0
)

// Surface is a Canvas that can also stroke lines and carries a graph-to-screen
// transform: screen = graph*K + (TX, TY).
type Surface interface {
	Canvas
	SetLineWidth(w float64)
	DrawLine(x1, y1, x2, y2 float64)
	Stroke()
	SetTransform(k, tx, ty float64)
	Clear()
}

// View places graph coordinates on a surface.
type View struct {
	Width, Height float64
	CenterX       float64
	CenterY       float64
	K             float64
}

// Transform returns the affine parameters mapping graph space to screen space.
func (v View) Transform() (k, tx, ty float64) {
	k = v.K
	if !(k > 0) || math.IsInf(k, 0) {
		k = 1
	}
	return k, v.Width/2 - v.CenterX*k, v.Height/2 - v.CenterY*k
}

// Frame is everything needed to draw one picture of the graph.
type Frame struct {
	Nodes []model.Node
	Links []model.Link
	View  View
	// Phase in [0,1) shifts link particles; advance it by ParticleSpeed per frame.
	Phase float64
}

// Render clears s and draws links, particles and nodes. Elements that refer to
// missing nodes, have non-finite coordinates, or panic while painting are
// skipped; their count is returned.
func (p *Painter) Render(s Surface, f Frame) (skipped int) {
	k, tx, ty := f.View.Transform()
	s.SetTransform(1, 0, 0)
	s.SetColor(p.Style.Background)
	s.Clear()
	s.SetTransform(k, tx, ty)

	byID := make(map[string]model.Node, len(f.Nodes))
	for _, n := range f.Nodes {
		byID[n.ID] = n
	}

	for _, l := range f.Links {
		src, okS := byID[l.Source]
		dst, okD := byID[l.Target]
		if !okS || !okD || !placed(src) || !placed(dst) {
			skipped++
			continue
		}
		if err := guard(func() { p.PaintLink(s, src, dst) }); err != nil {
			debug.Log("paint: link %s->%s: %v", l.Source, l.Target, err)
			skipped++
		}
	}
	for _, l := range f.Links {
		src, okS := byID[l.Source]
		dst, okD := byID[l.Target]
		if !okS || !okD || !placed(src) || !placed(dst) {
			continue
		}
		_ = guard(func() { p.PaintParticles(s, src, dst, f.Phase) })
	}
	for _, n := range f.Nodes {
		if !placed(n) {
			skipped++
			continue
		}
		if err := guard(func() { p.Paint(n, s, k) }); err != nil {
			debug.Log("paint: node %s: %v", n.ID, err)
			skipped++
		}
	}
	return skipped
}

// PaintLink strokes a thin line between two nodes.
func (p *Painter) PaintLink(s Surface, src, dst model.Node) {
	s.SetColor(p.Style.Link)
	s.SetLineWidth(linkWidth)
	s.DrawLine(src.X, src.Y, dst.X, dst.Y)
	s.Stroke()
}

// PaintParticles draws ParticlesPerLink dots evenly spaced along the link,
// shifted by phase in the source-to-target direction.
func (p *Painter) PaintParticles(c Canvas, src, dst model.Node, phase float64) {
	c.SetColor(p.Style.Particle)
	for i := 0; i < ParticlesPerLink; i++ {
		t := ParticleOffset(phase, i)
		c.DrawCircle(src.X+(dst.X-src.X)*t, src.Y+(dst.Y-src.Y)*t, particleWidth/2)
		c.Fill()
	}
}

// ParticleOffset returns the fractional position of particle i along its link.
func ParticleOffset(phase float64, i int) float64 {
	t := phase + float64(i)/ParticlesPerLink
	t -= math.Floor(t)
	return t
}

// AdvancePhase moves the particle phase forward by one frame.
func AdvancePhase(phase float64) float64 {
	phase += ParticleSpeed
	return phase - math.Floor(phase)
}

func placed(n model.Node) bool {
	return !math.IsNaN(n.X) && !math.IsNaN(n.Y) && !math.IsInf(n.X, 0) && !math.IsInf(n.Y, 0)
}

func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("paint panic: %v", r)
		}
	}()
	fn()
	return nil
}

// Package camera frames the graph view: it centres the camera slightly below the
// graph origin so the bottom overlay does not hide the graph, zooms to fit the
// visible nodes, and re-runs that framing when the graph, the view mode, or the
// container size changes.
//
// The controller is driven by an external clock. Every operation takes the
// current time and all geometry is read from the Scene when a pass actually
// runs, never from values captured when it was scheduled.
package camera

import (
	"math"
	"time"

	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/paint"
	"github.com/vanderheijden86/kgview/pkg/viewport"

	"gonum.org/v1/gonum/spatial/r2"
)

// Config holds framing durations and geometry.
type Config struct {
	CenterDuration     time.Duration
	FitDuration        time.Duration
	CorrectiveFit      time.Duration
	SettledFit         time.Duration
	CorrectiveDelay    time.Duration
	ResetDelay         time.Duration
	Padding            float64 // screen pixels kept clear around the fitted nodes
	VerticalShiftRatio float64
	MinZoom            float64
	MaxFitZoom         float64
}

// DefaultConfig returns the dashboard's framing settings.
func DefaultConfig() Config {
	return Config{
		CenterDuration:     600 * time.Millisecond,
		FitDuration:        400 * time.Millisecond,
		CorrectiveFit:      500 * time.Millisecond,
		SettledFit:         400 * time.Millisecond,
		CorrectiveDelay:    1000 * time.Millisecond,
		ResetDelay:         100 * time.Millisecond,
		Padding:            50,
		VerticalShiftRatio: 0.2,
		MinZoom:            0.01,
		MaxFitZoom:         8,
	}
}

// Scene is the live state the camera measures when a pass runs.
type Scene interface {
	Viewport() viewport.Size
	Nodes() []model.Node
}

// PassKind identifies what triggered a framing pass.
type PassKind int

const (
	PassRefit PassKind = iota
	PassCorrective
	PassSettled
	PassRecenter
	PassResetFit
)

func (k PassKind) String() string {
	switch k {
	case PassRefit:
		return "refit"
	case PassCorrective:
		return "corrective"
	case PassSettled:
		return "settled"
	case PassRecenter:
		return "recenter"
	case PassResetFit:
		return "reset-fit"
	default:
		return "unknown"
	}
}

// Pass records one executed framing pass.
type Pass struct {
	Kind   PassKind
	At     time.Time
	Center r2.Vec
	Zoom   float64
	Fit    bool // false when the pass only moved the centre or had no nodes to fit
}

type scheduled struct {
	due time.Time
	gen uint64
}

// Controller owns the view transform. It is not safe for concurrent use.
type Controller struct {
	cfg   Config
	scene Scene

	center r2.Vec
	zoom   float64

	move  *centerTween
	zoomT *zoomTween

	gen        uint64
	corrective *scheduled
	resetFit   *scheduled

	effect Effect[Deps]
	passes []Pass
}

// New returns a controller at the origin with zoom 1.
func New(cfg Config, scene Scene) *Controller {
	return &Controller{cfg: cfg, scene: scene, zoom: 1}
}

// CenterTarget returns the framing centre for a container: (0, ratio·height),
// with unusable sizes replaced by the defaults.
func CenterTarget(size viewport.Size, ratio float64) r2.Vec {
	return r2.Vec{X: 0, Y: size.Sanitize().Height * ratio}
}

// Refit runs the immediate centre and fit, then schedules a corrective pass
// CorrectiveDelay later. A newer Refit supersedes any pass still pending.
func (c *Controller) Refit(now time.Time) {
	c.gen++
	c.run(PassRefit, now, c.cfg.CenterDuration, c.cfg.FitDuration)
	c.corrective = &scheduled{due: now.Add(c.cfg.CorrectiveDelay), gen: c.gen}
	debug.Log("camera: refit gen %d, corrective due in %s", c.gen, c.cfg.CorrectiveDelay)
}

// Settled frames the graph once after the layout engine stops.
func (c *Controller) Settled(now time.Time) {
	c.run(PassSettled, now, c.cfg.CenterDuration, c.cfg.SettledFit)
}

// Recenter moves the camera back to the framing centre and refits, without a
// follow-up pass.
func (c *Controller) Recenter(now time.Time) {
	c.run(PassRecenter, now, c.cfg.CenterDuration, c.cfg.FitDuration)
}

// FitAfter schedules a fit-only pass delay from now, so freshly swapped nodes
// are in place before their bounds are measured.
func (c *Controller) FitAfter(now time.Time, delay time.Duration) {
	c.resetFit = &scheduled{due: now.Add(delay), gen: c.gen}
}

// Advance steps running transitions and executes due passes. It reports
// whether the camera still needs frames.
func (c *Controller) Advance(now time.Time) bool {
	c.step(now)

	if c.resetFit != nil && !now.Before(c.resetFit.due) {
		c.resetFit = nil
		c.run(PassResetFit, now, 0, c.cfg.FitDuration)
	}
	// The corrective pass waits for in-flight transitions so it measures
	// geometry the first pass has finished applying.
	if c.corrective != nil && !now.Before(c.corrective.due) && !c.transitioning() {
		pass := c.corrective
		c.corrective = nil
		if pass.gen == c.gen {
			c.run(PassCorrective, now, c.cfg.CenterDuration, c.cfg.CorrectiveFit)
		}
	}
	return c.Busy()
}

// Busy reports whether a transition is running or a pass is pending.
func (c *Controller) Busy() bool {
	return c.transitioning() || c.corrective != nil || c.resetFit != nil
}

// PendingCorrective reports whether a corrective pass is scheduled.
func (c *Controller) PendingCorrective() bool {
	return c.corrective != nil
}

// Center returns the current (possibly mid-transition) camera centre.
func (c *Controller) Center() r2.Vec {
	return c.center
}

// Zoom returns the current zoom factor.
func (c *Controller) Zoom() float64 {
	return c.zoom
}

// Passes returns the passes executed so far, oldest first.
func (c *Controller) Passes() []Pass {
	out := make([]Pass, len(c.passes))
	copy(out, c.passes)
	return out
}

// View returns the transform to paint the scene with.
func (c *Controller) View() paint.View {
	size := c.scene.Viewport().Sanitize()
	return paint.View{
		Width:   size.Width,
		Height:  size.Height,
		CenterX: c.center.X,
		CenterY: c.center.Y,
		K:       c.zoom,
	}
}

// Project converts graph coordinates to screen pixels.
func (c *Controller) Project(x, y float64) (sx, sy float64) {
	size := c.scene.Viewport().Sanitize()
	return (x-c.center.X)*c.zoom + size.Width/2, (y-c.center.Y)*c.zoom + size.Height/2
}

// Unproject converts screen pixels to graph coordinates.
func (c *Controller) Unproject(sx, sy float64) (x, y float64) {
	size := c.scene.Viewport().Sanitize()
	return (sx-size.Width/2)/c.zoom + c.center.X, (sy-size.Height/2)/c.zoom + c.center.Y
}

// FitZoom returns the zoom at which every finite node position lies inside the
// container minus padding, with the camera held at centre. ok is false when
// there is nothing to fit.
func FitZoom(nodes []model.Node, size viewport.Size, centre r2.Vec, cfg Config) (k float64, ok bool) {
	size = size.Sanitize()
	var dx, dy float64
	for _, n := range nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			continue
		}
		ok = true
		dx = math.Max(dx, math.Abs(n.X-centre.X))
		dy = math.Max(dy, math.Abs(n.Y-centre.Y))
	}
	if !ok {
		return 0, false
	}
	halfW := math.Max(size.Width/2-cfg.Padding, 1)
	halfH := math.Max(size.Height/2-cfg.Padding, 1)

	k = cfg.MaxFitZoom
	if dx > 0 {
		k = math.Min(k, halfW/dx)
	}
	if dy > 0 {
		k = math.Min(k, halfH/dy)
	}
	return math.Max(cfg.MinZoom, math.Min(k, cfg.MaxFitZoom)), true
}

// run starts a centre transition and, when it has nodes to measure, a zoom
// transition. A zero centreDur leaves the centre alone.
func (c *Controller) run(kind PassKind, now time.Time, centerDur, fitDur time.Duration) {
	c.step(now)
	target := CenterTarget(c.scene.Viewport(), c.cfg.VerticalShiftRatio)
	if centerDur > 0 {
		c.move = &centerTween{span: span{start: now, dur: centerDur}, from: c.center, to: target}
	}
	pass := Pass{Kind: kind, At: now, Center: target, Zoom: c.zoom}
	if k, ok := FitZoom(c.scene.Nodes(), c.scene.Viewport(), target, c.cfg); ok {
		c.zoomT = &zoomTween{span: span{start: now, dur: fitDur}, from: c.zoom, to: k}
		pass.Zoom, pass.Fit = k, true
	}
	c.passes = append(c.passes, pass)
	debug.Log("camera: %s pass centre=(%.1f, %.1f) zoom=%.3f fit=%v", kind, target.X, target.Y, pass.Zoom, pass.Fit)
	c.step(now)
}

func (c *Controller) step(now time.Time) {
	if c.move != nil {
		v, done := c.move.at(now)
		c.center = v
		if done {
			c.move = nil
		}
	}
	if c.zoomT != nil {
		k, done := c.zoomT.at(now)
		c.zoom = k
		if done {
			c.zoomT = nil
		}
	}
}

func (c *Controller) transitioning() bool {
	return c.move != nil || c.zoomT != nil
}

package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kgview/pkg/camera"
	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/layout"
	"github.com/vanderheijden86/kgview/pkg/metrics"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/paint"
	"github.com/vanderheijden86/kgview/pkg/store"
	"github.com/vanderheijden86/kgview/pkg/viewport"
)

// EmptyGraphText is shown while no graph is loaded.
const EmptyGraphText = "No graph loaded"

// GraphView animates the displayed graph: it feeds the layout engine, frames
// it with the camera and paints it onto a braille canvas.
type GraphView struct {
	layout  *layout.Engine
	camera  *camera.Controller
	painter *paint.Painter
	tracker *viewport.Tracker
	cancel  func()
	cell    viewport.CellBox
	camCfg  camera.Config

	renderer *lipgloss.Renderer
	surface  *BrailleSurface

	revision uint64
	epoch    uint64
	nodes    []model.Node
	links    []model.Link
	phase    float64
	skipped  int
}

// NewGraphView returns an empty view sized to the tracker's default.
func NewGraphView(lc layout.Config, cc camera.Config, cell viewport.CellBox, r *lipgloss.Renderer) *GraphView {
	g := &GraphView{
		layout:   layout.New(lc),
		painter:  paint.NewPainter(),
		tracker:  viewport.NewTracker(),
		cell:     cell,
		camCfg:   cc,
		renderer: r,
	}
	g.camera = camera.New(cc, g)
	g.Mount(nil, cell)
	return g
}

// Mount measures the container with measure and adopts cell as the pixel
// size of one terminal cell. Mounting again drops the previous subscription.
func (g *GraphView) Mount(measure viewport.MeasureFunc, cell viewport.CellBox) {
	g.Unmount()
	if cell.Width > 0 && cell.Height > 0 {
		g.cell = cell
	}
	g.cancel = g.tracker.Subscribe(func(s viewport.Size) {
		cols, rows := viewport.ToCells(s, g.cell)
		g.surface = NewBrailleSurface(cols, rows, g.cell, g.renderer)
		debug.Log("graph view: container %.0fx%.0f px (%dx%d cells)", s.Width, s.Height, cols, rows)
	})
	g.tracker.Mount(measure)
}

// Unmount stops listening for container size changes.
func (g *GraphView) Unmount() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.tracker.Unmount()
}

// Cell returns the pixel size of one terminal cell.
func (g *GraphView) Cell() viewport.CellBox {
	return g.cell
}

// Viewport implements camera.Scene.
func (g *GraphView) Viewport() viewport.Size {
	return g.tracker.Size()
}

// Nodes implements camera.Scene.
func (g *GraphView) Nodes() []model.Node {
	return g.nodes
}

// Links returns the links currently simulated.
func (g *GraphView) Links() []model.Link {
	return g.links
}

// Resize observes a new container size in cells.
func (g *GraphView) Resize(cols, rows int) {
	g.tracker.Observe(viewport.FromCells(cols, rows, g.cell))
}

// Show seeds the layout with snap when its revision differs from the one on
// screen. It reports whether the graph changed.
func (g *GraphView) Show(snap *store.Snapshot) bool {
	if snap == nil || snap.Revision == g.revision && g.revision != 0 {
		return false
	}
	g.revision = snap.Revision
	g.epoch = g.layout.Seed(snap.Graph)
	g.nodes = g.layout.Positions()
	g.links = g.layout.Links()
	return true
}

// Step advances the simulation and the camera by one frame. Stale or late
// ticks are dropped by the engine; the settle pass runs once per seeding.
// It reports whether another frame is needed.
func (g *GraphView) Step(now time.Time, mode model.ViewMode) bool {
	if g.layout.Running() {
		ev, ok := g.layout.Tick(g.epoch)
		if ok {
			g.nodes = g.layout.Positions()
		}
		if ev == layout.EventStopped {
			g.camera.Settled(now)
		}
	}
	g.camera.Sync(now, camera.Deps{
		GraphRevision: g.revision,
		Mode:          mode,
		Size:          g.tracker.Size(),
	})
	busy := g.camera.Advance(now)
	g.phase = paint.AdvancePhase(g.phase)
	return busy || g.layout.Running() || len(g.nodes) > 0
}

// ResetFit schedules the delayed fit that follows a graph reset.
func (g *GraphView) ResetFit(now time.Time) {
	g.camera.FitAfter(now, g.camCfg.ResetDelay)
}

// Recenter moves the camera back to the framing centre.
func (g *GraphView) Recenter(now time.Time) {
	g.camera.Recenter(now)
}

// Animating reports whether the layout or the camera is still moving.
func (g *GraphView) Animating() bool {
	return g.layout.Running() || g.camera.Busy()
}

// Skipped returns how many elements the last frame could not paint.
func (g *GraphView) Skipped() int {
	return g.skipped
}

// Zoom returns the current camera zoom.
func (g *GraphView) Zoom() float64 {
	return g.camera.Zoom()
}

// Frame returns the paintable state at this instant.
func (g *GraphView) Frame() paint.Frame {
	return paint.Frame{
		Nodes: g.nodes,
		Links: g.links,
		View:  g.camera.View(),
		Phase: g.phase,
	}
}

// View paints the current frame.
func (g *GraphView) View(t Theme) string {
	if g.surface == nil {
		cols, rows := viewport.ToCells(g.tracker.Size(), g.cell)
		g.surface = NewBrailleSurface(cols, rows, g.cell, g.renderer)
	}
	cols, rows := g.surface.Cols(), g.surface.Rows()
	if len(g.nodes) == 0 {
		return t.Renderer.NewStyle().
			Width(cols).
			Height(rows).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(t.Muted).
			Render(EmptyGraphText)
	}

	done := metrics.Timer(metrics.FrameRender)
	g.skipped = g.painter.Render(g.surface, g.Frame())
	out := g.surface.String()
	done()
	return out
}

// Overlay is the graph state line: "N Active Nodes" and the confidence of the
// latest answer, zero before any query.
func Overlay(nodes int, m model.Metrics) string {
	return fmt.Sprintf("%d Active Nodes · Confidence ", nodes) + RenderConfidence(m.Confidence)
}

package camera

import (
	"math"
	"testing"
	"time"

	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/testutil"
	"github.com/vanderheijden86/kgview/pkg/viewport"

	"gonum.org/v1/gonum/spatial/r2"
	"pgregory.net/rapid"
)

type fakeScene struct {
	size  viewport.Size
	nodes []model.Node
}

func (s *fakeScene) Viewport() viewport.Size { return s.size }

func (s *fakeScene) Nodes() []model.Node { return s.nodes }

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func kinds(passes []Pass) []PassKind {
	out := make([]PassKind, len(passes))
	for i, p := range passes {
		out[i] = p.Kind
	}
	return out
}

func TestCenterTarget_Heights(t *testing.T) {
	tests := []struct {
		height float64
		want   float64
	}{
		{0, 120},
		{600, 120},
		{1080, 216},
		{math.NaN(), 120},
	}
	for _, tt := range tests {
		got := CenterTarget(viewport.Size{Width: 800, Height: tt.height}, 0.2)
		if got.X != 0 || got.Y != tt.want {
			t.Errorf("height %v: target = %+v, want (0, %v)", tt.height, got, tt.want)
		}
	}
}

func TestRefit_ReachesTargetAndSchedulesCorrective(t *testing.T) {
	scene := &fakeScene{
		size:  viewport.Size{Width: 800, Height: 600},
		nodes: []model.Node{{ID: "a", X: -350, Y: 120}, {ID: "b", X: 350, Y: 120}},
	}
	c := New(DefaultConfig(), scene)
	c.Refit(t0)

	if !c.PendingCorrective() {
		t.Fatal("refit should schedule a corrective pass")
	}
	c.Advance(at(600))
	if c.Center() != (r2.Vec{X: 0, Y: 120}) {
		t.Errorf("centre = %+v, want (0, 120)", c.Center())
	}
	testutil.AssertClose(t, "zoom", c.Zoom(), 1, 1e-9)

	c.Advance(at(999))
	if got := kinds(c.Passes()); len(got) != 1 {
		t.Fatalf("corrective ran early: %v", got)
	}
	if busy := c.Advance(at(1000)); !busy {
		t.Error("corrective transitions should keep the camera busy")
	}
	got := kinds(c.Passes())
	if len(got) != 2 || got[0] != PassRefit || got[1] != PassCorrective {
		t.Fatalf("passes = %v, want [refit corrective]", got)
	}
	if c.Advance(at(2000)) {
		t.Error("camera should be idle once the corrective pass finished")
	}
}

func TestCorrective_RecomputesAtExecutionTime(t *testing.T) {
	scene := &fakeScene{
		size:  viewport.Size{Width: 800, Height: 600},
		nodes: []model.Node{{ID: "a", X: -100, Y: 0}, {ID: "b", X: 100, Y: 0}},
	}
	c := New(DefaultConfig(), scene)
	c.Refit(t0)
	c.Advance(at(600))

	scene.size = viewport.Size{Width: 1920, Height: 1080}
	scene.nodes = []model.Node{{ID: "x", X: -900, Y: 216}, {ID: "y", X: 900, Y: 216}}
	c.Advance(at(1000))

	passes := c.Passes()
	last := passes[len(passes)-1]
	if last.Kind != PassCorrective {
		t.Fatalf("last pass = %v", last.Kind)
	}
	if last.Center != (r2.Vec{X: 0, Y: 216}) {
		t.Errorf("corrective centre = %+v, want (0, 216)", last.Center)
	}
	testutil.AssertClose(t, "corrective zoom", last.Zoom, (960.0-50)/900, 1e-9)
}

func TestRefit_SupersedesPendingCorrective(t *testing.T) {
	scene := &fakeScene{size: viewport.Size{Width: 800, Height: 600}, nodes: []model.Node{{ID: "a", X: 10}}}
	c := New(DefaultConfig(), scene)
	c.Refit(t0)
	c.Refit(at(500))

	for ms := 512; ms <= 3000; ms += 16 {
		c.Advance(at(ms))
	}
	corrective := 0
	for _, p := range c.Passes() {
		if p.Kind == PassCorrective {
			corrective++
			if p.At.Before(at(1500)) {
				t.Errorf("corrective ran at %s, before the newer deadline", p.At.Sub(t0))
			}
		}
	}
	if corrective != 1 {
		t.Errorf("expected one corrective pass, got %d", corrective)
	}
}

func TestCorrective_WaitsForTransitions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CenterDuration = 1500 * time.Millisecond
	c := New(cfg, &fakeScene{size: viewport.Size{Width: 800, Height: 600}})
	c.Refit(t0)

	c.Advance(at(1200))
	if !c.PendingCorrective() {
		t.Fatal("corrective should wait while the centre transition runs")
	}
	c.Advance(at(1500))
	if c.PendingCorrective() {
		t.Error("corrective should run once transitions finish")
	}
}

func TestRecenterAndSettled_NoFollowUp(t *testing.T) {
	c := New(DefaultConfig(), &fakeScene{size: viewport.Size{Width: 800, Height: 600}, nodes: []model.Node{{ID: "a", X: 40}}})
	c.Recenter(t0)
	c.Settled(at(10))
	if c.PendingCorrective() {
		t.Error("recenter and settled must not schedule a corrective pass")
	}
	if got := kinds(c.Passes()); len(got) != 2 || got[0] != PassRecenter || got[1] != PassSettled {
		t.Errorf("passes = %v", got)
	}
}

func TestFitAfter_RunsAfterDelay(t *testing.T) {
	scene := &fakeScene{size: viewport.Size{Width: 800, Height: 600}, nodes: []model.Node{{ID: "a", X: 100, Y: 120}}}
	c := New(DefaultConfig(), scene)
	c.FitAfter(t0, 100*time.Millisecond)

	c.Advance(at(99))
	if len(c.Passes()) != 0 {
		t.Fatal("fit ran before its delay")
	}
	c.Advance(at(100))
	passes := c.Passes()
	if len(passes) != 1 || passes[0].Kind != PassResetFit || !passes[0].Fit {
		t.Fatalf("passes = %+v", passes)
	}
	testutil.AssertClose(t, "fit zoom", passes[0].Zoom, 3.5, 1e-9)
}

func TestSync_FiresOnlyOnChange(t *testing.T) {
	c := New(DefaultConfig(), &fakeScene{})
	deps := Deps{GraphRevision: 1, Mode: model.ViewGraph, Size: viewport.Default()}

	if !c.Sync(t0, deps) {
		t.Error("first sync should fire")
	}
	if c.Sync(at(10), deps) {
		t.Error("unchanged deps should not fire")
	}
	deps.Mode = model.ViewEvidence
	if !c.Sync(at(20), deps) {
		t.Error("mode change should fire")
	}
	deps.Size.Height = 700
	if !c.Sync(at(30), deps) {
		t.Error("size change should fire")
	}
	deps.GraphRevision++
	if !c.Sync(at(40), deps) {
		t.Error("graph change should fire")
	}
}

func TestFitZoom(t *testing.T) {
	cfg := DefaultConfig()
	size := viewport.Size{Width: 800, Height: 600}
	centre := r2.Vec{Y: 120}

	if _, ok := FitZoom(nil, size, centre, cfg); ok {
		t.Error("no nodes should not fit")
	}
	if k, ok := FitZoom([]model.Node{{X: 0, Y: 120}}, size, centre, cfg); !ok || k != cfg.MaxFitZoom {
		t.Errorf("node at centre: k=%v ok=%v", k, ok)
	}
	k, _ := FitZoom([]model.Node{{X: 700, Y: 120}, {X: 0, Y: -380}}, size, centre, cfg)
	testutil.AssertClose(t, "zoom", k, 0.5, 1e-9)

	nan := []model.Node{{X: math.NaN(), Y: 1}}
	if _, ok := FitZoom(nan, size, centre, cfg); ok {
		t.Error("NaN positions should be ignored")
	}
}

func TestProjectUnproject_RoundTrip(t *testing.T) {
	c := New(DefaultConfig(), &fakeScene{size: viewport.Size{Width: 800, Height: 600}, nodes: []model.Node{{X: 300, Y: 20}}})
	c.Refit(t0)
	c.Advance(at(600))

	sx, sy := c.Project(0, 120)
	testutil.AssertClose(t, "centre x", sx, 400, 1e-9)
	testutil.AssertClose(t, "centre y", sy, 300, 1e-9)

	x, y := c.Unproject(c.Project(-42, 17))
	testutil.AssertClose(t, "x", x, -42, 1e-9)
	testutil.AssertClose(t, "y", y, 17, 1e-9)
}

func TestController_NeverProducesNaN(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scene := &fakeScene{
			size: viewport.Size{
				Width:  rapid.Float64Range(-100, 4000).Draw(t, "w"),
				Height: rapid.Float64Range(-100, 4000).Draw(t, "h"),
			},
		}
		n := rapid.IntRange(0, 8).Draw(t, "n")
		for i := 0; i < n; i++ {
			scene.nodes = append(scene.nodes, model.Node{
				X: rapid.Float64Range(-1e4, 1e4).Draw(t, "x"),
				Y: rapid.Float64Range(-1e4, 1e4).Draw(t, "y"),
			})
		}
		c := New(DefaultConfig(), scene)
		c.Refit(t0)
		for ms := 0; ms <= 2000; ms += 50 {
			c.Advance(at(ms))
			centre, k := c.Center(), c.Zoom()
			if math.IsNaN(centre.X) || math.IsNaN(centre.Y) || math.IsNaN(k) || math.IsInf(k, 0) || k <= 0 {
				t.Fatalf("bad transform at %dms: centre=%+v zoom=%v", ms, centre, k)
			}
		}
	})
}

func TestEaseInOutCubic(t *testing.T) {
	if EaseInOutCubic(0) != 0 || EaseInOutCubic(1) != 1 {
		t.Error("endpoints should be fixed")
	}
	testutil.AssertClose(t, "midpoint", EaseInOutCubic(0.5), 0.5, 1e-12)
	if EaseInOutCubic(0.25) >= 0.25 {
		t.Error("curve should ease in")
	}
}

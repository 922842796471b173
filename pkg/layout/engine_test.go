package layout

import (
	"math"
	"testing"

	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/testutil"

	"pgregory.net/rapid"
)

func TestSeed_EmptyGraphDoesNotRun(t *testing.T) {
	e := New(DefaultConfig())
	epoch := e.Seed(model.Graph{})
	if e.Running() {
		t.Fatal("empty graph should not start the simulation")
	}
	if _, ok := e.Tick(epoch); ok {
		t.Error("tick on idle engine should be dropped")
	}
}

func TestRun_StopsOnceWithinCooldown(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg)
	epoch := e.Seed(testutil.NewDefault().Chain(8))

	stopped := 0
	for i := 0; i < cfg.CooldownTicks+10; i++ {
		ev, ok := e.Tick(epoch)
		if !ok {
			break
		}
		if ev == EventStopped {
			stopped++
		}
	}
	if stopped != 1 {
		t.Fatalf("expected exactly one stopped event, got %d", stopped)
	}
	if e.Ticks() > cfg.CooldownTicks {
		t.Errorf("ran %d ticks, cap is %d", e.Ticks(), cfg.CooldownTicks)
	}
	if e.Running() {
		t.Error("engine should be stopped")
	}
	testutil.AssertFinitePositions(t, e.Positions())
}

func TestTick_StaleEpochIsDiscarded(t *testing.T) {
	e := New(DefaultConfig())
	old := e.Seed(testutil.Star("old", 3))
	fresh := e.Seed(testutil.Star("new", 5))

	before := e.Positions()
	if _, ok := e.Tick(old); ok {
		t.Fatal("stale tick should be dropped")
	}
	after := e.Positions()
	for i := range before {
		if before[i].X != after[i].X || before[i].Y != after[i].Y {
			t.Fatalf("stale tick moved node %s", before[i].ID)
		}
	}
	if after[0].ID != "new" {
		t.Errorf("expected new graph, got node %s", after[0].ID)
	}
	if _, ok := e.Tick(fresh); !ok {
		t.Error("current epoch tick should run")
	}
}

func TestCharge_PushesUnlinkedNodesApart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CenterStrength = 0
	cfg.StopEnergy = 0
	e := New(cfg)
	e.Seed(model.Graph{Nodes: []model.Node{{ID: "a", X: -1, Y: 0}, {ID: "b", X: 1, Y: 0}}})

	e.Run()
	p := e.Positions()
	if d := math.Abs(p[1].X - p[0].X); d < 10 {
		t.Errorf("expected nodes to repel, distance %v", d)
	}
}

func TestLink_SpringSettlesNearRestLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChargeStrength = 0
	cfg.StopEnergy = 0
	cfg.CooldownTicks = 300
	e := New(cfg)
	e.Seed(model.Graph{
		Nodes: []model.Node{{ID: "a"}, {ID: "b"}},
		Links: []model.Link{{Source: "a", Target: "b"}},
	})
	e.Run()

	p := e.Positions()
	d := math.Hypot(p[1].X-p[0].X, p[1].Y-p[0].Y)
	testutil.AssertClose(t, "link length", d, cfg.LinkDistance, 5)
}

func TestCenter_KeepsMeanAtOrigin(t *testing.T) {
	e := New(DefaultConfig())
	e.Seed(testutil.NewDefault().Random(20, 0.2))
	e.Run()

	var sx, sy float64
	nodes := e.Positions()
	for _, n := range nodes {
		sx += n.X
		sy += n.Y
	}
	testutil.AssertClose(t, "mean x", sx/float64(len(nodes)), 0, 1e-6)
	testutil.AssertClose(t, "mean y", sy/float64(len(nodes)), 0, 1e-6)
}

func TestSeed_KeepsProvidedPositions(t *testing.T) {
	e := New(DefaultConfig())
	e.Seed(model.Graph{Nodes: []model.Node{{ID: "a", X: 5, Y: 6}, {ID: "b"}}})
	p := e.Positions()
	if p[0].X != 5 || p[0].Y != 6 {
		t.Errorf("provided position overwritten: %+v", p[0])
	}
	if p[1].X == 0 && p[1].Y == 0 {
		t.Error("unplaced node left at origin")
	}
}

func TestPositions_ReturnsCopy(t *testing.T) {
	e := New(DefaultConfig())
	e.Seed(testutil.Star("hub", 2))
	p := e.Positions()
	p[0].X = 1e9
	if e.Positions()[0].X == 1e9 {
		t.Error("positions share storage with the engine")
	}
}

func TestSeed_SkipsDanglingAndSelfLinks(t *testing.T) {
	e := New(DefaultConfig())
	e.Seed(model.Graph{
		Nodes: []model.Node{{ID: "a"}, {ID: "b"}},
		Links: []model.Link{{Source: "a", Target: "b"}, {Source: "a", Target: "zzz"}, {Source: "b", Target: "b"}},
	})
	if len(e.Links()) != 2 {
		t.Errorf("expected 2 renderable links, got %d", len(e.Links()))
	}
	e.Run()
	testutil.AssertFinitePositions(t, e.Positions())
}

func TestRun_FiniteForArbitraryGraphs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g, _ := testutil.GraphGen().Draw(t, "graph").Normalize()
		cfg := DefaultConfig()
		e := New(cfg)
		e.Seed(g)
		ticks := e.Run()
		if ticks > cfg.CooldownTicks {
			t.Fatalf("ran %d ticks", ticks)
		}
		testutil.AssertFinitePositions(t, e.Positions())
	})
}

func TestSeed_ReusesPositionsOfSurvivingNodes(t *testing.T) {
	e := New(DefaultConfig())
	e.Seed(testutil.Star("hub", 3))
	e.Run()
	settled := e.Positions()

	next := testutil.Star("hub", 3)
	next.Nodes = append(next.Nodes, model.Node{ID: "fresh"})
	e.Seed(next)
	p := e.Positions()
	for i := range settled {
		if p[i].X != settled[i].X || p[i].Y != settled[i].Y {
			t.Errorf("node %s moved on reseed: %+v -> %+v", p[i].ID, settled[i], p[i])
		}
	}
	if last := p[len(p)-1]; last.X == 0 && last.Y == 0 {
		t.Error("new node should get a fresh placement")
	}
}

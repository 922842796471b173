package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/kgview/pkg/camera"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/testutil"
	"github.com/vanderheijden86/kgview/pkg/viewport"

	"pgregory.net/rapid"
)

// scene shows the dashboard's current snapshot to the camera.
type scene struct {
	d    *Dashboard
	size viewport.Size
}

func (s scene) Viewport() viewport.Size { return s.size }

func (s scene) Nodes() []model.Node { return s.d.Current().Graph.Nodes }

func deps(d *Dashboard, size viewport.Size) camera.Deps {
	return camera.Deps{GraphRevision: d.Current().Revision, Mode: d.Mode(), Size: size}
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func score(f float64) *float64 { return &f }

func fiveNodeGraph() model.Graph {
	g := testutil.Star("Constitution", 4)
	for i := range g.Nodes {
		g.Nodes[i].X = float64(i*40 - 80)
		g.Nodes[i].Y = float64(i * 10)
	}
	return g
}

func TestScenario1_StartupFetchSeedsBothAndFits(t *testing.T) {
	d := New(DefaultGreeting)
	size := viewport.Size{Width: 800, Height: 600}
	cam := camera.New(camera.DefaultConfig(), scene{d, size})
	cam.Sync(t0, deps(d, size))

	d.LoadFull(model.Graph{
		Nodes: []model.Node{{ID: "Caste"}, {ID: "Democracy"}},
		Links: []model.Link{{Source: "Caste", Target: "Democracy"}},
	})
	if d.Full() != d.Current() {
		t.Fatal("full and current should be the same snapshot")
	}
	if d.Current().NodeCount() != 2 || len(d.Current().Graph.Links) != 1 {
		t.Fatalf("unexpected graph: %+v", d.Current().Graph)
	}
	if !cam.Sync(t0.Add(time.Millisecond), deps(d, size)) {
		t.Error("new graph should trigger a fit pass")
	}
}

func TestScenario2_EmptyGraphKeepsCurrentAndMode(t *testing.T) {
	d := New(DefaultGreeting)
	d.LoadFull(fiveNodeGraph())
	d.SetMode(model.ViewEvidence)
	before := d.Current()

	if _, ok := d.Submit("What is social democracy?"); !ok {
		t.Fatal("submit rejected")
	}
	out := d.Complete(model.ChatResponse{
		Answer:  "Social democracy is ...",
		Metrics: model.Metrics{Confidence: 0.82, SourceCount: 3},
		Context: model.Evidence{
			Local:  []model.ContextItem{{Text: "liberty, equality, fraternity", Score: score(0.91)}},
			Global: []model.ContextItem{{Text: "Community 4 summary"}},
		},
	})

	if out.GraphReplaced {
		t.Error("empty graph must not replace current")
	}
	if d.Current() != before {
		t.Error("current graph changed")
	}
	if d.Mode() != model.ViewEvidence {
		t.Errorf("mode = %v, want evidence", d.Mode())
	}
	if last, _ := d.LastAnswer(); last.Text != "Social democracy is ..." {
		t.Errorf("last answer = %q", last.Text)
	}
	if d.Metrics().SourceCount != 3 || len(d.Evidence().Local) != 1 || len(d.Evidence().Global) != 1 {
		t.Errorf("metrics/evidence not replaced: %+v %+v", d.Metrics(), d.Evidence())
	}
	if d.Busy() {
		t.Error("busy should clear")
	}
}

func TestScenario3_NonEmptyGraphForcesGraphAndRefits(t *testing.T) {
	d := New(DefaultGreeting)
	size := viewport.Size{Width: 800, Height: 600}
	cam := camera.New(camera.DefaultConfig(), scene{d, size})
	cam.Sync(t0, deps(d, size))
	d.SetMode(model.ViewEvidence)
	cam.Sync(t0, deps(d, size))

	d.Submit("Tell me about the constitution")
	out := d.Complete(model.ChatResponse{Answer: "It is ...", GraphData: fiveNodeGraph()})

	if !out.GraphReplaced || d.Current().NodeCount() != 5 {
		t.Fatalf("expected 5-node current graph, got %d", d.Current().NodeCount())
	}
	if d.Mode() != model.ViewGraph {
		t.Errorf("mode = %v, want graph", d.Mode())
	}

	start := len(cam.Passes())
	now := t0.Add(2 * time.Second)
	if !cam.Sync(now, deps(d, size)) {
		t.Fatal("result should trigger a refit")
	}
	for ms := 0; ms <= 1600; ms += 16 {
		cam.Advance(now.Add(time.Duration(ms) * time.Millisecond))
	}
	passes := cam.Passes()[start:]
	if len(passes) != 2 || passes[0].Kind != camera.PassRefit || passes[1].Kind != camera.PassCorrective {
		t.Fatalf("passes = %+v, want refit then corrective", passes)
	}
	if !passes[0].Fit || !passes[1].Fit {
		t.Error("both passes should fit the new nodes")
	}
	if passes[1].At.Sub(now) < time.Second {
		t.Errorf("corrective ran after %s, want at least 1s", passes[1].At.Sub(now))
	}
}

func TestScenario4_FailureAppendsOneFallback(t *testing.T) {
	d := New(DefaultGreeting)
	d.LoadFull(fiveNodeGraph())
	d.Submit("first")
	d.Complete(model.ChatResponse{
		Answer:  "ok",
		Metrics: model.Metrics{Confidence: 0.5, SourceCount: 2},
		Context: model.Evidence{Local: []model.ContextItem{{Text: "x", Score: score(0.3)}}},
	})
	metrics, evidence, current, mode := d.Metrics(), d.Evidence(), d.Current(), d.Mode()
	count := len(d.Messages())

	d.Submit("second")
	d.Fail(errors.New("connection refused"))

	msgs := d.Messages()
	if len(msgs) != count+2 {
		t.Fatalf("expected user entry plus one fallback, got %d new entries", len(msgs)-count)
	}
	if msgs[len(msgs)-1].Text != FallbackMessage || msgs[len(msgs)-1].Role != model.RoleBot {
		t.Errorf("last entry = %+v", msgs[len(msgs)-1])
	}
	if d.Metrics() != metrics {
		t.Error("metrics changed on failure")
	}
	if len(d.Evidence().Local) != len(evidence.Local) || d.Evidence().Local[0].Text != "x" {
		t.Error("evidence changed on failure")
	}
	if d.Current() != current || d.Mode() != mode {
		t.Error("graph or mode changed on failure")
	}
	if d.Busy() {
		t.Error("busy should clear after failure")
	}
}

func TestSubmit_BlankAndBusyAreNoops(t *testing.T) {
	d := New("hi")
	for _, in := range []string{"", "   ", "\t\n"} {
		if _, ok := d.Submit(in); ok {
			t.Errorf("blank %q accepted", in)
		}
	}
	if len(d.Messages()) != 1 {
		t.Fatalf("blank input changed the transcript: %d entries", len(d.Messages()))
	}

	q, ok := d.Submit("  trimmed  ")
	if !ok || q != "trimmed" {
		t.Fatalf("Submit = %q, %v", q, ok)
	}
	if _, ok := d.Submit("second"); ok {
		t.Error("submission while busy should be ignored")
	}
	if len(d.Messages()) != 2 {
		t.Errorf("expected greeting and one query, got %d", len(d.Messages()))
	}
}

func TestReset_RestoresFullAndRequestsFit(t *testing.T) {
	d := New("")
	d.LoadFull(testutil.Star("root", 6))
	full := d.Full()
	d.Submit("q")
	d.Complete(model.ChatResponse{Answer: "a", GraphData: fiveNodeGraph()})

	if !d.Reset() {
		t.Error("reset should request a fit")
	}
	if d.Current() != full {
		t.Error("reset should restore the full snapshot")
	}

	size := viewport.Default()
	cam := camera.New(camera.DefaultConfig(), scene{d, size})
	cam.FitAfter(t0, camera.DefaultConfig().ResetDelay)
	cam.Advance(t0.Add(100 * time.Millisecond))
	if p := cam.Passes(); len(p) != 1 || p[0].Kind != camera.PassResetFit {
		t.Errorf("passes = %+v", p)
	}
}

func TestToggle(t *testing.T) {
	d := New("")
	if d.Mode() != model.ViewGraph {
		t.Fatal("initial mode should be graph")
	}
	if d.Toggle() != model.ViewEvidence || d.Toggle() != model.ViewGraph {
		t.Error("toggle should alternate")
	}
}

func TestLoadFullFailed_LeavesEmptyGraph(t *testing.T) {
	d := New("")
	d.LoadFullFailed(errors.New("dial tcp: refused"))
	if d.Current().NodeCount() != 0 {
		t.Error("graph should stay empty")
	}
}

func TestComplete_ModeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := New("")
		d.LoadFull(testutil.Star("seed", 2))
		startMode := model.ViewMode(rapid.IntRange(0, 1).Draw(t, "mode"))
		d.SetMode(startMode)
		before := d.Current()

		g, _ := testutil.GraphGen().Draw(t, "graph").Normalize()
		d.Submit("q")
		d.Complete(model.ChatResponse{Answer: "a", GraphData: g})

		if g.Empty() {
			if d.Current() != before || d.Mode() != startMode {
				t.Fatal("empty result changed graph or mode")
			}
			return
		}
		if d.Mode() != model.ViewGraph {
			t.Fatalf("non-empty result left mode %v", d.Mode())
		}
	})
}

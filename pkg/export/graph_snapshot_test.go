package export

import (
	"bytes"
	"encoding/xml"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/kgview/pkg/layout"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/testutil"
)

func sampleGraph() model.Graph {
	return testutil.Star("Caste", 4)
}

func fastLayout() layout.Config {
	cfg := layout.DefaultConfig()
	cfg.CooldownTicks = 30
	return cfg
}

func TestSaveGraphSnapshot_SVGAndPNG(t *testing.T) {
	tmp := t.TempDir()
	cases := []struct {
		name string
		file string
	}{
		{"svg", "graph.svg"},
		{"png", "graph.png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(tmp, tc.file)
			err := SaveGraphSnapshot(GraphSnapshotOptions{
				Path:   out,
				Graph:  sampleGraph(),
				Layout: fastLayout(),
				Width:  320,
				Height: 240,
			})
			if err != nil {
				t.Fatalf("SaveGraphSnapshot error: %v", err)
			}
			info, err := os.Stat(out)
			if err != nil {
				t.Fatalf("output not created: %v", err)
			}
			if info.Size() == 0 {
				t.Fatalf("output file is empty")
			}
		})
	}
}

func TestSaveGraphSnapshot_InvalidFormat(t *testing.T) {
	err := SaveGraphSnapshot(GraphSnapshotOptions{
		Path:   filepath.Join(t.TempDir(), "graph.txt"),
		Format: "txt",
		Graph:  sampleGraph(),
	})
	if err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestSaveGraphSnapshot_EmptyGraph(t *testing.T) {
	err := SaveGraphSnapshot(GraphSnapshotOptions{
		Path: filepath.Join(t.TempDir(), "graph.svg"),
	})
	if err == nil {
		t.Fatal("expected error for empty graph")
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, path      string
		wantFmt, wantPath string
		wantErr           bool
	}{
		{"", "a.svg", "svg", "a.svg", false},
		{"", "a.PNG", "png", "a.PNG", false},
		{"", "graph", "png", "graph.png", false},
		{".SVG", "out.img", "svg", "out.img", false},
		{"jpeg", "a.jpg", "", "", true},
		{"png", "", "", "", true},
	}
	for _, tt := range tests {
		gotFmt, gotPath, err := resolveFormat(tt.format, tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveFormat(%q, %q) err = %v", tt.format, tt.path, err)
			continue
		}
		if gotFmt != tt.wantFmt || gotPath != tt.wantPath {
			t.Errorf("resolveFormat(%q, %q) = %q, %q; want %q, %q",
				tt.format, tt.path, gotFmt, gotPath, tt.wantFmt, tt.wantPath)
		}
	}
}

func TestRenderSnapshot_SVGIsValidXML(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSnapshot(&buf, "svg", GraphSnapshotOptions{
		Graph:  sampleGraph(),
		Layout: fastLayout(),
		Title:  "Caste & Democracy",
		Width:  400,
		Height: 300,
	})
	if err != nil {
		t.Fatalf("RenderSnapshot: %v", err)
	}

	var doc interface{}
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("SVG is not valid XML: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Error("missing svg root")
	}
	if !strings.Contains(out, "#020617") {
		t.Error("background colour missing")
	}
	if !strings.Contains(out, "Caste &amp; Democracy") {
		t.Error("title should be escaped into the summary block")
	}
	if strings.Count(out, "<circle") < 5*2 {
		t.Errorf("expected a glow and a core per node, got %d circles", strings.Count(out, "<circle"))
	}
}

func TestRenderSnapshot_NoSummary(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSnapshot(&buf, "svg", GraphSnapshotOptions{
		Graph:     sampleGraph(),
		Layout:    fastLayout(),
		Title:     "hidden title",
		NoSummary: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "hidden title") {
		t.Error("summary block should be omitted")
	}
}

func TestRenderSnapshot_PNGDimensions(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSnapshot(&buf, "png", GraphSnapshotOptions{
		Graph:  sampleGraph(),
		Layout: fastLayout(),
		Width:  200,
		Height: 150,
	}); err != nil {
		t.Fatalf("RenderSnapshot: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("bounds = %v", b)
	}
	// Bottom-left corner sits outside the header and, with the graph fitted
	// around the shifted centre, shows bare background.
	r, g, b, _ := img.At(1, 148).RGBA()
	if r>>8 != 0x02 || g>>8 != 0x06 || b>>8 != 0x17 {
		t.Errorf("corner pixel = %02x%02x%02x, want 020617", r>>8, g>>8, b>>8)
	}
}

func TestRenderSnapshot_DanglingLinksDoNotAbort(t *testing.T) {
	g := sampleGraph()
	g.Links = append(g.Links, model.Link{Source: "Caste", Target: "ghost"})

	var buf bytes.Buffer
	if err := RenderSnapshot(&buf, "svg", GraphSnapshotOptions{Graph: g, Layout: fastLayout()}); err != nil {
		t.Fatalf("RenderSnapshot: %v", err)
	}
	if !strings.Contains(buf.String(), "dropped: 1") {
		t.Error("summary should report the dropped link")
	}
}

func TestGraphHash_OrderIndependent(t *testing.T) {
	a := model.Graph{
		Nodes: []model.Node{{ID: "a"}, {ID: "b"}},
		Links: []model.Link{{Source: "a", Target: "b"}},
	}
	b := model.Graph{
		Nodes: []model.Node{{ID: "b"}, {ID: "a"}},
		Links: []model.Link{{Source: "a", Target: "b"}},
	}
	if GraphHash(a) != GraphHash(b) {
		t.Error("hash should not depend on node order")
	}
	if len(GraphHash(a)) != 12 {
		t.Errorf("hash length = %d", len(GraphHash(a)))
	}
	b.Links[0] = model.Link{Source: "b", Target: "a"}
	if GraphHash(a) == GraphHash(b) {
		t.Error("link direction should change the hash")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"日本語テキスト", 5, "日本..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRenderSnapshot_SummaryNamesHub(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSnapshot(&buf, "svg", GraphSnapshotOptions{Graph: sampleGraph(), Layout: fastLayout()}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "top hub: Caste") || !strings.Contains(out, "components: 1") {
		t.Errorf("summary missing hub or components:\n%s", out)
	}
	if strings.Contains(out, "bridge:") {
		t.Error("bridge equal to the hub should not be repeated")
	}
}

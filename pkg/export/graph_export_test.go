package export

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/testutil"
)

func chainGraph() model.Graph {
	// a - b - c - d, plus a dangling link that Normalize drops.
	return model.Graph{
		Nodes: []model.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		Links: []model.Link{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "d"},
			{Source: "d", Target: "ghost"},
		},
	}
}

func TestExportGraph_JSON(t *testing.T) {
	result, err := ExportGraph(chainGraph(), GraphExportConfig{Format: GraphFormatJSON})
	if err != nil {
		t.Fatalf("ExportGraph failed: %v", err)
	}
	if result.Format != "json" {
		t.Errorf("Expected format 'json', got %s", result.Format)
	}
	if result.Nodes != 4 || result.Edges != 3 {
		t.Errorf("Expected 4 nodes / 3 edges, got %d / %d", result.Nodes, result.Edges)
	}
	if result.Adjacency == nil {
		t.Fatal("Expected adjacency to be non-nil for JSON format")
	}
	b := result.Adjacency.Nodes[1]
	if b.ID != "b" || b.Degree != 2 || strings.Join(b.Neighbors, ",") != "a,c" {
		t.Errorf("node b = %+v", b)
	}

	data, err := result.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("result JSON invalid: %v", err)
	}
	if decoded["data_hash"] == "" {
		t.Error("data_hash missing")
	}
}

func TestExportGraph_DefaultFormatIsJSON(t *testing.T) {
	result, err := ExportGraph(chainGraph(), GraphExportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Format != "json" || result.Adjacency == nil {
		t.Errorf("result = %+v", result)
	}
}

func TestExportGraph_UnknownFormat(t *testing.T) {
	if _, err := ExportGraph(chainGraph(), GraphExportConfig{Format: "gexf"}); err == nil {
		t.Error("expected error")
	}
}

func TestExportGraph_DOT(t *testing.T) {
	g := chainGraph()
	g.Nodes[0].ID = `quote"d`
	g.Links[0].Source = `quote"d`

	result, err := ExportGraph(g, GraphExportConfig{Format: GraphFormatDOT})
	if err != nil {
		t.Fatal(err)
	}
	out := result.Graph
	if !strings.HasPrefix(out, "digraph G {") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("not a DOT digraph:\n%s", out)
	}
	if !strings.Contains(out, `"quote\"d" -> "b";`) {
		t.Errorf("escaped edge missing:\n%s", out)
	}
	if strings.Contains(out, "ghost") {
		t.Error("dangling link should not be exported")
	}
}

func TestExportGraph_Mermaid(t *testing.T) {
	g := testutil.Star("hub", 4)
	result, err := ExportGraph(g, GraphExportConfig{Format: GraphFormatMermaid})
	if err != nil {
		t.Fatal(err)
	}
	out := result.Graph
	if !strings.HasPrefix(out, "graph LR\n") {
		t.Errorf("unexpected header:\n%s", out)
	}
	hub := mermaidID("hub")
	if !strings.Contains(out, hub+`["hub"]:::hub`) {
		t.Errorf("hub should use the hub class:\n%s", out)
	}
	if strings.Count(out, " --> ") != 4 {
		t.Errorf("expected 4 edges:\n%s", out)
	}
	if mermaidID("hub") != hub || mermaidID("hub") == mermaidID("hub-spoke1") {
		t.Error("mermaid ids should be stable and distinct")
	}
}

func TestExportGraph_RootAndDepth(t *testing.T) {
	result, err := ExportGraph(chainGraph(), GraphExportConfig{Root: "b", Depth: 1})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, n := range result.Adjacency.Nodes {
		ids = append(ids, n.ID)
	}
	if got := strings.Join(ids, ","); got != "a,b,c" {
		t.Errorf("depth-1 neighbourhood of b = %s", got)
	}
	if result.FiltersApplied["root"] != "b" || result.FiltersApplied["depth"] != "1" {
		t.Errorf("filters = %v", result.FiltersApplied)
	}

	if _, err := ExportGraph(chainGraph(), GraphExportConfig{Root: "zzz"}); err == nil {
		t.Error("expected error for unknown root")
	}
}

func TestExportGraph_MinDegree(t *testing.T) {
	g := testutil.Star("hub", 3)
	g.Nodes = append(g.Nodes, model.Node{ID: "loner"})
	result, err := ExportGraph(g, GraphExportConfig{MinDegree: 1})
	if err != nil {
		t.Fatal(err)
	}
	if result.Nodes != 4 {
		t.Errorf("isolated node should be filtered, got %d nodes", result.Nodes)
	}
}

package export

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/kgview/pkg/model"
)

// GraphExportFormat specifies the output format for text graph export.
type GraphExportFormat string

const (
	GraphFormatJSON    GraphExportFormat = "json"
	GraphFormatDOT     GraphExportFormat = "dot"
	GraphFormatMermaid GraphExportFormat = "mermaid"
)

// GraphExportConfig configures graph export behavior.
type GraphExportConfig struct {
	Format    GraphExportFormat // Output format (json, dot, mermaid)
	Root      string            // Subgraph around a specific node
	Depth     int               // Max hops from Root (0 = unlimited)
	MinDegree int               // Drop nodes with fewer neighbours
}

// GraphExportResult contains the exported graph and metadata.
type GraphExportResult struct {
	Format         string            `json:"format"`
	Graph          string            `json:"graph,omitempty"`
	Nodes          int               `json:"nodes"`
	Edges          int               `json:"edges"`
	FiltersApplied map[string]string `json:"filters_applied,omitempty"`
	DataHash       string            `json:"data_hash"`
	Adjacency      *AdjacencyGraph   `json:"adjacency,omitempty"`
}

// AdjacencyGraph is the JSON adjacency list representation.
type AdjacencyGraph struct {
	Nodes []AdjacencyNode `json:"nodes"`
	Edges []AdjacencyEdge `json:"edges"`
}

// AdjacencyNode represents a node in the adjacency graph.
type AdjacencyNode struct {
	ID        string   `json:"id"`
	Val       float64  `json:"val,omitempty"`
	Degree    int      `json:"degree"`
	Neighbors []string `json:"neighbors,omitempty"`
}

// AdjacencyEdge represents an edge in the adjacency graph.
type AdjacencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ExportGraph renders g as text in the configured format.
func ExportGraph(g model.Graph, config GraphExportConfig) (*GraphExportResult, error) {
	norm, _ := g.Normalize()
	filtered, err := filterGraph(norm, config)
	if err != nil {
		return nil, err
	}

	filtersApplied := make(map[string]string)
	if config.Root != "" {
		filtersApplied["root"] = config.Root
	}
	if config.Depth > 0 {
		filtersApplied["depth"] = fmt.Sprintf("%d", config.Depth)
	}
	if config.MinDegree > 0 {
		filtersApplied["min_degree"] = fmt.Sprintf("%d", config.MinDegree)
	}

	result := &GraphExportResult{
		Format:         string(config.Format),
		Nodes:          len(filtered.Nodes),
		Edges:          len(filtered.Links),
		FiltersApplied: filtersApplied,
		DataHash:       GraphHash(filtered),
	}

	switch config.Format {
	case GraphFormatDOT:
		result.Graph = generateDOT(filtered)
	case GraphFormatMermaid:
		result.Graph = generateMermaid(filtered)
	case GraphFormatJSON, "":
		result.Format = string(GraphFormatJSON)
		result.Adjacency = generateAdjacency(filtered)
	default:
		return nil, fmt.Errorf("unsupported graph format %q (want json, dot or mermaid)", config.Format)
	}
	return result, nil
}

// filterGraph applies the root/depth and degree filters. Links are kept only
// when both endpoints survive.
func filterGraph(g model.Graph, config GraphExportConfig) (model.Graph, error) {
	keep := make(map[string]bool, len(g.Nodes))
	if config.Root != "" {
		if _, ok := g.NodeIndex()[config.Root]; !ok {
			return model.Graph{}, fmt.Errorf("root node %q not found", config.Root)
		}
		for id := range neighbourhood(g, config.Root, config.Depth) {
			keep[id] = true
		}
	} else {
		for _, n := range g.Nodes {
			keep[n.ID] = true
		}
	}
	if config.MinDegree > 0 {
		for _, n := range g.Nodes {
			if n.Degree < config.MinDegree && n.ID != config.Root {
				delete(keep, n.ID)
			}
		}
	}

	out := model.Graph{}
	for _, n := range g.Nodes {
		if keep[n.ID] {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, l := range g.Links {
		if keep[l.Source] && keep[l.Target] {
			out.Links = append(out.Links, l)
		}
	}
	return out, nil
}

// neighbourhood walks links in both directions breadth first from root.
func neighbourhood(g model.Graph, root string, maxDepth int) map[string]bool {
	adj := make(map[string][]string, len(g.Nodes))
	for _, l := range g.Links {
		adj[l.Source] = append(adj[l.Source], l.Target)
		adj[l.Target] = append(adj[l.Target], l.Source)
	}

	seen := map[string]bool{root: true}
	frontier := []string{root}
	for depth := 0; len(frontier) > 0 && (maxDepth <= 0 || depth < maxDepth); depth++ {
		var next []string
		for _, id := range frontier {
			for _, nb := range adj[id] {
				if !seen[nb] {
					seen[nb] = true
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}
	return seen
}

func sortedNodes(g model.Graph) []model.Node {
	nodes := make([]model.Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

func sortedLinks(g model.Graph) []model.Link {
	links := make([]model.Link, len(g.Links))
	copy(links, g.Links)
	sort.Slice(links, func(i, j int) bool {
		if links[i].Source != links[j].Source {
			return links[i].Source < links[j].Source
		}
		return links[i].Target < links[j].Target
	})
	return links
}

// generateDOT creates a Graphviz DOT format graph. Hubs get a thicker pen.
func generateDOT(g model.Graph) string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    layout=neato;\n")
	sb.WriteString("    bgcolor=\"#020617\";\n")
	sb.WriteString("    node [shape=circle, style=filled, fillcolor=\"#38bdf8\", fontname=\"Helvetica\", fontsize=10, fontcolor=\"#e2e8f0\"];\n")
	sb.WriteString("    edge [color=\"#94a3b833\"];\n")
	sb.WriteString("\n")

	for _, n := range sortedNodes(g) {
		penwidth := 1.0 + float64(n.Degree)*0.25
		sb.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", penwidth=%.2f];\n",
			escapeDOTString(n.ID), escapeDOTString(truncateRunes(n.ID, 30)), penwidth))
	}

	sb.WriteString("\n")
	for _, l := range sortedLinks(g) {
		sb.WriteString(fmt.Sprintf("    \"%s\" -> \"%s\";\n", escapeDOTString(l.Source), escapeDOTString(l.Target)))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func escapeDOTString(s string) string {
	// DOT string literals need backslashes and quotes escaped; normalize newlines.
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", " ",
		"\r", " ",
	)
	return replacer.Replace(s)
}

func truncateRunes(s string, max int) string {
	return truncate(s, max)
}

// generateMermaid creates a Mermaid flowchart. Ids become stable hashes since
// node names are free text.
func generateMermaid(g model.Graph) string {
	var sb strings.Builder

	sb.WriteString("graph LR\n")
	sb.WriteString("    classDef hub fill:#38bdf8,stroke:#0f172a,color:#020617\n")
	sb.WriteString("    classDef leaf fill:#1e293b,stroke:#38bdf8,color:#e2e8f0\n")

	for _, n := range sortedNodes(g) {
		class := "leaf"
		if n.Degree > 3 {
			class = "hub"
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]:::%s\n", mermaidID(n.ID), sanitizeMermaidText(n.ID), class))
	}
	for _, l := range sortedLinks(g) {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(l.Source), mermaidID(l.Target)))
	}
	return sb.String()
}

func mermaidID(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return fmt.Sprintf("n%08x", h.Sum32())
}

func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"\n", " ",
		"\r", " ",
		"[", "(",
		"]", ")",
	)
	return truncateRunes(strings.TrimSpace(replacer.Replace(text)), 40)
}

// generateAdjacency creates a JSON adjacency list representation.
func generateAdjacency(g model.Graph) *AdjacencyGraph {
	neighbours := make(map[string][]string, len(g.Nodes))
	links := sortedLinks(g)
	edges := make([]AdjacencyEdge, 0, len(links))
	for _, l := range links {
		neighbours[l.Source] = append(neighbours[l.Source], l.Target)
		if l.Source != l.Target {
			neighbours[l.Target] = append(neighbours[l.Target], l.Source)
		}
		edges = append(edges, AdjacencyEdge{From: l.Source, To: l.Target})
	}

	sorted := sortedNodes(g)
	nodes := make([]AdjacencyNode, 0, len(sorted))
	for _, n := range sorted {
		nb := neighbours[n.ID]
		sort.Strings(nb)
		nodes = append(nodes, AdjacencyNode{ID: n.ID, Val: n.Val, Degree: n.Degree, Neighbors: nb})
	}
	return &AdjacencyGraph{Nodes: nodes, Edges: edges}
}

// JSON returns the result as indented JSON bytes.
func (r *GraphExportResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

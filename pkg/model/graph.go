// Package model defines the data exchanged with the knowledge engine and shared
// between the graph store, layout engine, painter and camera.
package model

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/graph/simple"
)

// Node is a concept in the knowledge graph. ID doubles as the display label.
//
// X/Y/VX/VY are owned by the layout engine for the lifetime of a snapshot.
type Node struct {
	ID     string  `json:"id"`
	Val    float64 `json:"val,omitempty"`
	Degree int     `json:"degree,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	VX     float64 `json:"-"`
	VY     float64 `json:"-"`
}

// Link connects two nodes by id. Direction is only used for display.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// UnmarshalJSON accepts plain ids as well as embedded node objects
// ({"id": "..."}) for source and target.
func (l *Link) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source json.RawMessage `json:"source"`
		Target json.RawMessage `json:"target"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	src, err := endpointID(raw.Source)
	if err != nil {
		return fmt.Errorf("link source: %w", err)
	}
	dst, err := endpointID(raw.Target)
	if err != nil {
		return fmt.Errorf("link target: %w", err)
	}
	l.Source, l.Target = src, dst
	return nil
}

func endpointID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", err
		}
		return endpointID(obj.ID)
	default:
		// numeric ids from node-link exports
		return string(raw), nil
	}
}

// Graph is a node-link snapshot as served by GET /graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Empty reports whether the graph has no nodes.
func (g Graph) Empty() bool {
	return len(g.Nodes) == 0
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Links: make([]Link, len(g.Links)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Links, g.Links)
	return out
}

// NormalizeReport describes what Normalize had to repair.
type NormalizeReport struct {
	DroppedNodes  int
	DanglingLinks int
	DegreesFilled bool
}

// Normalize returns a copy of g that satisfies the snapshot invariants: node
// ids are unique (first occurrence wins), every link references nodes of the
// same snapshot, and Degree is populated when the producer left it empty.
func (g Graph) Normalize() (Graph, NormalizeReport) {
	var rep NormalizeReport
	out := Graph{
		Nodes: make([]Node, 0, len(g.Nodes)),
		Links: make([]Link, 0, len(g.Links)),
	}

	index := make(map[string]int64, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			rep.DroppedNodes++
			continue
		}
		if _, dup := index[n.ID]; dup {
			rep.DroppedNodes++
			continue
		}
		index[n.ID] = int64(len(out.Nodes))
		out.Nodes = append(out.Nodes, n)
	}

	for _, l := range g.Links {
		_, okS := index[l.Source]
		_, okT := index[l.Target]
		if !okS || !okT {
			rep.DanglingLinks++
			continue
		}
		out.Links = append(out.Links, l)
	}

	anyDegree := false
	for _, n := range out.Nodes {
		if n.Degree != 0 {
			anyDegree = true
			break
		}
	}
	if !anyDegree && len(out.Links) > 0 {
		fillDegrees(out, index)
		rep.DegreesFilled = true
	}
	return out, rep
}

// fillDegrees counts distinct neighbours per node. Self loops and parallel
// links are collapsed, matching how the engine's networkx export reports
// degree for simple graphs.
func fillDegrees(g Graph, index map[string]int64) {
	ug := simple.NewUndirectedGraph()
	for i := range g.Nodes {
		ug.AddNode(simple.Node(int64(i)))
	}
	for _, l := range g.Links {
		s, t := index[l.Source], index[l.Target]
		if s == t {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(s), simple.Node(t)))
	}
	for i := range g.Nodes {
		g.Nodes[i].Degree = ug.From(int64(i)).Len()
	}
}

// NodeIndex maps node ids to their position in g.Nodes.
func (g Graph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Package testutil provides graph fixtures and assertions shared by tests.
// Topology generators are deterministic; GraphGen draws arbitrary graphs for
// property tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/kgview/pkg/model"

	"pgregory.net/rapid"
)

// GeneratorConfig controls graph generation.
type GeneratorConfig struct {
	Seed     int64  // Random seed for determinism
	IDPrefix string // Prefix for node IDs (default: "n")
	MaxVal   int    // Upper bound for node Val (0 = leave unset)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, IDPrefix: "n"}
}

// Generator creates graphs with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "n"
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) node(i int) model.Node {
	n := model.Node{ID: fmt.Sprintf("%s%d", g.cfg.IDPrefix, i)}
	if g.cfg.MaxVal > 0 {
		n.Val = float64(1 + g.rng.Intn(g.cfg.MaxVal))
	}
	return n
}

// Chain creates a path n0 - n1 - ... - n{size-1}.
func (g *Generator) Chain(size int) model.Graph {
	out := model.Graph{}
	for i := 0; i < size; i++ {
		out.Nodes = append(out.Nodes, g.node(i))
		if i > 0 {
			out.Links = append(out.Links, model.Link{Source: out.Nodes[i-1].ID, Target: out.Nodes[i].ID})
		}
	}
	return out
}

// Random creates a graph with size nodes and roughly density*size^2/2 links.
func (g *Generator) Random(size int, density float64) model.Graph {
	out := model.Graph{}
	for i := 0; i < size; i++ {
		out.Nodes = append(out.Nodes, g.node(i))
	}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if g.rng.Float64() < density {
				out.Links = append(out.Links, model.Link{Source: out.Nodes[i].ID, Target: out.Nodes[j].ID})
			}
		}
	}
	return out
}

// Star creates a hub connected to spokes leaf nodes.
func Star(hub string, spokes int) model.Graph {
	out := model.Graph{Nodes: []model.Node{{ID: hub}}}
	for i := 1; i <= spokes; i++ {
		id := fmt.Sprintf("%s-spoke%d", hub, i)
		out.Nodes = append(out.Nodes, model.Node{ID: id})
		out.Links = append(out.Links, model.Link{Source: hub, Target: id})
	}
	return out
}

// GraphGen draws small graphs, including empty ones and graphs whose links
// point at missing nodes.
func GraphGen() *rapid.Generator[model.Graph] {
	return rapid.Custom(func(t *rapid.T) model.Graph {
		n := rapid.IntRange(0, 12).Draw(t, "nodes")
		g := model.Graph{}
		for i := 0; i < n; i++ {
			g.Nodes = append(g.Nodes, model.Node{
				ID:  fmt.Sprintf("c%d", i),
				Val: rapid.Float64Range(0, 10).Draw(t, "val"),
			})
		}
		links := rapid.IntRange(0, 2*n+1).Draw(t, "links")
		for i := 0; i < links; i++ {
			// n+1 lets some links dangle
			s := rapid.IntRange(0, n).Draw(t, "src")
			d := rapid.IntRange(0, n).Draw(t, "dst")
			g.Links = append(g.Links, model.Link{Source: fmt.Sprintf("c%d", s), Target: fmt.Sprintf("c%d", d)})
		}
		return g
	})
}

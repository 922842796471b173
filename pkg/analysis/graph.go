// Package analysis computes structural metrics of a knowledge graph: which
// concepts are central, which ones bridge otherwise separate themes, and how
// fragmented the graph is.
package analysis

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/metrics"
	"github.com/vanderheijden86/kgview/pkg/model"
)

// Stats holds the metrics of one graph.
type Stats struct {
	NodeCount  int
	LinkCount  int
	Density    float64
	Components int

	PageRank    map[string]float64
	Betweenness map[string]float64
	Degree      map[string]int

	PageRankTimedOut      bool
	BetweennessTimedOut   bool
	BetweennessSkipReason string
}

// Hubs returns up to n concepts ranked by PageRank, falling back to degree
// when PageRank was not computed.
func (s Stats) Hubs(n int) []string {
	if len(s.PageRank) > 0 {
		return topN(s.PageRank, n)
	}
	deg := make(map[string]float64, len(s.Degree))
	for id, d := range s.Degree {
		deg[id] = float64(d)
	}
	return topN(deg, n)
}

// Bridges returns up to n concepts with non-zero betweenness, highest first.
func (s Stats) Bridges(n int) []string {
	nonZero := make(map[string]float64, len(s.Betweenness))
	for id, v := range s.Betweenness {
		if v > 0 {
			nonZero[id] = v
		}
	}
	return topN(nonZero, n)
}

// topN sorts by score descending and id ascending for stable output.
func topN(scores map[string]float64, n int) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := scores[ids[i]], scores[ids[j]]
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// Analyzer holds a knowledge graph in gonum form. Relations are treated as
// undirected: a concept is central whichever side of a link it sits on.
type Analyzer struct {
	g        *simple.UndirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
	links    int
}

// NewAnalyzer builds the analysis graph. Self-loops, duplicate relations and
// links to unknown nodes are ignored.
func NewAnalyzer(kg model.Graph) *Analyzer {
	g := simple.NewUndirectedGraph()
	idToNode := make(map[string]int64, len(kg.Nodes))
	nodeToID := make(map[int64]string, len(kg.Nodes))

	for _, n := range kg.Nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := idToNode[n.ID]; dup {
			continue
		}
		node := g.NewNode()
		g.AddNode(node)
		idToNode[n.ID] = node.ID()
		nodeToID[node.ID()] = n.ID
	}

	for _, l := range kg.Links {
		u, ok := idToNode[l.Source]
		if !ok {
			continue
		}
		v, ok := idToNode[l.Target]
		if !ok || u == v {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(u), g.Node(v)))
	}

	return &Analyzer{
		g:        g,
		idToNode: idToNode,
		nodeToID: nodeToID,
		links:    g.Edges().Len(),
	}
}

// Analyze runs the metrics chosen by ConfigForSize.
func (a *Analyzer) Analyze() Stats {
	return a.AnalyzeWithConfig(ConfigForSize(len(a.idToNode), a.links))
}

// AnalyzeWithConfig runs the metrics enabled in cfg. Metrics that exceed
// their timeout fall back to uniform scores and are flagged.
func (a *Analyzer) AnalyzeWithConfig(cfg Config) Stats {
	defer metrics.Timer(metrics.GraphAnalysis)()

	stats := Stats{
		NodeCount:             len(a.idToNode),
		LinkCount:             a.links,
		Density:               Density(len(a.idToNode), a.links),
		Degree:                make(map[string]int, len(a.idToNode)),
		BetweennessSkipReason: cfg.BetweennessSkipReason,
	}
	if stats.NodeCount == 0 {
		return stats
	}

	for id, nid := range a.idToNode {
		stats.Degree[id] = a.g.From(nid).Len()
	}
	stats.Components = len(topo.ConnectedComponents(a.g))

	if cfg.ComputePageRank {
		start := time.Now()
		pr, ok := runWithTimeout(cfg.PageRankTimeout, func() map[int64]float64 {
			return network.PageRank(directed(a.g), 0.85, 1e-6)
		})
		stats.PageRank = a.byID(pr, ok, 1/float64(stats.NodeCount))
		stats.PageRankTimedOut = !ok
		debug.LogTiming("analysis: pagerank", time.Since(start))
	}

	if cfg.ComputeBetweenness {
		start := time.Now()
		bw, ok := runWithTimeout(cfg.BetweennessTimeout, func() map[int64]float64 {
			return network.Betweenness(a.g)
		})
		stats.Betweenness = a.byID(bw, ok, 0)
		stats.BetweennessTimedOut = !ok
		if !ok {
			stats.BetweennessSkipReason = "timed out"
		}
		debug.LogTiming("analysis: betweenness", time.Since(start))
	}
	return stats
}

// byID maps gonum ids back to concept ids. On timeout every node gets the
// fallback score.
func (a *Analyzer) byID(scores map[int64]float64, ok bool, fallback float64) map[string]float64 {
	out := make(map[string]float64, len(a.idToNode))
	for id := range a.idToNode {
		out[id] = fallback
	}
	if !ok {
		return out
	}
	for nid, v := range scores {
		if id, found := a.nodeToID[nid]; found {
			out[id] = v
		}
	}
	return out
}

// directed mirrors every relation in both directions for PageRank, which
// needs a directed graph.
func directed(u *simple.UndirectedGraph) graph.Directed {
	d := simple.NewDirectedGraph()
	nodes := u.Nodes()
	for nodes.Next() {
		d.AddNode(simple.Node(nodes.Node().ID()))
	}
	edges := u.Edges()
	for edges.Next() {
		e := edges.Edge()
		from, to := e.From().ID(), e.To().ID()
		d.SetEdge(d.NewEdge(d.Node(from), d.Node(to)))
		d.SetEdge(d.NewEdge(d.Node(to), d.Node(from)))
	}
	return d
}

type metricResult struct {
	scores map[int64]float64
	ok     bool
}

// runWithTimeout runs fn in a goroutine and gives up after timeout. A panic
// inside fn fails the metric immediately, like a timeout.
func runWithTimeout(timeout time.Duration, fn func() map[int64]float64) (map[int64]float64, bool) {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	done := make(chan metricResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				debug.Warn("analysis: metric panicked: %v", r)
				done <- metricResult{}
			}
		}()
		done <- metricResult{scores: fn(), ok: true}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		return res.scores, res.ok
	case <-timer.C:
		return nil, false
	}
}

package testutil

import (
	"math"

	"github.com/vanderheijden86/kgview/pkg/model"
)

// TB is the subset of testing.TB (and *rapid.T) the assertions need.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
}

// AssertNoDanglingLinks verifies every link references a node of g.
func AssertNoDanglingLinks(t TB, g model.Graph) {
	t.Helper()
	idx := g.NodeIndex()
	for i, l := range g.Links {
		if _, ok := idx[l.Source]; !ok {
			t.Errorf("link %d: source %q not in graph", i, l.Source)
		}
		if _, ok := idx[l.Target]; !ok {
			t.Errorf("link %d: target %q not in graph", i, l.Target)
		}
	}
}

// AssertNoDuplicateIDs verifies all node IDs are unique.
func AssertNoDuplicateIDs(t TB, g model.Graph) {
	t.Helper()
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertFinitePositions verifies no node has a NaN or infinite coordinate.
func AssertFinitePositions(t TB, nodes []model.Node) {
	t.Helper()
	for _, n := range nodes {
		if !finite(n.X) || !finite(n.Y) {
			t.Errorf("node %s has non-finite position (%v, %v)", n.ID, n.X, n.Y)
		}
	}
}

// AssertClose verifies got is within eps of want.
func AssertClose(t TB, name string, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, eps)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

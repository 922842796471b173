package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/kgview/pkg/model"
)

// GraphDiff summarises how a reloaded graph differs from the previous one.
type GraphDiff struct {
	Added       []string
	Removed     []string
	ValChanged  []string
	LinksBefore int
	LinksAfter  int
	NodesBefore int
	NodesAfter  int
}

// Changed reports whether anything differs.
func (d GraphDiff) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.ValChanged) > 0 || d.LinksBefore != d.LinksAfter
}

// Summary returns a one-line description suitable for a status bar.
func (d GraphDiff) Summary() string {
	if !d.Changed() {
		return fmt.Sprintf("graph unchanged (%d nodes)", d.NodesAfter)
	}
	parts := []string{fmt.Sprintf("%d nodes", d.NodesAfter)}
	if len(d.Added) > 0 {
		parts = append(parts, fmt.Sprintf("+%d", len(d.Added)))
	}
	if len(d.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("-%d", len(d.Removed)))
	}
	if len(d.ValChanged) > 0 {
		parts = append(parts, fmt.Sprintf("~%d", len(d.ValChanged)))
	}
	if d.LinksBefore != d.LinksAfter {
		parts = append(parts, fmt.Sprintf("links %d→%d", d.LinksBefore, d.LinksAfter))
	}
	return "graph reloaded: " + strings.Join(parts, " ")
}

// DiffGraphs compares two graphs by node id. Id lists are sorted.
func DiffGraphs(before, after model.Graph) GraphDiff {
	d := GraphDiff{
		NodesBefore: len(before.Nodes),
		NodesAfter:  len(after.Nodes),
		LinksBefore: len(before.Links),
		LinksAfter:  len(after.Links),
	}

	old := make(map[string]model.Node, len(before.Nodes))
	for _, n := range before.Nodes {
		old[n.ID] = n
	}
	seen := make(map[string]bool, len(after.Nodes))
	for _, n := range after.Nodes {
		seen[n.ID] = true
		prev, ok := old[n.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, n.ID)
		case prev.Val != n.Val:
			d.ValChanged = append(d.ValChanged, n.ID)
		}
	}
	for id := range old {
		if !seen[id] {
			d.Removed = append(d.Removed, id)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.ValChanged)
	return d
}

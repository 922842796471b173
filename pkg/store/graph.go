// Package store holds the session's data snapshots: the full and query-scoped
// graphs, the evidence lists, the latest metrics and the chat transcript.
//
// Every update replaces a whole snapshot; nothing is mutated in place, so
// consumers detect change by comparing revisions.
package store

import (
	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/model"
)

// Snapshot is an immutable, normalized graph tagged with the revision that
// published it. Callers must not modify Graph.
type Snapshot struct {
	Revision uint64
	Graph    model.Graph
}

// NodeCount returns the number of nodes in the snapshot.
func (s *Snapshot) NodeCount() int {
	if s == nil {
		return 0
	}
	return len(s.Graph.Nodes)
}

// GraphStore owns the full corpus graph and the graph scoped to the latest
// query.
type GraphStore struct {
	rev     uint64
	full    *Snapshot
	current *Snapshot
}

// NewGraphStore returns a store holding two empty snapshots.
func NewGraphStore() *GraphStore {
	empty := &Snapshot{}
	return &GraphStore{full: empty, current: empty}
}

func (s *GraphStore) publish(g model.Graph) *Snapshot {
	norm, rep := g.Normalize()
	if rep.DanglingLinks > 0 || rep.DroppedNodes > 0 {
		debug.Log("graph store: dropped %d dangling links, %d invalid nodes", rep.DanglingLinks, rep.DroppedNodes)
	}
	s.rev++
	return &Snapshot{Revision: s.rev, Graph: norm}
}

// SetFull replaces the full snapshot and seeds the current one with it.
func (s *GraphStore) SetFull(g model.Graph) {
	snap := s.publish(g)
	s.full = snap
	s.current = snap
}

// SetCurrent replaces the scoped snapshot. Graphs without nodes are ignored so
// the last good graph stays on screen; the return value reports whether the
// snapshot changed.
func (s *GraphStore) SetCurrent(g model.Graph) bool {
	if g.Empty() {
		return false
	}
	snap := s.publish(g)
	if snap.Graph.Empty() {
		return false
	}
	s.current = snap
	return true
}

// Reset makes the full snapshot current again.
func (s *GraphStore) Reset() {
	s.current = s.full
}

// Full returns the full snapshot.
func (s *GraphStore) Full() *Snapshot {
	return s.full
}

// Current returns the scoped snapshot.
func (s *GraphStore) Current() *Snapshot {
	return s.current
}

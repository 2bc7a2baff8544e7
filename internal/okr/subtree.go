package okr

import (
	"iter"

	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/models"
)

// Subtree is a detached snapshot of a node and its descendants. Later store
// mutations do not show up in it.
type Subtree struct {
	Node     models.OkrNode
	Depth    int
	Children []*Subtree
}

// GetSubtree snapshots id and everything beneath it.
func (s *Store) GetSubtree(id string) (*Subtree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.nodes[id]; !ok {
		return nil, okrerrors.NewNotFoundError("node", id)
	}
	return s.snapshot(id, 0), nil
}

// Forest snapshots every root goal.
func (s *Store) Forest() []*Subtree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := s.children[rootKey]
	out := make([]*Subtree, 0, len(roots))
	for _, id := range roots {
		out = append(out, s.snapshot(id, 0))
	}
	return out
}

func (s *Store) snapshot(id string, depth int) *Subtree {
	t := &Subtree{Node: s.nodes[id].Clone(), Depth: depth}
	kids := s.children[id]
	if len(kids) > 0 {
		t.Children = make([]*Subtree, 0, len(kids))
		for _, kid := range kids {
			t.Children = append(t.Children, s.snapshot(kid, depth+1))
		}
	}
	return t
}

// Walk yields the snapshot in pre-order. The sequence can be ranged over any
// number of times and stops early when the loop breaks.
func (t *Subtree) Walk() iter.Seq[*Subtree] {
	return func(yield func(*Subtree) bool) {
		t.walk(yield)
	}
}

func (t *Subtree) walk(yield func(*Subtree) bool) bool {
	if t == nil {
		return true
	}
	if !yield(t) {
		return false
	}
	for _, c := range t.Children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// Len counts the nodes in the snapshot.
func (t *Subtree) Len() int {
	n := 0
	for range t.Walk() {
		n++
	}
	return n
}

// Find returns the snapshot entry for id, or nil.
func (t *Subtree) Find(id string) *Subtree {
	for st := range t.Walk() {
		if st.Node.ID == id {
			return st
		}
	}
	return nil
}

// Flatten lists the snapshot in pre-order, descending only into entries
// marked in expanded. A nil map expands everything. maxDepth <= 0 means no limit.
func Flatten(trees []*Subtree, expanded map[string]bool, maxDepth int) []*Subtree {
	var out []*Subtree
	var visit func(t *Subtree)
	visit = func(t *Subtree) {
		if maxDepth > 0 && t.Depth >= maxDepth {
			return
		}
		out = append(out, t)
		if expanded != nil && !expanded[t.Node.ID] {
			return
		}
		for _, c := range t.Children {
			visit(c)
		}
	}
	for _, t := range trees {
		visit(t)
	}
	return out
}

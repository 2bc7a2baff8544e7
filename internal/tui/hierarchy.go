package tui

import (
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
)

// treeState is the browser's view of the forest: the snapshot, which parents
// are open and the rows that are currently visible.
type treeState struct {
	forest   []*okr.Subtree
	expanded map[string]bool
	rows     []*okr.Subtree
	parents  map[string]string
}

func newTreeState(forest []*okr.Subtree, expanded map[string]bool) treeState {
	if expanded == nil {
		expanded = make(map[string]bool)
		// Goals start open so objectives are visible.
		for _, t := range forest {
			expanded[t.Node.ID] = true
		}
	}
	s := treeState{forest: forest, expanded: expanded, parents: make(map[string]string)}
	for _, t := range forest {
		for st := range t.Walk() {
			for _, c := range st.Children {
				s.parents[c.Node.ID] = st.Node.ID
			}
		}
	}
	s.rows = okr.Flatten(forest, expanded, 0)
	return s
}

func (s treeState) refresh() treeState {
	s.rows = okr.Flatten(s.forest, s.expanded, 0)
	return s
}

func (s treeState) indexOf(id string) int {
	for i, r := range s.rows {
		if r.Node.ID == id {
			return i
		}
	}
	return -1
}

func (s treeState) parentOf(id string) (string, bool) {
	p, ok := s.parents[id]
	return p, ok
}

// expandAll opens every parent in the forest.
func (s treeState) expandAll() treeState {
	for _, t := range s.forest {
		for st := range t.Walk() {
			if len(st.Children) > 0 {
				s.expanded[st.Node.ID] = true
			}
		}
	}
	return s.refresh()
}

// collapseAll closes every parent.
func (s treeState) collapseAll() treeState {
	clear(s.expanded)
	return s.refresh()
}

// taskCounts tallies completed and total tasks in the forest.
func (s treeState) taskCounts() (completed, total int) {
	for _, t := range s.forest {
		for st := range t.Walk() {
			if st.Node.Type != models.NodeTask {
				continue
			}
			total++
			if st.Node.Status == models.StatusCompleted {
				completed++
			}
		}
	}
	return completed, total
}

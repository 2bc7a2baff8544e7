package okr

import (
	"math"

	"github.com/akyairhashvil/okrcap/internal/models"
)

// MetricProgress derives a percentage from the node's metric definition.
// Nodes without a metric return their stored progress.
func MetricProgress(n models.OkrNode) int {
	switch n.MetricType {
	case models.MetricNone:
		return n.Progress
	case models.MetricChecklist:
		if len(n.Checklist) == 0 {
			return 0
		}
		done := 0
		for _, item := range n.Checklist {
			if item.Done {
				done++
			}
		}
		return roundPercent(float64(done) / float64(len(n.Checklist)) * 100)
	case models.MetricBoolean:
		if n.CurrentValue >= 1 {
			return 100
		}
		return 0
	}

	span := n.MetricTarget - n.MetricStart
	var pct float64
	if span == 0 {
		// Degenerate range: reached or not.
		reached := n.CurrentValue >= n.MetricTarget
		if !n.MetricAsc {
			reached = n.CurrentValue <= n.MetricTarget
		}
		if reached {
			return 100
		}
		return 0
	}
	pct = clampPercent((n.CurrentValue - n.MetricStart) / span * 100)
	if !n.MetricAsc {
		pct = 100 - pct
	}
	return roundPercent(pct)
}

// MeanProgress is the unweighted arithmetic mean, rounded half away from zero.
// An empty slice yields 0.
func MeanProgress(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return roundPercent(float64(sum) / float64(len(values)))
}

// clampPercent bounds v to [0,100]. NaN maps to 0.
func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func roundPercent(v float64) int {
	return int(math.Round(clampPercent(v)))
}

// leafProgress is the progress of a node that has no children.
func leafProgress(n models.OkrNode) int {
	if n.HasMetric() {
		return MetricProgress(n)
	}
	return n.Progress
}

// derivedProgress recomputes n from the current progress of its direct
// children. Children must already be up to date.
func (s *Store) derivedProgress(n *models.OkrNode) int {
	kids := s.children[n.ID]
	if len(kids) == 0 {
		return leafProgress(*n)
	}
	values := make([]int, 0, len(kids))
	for _, id := range kids {
		values = append(values, s.nodes[id].Progress)
	}
	return MeanProgress(values)
}

// recomputeFrom walks from id up to the root, refreshing each node's derived
// progress. It stops at the first node whose value is unchanged, since nothing
// above it can change either. Changed nodes are returned nearest first.
func (s *Store) recomputeFrom(id string) []*models.OkrNode {
	var changed []*models.OkrNode
	for cur, ok := s.nodes[id]; ok; {
		next := s.derivedProgress(cur)
		if next == cur.Progress {
			break
		}
		cur.Progress = next
		cur.UpdatedAt = s.now()
		changed = append(changed, cur)
		if cur.ParentID == nil {
			break
		}
		cur, ok = s.nodes[*cur.ParentID]
	}
	return changed
}

// recomputeAll does a post-order pass over every root. Only used on Load.
func (s *Store) recomputeAll() {
	var visit func(id string) int
	visit = func(id string) int {
		n := s.nodes[id]
		kids := s.children[id]
		if len(kids) == 0 {
			n.Progress = leafProgress(*n)
			return n.Progress
		}
		values := make([]int, 0, len(kids))
		for _, kid := range kids {
			values = append(values, visit(kid))
		}
		n.Progress = MeanProgress(values)
		return n.Progress
	}
	for _, root := range s.children[rootKey] {
		visit(root)
	}
}

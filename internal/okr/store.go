// Package okr holds the goal hierarchy (Goal → Objective → Key Result → Task)
// as an arena of nodes keyed by id plus an ordered child index. Every
// mutation validates first, commits, then refreshes derived progress along
// the ancestor chain before returning, so readers always see a consistent tree.
package okr

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/event"
	"github.com/akyairhashvil/okrcap/internal/logging"
	"github.com/akyairhashvil/okrcap/internal/models"
)

// rootKey indexes root goals in the child index.
const rootKey = ""

// Store is the in-memory node arena.
type Store struct {
	mu       sync.RWMutex
	nodes    map[string]*models.OkrNode
	children map[string][]string

	policy DeletePolicy
	now    func() time.Time
	newID  func() string
	bus    *event.Bus
	log    *logging.Logger
}

// Mutation is returned by every write. Updated lists ancestors whose derived
// progress changed, nearest first; Removed lists ids dropped by a delete.
type Mutation struct {
	Node    models.OkrNode
	Updated []models.OkrNode
	Removed []string
}

// Changed returns the mutated node followed by every updated ancestor.
// Deleted nodes are not included.
func (m Mutation) Changed() []models.OkrNode {
	out := make([]models.OkrNode, 0, len(m.Updated)+1)
	if len(m.Removed) == 0 {
		out = append(out, m.Node)
	}
	return append(out, m.Updated...)
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		nodes:    make(map[string]*models.OkrNode),
		children: make(map[string][]string),
		policy:   DeleteCascade,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy reports the configured delete policy.
func (s *Store) Policy() DeletePolicy { return s.policy }

// CreateNode validates input against its parent and inserts it as a leaf.
func (s *Store) CreateNode(input NodeInput) (Mutation, error) {
	if err := validateInput(input); err != nil {
		return Mutation{}, err
	}
	n := input.toNode()

	s.mu.Lock()
	var parent *models.OkrNode
	if n.ParentID != nil {
		p, ok := s.nodes[*n.ParentID]
		if !ok {
			s.mu.Unlock()
			return Mutation{}, okrerrors.NewNotFoundError("parent node", *n.ParentID)
		}
		parent = p
		if n.OrganizationID == "" {
			n.OrganizationID = p.OrganizationID
		}
	}
	if err := s.checkNew(n, parent); err != nil {
		s.mu.Unlock()
		return Mutation{}, err
	}
	if n.ID == "" {
		n.ID = s.newID()
	}

	now := s.now()
	n.CreatedAt, n.UpdatedAt = now, now
	if input.Status == models.StatusCompleted && !n.HasMetric() && input.Progress == 0 {
		n.Progress = 100
	}
	n.Progress = leafProgress(n)

	s.nodes[n.ID] = &n
	key := parentKey(n.ParentID)
	s.children[key] = append(s.children[key], n.ID)

	var changed []*models.OkrNode
	if parent != nil {
		changed = s.recomputeFrom(parent.ID)
	}
	m := Mutation{Node: n.Clone(), Updated: cloneAll(changed)}
	s.mu.Unlock()

	s.log.Debug("node created", "node_id", n.ID, "type", n.Type, "ancestors_updated", len(m.Updated))
	s.bus.Publish(event.NewNodeCreatedEvent(m.Node, m.Updated))
	return m, nil
}

func (s *Store) checkNew(n models.OkrNode, parent *models.OkrNode) error {
	if n.ID != "" {
		if _, exists := s.nodes[n.ID]; exists {
			return okrerrors.NewValidationError("id", "already exists", n.ID)
		}
	}
	if err := validateFields(n); err != nil {
		return err
	}
	if err := validatePlacement(n, parent); err != nil {
		return err
	}
	if n.HasMetric() && n.Progress != 0 {
		return okrerrors.NewValidationError("progress", "is derived from the metric and cannot be set", n.Progress)
	}
	return nil
}

// UpdateNode applies patch to the node. Progress cannot be written on a node
// whose progress is derived (it has children or carries a metric).
func (s *Store) UpdateNode(id string, patch NodePatch) (Mutation, error) {
	if err := validatePatch(patch); err != nil {
		return Mutation{}, err
	}

	s.mu.Lock()
	cur, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return Mutation{}, okrerrors.NewNotFoundError("node", id)
	}
	next := cur.Clone()
	patch.apply(&next)

	hasChildren := len(s.children[id]) > 0
	if err := s.checkUpdate(next, patch, hasChildren); err != nil {
		s.mu.Unlock()
		return Mutation{}, err
	}

	if patch.Status != nil && *patch.Status == models.StatusCompleted && cur.Status != models.StatusCompleted &&
		patch.Progress == nil && !hasChildren && !next.HasMetric() {
		next.Progress = 100
	}
	if hasChildren {
		next.Progress = cur.Progress
	} else {
		next.Progress = leafProgress(next)
	}
	next.UpdatedAt = s.now()
	*cur = next

	var changed []*models.OkrNode
	if patch.touchesProgress() && cur.ParentID != nil {
		changed = s.recomputeFrom(*cur.ParentID)
	}
	m := Mutation{Node: cur.Clone(), Updated: cloneAll(changed)}
	s.mu.Unlock()

	s.log.Debug("node updated", "node_id", id, "progress", m.Node.Progress, "ancestors_updated", len(m.Updated))
	s.bus.Publish(event.NewNodeUpdatedEvent(m.Node, m.Updated))
	return m, nil
}

func (s *Store) checkUpdate(next models.OkrNode, patch NodePatch, hasChildren bool) error {
	if err := validateFields(next); err != nil {
		return err
	}
	if patch.Progress == nil {
		return nil
	}
	if hasChildren {
		return okrerrors.NewValidationError("progress", "is derived from children and cannot be set", *patch.Progress)
	}
	if next.HasMetric() {
		return okrerrors.NewValidationError("progress", "is derived from the metric and cannot be set", *patch.Progress)
	}
	return nil
}

// DeleteNode removes id. Under DeleteCascade the whole subtree goes with it;
// under DeleteRestrict a node with children is rejected.
func (s *Store) DeleteNode(id string) (Mutation, error) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return Mutation{}, okrerrors.NewNotFoundError("node", id)
	}
	if s.policy == DeleteRestrict && len(s.children[id]) > 0 {
		s.mu.Unlock()
		return Mutation{}, okrerrors.NewValidationError("id", "node has children and the delete policy is restrict", id)
	}

	removed := s.collect(id)
	for _, rid := range removed {
		delete(s.nodes, rid)
		delete(s.children, rid)
	}
	key := parentKey(n.ParentID)
	s.children[key] = without(s.children[key], id)
	if len(s.children[key]) == 0 && key != rootKey {
		delete(s.children, key)
	}

	var changed []*models.OkrNode
	if n.ParentID != nil {
		changed = s.afterChildRemoved(*n.ParentID)
	}
	m := Mutation{Node: n.Clone(), Updated: cloneAll(changed), Removed: removed}
	s.mu.Unlock()

	s.log.Debug("node deleted", "node_id", id, "removed", len(removed), "ancestors_updated", len(m.Updated))
	s.bus.Publish(event.NewNodeDeletedEvent(m.Node, m.Removed, m.Updated))
	return m, nil
}

// afterChildRemoved refreshes parentID once it lost a child. A parent left
// without children falls back to 0, or to its metric value.
func (s *Store) afterChildRemoved(parentID string) []*models.OkrNode {
	parent := s.nodes[parentID]
	if len(s.children[parentID]) > 0 {
		return s.recomputeFrom(parentID)
	}
	next := 0
	if parent.HasMetric() {
		next = MetricProgress(*parent)
	}
	if next == parent.Progress {
		return nil
	}
	parent.Progress = next
	parent.UpdatedAt = s.now()
	changed := []*models.OkrNode{parent}
	if parent.ParentID != nil {
		changed = append(changed, s.recomputeFrom(*parent.ParentID)...)
	}
	return changed
}

// RecomputeAncestors refreshes derived progress on every ancestor of id and
// returns the ids whose value changed, nearest first.
func (s *Store) RecomputeAncestors(id string) ([]string, error) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return nil, okrerrors.NewNotFoundError("node", id)
	}
	var changed []*models.OkrNode
	if n.ParentID != nil {
		changed = s.recomputeFrom(*n.ParentID)
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(changed))
	for _, c := range changed {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// Load replaces the store contents with nodes, typically from persistence.
// Linkage is validated before anything is swapped in; derived progress is
// recomputed once over the whole tree.
func (s *Store) Load(nodes []models.OkrNode) error {
	ordered := make([]models.OkrNode, len(nodes))
	for i := range nodes {
		ordered[i] = nodes[i].Clone()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	staged := &Store{
		nodes:    make(map[string]*models.OkrNode, len(ordered)),
		children: make(map[string][]string),
		now:      s.now,
	}
	for i := range ordered {
		n := &ordered[i]
		if n.ID == "" {
			return okrerrors.NewValidationError("id", "is required", nil)
		}
		if _, dup := staged.nodes[n.ID]; dup {
			return okrerrors.NewValidationError("id", "duplicate id", n.ID)
		}
		if err := validateFields(*n); err != nil {
			return err
		}
		staged.nodes[n.ID] = n
	}
	for _, n := range ordered {
		var parent *models.OkrNode
		if n.ParentID != nil {
			p, ok := staged.nodes[*n.ParentID]
			if !ok {
				return okrerrors.NewNotFoundError("parent node", *n.ParentID)
			}
			parent = p
		}
		if err := validatePlacement(n, parent); err != nil {
			return err
		}
		key := parentKey(n.ParentID)
		staged.children[key] = append(staged.children[key], n.ID)
	}
	staged.recomputeAll()

	s.mu.Lock()
	s.nodes, s.children = staged.nodes, staged.children
	s.mu.Unlock()
	s.log.Info("nodes loaded", "count", len(ordered))
	return nil
}

// Get returns a copy of the node.
func (s *Store) Get(id string) (models.OkrNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return models.OkrNode{}, okrerrors.NewNotFoundError("node", id)
	}
	return n.Clone(), nil
}

// Children returns copies of the direct children of id in insertion order.
func (s *Store) Children(id string) ([]models.OkrNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.nodes[id]; !ok {
		return nil, okrerrors.NewNotFoundError("node", id)
	}
	return s.copies(s.children[id]), nil
}

// Roots returns the root goals in insertion order.
func (s *Store) Roots() []models.OkrNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copies(s.children[rootKey])
}

// Len is the number of nodes held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// TaskFilter narrows Tasks. Zero value returns every open task.
type TaskFilter struct {
	AssigneeID       string
	UnderID          string
	IncludeCompleted bool
}

// Tasks returns TASK nodes matching f, ordered by creation time then id.
func (s *Store) Tasks(f TaskFilter) ([]models.OkrNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pool []string
	if f.UnderID != "" {
		if _, ok := s.nodes[f.UnderID]; !ok {
			return nil, okrerrors.NewNotFoundError("node", f.UnderID)
		}
		pool = s.collect(f.UnderID)
	} else {
		pool = make([]string, 0, len(s.nodes))
		for id := range s.nodes {
			pool = append(pool, id)
		}
	}

	var out []models.OkrNode
	for _, id := range pool {
		n := s.nodes[id]
		if n.Type != models.NodeTask {
			continue
		}
		if !f.IncludeCompleted && n.Status == models.StatusCompleted {
			continue
		}
		if f.AssigneeID != "" && n.AssigneeID != f.AssigneeID {
			continue
		}
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// All returns every node, parents before children.
func (s *Store) All() []models.OkrNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.OkrNode, 0, len(s.nodes))
	for _, root := range s.children[rootKey] {
		for _, id := range s.collect(root) {
			out = append(out, s.nodes[id].Clone())
		}
	}
	return out
}

// collect returns id and all its descendants, breadth first.
func (s *Store) collect(id string) []string {
	out := []string{id}
	for i := 0; i < len(out); i++ {
		out = append(out, s.children[out[i]]...)
	}
	return out
}

func (s *Store) copies(ids []string) []models.OkrNode {
	out := make([]models.OkrNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

func parentKey(parentID *string) string {
	if parentID == nil {
		return rootKey
	}
	return *parentID
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneAll(nodes []*models.OkrNode) []models.OkrNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]models.OkrNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}
	return out
}

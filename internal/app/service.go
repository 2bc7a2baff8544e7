// Package app wires the node store, the capacity model and the planner to a
// Persistence backend. Every command mutates memory first and then writes
// through; a failed write is kept as pending until Sync succeeds.
package app

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/akyairhashvil/okrcap/internal/capacity"
	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/logging"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
)

// maxConcurrentLoads bounds parallel capacity reads in LoadAll.
const maxConcurrentLoads = 4

type writeKind int

const (
	writeNode writeKind = iota
	writeNodeDelete
	writeCapacity
)

// write names a row to bring in line with memory. The value itself is read
// at flush time so a retry always stores the latest state.
type write struct {
	kind writeKind
	id   string
}

func (w write) key() string {
	if w.kind == writeCapacity {
		return "capacity:" + w.id
	}
	return "node:" + w.id
}

func (w write) op() string {
	switch w.kind {
	case writeNodeDelete:
		return "delete node"
	case writeCapacity:
		return "save capacity"
	}
	return "save node"
}

// Service is the application facade used by the CLI and the TUI.
type Service struct {
	store    *okr.Store
	capacity *capacity.Model
	planner  *scheduler.Planner
	persist  Persistence
	log      *logging.Logger

	orgID  string
	userID string

	mu      sync.Mutex // guards pending and serializes flushes
	pending []write
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.log = l.WithComponent("app") }
}

// WithOrganization sets the organization loaded by LoadAll and assigned to
// new root goals that name none.
func WithOrganization(orgID string) Option {
	return func(s *Service) { s.orgID = orgID }
}

// WithDefaultUser sets the user who owns unassigned tasks when planning.
func WithDefaultUser(userID string) Option {
	return func(s *Service) { s.userID = userID }
}

func WithPlanner(p *scheduler.Planner) Option {
	return func(s *Service) { s.planner = p }
}

// NewService builds a Service. A nil persist keeps everything in memory.
func NewService(store *okr.Store, model *capacity.Model, persist Persistence, opts ...Option) *Service {
	s := &Service{
		store:    store,
		capacity: model,
		planner:  scheduler.NewPlanner(),
		persist:  persist,
		log:      logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() *okr.Store         { return s.store }
func (s *Service) Capacity() *capacity.Model { return s.capacity }
func (s *Service) Organization() string      { return s.orgID }
func (s *Service) DefaultUser() string       { return s.userID }

// LoadAll replaces memory with the persisted organization and reads capacity
// settings for userIDs plus every task assignee, concurrently.
func (s *Service) LoadAll(ctx context.Context, userIDs ...string) error {
	if s.persist == nil {
		return nil
	}
	nodes, err := s.persist.LoadNodes(ctx, s.orgID)
	if err != nil {
		return &okrerrors.PersistenceError{Op: "load nodes", ID: s.orgID, Err: err}
	}
	if err := s.store.Load(nodes); err != nil {
		return err
	}

	users := collectUsers(nodes, append(slices.Clone(userIDs), s.userID))
	found := make([]*models.CapacitySettings, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, userID := range users {
		g.Go(func() error {
			settings, err := s.persist.LoadCapacity(gctx, userID)
			if err != nil {
				return &okrerrors.PersistenceError{Op: "load capacity", ID: userID, Err: err}
			}
			found[i] = settings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	var stored []models.CapacitySettings
	for _, settings := range found {
		if settings != nil {
			stored = append(stored, *settings)
		}
	}
	if err := s.capacity.Load(stored...); err != nil {
		return err
	}

	// Rows whose derived progress was stale are rewritten.
	var repairs []write
	for _, n := range nodes {
		current, err := s.store.Get(n.ID)
		if err == nil && current.Progress != n.Progress {
			repairs = append(repairs, write{kind: writeNode, id: n.ID})
		}
	}
	s.log.Info("state loaded", "nodes", len(nodes), "capacity_users", len(stored), "repairs", len(repairs))
	return s.flush(ctx, repairs)
}

func collectUsers(nodes []models.OkrNode, extra []string) []string {
	var users []string
	add := func(id string) {
		if id != "" && !slices.Contains(users, id) {
			users = append(users, id)
		}
	}
	for _, id := range extra {
		add(id)
	}
	for _, n := range nodes {
		add(n.AssigneeID)
	}
	return users
}

// CreateNode adds a node and persists it along with every ancestor whose
// progress changed.
func (s *Service) CreateNode(ctx context.Context, in okr.NodeInput) (okr.Mutation, error) {
	if in.ParentID == nil && in.OrganizationID == "" {
		in.OrganizationID = s.orgID
	}
	m, err := s.store.CreateNode(in)
	if err != nil {
		return okr.Mutation{}, err
	}
	return m, s.flush(ctx, nodeWrites(m))
}

// UpdateNode applies patch and persists the result.
func (s *Service) UpdateNode(ctx context.Context, id string, patch okr.NodePatch) (okr.Mutation, error) {
	m, err := s.store.UpdateNode(id, patch)
	if err != nil {
		return okr.Mutation{}, err
	}
	return m, s.flush(ctx, nodeWrites(m))
}

// DeleteNode removes id and persists the deletion.
func (s *Service) DeleteNode(ctx context.Context, id string) (okr.Mutation, error) {
	m, err := s.store.DeleteNode(id)
	if err != nil {
		return okr.Mutation{}, err
	}
	return m, s.flush(ctx, nodeWrites(m))
}

func nodeWrites(m okr.Mutation) []write {
	var out []write
	for _, id := range m.Removed {
		out = append(out, write{kind: writeNodeDelete, id: id})
	}
	for _, n := range m.Changed() {
		out = append(out, write{kind: writeNode, id: n.ID})
	}
	return out
}

// UpdateSettings merges patch into userID's capacity settings.
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch capacity.SettingsPatch) (models.CapacitySettings, error) {
	out, err := s.capacity.UpdateSettings(userID, patch)
	if err != nil {
		return models.CapacitySettings{}, err
	}
	return out, s.flush(ctx, []write{{kind: writeCapacity, id: userID}})
}

// AddException records a per-date override.
func (s *Service) AddException(ctx context.Context, userID string, in capacity.ExceptionInput) (models.CapacityException, error) {
	ex, err := s.capacity.AddException(userID, in)
	if err != nil {
		return models.CapacityException{}, err
	}
	return ex, s.flush(ctx, []write{{kind: writeCapacity, id: userID}})
}

// RemoveException drops an override. Nothing is written when id is unknown.
func (s *Service) RemoveException(ctx context.Context, userID, id string) (models.CapacitySettings, bool, error) {
	out, removed := s.capacity.RemoveException(userID, id)
	if !removed {
		return out, false, nil
	}
	return out, true, s.flush(ctx, []write{{kind: writeCapacity, id: userID}})
}

// ResetSettings restores the defaults for userID.
func (s *Service) ResetSettings(ctx context.Context, userID string) (models.CapacitySettings, error) {
	out, err := s.capacity.ResetSettings(userID)
	if err != nil {
		return models.CapacitySettings{}, err
	}
	return out, s.flush(ctx, []write{{kind: writeCapacity, id: userID}})
}

// PlanQuery selects the tasks to plan.
type PlanQuery struct {
	UserID  string
	UnderID string // restrict to a subtree when set
	Range   scheduler.DateRange
}

// Plan runs the feasibility planner over the user's open tasks. Unassigned
// tasks count for the default user.
func (s *Service) Plan(q PlanQuery) (scheduler.Plan, error) {
	userID := q.UserID
	if userID == "" {
		userID = s.userID
	}
	all, err := s.store.Tasks(okr.TaskFilter{UnderID: q.UnderID})
	if err != nil {
		return scheduler.Plan{}, err
	}
	tasks := make([]models.OkrNode, 0, len(all))
	for _, t := range all {
		if t.AssigneeID == userID || (t.AssigneeID == "" && userID == s.userID) {
			tasks = append(tasks, t)
		}
	}
	return s.planner.PlanFeasibility(userID, tasks, q.Range, s.capacity), nil
}

// Pending reports how many writes are waiting for Sync.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Sync retries every pending write in order and stops at the first failure.
func (s *Service) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.pending
	s.pending = nil
	for i, w := range queue {
		if err := s.apply(ctx, w); err != nil {
			s.pending = append(s.pending, queue[i:]...)
			s.log.Error("sync failed", "op", w.op(), "id", w.id, "remaining", len(s.pending), "error", err)
			return &okrerrors.PersistenceError{Op: w.op(), ID: w.id, Err: err}
		}
	}
	if len(queue) > 0 {
		s.log.Info("pending writes synced", "count", len(queue))
	}
	return nil
}

// flush writes ws in order. The first failure queues it and everything
// after it, and is returned wrapped in a PersistenceError.
func (s *Service) flush(ctx context.Context, ws []write) error {
	if s.persist == nil || len(ws) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range ws {
		if err := s.apply(ctx, w); err != nil {
			for _, rest := range ws[i:] {
				s.enqueue(rest)
			}
			s.log.Error("write failed", "op", w.op(), "id", w.id, "pending", len(s.pending), "error", err)
			return &okrerrors.PersistenceError{Op: w.op(), ID: w.id, Err: err}
		}
		s.dequeue(w)
	}
	return nil
}

func (s *Service) apply(ctx context.Context, w write) error {
	switch w.kind {
	case writeCapacity:
		return s.persist.SaveCapacity(ctx, s.capacity.GetSettings(w.id))
	case writeNodeDelete:
		return s.persist.DeleteNode(ctx, w.id)
	}
	n, err := s.store.Get(w.id)
	if okrerrors.IsNotFound(err) {
		return s.persist.DeleteNode(ctx, w.id)
	}
	if err != nil {
		return err
	}
	return s.persist.SaveNode(ctx, n)
}

// enqueue records w, replacing an older write to the same row.
func (s *Service) enqueue(w write) {
	s.dequeue(w)
	s.pending = append(s.pending, w)
}

func (s *Service) dequeue(w write) {
	s.pending = slices.DeleteFunc(s.pending, func(p write) bool { return p.key() == w.key() })
}

// Package scheduler projects open tasks onto a person's daily capacity. The
// projection is read-only: it never changes the node store or capacity model
// and the same inputs always produce the same plan.
package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/akyairhashvil/okrcap/internal/logging"
	"github.com/akyairhashvil/okrcap/internal/models"
)

// Skip reasons reported in Plan.Skipped.
const (
	SkipNotTask     = "not a task"
	SkipCompleted   = "completed"
	SkipBadEstimate = "invalid estimate"
)

// Availability answers how many hours userID can spend on date.
// capacity.Model satisfies it.
type Availability interface {
	AvailableHours(userID string, date time.Time) float64
}

// AvailabilityFunc adapts a plain function to Availability.
type AvailabilityFunc func(userID string, date time.Time) float64

func (f AvailabilityFunc) AvailableHours(userID string, date time.Time) float64 {
	return f(userID, date)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// NewRange builds the range of days calendar days starting at start.
func NewRange(start time.Time, days int) DateRange {
	first := models.Day(start)
	return DateRange{Start: first, End: first.AddDate(0, 0, days-1)}
}

// Valid reports whether the range holds at least one day.
func (r DateRange) Valid() bool {
	if r.Start.IsZero() || r.End.IsZero() {
		return false
	}
	return !models.Day(r.End).Before(models.Day(r.Start))
}

// Days lists every calendar day in the range, or nil when it is invalid.
func (r DateRange) Days() []time.Time {
	if !r.Valid() {
		return nil
	}
	var out []time.Time
	last := models.Day(r.End)
	for d := models.Day(r.Start); !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DayPlan is the allocation for one day.
type DayPlan struct {
	Date      time.Time `json:"date" yaml:"date"`
	Available float64   `json:"available" yaml:"available"`
	Allocated float64   `json:"allocated" yaml:"allocated"`
	Headroom  float64   `json:"headroom" yaml:"headroom"`
	TaskIDs   []string  `json:"task_ids" yaml:"task_ids"`
}

// TaskPlan is the outcome for one task. CompletionDate is nil when the task
// is Unschedulable.
type TaskPlan struct {
	TaskID         string     `json:"task_id" yaml:"task_id"`
	Title          string     `json:"title" yaml:"title"`
	Hours          float64    `json:"hours" yaml:"hours"`
	DueDate        *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty" yaml:"completion_date,omitempty"`
	Unschedulable  bool       `json:"unschedulable" yaml:"unschedulable"`
	Late           bool       `json:"late" yaml:"late"`
}

// SkippedTask is an input node that was not planned.
type SkippedTask struct {
	TaskID string `json:"task_id" yaml:"task_id"`
	Reason string `json:"reason" yaml:"reason"`
}

// Plan is the feasibility projection for one user over a range.
type Plan struct {
	UserID             string        `json:"user_id" yaml:"user_id"`
	Range              DateRange     `json:"range" yaml:"range"`
	Days               []DayPlan     `json:"days" yaml:"days"`
	Tasks              []TaskPlan    `json:"tasks" yaml:"tasks"`
	Skipped            []SkippedTask `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	TotalAvailable     float64       `json:"total_available" yaml:"total_available"`
	TotalAllocated     float64       `json:"total_allocated" yaml:"total_allocated"`
	UnschedulableHours float64       `json:"unschedulable_hours" yaml:"unschedulable_hours"`
	Feasible           bool          `json:"feasible" yaml:"feasible"`
}

// Unschedulable returns the tasks that did not fit.
func (p Plan) Unschedulable() []TaskPlan {
	var out []TaskPlan
	for _, t := range p.Tasks {
		if t.Unschedulable {
			out = append(out, t)
		}
	}
	return out
}

// Late returns the scheduled tasks that finish after their due date.
func (p Plan) Late() []TaskPlan {
	var out []TaskPlan
	for _, t := range p.Tasks {
		if t.Late {
			out = append(out, t)
		}
	}
	return out
}

// Task finds the plan entry for id.
func (p Plan) Task(id string) (TaskPlan, bool) {
	for _, t := range p.Tasks {
		if t.TaskID == id {
			return t, true
		}
	}
	return TaskPlan{}, false
}

// Planner computes feasibility plans.
type Planner struct {
	log *logging.Logger
}

// Option configures a Planner.
type Option func(*Planner)

func WithLogger(l *logging.Logger) Option {
	return func(p *Planner) { p.log = l.WithComponent("scheduler") }
}

func NewPlanner(opts ...Option) *Planner {
	p := &Planner{log: logging.NopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanFeasibility runs a Planner with default options.
func PlanFeasibility(userID string, tasks []models.OkrNode, r DateRange, avail Availability) Plan {
	return NewPlanner().PlanFeasibility(userID, tasks, r, avail)
}

// PlanFeasibility places each open task's hours on the earliest days with
// capacity left, earliest due date first (undated last), then oldest first,
// then input order. A task that cannot be fully placed in the window is
// marked Unschedulable and consumes nothing. Hours are kept in hundredths.
func (p *Planner) PlanFeasibility(userID string, tasks []models.OkrNode, r DateRange, avail Availability) Plan {
	plan := Plan{UserID: userID, Range: r}

	days := r.Days()
	capacity := make([]int64, len(days))
	remaining := make([]int64, len(days))
	plan.Days = make([]DayPlan, len(days))
	var totalAvailable int64
	for i, d := range days {
		c := toCents(avail.AvailableHours(userID, d))
		capacity[i], remaining[i] = c, c
		totalAvailable += c
		plan.Days[i] = DayPlan{Date: d, Available: fromCents(c), TaskIDs: []string{}}
	}
	left := totalAvailable

	queue := make([]models.OkrNode, 0, len(tasks))
	for _, t := range tasks {
		switch {
		case t.Type != models.NodeTask:
			plan.Skipped = append(plan.Skipped, SkippedTask{TaskID: t.ID, Reason: SkipNotTask})
		case t.Status == models.StatusCompleted:
			plan.Skipped = append(plan.Skipped, SkippedTask{TaskID: t.ID, Reason: SkipCompleted})
		case t.EstimatedHours < 0 || math.IsNaN(t.EstimatedHours) || math.IsInf(t.EstimatedHours, 0):
			plan.Skipped = append(plan.Skipped, SkippedTask{TaskID: t.ID, Reason: SkipBadEstimate})
		default:
			queue = append(queue, t)
		}
	}
	sortQueue(queue)

	var allocated, unschedulable int64
	plan.Tasks = make([]TaskPlan, 0, len(queue))
	for _, t := range queue {
		need := toCents(t.EstimatedHours)
		tp := TaskPlan{TaskID: t.ID, Title: t.Title, Hours: fromCents(need), DueDate: copyTime(t.DueDate)}

		switch {
		case need == 0:
			if len(days) > 0 {
				tp.StartDate, tp.CompletionDate = copyTime(&days[0]), copyTime(&days[0])
			}
		case need > left:
			tp.Unschedulable = true
			unschedulable += need
		default:
			for i := range days {
				if remaining[i] == 0 {
					continue
				}
				take := min(remaining[i], need)
				remaining[i] -= take
				need -= take
				left -= take
				allocated += take
				plan.Days[i].TaskIDs = append(plan.Days[i].TaskIDs, t.ID)
				if tp.StartDate == nil {
					tp.StartDate = copyTime(&days[i])
				}
				if need == 0 {
					tp.CompletionDate = copyTime(&days[i])
					break
				}
			}
		}
		if tp.CompletionDate != nil && t.DueDate != nil && tp.CompletionDate.After(models.Day(*t.DueDate)) {
			tp.Late = true
		}
		plan.Tasks = append(plan.Tasks, tp)
	}

	for i := range plan.Days {
		plan.Days[i].Allocated = fromCents(capacity[i] - remaining[i])
		plan.Days[i].Headroom = fromCents(remaining[i])
	}
	plan.TotalAvailable = fromCents(totalAvailable)
	plan.TotalAllocated = fromCents(allocated)
	plan.UnschedulableHours = fromCents(unschedulable)
	plan.Feasible = unschedulable == 0

	p.log.WithUser(userID).Debug("plan computed",
		"days", len(days), "tasks", len(plan.Tasks), "skipped", len(plan.Skipped),
		"unschedulable_hours", plan.UnschedulableHours, "feasible", plan.Feasible)
	return plan
}

// sortQueue orders tasks by due date (undated last), then creation time.
// The sort is stable so input order breaks remaining ties.
func sortQueue(tasks []models.OkrNode) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func toCents(h float64) int64 {
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return int64(math.Round(h * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

package models

import "time"

// NodeType is the level of a node in the goal hierarchy.
type NodeType string

const (
	NodeGoal      NodeType = "GOAL"
	NodeObjective NodeType = "OBJECTIVE"
	NodeKeyResult NodeType = "KEY_RESULT"
	NodeTask      NodeType = "TASK"
)

// Valid reports whether t is one of the four hierarchy levels.
func (t NodeType) Valid() bool {
	switch t {
	case NodeGoal, NodeObjective, NodeKeyResult, NodeTask:
		return true
	}
	return false
}

// ChildType returns the only type allowed directly beneath t.
// The second return value is false for TASK, which cannot have children.
func (t NodeType) ChildType() (NodeType, bool) {
	switch t {
	case NodeGoal:
		return NodeObjective, true
	case NodeObjective:
		return NodeKeyResult, true
	case NodeKeyResult:
		return NodeTask, true
	}
	return "", false
}

// NodeStatus enumerates the lifecycle states of a node.
type NodeStatus string

const (
	StatusPending    NodeStatus = "pending"
	StatusInProgress NodeStatus = "in-progress"
	StatusCompleted  NodeStatus = "completed"
)

func (s NodeStatus) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// MetricType selects how a measurable node derives its progress.
type MetricType string

const (
	MetricNone       MetricType = ""
	MetricNumber     MetricType = "number"
	MetricPercentage MetricType = "percentage"
	MetricCurrency   MetricType = "currency"
	MetricChecklist  MetricType = "checklist"
	MetricBoolean    MetricType = "boolean"
)

func (m MetricType) Valid() bool {
	switch m {
	case MetricNone, MetricNumber, MetricPercentage, MetricCurrency, MetricChecklist, MetricBoolean:
		return true
	}
	return false
}

// ChecklistItem is one entry of a checklist metric.
type ChecklistItem struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Done  bool   `json:"done" yaml:"done"`
}

// OkrNode is a single node of the Goal → Objective → Key Result → Task tree.
type OkrNode struct {
	ID             string     `json:"id" yaml:"id"`
	OrganizationID string     `json:"organization_id" yaml:"organization_id"`
	Type           NodeType   `json:"type" yaml:"type"`
	ParentID       *string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"` // nil for root goals
	Title          string     `json:"title" yaml:"title"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status         NodeStatus `json:"status" yaml:"status"`
	Progress       int        `json:"progress" yaml:"progress"`

	MetricType   MetricType      `json:"metric_type,omitempty" yaml:"metric_type,omitempty"`
	MetricStart  float64         `json:"metric_start,omitempty" yaml:"metric_start,omitempty"`
	MetricTarget float64         `json:"metric_target,omitempty" yaml:"metric_target,omitempty"`
	MetricUnit   string          `json:"metric_unit,omitempty" yaml:"metric_unit,omitempty"`
	MetricAsc    bool            `json:"metric_asc,omitempty" yaml:"metric_asc,omitempty"`
	CurrentValue float64         `json:"current_value,omitempty" yaml:"current_value,omitempty"`
	Checklist    []ChecklistItem `json:"checklist,omitempty" yaml:"checklist,omitempty"`

	EstimatedHours float64    `json:"estimated_hours,omitempty" yaml:"estimated_hours,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	AssigneeID     string     `json:"assignee_id,omitempty" yaml:"assignee_id,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// HasMetric reports whether the node carries its own quantitative definition.
func (n OkrNode) HasMetric() bool {
	return n.MetricType != MetricNone
}

// IsRoot reports whether the node has no parent.
func (n OkrNode) IsRoot() bool {
	return n.ParentID == nil
}

// Clone returns a deep copy so callers never share slices or pointers with a store.
func (n OkrNode) Clone() OkrNode {
	out := n
	if n.ParentID != nil {
		p := *n.ParentID
		out.ParentID = &p
	}
	if n.DueDate != nil {
		d := *n.DueDate
		out.DueDate = &d
	}
	if n.Checklist != nil {
		out.Checklist = append([]ChecklistItem(nil), n.Checklist...)
	}
	return out
}

// CapacityException overrides a person's daily availability on one date.
type CapacityException struct {
	ID     string  `json:"id" yaml:"id"`
	Date   string  `json:"date" yaml:"date"` // YYYY-MM-DD
	Hours  float64 `json:"hours" yaml:"hours"`
	Reason string  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CapacitySettings holds one person's capacity configuration.
type CapacitySettings struct {
	UserID         string              `json:"user_id" yaml:"user_id"`
	WeeklyCapacity float64             `json:"weekly_capacity" yaml:"weekly_capacity"`
	DailyLimit     float64             `json:"daily_limit" yaml:"daily_limit"`
	OKRAllocation  float64             `json:"okr_allocation" yaml:"okr_allocation"` // percent, 0-100
	Exceptions     []CapacityException `json:"exceptions" yaml:"exceptions"`         // sorted by Date
	UpdatedAt      time.Time           `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a copy with its own exception slice.
func (s CapacitySettings) Clone() CapacitySettings {
	out := s
	out.Exceptions = append([]CapacityException{}, s.Exceptions...)
	return out
}

// DateLayout is the calendar-day format used for exception dates and plan days.
const DateLayout = "2006-01-02"

// DateKey formats t as a calendar-day key in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

package okr

import (
	"math"
	"strings"
	"time"

	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/validation"
)

// NodeInput describes a node to create. Zero-valued optional fields take
// defaults: Status becomes pending, ID a fresh uuid, OrganizationID the parent's.
type NodeInput struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	Type           models.NodeType   `json:"type" validate:"required"`
	ParentID       *string           `json:"parent_id"`
	Title          string            `json:"title" validate:"required,max=200"`
	Description    string            `json:"description" validate:"max=2000"`
	Status         models.NodeStatus `json:"status"`
	Progress       int               `json:"progress" validate:"gte=0,lte=100"`

	MetricType   models.MetricType      `json:"metric_type"`
	MetricStart  float64                `json:"metric_start"`
	MetricTarget float64                `json:"metric_target"`
	MetricUnit   string                 `json:"metric_unit"`
	MetricAsc    bool                   `json:"metric_asc"`
	CurrentValue float64                `json:"current_value"`
	Checklist    []models.ChecklistItem `json:"checklist"`

	EstimatedHours float64    `json:"estimated_hours" validate:"gte=0"`
	DueDate        *time.Time `json:"due_date"`
	AssigneeID     string     `json:"assignee_id"`
}

// NodePatch is a partial update; nil fields are left untouched.
type NodePatch struct {
	Title       *string            `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string            `json:"description" validate:"omitnil,max=2000"`
	Status      *models.NodeStatus `json:"status"`
	Progress    *int               `json:"progress" validate:"omitnil,gte=0,lte=100"`

	MetricType   *models.MetricType      `json:"metric_type"`
	MetricStart  *float64                `json:"metric_start"`
	MetricTarget *float64                `json:"metric_target"`
	MetricUnit   *string                 `json:"metric_unit"`
	MetricAsc    *bool                   `json:"metric_asc"`
	CurrentValue *float64                `json:"current_value"`
	Checklist    *[]models.ChecklistItem `json:"checklist"`

	EstimatedHours *float64   `json:"estimated_hours" validate:"omitnil,gte=0"`
	DueDate        *time.Time `json:"due_date"`
	ClearDueDate   bool       `json:"clear_due_date"`
	AssigneeID     *string    `json:"assignee_id"`
}

// touchesProgress reports whether applying p can change the node's own progress.
func (p NodePatch) touchesProgress() bool {
	return p.Progress != nil || p.Status != nil || p.MetricType != nil || p.MetricStart != nil ||
		p.MetricTarget != nil || p.MetricAsc != nil || p.CurrentValue != nil || p.Checklist != nil
}

func (in NodeInput) toNode() models.OkrNode {
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	n := models.OkrNode{
		ID:             strings.TrimSpace(in.ID),
		OrganizationID: in.OrganizationID,
		Type:           in.Type,
		ParentID:       in.ParentID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Status:         status,
		Progress:       in.Progress,
		MetricType:     in.MetricType,
		MetricStart:    in.MetricStart,
		MetricTarget:   in.MetricTarget,
		MetricUnit:     in.MetricUnit,
		MetricAsc:      in.MetricAsc,
		CurrentValue:   in.CurrentValue,
		Checklist:      in.Checklist,
		EstimatedHours: in.EstimatedHours,
		DueDate:        in.DueDate,
		AssigneeID:     in.AssigneeID,
	}
	return n.Clone()
}

func (p NodePatch) apply(n *models.OkrNode) {
	if p.Title != nil {
		n.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.Progress != nil {
		n.Progress = *p.Progress
	}
	if p.MetricType != nil {
		n.MetricType = *p.MetricType
	}
	if p.MetricStart != nil {
		n.MetricStart = *p.MetricStart
	}
	if p.MetricTarget != nil {
		n.MetricTarget = *p.MetricTarget
	}
	if p.MetricUnit != nil {
		n.MetricUnit = *p.MetricUnit
	}
	if p.MetricAsc != nil {
		n.MetricAsc = *p.MetricAsc
	}
	if p.CurrentValue != nil {
		n.CurrentValue = *p.CurrentValue
	}
	if p.Checklist != nil {
		n.Checklist = append([]models.ChecklistItem(nil), (*p.Checklist)...)
	}
	if p.EstimatedHours != nil {
		n.EstimatedHours = *p.EstimatedHours
	}
	if p.ClearDueDate {
		n.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		n.DueDate = &d
	}
	if p.AssigneeID != nil {
		n.AssigneeID = *p.AssigneeID
	}
}

// validateFields checks the node-local constraints shared by create, update and load.
func validateFields(n models.OkrNode) error {
	if !n.Type.Valid() {
		return okrerrors.NewValidationError("type", "must be one of GOAL, OBJECTIVE, KEY_RESULT, TASK", n.Type)
	}
	if n.Title == "" {
		return okrerrors.NewValidationError("title", "is required", nil)
	}
	if !n.Status.Valid() {
		return okrerrors.NewValidationError("status", "must be one of pending, in-progress, completed", n.Status)
	}
	if n.Progress < 0 || n.Progress > 100 {
		return okrerrors.NewValidationError("progress", "must be within [0,100]", n.Progress)
	}
	if !n.MetricType.Valid() {
		return okrerrors.NewValidationError("metric_type", "must be one of number, percentage, currency, checklist, boolean", n.MetricType)
	}
	for _, f := range []struct {
		field string
		value float64
	}{
		{"metric_start", n.MetricStart},
		{"metric_target", n.MetricTarget},
		{"current_value", n.CurrentValue},
		{"estimated_hours", n.EstimatedHours},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return okrerrors.NewValidationError(f.field, "must be finite", f.value)
		}
	}
	for i, item := range n.Checklist {
		if strings.TrimSpace(item.Title) == "" {
			return okrerrors.NewValidationError("checklist", "item title is required", i)
		}
	}
	if n.EstimatedHours < 0 {
		return okrerrors.NewValidationError("estimated_hours", "must be >= 0", n.EstimatedHours)
	}
	if n.EstimatedHours > 0 && n.Type != models.NodeTask {
		return okrerrors.NewValidationError("estimated_hours", "only TASK nodes carry estimates", n.Type)
	}
	return nil
}

// validatePlacement checks that n may sit under parent (nil for a root).
func validatePlacement(n models.OkrNode, parent *models.OkrNode) error {
	if parent == nil {
		if n.Type != models.NodeGoal {
			return okrerrors.NewValidationError("type", "root nodes must be GOAL", n.Type)
		}
		return nil
	}
	want, ok := parent.Type.ChildType()
	if !ok {
		return okrerrors.NewValidationError("parent_id", "TASK nodes cannot have children", parent.ID)
	}
	if n.Type != want {
		return okrerrors.NewValidationError("type", "must be "+string(want)+" under "+string(parent.Type), n.Type)
	}
	if n.OrganizationID != "" && parent.OrganizationID != "" && n.OrganizationID != parent.OrganizationID {
		return okrerrors.NewValidationError("organization_id", "must match the parent's organization", n.OrganizationID)
	}
	return nil
}

func validateInput(in NodeInput) error {
	return validation.Struct(in)
}

func validatePatch(p NodePatch) error {
	return validation.Struct(p)
}

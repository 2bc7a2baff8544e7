package testutil

import (
	"time"

	"github.com/akyairhashvil/okrcap/internal/models"
)

// NodeBuilder provides a fluent API for creating test nodes.
type NodeBuilder struct {
	node models.OkrNode
}

func NewNode(id string, typ models.NodeType) *NodeBuilder {
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return &NodeBuilder{
		node: models.OkrNode{
			ID:             id,
			OrganizationID: "org-1",
			Type:           typ,
			Title:          "Test " + string(typ),
			Status:         models.StatusPending,
			CreatedAt:      created,
			UpdatedAt:      created,
		},
	}
}

func NewTask(id string, hours float64) *NodeBuilder {
	return NewNode(id, models.NodeTask).WithHours(hours)
}

func (b *NodeBuilder) WithParent(id string) *NodeBuilder {
	b.node.ParentID = &id
	return b
}

func (b *NodeBuilder) WithTitle(title string) *NodeBuilder {
	b.node.Title = title
	return b
}

func (b *NodeBuilder) WithProgress(p int) *NodeBuilder {
	b.node.Progress = p
	return b
}

func (b *NodeBuilder) WithStatus(s models.NodeStatus) *NodeBuilder {
	b.node.Status = s
	return b
}

func (b *NodeBuilder) WithHours(h float64) *NodeBuilder {
	b.node.EstimatedHours = h
	return b
}

func (b *NodeBuilder) WithDue(d time.Time) *NodeBuilder {
	b.node.DueDate = &d
	return b
}

func (b *NodeBuilder) WithAssignee(userID string) *NodeBuilder {
	b.node.AssigneeID = userID
	return b
}

func (b *NodeBuilder) CreatedAt(t time.Time) *NodeBuilder {
	b.node.CreatedAt = t
	b.node.UpdatedAt = t
	return b
}

func (b *NodeBuilder) WithMetric(typ models.MetricType, start, target, current float64, asc bool) *NodeBuilder {
	b.node.MetricType = typ
	b.node.MetricStart = start
	b.node.MetricTarget = target
	b.node.CurrentValue = current
	b.node.MetricAsc = asc
	return b
}

func (b *NodeBuilder) Build() models.OkrNode {
	return b.node.Clone()
}

// SettingsBuilder provides a fluent API for capacity settings.
type SettingsBuilder struct {
	settings models.CapacitySettings
}

func NewSettings(userID string) *SettingsBuilder {
	return &SettingsBuilder{
		settings: models.CapacitySettings{
			UserID:         userID,
			WeeklyCapacity: 40,
			DailyLimit:     8,
			OKRAllocation:  20,
			Exceptions:     []models.CapacityException{},
		},
	}
}

func (b *SettingsBuilder) WithWeekly(h float64) *SettingsBuilder {
	b.settings.WeeklyCapacity = h
	return b
}

func (b *SettingsBuilder) WithDailyLimit(h float64) *SettingsBuilder {
	b.settings.DailyLimit = h
	return b
}

func (b *SettingsBuilder) WithAllocation(pct float64) *SettingsBuilder {
	b.settings.OKRAllocation = pct
	return b
}

func (b *SettingsBuilder) WithException(id, date string, hours float64) *SettingsBuilder {
	b.settings.Exceptions = append(b.settings.Exceptions, models.CapacityException{ID: id, Date: date, Hours: hours})
	return b
}

func (b *SettingsBuilder) Build() models.CapacitySettings {
	return b.settings.Clone()
}

// Date is a UTC midnight for y-m-d.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package event

import (
	"time"

	"github.com/akyairhashvil/okrcap/internal/models"
)

// Event is implemented by every published message.
type Event interface {
	EventType() string
	Timestamp() time.Time
}

const (
	TypeNodeCreated     = "node.created"
	TypeNodeUpdated     = "node.updated"
	TypeNodeDeleted     = "node.deleted"
	TypeCapacityUpdated = "capacity.updated"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string   { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// NodeEvent reports a committed node mutation. Ancestors lists the nodes
// whose derived progress changed as a consequence.
type NodeEvent struct {
	baseEvent
	Node      models.OkrNode
	Ancestors []models.OkrNode
	Removed   []string
}

func NewNodeCreatedEvent(node models.OkrNode, ancestors []models.OkrNode) NodeEvent {
	return NodeEvent{baseEvent: baseEvent{TypeNodeCreated, time.Now()}, Node: node, Ancestors: ancestors}
}

func NewNodeUpdatedEvent(node models.OkrNode, ancestors []models.OkrNode) NodeEvent {
	return NodeEvent{baseEvent: baseEvent{TypeNodeUpdated, time.Now()}, Node: node, Ancestors: ancestors}
}

func NewNodeDeletedEvent(node models.OkrNode, removed []string, ancestors []models.OkrNode) NodeEvent {
	return NodeEvent{baseEvent: baseEvent{TypeNodeDeleted, time.Now()}, Node: node, Removed: removed, Ancestors: ancestors}
}

// CapacityEvent carries the full settings after a change. Reason is one of
// "settings", "exception.added", "exception.removed" or "reset".
type CapacityEvent struct {
	baseEvent
	Settings models.CapacitySettings
	Reason   string
}

func NewCapacityUpdatedEvent(settings models.CapacitySettings, reason string) CapacityEvent {
	return CapacityEvent{baseEvent: baseEvent{TypeCapacityUpdated, time.Now()}, Settings: settings, Reason: reason}
}

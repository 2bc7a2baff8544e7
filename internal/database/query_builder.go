package database

import (
	"fmt"
	"strings"
)

const nodeColumns = `id, organization_id, type, parent_id, title, description, status, progress,
	metric_type, metric_start, metric_target, metric_unit, metric_asc, current_value, checklist,
	estimated_hours, due_date, assignee_id, created_at, updated_at`

// NodeQuery builds SELECTs over okr_nodes.
type NodeQuery struct {
	columns string
	filters []string
	args    []any
	orderBy string
}

func NewNodeQuery() *NodeQuery {
	return &NodeQuery{columns: nodeColumns, orderBy: "created_at ASC, id ASC"}
}

func (q *NodeQuery) Where(filter string, args ...any) *NodeQuery {
	q.filters = append(q.filters, filter)
	q.args = append(q.args, args...)
	return q
}

// WhereOrganization filters by organization. An empty id matches every row.
func (q *NodeQuery) WhereOrganization(orgID string) *NodeQuery {
	if orgID == "" {
		return q
	}
	return q.Where("organization_id = ?", orgID)
}

func (q *NodeQuery) Build() (string, []any) {
	query := fmt.Sprintf("SELECT %s FROM okr_nodes", q.columns)
	if len(q.filters) > 0 {
		query += " WHERE " + strings.Join(q.filters, " AND ")
	}
	if q.orderBy != "" {
		query += " ORDER BY " + q.orderBy
	}
	return query, q.args
}

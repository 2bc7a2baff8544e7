package database

import (
	"context"
	"database/sql"

	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/util"
)

const upsertNodeSQL = `INSERT INTO okr_nodes (` + nodeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		organization_id = excluded.organization_id,
		type = excluded.type,
		parent_id = excluded.parent_id,
		title = excluded.title,
		description = excluded.description,
		status = excluded.status,
		progress = excluded.progress,
		metric_type = excluded.metric_type,
		metric_start = excluded.metric_start,
		metric_target = excluded.metric_target,
		metric_unit = excluded.metric_unit,
		metric_asc = excluded.metric_asc,
		current_value = excluded.current_value,
		checklist = excluded.checklist,
		estimated_hours = excluded.estimated_hours,
		due_date = excluded.due_date,
		assignee_id = excluded.assignee_id,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (models.OkrNode, error) {
	var n models.OkrNode
	var parentID, checklist, dueDate sql.NullString
	var typ, status, metricType, createdAt, updatedAt string
	var metricAsc int
	if err := row.Scan(
		&n.ID,
		&n.OrganizationID,
		&typ,
		&parentID,
		&n.Title,
		&n.Description,
		&status,
		&n.Progress,
		&metricType,
		&n.MetricStart,
		&n.MetricTarget,
		&n.MetricUnit,
		&metricAsc,
		&n.CurrentValue,
		&checklist,
		&n.EstimatedHours,
		&dueDate,
		&n.AssigneeID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return models.OkrNode{}, err
	}
	n.Type = models.NodeType(typ)
	n.Status = models.NodeStatus(status)
	n.MetricType = models.MetricType(metricType)
	n.MetricAsc = util.IntToBool(metricAsc)
	if parentID.Valid {
		id := parentID.String
		n.ParentID = &id
	}

	var err error
	if n.Checklist, err = unmarshalJSONColumn[models.ChecklistItem](checklist); err != nil {
		return models.OkrNode{}, err
	}
	if n.DueDate, err = parseNullableTime(dueDate); err != nil {
		return models.OkrNode{}, err
	}
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.OkrNode{}, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.OkrNode{}, err
	}
	return n, nil
}

func nodeArgs(n models.OkrNode) ([]any, error) {
	checklist, err := marshalJSONColumn(n.Checklist, true)
	if err != nil {
		return nil, err
	}
	return []any{
		n.ID,
		n.OrganizationID,
		string(n.Type),
		toNullableArg(n.ParentID),
		n.Title,
		n.Description,
		string(n.Status),
		n.Progress,
		string(n.MetricType),
		n.MetricStart,
		n.MetricTarget,
		n.MetricUnit,
		util.BoolToInt(n.MetricAsc),
		n.CurrentValue,
		checklist,
		n.EstimatedHours,
		nullableTime(n.DueDate),
		n.AssigneeID,
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	}, nil
}

// SaveNode inserts or replaces one node row.
func (d *Database) SaveNode(ctx context.Context, n models.OkrNode) error {
	return withDBContext(d, ctx, func(ctx context.Context) error {
		return d.saveNode(ctx, d.DB, n)
	})
}

func (d *Database) saveNode(ctx context.Context, ex execer, n models.OkrNode) error {
	args, err := nodeArgs(n)
	if err != nil {
		return wrapErr(EntityNode, "encode", n.ID, err)
	}
	_, err = ex.ExecContext(ctx, upsertNodeSQL, args...)
	return wrapErr(EntityNode, "save", n.ID, err)
}

// saveNodes writes nodes through ex, stopping at the first failure. Inside a
// transaction the batch lands whole or not at all.
func (d *Database) saveNodes(ctx context.Context, ex execer, nodes []models.OkrNode) error {
	for _, n := range nodes {
		if err := d.saveNode(ctx, ex, n); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNode removes one row. Deleting a missing id is not an error since
// the store has already dropped it.
func (d *Database) DeleteNode(ctx context.Context, id string) error {
	return withDBContext(d, ctx, func(ctx context.Context) error {
		_, err := d.DB.ExecContext(ctx, "DELETE FROM okr_nodes WHERE id = ?", id)
		return wrapErr(EntityNode, "delete", id, err)
	})
}

// LoadNodes returns every node of the organization in creation order. An
// empty orgID loads every organization.
func (d *Database) LoadNodes(ctx context.Context, orgID string) ([]models.OkrNode, error) {
	return d.queryNodes(ctx, NewNodeQuery().WhereOrganization(orgID), "load")
}

func (d *Database) queryNodes(ctx context.Context, q *NodeQuery, op string) ([]models.OkrNode, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) ([]models.OkrNode, error) {
		query, args := q.Build()
		rows, err := d.DB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, wrapErr(EntityNode, op, "", err)
		}
		defer rows.Close()

		var out []models.OkrNode
		for rows.Next() {
			n, err := scanNode(rows)
			if err != nil {
				return nil, wrapErr(EntityNode, op, "", err)
			}
			out = append(out, n)
		}
		if err := rows.Err(); err != nil {
			return nil, wrapErr(EntityNode, op, "", err)
		}
		return out, nil
	})
}

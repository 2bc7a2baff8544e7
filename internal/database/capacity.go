package database

import (
	"context"
	"database/sql"

	"github.com/akyairhashvil/okrcap/internal/models"
)

const capacityColumns = "user_id, weekly_capacity, daily_limit, okr_allocation, exceptions, updated_at"

const upsertCapacitySQL = `INSERT INTO capacity_settings (` + capacityColumns + `)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		weekly_capacity = excluded.weekly_capacity,
		daily_limit = excluded.daily_limit,
		okr_allocation = excluded.okr_allocation,
		exceptions = excluded.exceptions,
		updated_at = excluded.updated_at`

func scanCapacity(row rowScanner) (models.CapacitySettings, error) {
	var s models.CapacitySettings
	var exceptions sql.NullString
	var updatedAt string
	if err := row.Scan(&s.UserID, &s.WeeklyCapacity, &s.DailyLimit, &s.OKRAllocation, &exceptions, &updatedAt); err != nil {
		return models.CapacitySettings{}, err
	}
	var err error
	if s.Exceptions, err = unmarshalJSONColumn[models.CapacityException](exceptions); err != nil {
		return models.CapacitySettings{}, err
	}
	if s.Exceptions == nil {
		s.Exceptions = []models.CapacityException{}
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.CapacitySettings{}, err
	}
	return s, nil
}

// LoadCapacity returns the stored settings for userID, or nil when the user
// has never saved any.
func (d *Database) LoadCapacity(ctx context.Context, userID string) (*models.CapacitySettings, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) (*models.CapacitySettings, error) {
		row := d.DB.QueryRowContext(ctx, "SELECT "+capacityColumns+" FROM capacity_settings WHERE user_id = ?", userID)
		s, err := scanCapacity(row)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, wrapErr(EntityCapacity, "load", userID, err)
		}
		return &s, nil
	})
}

// SaveCapacity inserts or replaces the settings row of s.UserID.
func (d *Database) SaveCapacity(ctx context.Context, s models.CapacitySettings) error {
	return withDBContext(d, ctx, func(ctx context.Context) error {
		return d.saveCapacity(ctx, d.DB, s)
	})
}

func (d *Database) saveCapacity(ctx context.Context, ex execer, s models.CapacitySettings) error {
	exceptions, err := marshalJSONColumn(s.Exceptions, false)
	if err != nil {
		return wrapErr(EntityCapacity, "encode", s.UserID, err)
	}
	_, err = ex.ExecContext(ctx, upsertCapacitySQL,
		s.UserID, s.WeeklyCapacity, s.DailyLimit, s.OKRAllocation, exceptions, formatTime(s.UpdatedAt))
	return wrapErr(EntityCapacity, "save", s.UserID, err)
}

// ListCapacity returns every stored settings row ordered by user.
func (d *Database) ListCapacity(ctx context.Context) ([]models.CapacitySettings, error) {
	return withDBContextResult(d, ctx, func(ctx context.Context) ([]models.CapacitySettings, error) {
		rows, err := d.DB.QueryContext(ctx, "SELECT "+capacityColumns+" FROM capacity_settings ORDER BY user_id ASC")
		if err != nil {
			return nil, wrapErr(EntityCapacity, "list", "", err)
		}
		defer rows.Close()

		var out []models.CapacitySettings
		for rows.Next() {
			s, err := scanCapacity(rows)
			if err != nil {
				return nil, wrapErr(EntityCapacity, "list", "", err)
			}
			out = append(out, s)
		}
		if err := rows.Err(); err != nil {
			return nil, wrapErr(EntityCapacity, "list", "", err)
		}
		return out, nil
	})
}

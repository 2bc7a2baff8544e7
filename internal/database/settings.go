package database

import (
	"context"
	"database/sql"
)

const (
	settingSchemaVersion = "schema_version"
	settingLastImport    = "last_import"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetSetting reads a key from the settings table.
func (d *Database) GetSetting(ctx context.Context, key string) (string, bool, error) {
	type result struct {
		value string
		ok    bool
	}
	r, err := withDBContextResult(d, ctx, func(ctx context.Context) (result, error) {
		var value sql.NullString
		err := d.DB.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
		if err == sql.ErrNoRows {
			return result{}, nil
		}
		if err != nil {
			return result{}, wrapErr(EntitySetting, "get", key, err)
		}
		return result{value: value.String, ok: value.Valid}, nil
	})
	return r.value, r.ok, err
}

// SetSetting upserts a key in the settings table.
func (d *Database) SetSetting(ctx context.Context, key, value string) error {
	return withDBContext(d, ctx, func(ctx context.Context) error {
		return d.setSetting(ctx, d.DB, key, value)
	})
}

func (d *Database) setSetting(ctx context.Context, ex execer, key, value string) error {
	_, err := ex.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	return wrapErr(EntitySetting, "set", key, err)
}

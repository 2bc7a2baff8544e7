// Package database is the SQLite persistence adapter: one row per node and
// one row per user's capacity settings, with exceptions embedded as JSON.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/akyairhashvil/okrcap/internal/config"
	"github.com/akyairhashvil/okrcap/internal/logging"
)

const defaultDBTimeout = config.DefaultQueryTimeout

// schemaVersion is bumped whenever migrate learns a new step.
const schemaVersion = 2

// Database wraps the SQLite handle.
type Database struct {
	DB      *sql.DB
	dbFile  string
	timeout time.Duration
	log     *logging.Logger
}

// Option configures Open.
type Option func(*Database)

// WithTimeout bounds every query. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(db *Database) {
		if d > 0 {
			db.timeout = d
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(db *Database) { db.log = l.WithComponent("database") }
}

// Open creates the parent directory if needed, connects and migrates.
// Running Open against an existing file is idempotent.
func Open(ctx context.Context, path string, opts ...Option) (*Database, error) {
	d := &Database{dbFile: path, timeout: defaultDBTimeout, log: logging.NopLogger()}
	for _, opt := range opts {
		opt(d)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)
	d.DB = db

	pingCtx, cancel := d.withTimeout(ctx, d.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, config.MigrationTimeout)
	defer cancelMigrate()
	if err := d.migrate(migrateCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	d.log.Debug("database opened", "path", path)
	return d, nil
}

// Close closes the handle. Calling Close twice is safe.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	err := d.DB.Close()
	d.DB = nil
	return err
}

// Path is the database file.
func (d *Database) Path() string { return d.dbFile }

func (d *Database) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func withDBContext(d *Database, ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := d.withTimeout(ctx, d.timeout)
	defer cancel()
	return fn(ctx)
}

func withDBContextResult[T any](d *Database, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := d.withTimeout(ctx, d.timeout)
	defer cancel()
	return fn(ctx)
}

// WithTx runs fn in a transaction, rolling back on error or panic.
func (d *Database) WithTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	ctx, cancel := d.withTimeout(ctx, d.timeout)
	defer cancel()

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *Database) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS okr_nodes (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			parent_id TEXT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			progress INTEGER NOT NULL DEFAULT 0,
			metric_type TEXT NOT NULL DEFAULT '',
			metric_start REAL NOT NULL DEFAULT 0,
			metric_target REAL NOT NULL DEFAULT 0,
			metric_unit TEXT NOT NULL DEFAULT '',
			metric_asc INTEGER NOT NULL DEFAULT 1,
			current_value REAL NOT NULL DEFAULT 0,
			checklist TEXT,
			estimated_hours REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_okr_nodes_parent ON okr_nodes(parent_id);`,
		`CREATE INDEX IF NOT EXISTS idx_okr_nodes_org ON okr_nodes(organization_id);`,
		`CREATE TABLE IF NOT EXISTS capacity_settings (
			user_id TEXT PRIMARY KEY,
			weekly_capacity REAL NOT NULL,
			daily_limit REAL NOT NULL,
			okr_allocation REAL NOT NULL,
			exceptions TEXT NOT NULL DEFAULT '[]',
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := d.DB.ExecContext(ctx, q); err != nil {
			return wrapErr(EntitySchema, "create", "", err)
		}
	}

	// v2: scheduling fields.
	alters := []string{
		"ALTER TABLE okr_nodes ADD COLUMN due_date TEXT",
		"ALTER TABLE okr_nodes ADD COLUMN assignee_id TEXT NOT NULL DEFAULT ''",
	}
	for _, q := range alters {
		if _, err := d.DB.ExecContext(ctx, q); err != nil && !isDuplicateColumn(err) {
			return wrapErr(EntitySchema, "migrate", "", err)
		}
	}
	if _, err := d.DB.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_okr_nodes_assignee ON okr_nodes(assignee_id)"); err != nil {
		return wrapErr(EntitySchema, "migrate", "", err)
	}

	return d.setSetting(ctx, d.DB, settingSchemaVersion, strconv.Itoa(schemaVersion))
}

// SchemaVersion reports the version recorded by the last migration.
func (d *Database) SchemaVersion(ctx context.Context) (int, error) {
	v, ok, err := d.GetSetting(ctx, settingSchemaVersion)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, wrapErr(EntitySchema, "read version", "", err)
	}
	return n, nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column")
}

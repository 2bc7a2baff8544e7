package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T, ctx context.Context) *Database {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("db close failed: %v", err)
		}
	})
	return db
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "deeper", "okr.db")
	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()
	if db.Path() != path {
		t.Fatalf("expected path %q, got %q", path, db.Path())
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "okr.db")
	for i := 0; i < 2; i++ {
		db, err := Open(ctx, path)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		if err := db.migrate(ctx); err != nil {
			t.Fatalf("migrate #%d failed: %v", i+1, err)
		}
		version, err := db.SchemaVersion(ctx)
		if err != nil {
			t.Fatalf("SchemaVersion failed: %v", err)
		}
		if version != schemaVersion {
			t.Fatalf("expected schema version %d, got %d", schemaVersion, version)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
}

func TestMigrate_AddsSchedulingColumnsToOldSchema(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	var count int
	err := db.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM pragma_table_info('okr_nodes') WHERE name IN ('due_date', 'assignee_id')").Scan(&count)
	if err != nil {
		t.Fatalf("pragma query failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both scheduling columns, got %d", count)
	}
}

func TestClose_Twice(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "okr.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	var nilDB *Database
	if err := nilDB.Close(); err != nil {
		t.Fatalf("nil Close failed: %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := db.setSetting(ctx, tx, "marker", "1"); err != nil {
			return err
		}
		return fmt.Errorf("force rollback")
	})
	if err == nil {
		t.Fatalf("expected error from WithTx")
	}
	if _, ok, err := db.GetSetting(ctx, "marker"); err != nil || ok {
		t.Fatalf("expected rollback to drop setting, ok=%v err=%v", ok, err)
	}
}

func TestWithTxRollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = db.WithTx(ctx, func(tx *sql.Tx) error {
			if err := db.setSetting(ctx, tx, "marker", "1"); err != nil {
				return err
			}
			panic("boom")
		})
	}()
	if _, ok, _ := db.GetSetting(ctx, "marker"); ok {
		t.Fatalf("expected panic to roll back")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	if _, ok, err := db.GetSetting(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing setting, ok=%v err=%v", ok, err)
	}
	if err := db.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := db.SetSetting(ctx, "theme", "light"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	v, ok, err := db.GetSetting(ctx, "theme")
	if err != nil || !ok || v != "light" {
		t.Fatalf("expected light, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestCanceledContextIsWrapped(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := db.LoadNodes(canceled, "")
	if err == nil {
		t.Fatalf("expected error on canceled context")
	}
	if !IsOpError(err) {
		t.Fatalf("expected OpError, got %T", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestWithTimeoutKeepsCallerDeadline(t *testing.T) {
	db := &Database{timeout: time.Hour}
	deadline := time.Now().Add(time.Minute)
	parent, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	ctx, cancel2 := db.withTimeout(parent, db.timeout)
	defer cancel2()
	got, ok := ctx.Deadline()
	if !ok || !got.Equal(deadline) {
		t.Fatalf("expected caller deadline %v, got %v (ok=%v)", deadline, got, ok)
	}
}

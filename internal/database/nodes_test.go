package database

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/testutil"
)

func seedTree(t *testing.T, ctx context.Context, db *Database) []models.OkrNode {
	t.Helper()
	goal := testutil.NewNode("g1", models.NodeGoal).WithTitle("Grow revenue").Build()
	obj := testutil.NewNode("o1", models.NodeObjective).WithParent("g1").
		CreatedAt(testutil.Date(2026, 1, 2)).Build()
	kr := testutil.NewNode("k1", models.NodeKeyResult).WithParent("o1").
		WithMetric(models.MetricNumber, 0, 10, 4, true).
		CreatedAt(testutil.Date(2026, 1, 3)).Build()
	kr.MetricUnit = "deals"
	task := testutil.NewTask("t1", 6).WithParent("k1").WithAssignee("alice").
		WithDue(testutil.Date(2026, 3, 10)).CreatedAt(testutil.Date(2026, 1, 4)).Build()
	checklist := testutil.NewNode("k2", models.NodeKeyResult).WithParent("o1").
		CreatedAt(testutil.Date(2026, 1, 5)).Build()
	checklist.MetricType = models.MetricChecklist
	checklist.Checklist = []models.ChecklistItem{{ID: "c1", Title: "draft", Done: true}, {ID: "c2", Title: "ship"}}

	nodes := []models.OkrNode{goal, obj, kr, task, checklist}
	for _, n := range nodes {
		if err := db.SaveNode(ctx, n); err != nil {
			t.Fatalf("SaveNode %s failed: %v", n.ID, err)
		}
	}
	return nodes
}

func findNode(t *testing.T, ctx context.Context, db *Database, id string) (models.OkrNode, bool) {
	t.Helper()
	all, err := db.LoadNodes(ctx, "")
	if err != nil {
		t.Fatalf("LoadNodes failed: %v", err)
	}
	for _, n := range all {
		if n.ID == id {
			return n, true
		}
	}
	return models.OkrNode{}, false
}

func TestNodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	nodes := seedTree(t, ctx, db)

	loaded, err := db.LoadNodes(ctx, "org-1")
	if err != nil {
		t.Fatalf("LoadNodes failed: %v", err)
	}
	if len(loaded) != len(nodes) {
		t.Fatalf("expected %d nodes, got %d", len(nodes), len(loaded))
	}
	for i := range nodes {
		if !reflect.DeepEqual(nodes[i], loaded[i]) {
			t.Fatalf("node %d mismatch:\nwant %+v\ngot  %+v", i, nodes[i], loaded[i])
		}
	}
}

func TestSaveNode_Upserts(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	seedTree(t, ctx, db)

	n, ok := findNode(t, ctx, db, "t1")
	if !ok {
		t.Fatalf("t1 not stored")
	}
	n.Title = "Renamed"
	n.Status = models.StatusCompleted
	n.Progress = 100
	n.DueDate = nil
	if err := db.SaveNode(ctx, n); err != nil {
		t.Fatalf("SaveNode failed: %v", err)
	}

	got, _ := findNode(t, ctx, db, "t1")
	if got.Title != "Renamed" || got.Status != models.StatusCompleted || got.Progress != 100 {
		t.Fatalf("update not persisted: %+v", got)
	}
	if got.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", got.DueDate)
	}
	all, _ := db.LoadNodes(ctx, "")
	if len(all) != 5 {
		t.Fatalf("expected upsert to keep 5 rows, got %d", len(all))
	}
}

func TestDeleteNode(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	seedTree(t, ctx, db)

	if err := db.DeleteNode(ctx, "t1"); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}
	if err := db.DeleteNode(ctx, "t1"); err != nil {
		t.Fatalf("second DeleteNode should be a no-op, got %v", err)
	}
	if _, ok := findNode(t, ctx, db, "t1"); ok {
		t.Fatalf("expected deleted node to be gone")
	}
}

func TestLoadNodes_FiltersOrganization(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	seedTree(t, ctx, db)
	other := testutil.NewNode("g9", models.NodeGoal).Build()
	other.OrganizationID = "org-2"
	if err := db.SaveNode(ctx, other); err != nil {
		t.Fatalf("SaveNode failed: %v", err)
	}

	org2, err := db.LoadNodes(ctx, "org-2")
	if err != nil {
		t.Fatalf("LoadNodes failed: %v", err)
	}
	if len(org2) != 1 || org2[0].ID != "g9" {
		t.Fatalf("expected only g9, got %+v", org2)
	}
	all, err := db.LoadNodes(ctx, "")
	if err != nil {
		t.Fatalf("LoadNodes failed: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 nodes across orgs, got %d", len(all))
	}
}

func TestSaveNodes_RollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	batch := []models.OkrNode{
		testutil.NewNode("g1", models.NodeGoal).Build(),
		testutil.NewNode("g2", models.NodeGoal).Build(),
	}
	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := db.saveNodes(ctx, tx, batch); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected rollback error, got %v", err)
	}
	all, err := db.LoadNodes(ctx, "")
	if err != nil {
		t.Fatalf("LoadNodes failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no rows after rolled back batch, got %d", len(all))
	}
}

package database

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/akyairhashvil/okrcap/internal/models"
)

func TestNullableHelpers(t *testing.T) {
	if got := toNullableArg[string](nil); got != nil {
		t.Fatalf("expected toNullableArg(nil) to return nil, got %v", got)
	}
	value := "p1"
	if got := toNullableArg(&value); got != "p1" {
		t.Fatalf("expected toNullableArg(&p1) to return p1, got %v", got)
	}
	if got := nullableTime(nil); got != nil {
		t.Fatalf("expected nullableTime(nil) to return nil, got %v", got)
	}
	got, err := parseNullableTime(sql.NullString{String: " ", Valid: true})
	if err != nil || got != nil {
		t.Fatalf("expected blank time to parse as nil, got %v (%v)", got, err)
	}
}

func TestFormatTimeIsUTCAndSortable(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	a := formatTime(time.Date(2026, 1, 1, 12, 0, 0, 0, loc))
	b := formatTime(time.Date(2026, 1, 1, 10, 0, 0, 500, time.UTC))
	if !strings.HasSuffix(a, "Z") {
		t.Fatalf("expected UTC suffix, got %s", a)
	}
	if !(a < b) {
		t.Fatalf("expected %s to sort before %s", a, b)
	}
	parsed, err := parseTime(a)
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if !parsed.Equal(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed time %v", parsed)
	}
}

func TestJSONColumn(t *testing.T) {
	v, err := marshalJSONColumn[models.ChecklistItem](nil, true)
	if err != nil || v != nil {
		t.Fatalf("expected NULL for empty slice, got %v (%v)", v, err)
	}
	v, err = marshalJSONColumn[models.ChecklistItem](nil, false)
	if err != nil || v != "[]" {
		t.Fatalf("expected [] for empty slice, got %v (%v)", v, err)
	}
	items, err := unmarshalJSONColumn[models.ChecklistItem](sql.NullString{String: `[{"id":"c1","title":"a","done":true}]`, Valid: true})
	if err != nil || len(items) != 1 || !items[0].Done {
		t.Fatalf("unexpected decode %+v (%v)", items, err)
	}
	if _, err := unmarshalJSONColumn[models.ChecklistItem](sql.NullString{String: "{", Valid: true}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNodeQueryBuild(t *testing.T) {
	query, args := NewNodeQuery().
		WhereOrganization("org-1").
		Where("type = ?", string(models.NodeTask)).
		Build()
	if !strings.Contains(query, "WHERE organization_id = ? AND type = ?") {
		t.Fatalf("unexpected filters: %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY created_at ASC, id ASC") {
		t.Fatalf("unexpected tail: %s", query)
	}
	if len(args) != 2 || args[0] != "org-1" || args[1] != "TASK" {
		t.Fatalf("unexpected args %v", args)
	}

	query, args = NewNodeQuery().WhereOrganization("").Build()
	if strings.Contains(query, "WHERE") || len(args) != 0 {
		t.Fatalf("expected unfiltered select, got %s %v", query, args)
	}
}

func TestOpErrorFormatting(t *testing.T) {
	err := wrapErr(EntityNode, "save", "n1", sql.ErrConnDone)
	if err.Error() != "save node n1: "+sql.ErrConnDone.Error() {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if wrapErr(EntityNode, "save", "n1", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
	if !IsOpError(err) {
		t.Fatalf("expected IsOpError")
	}
}

package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/testutil"
	"github.com/akyairhashvil/okrcap/internal/util"
)

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0h"},
		{10, "10h"},
		{2.5, "2.5h"},
		{40.0 / 7 * 0.5, "2.86h"},
		{-0.001, "0h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHours(tt.in), "FormatHours(%v)", tt.in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(nil))
	assert.Equal(t, "2026-03-02", FormatDate(util.Ptr(testutil.Date(2026, 3, 2))))
	assert.Equal(t, "Mon 2026-03-02", FormatDay(testutil.Date(2026, 3, 2)))
}

func TestFormatTaskCount(t *testing.T) {
	assert.Equal(t, "No tasks", FormatTaskCount(0, 0))
	assert.Equal(t, "2/5 tasks", FormatTaskCount(2, 5))
}

func TestFormatMetric(t *testing.T) {
	number := testutil.NewNode("k", models.NodeKeyResult).WithMetric(models.MetricNumber, 0, 10, 4, true).Build()
	number.MetricUnit = "deals"
	assert.Equal(t, "4/10 deals", FormatMetric(number))

	churn := testutil.NewNode("k", models.NodeKeyResult).WithMetric(models.MetricPercentage, 10, 5, 7.5, false).Build()
	assert.Equal(t, "7.5%/5% (lower is better)", FormatMetric(churn))

	list := testutil.NewNode("k", models.NodeKeyResult).WithMetric(models.MetricChecklist, 0, 0, 0, true).Build()
	list.Checklist = []models.ChecklistItem{{ID: "a", Done: true}, {ID: "b"}, {ID: "c"}}
	assert.Equal(t, "1/3 items", FormatMetric(list))

	flag := testutil.NewNode("k", models.NodeKeyResult).WithMetric(models.MetricBoolean, 0, 1, 1, true).Build()
	assert.Equal(t, "done", FormatMetric(flag))

	assert.Empty(t, FormatMetric(testutil.NewTask("t", 1).Build()))
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "abcdefghij", Truncate("abcdefghij", 10))
	assert.Equal(t, "abc...", Truncate("abcdefghij", 6))
	assert.Empty(t, Truncate("abc", 0))
	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, "abcdef", PadRight("abcdef", 4))
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "G", TypeLabel(models.NodeGoal))
	assert.Equal(t, "KR", TypeLabel(models.NodeKeyResult))
	assert.Equal(t, "?", TypeLabel(models.NodeType("EPIC")))
}

func TestSetTheme(t *testing.T) {
	t.Cleanup(func() { SetTheme("default") })

	assert.True(t, SetTheme("dracula"))
	assert.Equal(t, "Dracula", CurrentTheme.Name)
	assert.False(t, SetTheme("nope"))
	assert.Equal(t, "Dracula", CurrentTheme.Name)

	done := testutil.NewTask("t", 1).WithStatus(models.StatusCompleted).Build()
	assert.True(t, CurrentTheme.NodeStyle(done).GetStrikethrough())
	assert.True(t, CurrentTheme.NodeStyle(testutil.NewNode("g", models.NodeGoal).Build()).GetBold())
}

func TestVersionLabel(t *testing.T) {
	oldV, oldC, oldB := AppVersion, GitCommit, BuildTime
	t.Cleanup(func() { AppVersion, GitCommit, BuildTime = oldV, oldC, oldB })

	AppVersion, GitCommit, BuildTime = "1.2.0", "unknown", "unknown"
	assert.Equal(t, "1.2.0", VersionLabel())
	GitCommit = "abc123"
	assert.Equal(t, "1.2.0 (abc123 unknown)", VersionLabel())
}

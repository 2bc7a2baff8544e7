package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akyairhashvil/okrcap/internal/capacity"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
	"github.com/akyairhashvil/okrcap/internal/testutil"
	"github.com/akyairhashvil/okrcap/internal/util"
)

func TestRenderTreeShowsEveryNode(t *testing.T) {
	store := newTestStore(t)
	out := ansi.Strip(NewRenderer(140).RenderTree(store.Forest()))

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Grow revenue")
	assert.Contains(t, lines[0], "20%")
	assert.Contains(t, lines[2], "KR")
	assert.Contains(t, lines[2], "40%")
	assert.Contains(t, lines[2], "4/10 deals")
	assert.Contains(t, lines[4], "Build API")
	assert.Contains(t, lines[4], "6h")
	assert.Contains(t, lines[4], "due 2026-03-10")
	assert.Contains(t, lines[4], "@alice")
}

func TestRenderTreeEmpty(t *testing.T) {
	assert.Contains(t, ansi.Strip(NewRenderer(80).RenderTree(nil)), "No goals yet.")
}

func TestRenderRowsMarksCollapsedParents(t *testing.T) {
	store := newTestStore(t)
	expanded := map[string]bool{"g1": true}
	rows := okr.Flatten(store.Forest(), expanded, 0)
	require.Len(t, rows, 2)

	out := ansi.Strip(NewRenderer(120).RenderRows(rows, 1, expanded))
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "▾")
	assert.Contains(t, lines[1], "▸")
	assert.True(t, strings.HasPrefix(lines[1], "> "))
}

func TestRenderTreeFitsWidth(t *testing.T) {
	store := newTestStore(t)
	_, err := store.UpdateNode("t1", okr.NodePatch{Title: util.Ptr(strings.Repeat("very long title ", 10))})
	require.NoError(t, err)

	out := NewRenderer(60).RenderTree(store.Forest())
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 60)
	}
}

func TestRenderNode(t *testing.T) {
	store := newTestStore(t)
	k1, err := store.Get("k1")
	require.NoError(t, err)

	out := ansi.Strip(NewRenderer(80).RenderNode(k1, 0))
	assert.Contains(t, out, "Close deals")
	assert.Contains(t, out, "k1")
	assert.Contains(t, out, "KEY_RESULT")
	assert.Contains(t, out, "4/10 deals")
	assert.NotContains(t, out, "Estimate:")
}

func TestRenderCapacity(t *testing.T) {
	model := capacity.NewModel(capacity.DefaultDefaults())
	_, err := model.UpdateSettings("alice", capacity.SettingsPatch{
		WeeklyCapacity: util.Ptr(35.0),
		DailyLimit:     util.Ptr(8.0),
		OKRAllocation:  util.Ptr(50.0),
	})
	require.NoError(t, err)
	_, err = model.AddException("alice", capacity.ExceptionInput{Date: "2026-03-03", Hours: 0, Reason: "holiday"})
	require.NoError(t, err)

	days := model.AvailableRange("alice", testutil.Date(2026, 3, 2), testutil.Date(2026, 3, 4))
	out := ansi.Strip(NewRenderer(80).RenderCapacity(model.GetSettings("alice"), days))

	assert.Contains(t, out, "Capacity for alice")
	assert.Contains(t, out, "Weekly 35h")
	assert.Contains(t, out, "OKR allocation 50%")
	assert.Contains(t, out, "holiday")
	assert.Contains(t, out, "Mon 2026-03-02  2.5h")
	assert.Contains(t, out, "Tue 2026-03-03  0h  (exception)")
	assert.Contains(t, out, "Total available: 5h")
}

func TestRenderPlan(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewTask("t1", 10).WithTitle("Big").WithDue(testutil.Date(2026, 3, 3)).Build(),
		testutil.NewTask("t2", 4).WithTitle("Small").Build(),
		testutil.NewTask("t3", 8).WithTitle("Too much").Build(),
	}
	avail := scheduler.AvailabilityFunc(func(string, time.Time) float64 { return 5 })
	plan := scheduler.PlanFeasibility("alice", tasks, scheduler.NewRange(testutil.Date(2026, 3, 2), 3), avail)
	require.False(t, plan.Feasible)

	out := ansi.Strip(NewRenderer(120).RenderPlan(plan))
	assert.Contains(t, out, "Plan for alice: 2026-03-02 to 2026-03-04")
	assert.Contains(t, out, "NOT FEASIBLE")
	assert.Contains(t, out, "UNSCHEDULABLE")
	assert.Contains(t, out, "on time")
	assert.Contains(t, out, "Mon 2026-03-02  5h")
	assert.NotContains(t, out, "more days")
}

func TestRenderPlanCapsDays(t *testing.T) {
	avail := scheduler.AvailabilityFunc(func(string, time.Time) float64 { return 2 })
	plan := scheduler.PlanFeasibility("bob", nil, scheduler.NewRange(testutil.Date(2026, 3, 2), 40), avail)

	out := ansi.Strip(NewRenderer(100).RenderPlan(plan))
	assert.Contains(t, out, "FEASIBLE")
	assert.Contains(t, out, "No open tasks.")
	assert.Contains(t, out, "... 9 more days")
}

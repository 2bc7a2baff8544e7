package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akyairhashvil/okrcap/internal/capacity"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/testutil"
	"github.com/akyairhashvil/okrcap/internal/util"
)

var monday = testutil.Date(2026, 3, 2)

func flat(hours float64) Availability {
	return AvailabilityFunc(func(string, time.Time) float64 { return hours })
}

func day(offset int) time.Time {
	return monday.AddDate(0, 0, offset)
}

func TestScenarioTenFiveFiveAtFivePerDay(t *testing.T) {
	m := capacity.NewModel(capacity.DefaultDefaults())
	_, err := m.UpdateSettings("alice", capacity.SettingsPatch{
		WeeklyCapacity: util.Ptr(35.0),
		DailyLimit:     util.Ptr(5.0),
		OKRAllocation:  util.Ptr(100.0),
	})
	require.NoError(t, err)

	tasks := []models.OkrNode{
		testutil.NewTask("t3", 5).WithDue(day(12)).Build(),
		testutil.NewTask("t1", 10).WithDue(day(10)).Build(),
		testutil.NewTask("t2", 5).WithDue(day(11)).Build(),
	}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 14), m)

	require.Len(t, plan.Tasks, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskIDs(plan))
	assert.True(t, plan.Feasible)
	assert.Empty(t, plan.Unschedulable())

	t1, _ := plan.Task("t1")
	assert.Equal(t, day(0), *t1.StartDate)
	assert.Equal(t, day(1), *t1.CompletionDate)
	t2, _ := plan.Task("t2")
	assert.Equal(t, day(2), *t2.CompletionDate)
	t3, _ := plan.Task("t3")
	assert.Equal(t, day(3), *t3.CompletionDate)

	assert.Equal(t, []string{"t1"}, plan.Days[0].TaskIDs)
	assert.Equal(t, 5.0, plan.Days[0].Allocated)
	assert.Equal(t, 0.0, plan.Days[0].Headroom)
	assert.Equal(t, 0.0, plan.Days[4].Allocated)
	assert.Equal(t, 5.0, plan.Days[4].Headroom)
	assert.Equal(t, 70.0, plan.TotalAvailable)
	assert.Equal(t, 20.0, plan.TotalAllocated)
}

func TestUndatedTasksGoLastAndTiesUseCreationTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	tasks := []models.OkrNode{
		testutil.NewTask("undated-old", 1).CreatedAt(base).Build(),
		testutil.NewTask("due-late", 1).WithDue(day(5)).CreatedAt(base).Build(),
		testutil.NewTask("due-early-new", 1).WithDue(day(3)).CreatedAt(base.Add(2 * time.Hour)).Build(),
		testutil.NewTask("due-early-old", 1).WithDue(day(3)).CreatedAt(base.Add(time.Hour)).Build(),
		testutil.NewTask("undated-new", 1).CreatedAt(base.Add(time.Hour)).Build(),
	}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 7), flat(8))

	assert.Equal(t, []string{"due-early-old", "due-early-new", "due-late", "undated-old", "undated-new"}, taskIDs(plan))
}

func TestFullTiesKeepInputOrder(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewTask("b", 1).Build(),
		testutil.NewTask("a", 1).Build(),
		testutil.NewTask("c", 1).Build(),
	}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 1), flat(8))
	assert.Equal(t, []string{"b", "a", "c"}, taskIDs(plan))
	assert.Equal(t, []string{"b", "a", "c"}, plan.Days[0].TaskIDs)
}

func TestUnschedulableConsumesNothing(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewTask("big", 20).WithDue(day(1)).Build(),
		testutil.NewTask("small", 3).WithDue(day(2)).Build(),
	}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 3), flat(4))

	big, ok := plan.Task("big")
	require.True(t, ok)
	assert.True(t, big.Unschedulable)
	assert.Nil(t, big.CompletionDate)
	assert.Nil(t, big.StartDate)

	small, _ := plan.Task("small")
	assert.False(t, small.Unschedulable)
	assert.Equal(t, day(0), *small.CompletionDate, "later tasks still get the freed capacity")

	assert.False(t, plan.Feasible)
	assert.Equal(t, 20.0, plan.UnschedulableHours)
	assert.Equal(t, 3.0, plan.TotalAllocated)
}

func TestTaskFillingWindowExactlyFits(t *testing.T) {
	tasks := []models.OkrNode{testutil.NewTask("exact", 12).Build()}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 3), flat(4))

	tp, _ := plan.Task("exact")
	assert.False(t, tp.Unschedulable)
	assert.Equal(t, day(2), *tp.CompletionDate)
	assert.True(t, plan.Feasible)
}

func TestFractionalHoursRoundToHundredths(t *testing.T) {
	// 40/7 * 0.5 per day = 2.857..., kept as 2.86.
	m := capacity.NewModel(capacity.DefaultDefaults())
	_, err := m.UpdateSettings("alice", capacity.SettingsPatch{OKRAllocation: util.Ptr(50.0)})
	require.NoError(t, err)

	tasks := []models.OkrNode{testutil.NewTask("t", 5.72).Build()}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 3), m)

	assert.Equal(t, 2.86, plan.Days[0].Available)
	assert.Equal(t, 2.86, plan.Days[0].Allocated)
	assert.Equal(t, 2.86, plan.Days[1].Allocated)
	assert.Equal(t, 0.0, plan.Days[1].Headroom)
	assert.Equal(t, 0.0, plan.Days[2].Allocated)
	tp, _ := plan.Task("t")
	assert.Equal(t, day(1), *tp.CompletionDate)
}

func TestExceptionDaysAreSkipped(t *testing.T) {
	m := capacity.NewModel(capacity.DefaultDefaults())
	_, err := m.UpdateSettings("alice", capacity.SettingsPatch{
		WeeklyCapacity: util.Ptr(35.0), DailyLimit: util.Ptr(5.0), OKRAllocation: util.Ptr(100.0),
	})
	require.NoError(t, err)
	_, err = m.AddException("alice", capacity.ExceptionInput{Date: models.DateKey(day(0)), Hours: 0})
	require.NoError(t, err)

	plan := PlanFeasibility("alice", []models.OkrNode{testutil.NewTask("t", 5).Build()}, NewRange(monday, 3), m)
	tp, _ := plan.Task("t")
	assert.Equal(t, day(1), *tp.StartDate)
	assert.Equal(t, day(1), *tp.CompletionDate)
	assert.Empty(t, plan.Days[0].TaskIDs)
}

func TestZeroHourTasksCompleteOnFirstDay(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewTask("filler", 8).Build(),
		testutil.NewTask("free", 0).Build(),
	}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 3), flat(4))

	free, _ := plan.Task("free")
	assert.False(t, free.Unschedulable)
	assert.Equal(t, day(0), *free.CompletionDate)
	assert.NotContains(t, plan.Days[0].TaskIDs, "free")
}

func TestLateTasksAreFlagged(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewTask("a", 8).WithDue(day(0)).Build(),
		testutil.NewTask("b", 4).WithDue(day(2)).Build(),
	}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 5), flat(4))

	a, _ := plan.Task("a")
	assert.True(t, a.Late)
	b, _ := plan.Task("b")
	assert.False(t, b.Late)
	assert.Len(t, plan.Late(), 1)
	assert.True(t, plan.Feasible, "late work still fits the window")
}

func TestDueDateTimeOfDayDoesNotMakeTaskLate(t *testing.T) {
	due := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	plan := PlanFeasibility("alice", []models.OkrNode{testutil.NewTask("a", 2).WithDue(due).Build()}, NewRange(monday, 2), flat(4))
	a, _ := plan.Task("a")
	assert.False(t, a.Late)
}

func TestSkipsNonTasksAndCompleted(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewNode("kr", models.NodeKeyResult).Build(),
		testutil.NewTask("done", 3).WithStatus(models.StatusCompleted).Build(),
		testutil.NewTask("bad", -2).Build(),
		testutil.NewTask("open", 3).WithStatus(models.StatusInProgress).Build(),
	}
	plan := PlanFeasibility("alice", tasks, NewRange(monday, 2), flat(4))

	assert.Equal(t, []string{"open"}, taskIDs(plan))
	assert.Equal(t, []SkippedTask{
		{TaskID: "kr", Reason: SkipNotTask},
		{TaskID: "done", Reason: SkipCompleted},
		{TaskID: "bad", Reason: SkipBadEstimate},
	}, plan.Skipped)
}

func TestInvalidRangeMarksWorkUnschedulable(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewTask("work", 2).Build(),
		testutil.NewTask("free", 0).Build(),
	}
	plan := PlanFeasibility("alice", tasks, DateRange{Start: day(3), End: day(1)}, flat(4))

	assert.Empty(t, plan.Days)
	work, _ := plan.Task("work")
	assert.True(t, work.Unschedulable)
	free, _ := plan.Task("free")
	assert.False(t, free.Unschedulable)
	assert.Nil(t, free.CompletionDate)
	assert.False(t, plan.Feasible)

	assert.Empty(t, DateRange{}.Days())
}

func TestPlanIsDeterministicAndDoesNotMutateInput(t *testing.T) {
	tasks := []models.OkrNode{
		testutil.NewTask("c", 3).Build(),
		testutil.NewTask("a", 6).WithDue(day(4)).Build(),
		testutil.NewTask("b", 2.5).WithDue(day(1)).Build(),
	}
	before := make([]models.OkrNode, len(tasks))
	for i := range tasks {
		before[i] = tasks[i].Clone()
	}

	p := NewPlanner()
	first := p.PlanFeasibility("alice", tasks, NewRange(monday, 5), flat(3))
	second := p.PlanFeasibility("alice", tasks, NewRange(monday, 5), flat(3))

	assert.Equal(t, first, second)
	assert.Equal(t, before, tasks)
}

func TestNewRange(t *testing.T) {
	r := NewRange(time.Date(2026, 3, 2, 18, 45, 0, 0, time.UTC), 3)
	assert.Equal(t, []time.Time{day(0), day(1), day(2)}, r.Days())
	assert.False(t, NewRange(monday, 0).Valid())
}

func taskIDs(p Plan) []string {
	out := make([]string, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		out = append(out, t.TaskID)
	}
	return out
}

package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
	"github.com/akyairhashvil/okrcap/internal/testutil"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	store := newTestStore(t)
	tasks, err := store.Tasks(okr.TaskFilter{})
	require.NoError(t, err)
	avail := scheduler.AvailabilityFunc(func(string, time.Time) float64 { return 2 })
	return Report{
		GeneratedAt: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
		Forest:      store.Forest(),
		Plan:        scheduler.PlanFeasibility("alice", tasks, scheduler.NewRange(testutil.Date(2026, 3, 2), 7), avail),
		Capacity:    testutil.NewSettings("alice").WithException("ex1", "2026-03-04", 0).Build(),
	}
}

func TestWritePlanReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanReport(&buf, sampleReport(t)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWritePlanReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanReport(&buf, Report{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestGeneratePlanReportCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "nested", ReportFileName("alice", testutil.Date(2026, 3, 2)))

	abs, err := GeneratePlanReport(path, sampleReport(t))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, "okrcap_plan_alice_2026-03-02.pdf", filepath.Base(abs))

	info, err := os.Stat(abs)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

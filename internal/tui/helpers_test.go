package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/testutil"
	"github.com/akyairhashvil/okrcap/internal/util"
)

// newTestStore builds
//
//	g1 Grow revenue
//	  o1 Win deals
//	    k1 Close deals (number 0..10, current 4)
//	    k2 Ship v2
//	      t1 Build API (6h, due 2026-03-10, alice)
func newTestStore(t *testing.T) *okr.Store {
	t.Helper()
	store := okr.NewStore()
	inputs := []okr.NodeInput{
		{ID: "g1", OrganizationID: "org-1", Type: models.NodeGoal, Title: "Grow revenue"},
		{ID: "o1", Type: models.NodeObjective, Title: "Win deals", ParentID: util.Ptr("g1")},
		{
			ID: "k1", Type: models.NodeKeyResult, Title: "Close deals", ParentID: util.Ptr("o1"),
			MetricType: models.MetricNumber, MetricStart: 0, MetricTarget: 10, CurrentValue: 4,
			MetricAsc: true, MetricUnit: "deals",
		},
		{ID: "k2", Type: models.NodeKeyResult, Title: "Ship v2", ParentID: util.Ptr("o1")},
		{
			ID: "t1", Type: models.NodeTask, Title: "Build API", ParentID: util.Ptr("k2"),
			EstimatedHours: 6, DueDate: util.Ptr(testutil.Date(2026, 3, 10)), AssigneeID: "alice",
		},
	}
	for _, in := range inputs {
		_, err := store.CreateNode(in)
		require.NoError(t, err)
	}
	return store
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m BrowseModel, keys ...string) BrowseModel {
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(BrowseModel)
	}
	return m
}

func rowIDs(m BrowseModel) []string {
	var ids []string
	for _, n := range m.Rows() {
		ids = append(ids, n.ID)
	}
	return ids
}

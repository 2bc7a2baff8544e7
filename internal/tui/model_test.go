package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akyairhashvil/okrcap/internal/app"
	"github.com/akyairhashvil/okrcap/internal/capacity"
	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
)

// brokenDisk fails every write.
type brokenDisk struct{}

func (brokenDisk) LoadNodes(context.Context, string) ([]models.OkrNode, error) { return nil, nil }
func (brokenDisk) SaveNode(context.Context, models.OkrNode) error {
	return errors.New("disk full")
}
func (brokenDisk) DeleteNode(context.Context, string) error { return errors.New("disk full") }
func (brokenDisk) LoadCapacity(context.Context, string) (*models.CapacitySettings, error) {
	return nil, nil
}
func (brokenDisk) SaveCapacity(context.Context, models.CapacitySettings) error {
	return errors.New("disk full")
}

func newBrowser(t *testing.T, persist app.Persistence, rootID string) (BrowseModel, *okr.Store) {
	t.Helper()
	store := newTestStore(t)
	svc := app.NewService(store, capacity.NewModel(capacity.DefaultDefaults()), persist)
	m, err := NewBrowseModel(context.Background(), svc, rootID)
	require.NoError(t, err)
	return m, store
}

func TestBrowseStartsWithGoalsOpen(t *testing.T) {
	m, _ := newBrowser(t, nil, "")
	assert.Equal(t, []string{"g1", "o1"}, rowIDs(m))
	assert.Equal(t, 0, m.Cursor())
	assert.Nil(t, m.Init())
}

func TestBrowseNavigateAndComplete(t *testing.T) {
	m, store := newBrowser(t, nil, "")

	m = press(m, "down", "right")
	assert.Equal(t, []string{"g1", "o1", "k1", "k2"}, rowIDs(m))

	m = press(m, "j", "j", "l", "down")
	assert.Equal(t, []string{"g1", "o1", "k1", "k2", "t1"}, rowIDs(m))
	assert.Equal(t, 4, m.Cursor())

	m = press(m, "x")
	assert.Equal(t, "saved", m.Status())
	assert.Equal(t, 4, m.Cursor())
	t1, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, t1.Status)
	assert.Equal(t, 100, t1.Progress)
	o1, err := store.Get("o1")
	require.NoError(t, err)
	assert.Equal(t, 70, o1.Progress)
	assert.Equal(t, 70, m.Rows()[1].Progress)

	m = press(m, "x")
	t1, err = store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, t1.Status)
}

func TestBrowseCollapse(t *testing.T) {
	m, _ := newBrowser(t, nil, "")
	m = press(m, "e")
	require.Len(t, m.Rows(), 5)

	m = press(m, "down", "down", "down", "down", "left")
	assert.Equal(t, 3, m.Cursor(), "left on a leaf jumps to its parent")

	m = press(m, "h")
	assert.Equal(t, []string{"g1", "o1", "k1", "k2"}, rowIDs(m))
	assert.Equal(t, 3, m.Cursor())

	m = press(m, "E")
	assert.Equal(t, []string{"g1"}, rowIDs(m))
	assert.Equal(t, 0, m.Cursor())

	m = press(m, "up", "up", "k")
	assert.Equal(t, 0, m.Cursor())
}

func TestBrowseRejectedProgressKeepsValue(t *testing.T) {
	m, store := newBrowser(t, nil, "")
	m = press(m, "e", "down", "down", "+")

	assert.NotEmpty(t, m.Status())
	assert.NotEqual(t, "saved", m.Status())
	k1, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, 40, k1.Progress)
}

func TestBrowseManualProgress(t *testing.T) {
	m, store := newBrowser(t, nil, "")
	m = press(m, "e", "down", "down", "down", "down", "+", "+", "-")

	t1, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, 10, t1.Progress)
	assert.Equal(t, "saved", m.Status())
}

func TestBrowsePersistenceFailureStillUpdates(t *testing.T) {
	m, store := newBrowser(t, brokenDisk{}, "")
	m = press(m, "e", "down", "down", "down", "down", "x")

	assert.Contains(t, ansi.Strip(m.Status()), "not saved, run sync")
	t1, err := store.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, t1.Status)
	assert.Equal(t, models.StatusCompleted, m.Rows()[4].Status)
}

func TestBrowseDetailView(t *testing.T) {
	m, _ := newBrowser(t, nil, "")
	m = press(m, "enter")
	out := ansi.Strip(m.View())
	assert.Contains(t, out, "ID:")
	assert.Contains(t, out, "GOAL")

	m = press(m, "down")
	assert.Equal(t, 0, m.Cursor(), "navigation is off in detail view")

	m = press(m, "esc")
	assert.Contains(t, ansi.Strip(m.View()), "Win deals")
}

func TestBrowseHelpAndQuit(t *testing.T) {
	m, _ := newBrowser(t, nil, "")
	assert.Contains(t, ansi.Strip(m.View()), "[?]help")

	m = press(m, "?")
	assert.Contains(t, ansi.Strip(m.View()), "[x]toggle done")

	for _, key := range []string{"q", "ctrl+c"} {
		_, cmd := m.Update(keyMsg(key))
		require.NotNil(t, cmd, key)
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok, key)
	}
}

func TestBrowseWindowFollowsCursor(t *testing.T) {
	m, _ := newBrowser(t, nil, "")
	m = press(m, "e", "down", "down", "down", "down")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 7})
	m = next.(BrowseModel)

	out := ansi.Strip(m.View())
	assert.Contains(t, out, "Build API")
	assert.NotContains(t, out, "Grow revenue")
}

func TestBrowseSubtree(t *testing.T) {
	m, _ := newBrowser(t, nil, "k2")
	assert.Equal(t, []string{"k2", "t1"}, rowIDs(m))

	store := newTestStore(t)
	svc := app.NewService(store, capacity.NewModel(capacity.DefaultDefaults()), nil)
	_, err := NewBrowseModel(context.Background(), svc, "missing")
	assert.True(t, okrerrors.IsNotFound(err))
}

func TestKeymapPriority(t *testing.T) {
	k := NewKeymap()
	var order []string
	k.Bind(KeyBinding{Keys: []string{"a"}, Priority: 1, Action: func(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
		order = append(order, "low")
		return m, nil, true
	}})
	k.Bind(KeyBinding{Keys: []string{"a"}, Priority: 5, Action: func(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
		order = append(order, "high")
		return m, nil, false
	}})

	_, _, handled := k.Dispatch(BrowseModel{}, "a")
	assert.True(t, handled)
	assert.Equal(t, []string{"high", "low"}, order)

	_, _, handled = k.Dispatch(BrowseModel{}, "b")
	assert.False(t, handled)
	assert.Empty(t, k.Help(viewTree))
}

func TestKeymapHelpGroupsByView(t *testing.T) {
	k := browseKeys()

	tree := k.Help(viewTree)
	assert.True(t, strings.HasPrefix(tree, "move: ↑/k up  ↓/j down  enter/d details"), tree)
	assert.Contains(t, tree, "fold: →/l expand  ←/h collapse  e expand all  E collapse all")
	assert.Contains(t, tree, "edit: x/space toggle done")
	assert.True(t, strings.HasSuffix(tree, "app: q quit  ? help  r reload"), tree)
	assert.NotContains(t, tree, "ctrl+c")
	assert.NotContains(t, tree, "back")

	detail := k.Help(viewDetail)
	assert.Equal(t, "move: esc/enter/d back · app: q quit  ? help  r reload", detail)
}

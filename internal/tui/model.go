package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	okrerrors "github.com/akyairhashvil/okrcap/internal/errors"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/util"
)

const (
	viewTree = iota
	viewDetail
)

// progressStep is how far +/- move a leaf's manual progress.
const progressStep = 10

// NodeService is what the browser needs from the application service.
type NodeService interface {
	Store() *okr.Store
	UpdateNode(ctx context.Context, id string, patch okr.NodePatch) (okr.Mutation, error)
}

// BrowseModel is an interactive tree browser over the node store.
type BrowseModel struct {
	ctx    context.Context
	svc    NodeService
	rootID string

	tree     treeState
	cursor   int
	viewMode int
	showHelp bool

	width    int
	height   int
	renderer *Renderer
	keys     *Keymap

	status string
}

// NewBrowseModel browses the whole forest, or only the subtree at rootID.
func NewBrowseModel(ctx context.Context, svc NodeService, rootID string) (BrowseModel, error) {
	m := BrowseModel{
		ctx:      ctx,
		svc:      svc,
		rootID:   rootID,
		renderer: NewRenderer(0),
		keys:     browseKeys(),
	}
	forest, err := m.loadForest()
	if err != nil {
		return BrowseModel{}, err
	}
	m.tree = newTreeState(forest, nil)
	return m, nil
}

func (m BrowseModel) loadForest() ([]*okr.Subtree, error) {
	if m.rootID == "" {
		return m.svc.Store().Forest(), nil
	}
	st, err := m.svc.Store().GetSubtree(m.rootID)
	if err != nil {
		return nil, err
	}
	return []*okr.Subtree{st}, nil
}

// reload takes a fresh snapshot and keeps the cursor on the same node.
func (m BrowseModel) reload() BrowseModel {
	selected := m.selectedID()
	forest, err := m.loadForest()
	if err != nil {
		m.status = err.Error()
		return m
	}
	m.tree = newTreeState(forest, m.tree.expanded)
	if i := m.tree.indexOf(selected); i >= 0 {
		m.cursor = i
	}
	m.cursor = util.Clamp(m.cursor, 0, max(len(m.tree.rows)-1, 0))
	return m
}

func (m BrowseModel) selected() (*okr.Subtree, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tree.rows) {
		return nil, false
	}
	return m.tree.rows[m.cursor], true
}

func (m BrowseModel) selectedID() string {
	if row, ok := m.selected(); ok {
		return row.Node.ID
	}
	return ""
}

// Cursor is the index of the highlighted row.
func (m BrowseModel) Cursor() int { return m.cursor }

// Rows lists the visible nodes in display order.
func (m BrowseModel) Rows() []models.OkrNode {
	out := make([]models.OkrNode, len(m.tree.rows))
	for i, r := range m.tree.rows {
		out[i] = r.Node
	}
	return out
}

func (m BrowseModel) Status() string { return m.status }

func (m BrowseModel) Init() tea.Cmd { return nil }

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		next, cmd, _ := m.keys.Dispatch(m, msg.String())
		return next, cmd
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder
	done, total := m.tree.taskCounts()
	b.WriteString(CurrentTheme.Header.Render("okrcap " + VersionLabel()))
	b.WriteString("  ")
	b.WriteString(CurrentTheme.Dim.Render(FormatTaskCount(done, total)))
	b.WriteString("\n\n")

	switch m.viewMode {
	case viewDetail:
		if row, ok := m.selected(); ok {
			b.WriteString(m.renderer.RenderNode(row.Node, len(row.Children)))
		}
	default:
		start, end := m.window()
		b.WriteString(m.renderer.RenderRows(m.tree.rows[start:end], m.cursor-start, m.tree.expanded))
	}

	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteByte('\n')
	}
	if m.showHelp {
		b.WriteString(CurrentTheme.Dim.Render(m.keys.Help(m.viewMode)))
	} else {
		b.WriteString(CurrentTheme.Dim.Render("[?]help [q]quit"))
	}
	return b.String()
}

// window returns the slice of rows that fits the terminal height while
// keeping the cursor visible.
func (m BrowseModel) window() (int, int) {
	n := len(m.tree.rows)
	visible := m.height - 6
	if m.height == 0 || visible >= n {
		return 0, n
	}
	if visible < 1 {
		visible = 1
	}
	start := m.cursor - visible/2
	start = util.Clamp(start, 0, n-visible)
	return start, start + visible
}

func browseKeys() *Keymap {
	k := NewKeymap()
	k.Bind(KeyBinding{Keys: []string{"ctrl+c"}, Action: handleQuit, Group: GroupApp, Priority: 100})
	k.Bind(KeyBinding{Keys: []string{"q"}, Action: handleQuit, Help: "quit", Group: GroupApp, Priority: 10})
	k.Bind(KeyBinding{Keys: []string{"?"}, Action: handleHelp, Help: "help", Group: GroupApp})
	k.Bind(KeyBinding{Keys: []string{"r"}, Action: handleReload, Help: "reload", Group: GroupApp})

	tree := []int{viewTree}
	k.Bind(KeyBinding{Keys: []string{"up", "k"}, Action: handleUp, Help: "up", Group: GroupMove, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"down", "j"}, Action: handleDown, Help: "down", Group: GroupMove, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"enter", "d"}, Action: handleDetail, Help: "details", Group: GroupMove, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"esc", "enter", "d"}, Action: handleBack, Help: "back", Group: GroupMove, Views: []int{viewDetail}})

	k.Bind(KeyBinding{Keys: []string{"right", "l"}, Action: handleExpand, Help: "expand", Group: GroupFold, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"left", "h"}, Action: handleCollapse, Help: "collapse", Group: GroupFold, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"e"}, Action: handleExpandAll, Help: "expand all", Group: GroupFold, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"E"}, Action: handleCollapseAll, Help: "collapse all", Group: GroupFold, Views: tree})

	k.Bind(KeyBinding{Keys: []string{"x", " ", "space"}, Action: handleToggleComplete, Help: "toggle done", Group: GroupEdit, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"+", "="}, Action: handleProgress, Help: "progress +10", Group: GroupEdit, Views: tree})
	k.Bind(KeyBinding{Keys: []string{"-"}, Action: handleProgress, Help: "progress -10", Group: GroupEdit, Views: tree})
	return k
}

func handleQuit(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	return m, tea.Quit, true
}

func handleHelp(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	m.showHelp = !m.showHelp
	return m, nil, true
}

func handleUp(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	if m.cursor > 0 {
		m.cursor--
	}
	m.status = ""
	return m, nil, true
}

func handleDown(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	if m.cursor < len(m.tree.rows)-1 {
		m.cursor++
	}
	m.status = ""
	return m, nil, true
}

func handleExpand(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	row, ok := m.selected()
	if !ok || len(row.Children) == 0 {
		return m, nil, true
	}
	m.tree.expanded[row.Node.ID] = true
	m.tree = m.tree.refresh()
	return m, nil, true
}

// handleCollapse closes an open parent, otherwise jumps to the parent row.
func handleCollapse(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	row, ok := m.selected()
	if !ok {
		return m, nil, true
	}
	if len(row.Children) > 0 && m.tree.expanded[row.Node.ID] {
		delete(m.tree.expanded, row.Node.ID)
		m.tree = m.tree.refresh()
		return m, nil, true
	}
	if parent, ok := m.tree.parentOf(row.Node.ID); ok {
		if i := m.tree.indexOf(parent); i >= 0 {
			m.cursor = i
		}
	}
	return m, nil, true
}

func handleExpandAll(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	id := m.selectedID()
	m.tree = m.tree.expandAll()
	if i := m.tree.indexOf(id); i >= 0 {
		m.cursor = i
	}
	return m, nil, true
}

func handleCollapseAll(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	m.tree = m.tree.collapseAll()
	m.cursor = 0
	return m, nil, true
}

func handleToggleComplete(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	row, ok := m.selected()
	if !ok {
		return m, nil, true
	}
	next := models.StatusCompleted
	if row.Node.Status == models.StatusCompleted {
		next = models.StatusPending
	}
	return m.apply(row.Node.ID, okr.NodePatch{Status: &next}), nil, true
}

func handleProgress(m BrowseModel, key string) (BrowseModel, tea.Cmd, bool) {
	row, ok := m.selected()
	if !ok {
		return m, nil, true
	}
	step := progressStep
	if key == "-" {
		step = -progressStep
	}
	p := util.Clamp(row.Node.Progress+step, 0, 100)
	return m.apply(row.Node.ID, okr.NodePatch{Progress: &p}), nil, true
}

func handleReload(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	m = m.reload()
	m.status = "reloaded"
	return m, nil, true
}

func handleDetail(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	if _, ok := m.selected(); ok {
		m.viewMode = viewDetail
	}
	return m, nil, true
}

func handleBack(m BrowseModel, _ string) (BrowseModel, tea.Cmd, bool) {
	m.viewMode = viewTree
	return m, nil, true
}

// apply sends patch through the service. A persistence failure still leaves
// the change in memory, so the tree is reloaded either way.
func (m BrowseModel) apply(id string, patch okr.NodePatch) BrowseModel {
	_, err := m.svc.UpdateNode(m.ctx, id, patch)
	switch {
	case err == nil:
		m = m.reload()
		m.status = "saved"
	case okrerrors.Is(err, okrerrors.ErrPersistence):
		m = m.reload()
		m.status = CurrentTheme.Late.Render(fmt.Sprintf("not saved, run sync: %v", err))
	default:
		m.status = CurrentTheme.Unschedulable.Render(err.Error())
	}
	return m
}

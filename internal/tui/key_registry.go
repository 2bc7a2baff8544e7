package tui

import (
	"cmp"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyAction reacts to a key press. ok=false passes the key to the next
// binding that claims it.
type KeyAction func(m BrowseModel, key string) (next BrowseModel, cmd tea.Cmd, ok bool)

// KeyGroup sections the help line.
type KeyGroup int

const (
	GroupMove KeyGroup = iota
	GroupFold
	GroupEdit
	GroupApp
)

var groupLabels = [...]string{
	GroupMove: "move",
	GroupFold: "fold",
	GroupEdit: "edit",
	GroupApp:  "app",
}

func (g KeyGroup) String() string {
	if int(g) < 0 || int(g) >= len(groupLabels) {
		return "other"
	}
	return groupLabels[g]
}

// KeyBinding ties keys to an action in the listed views, or in every view
// when Views is empty. Bindings without Help stay out of the help line.
type KeyBinding struct {
	Keys     []string
	Action   KeyAction
	Help     string
	Group    KeyGroup
	Views    []int
	Priority int
}

func (b KeyBinding) activeIn(view int) bool {
	return len(b.Views) == 0 || slices.Contains(b.Views, view)
}

// Keymap dispatches browser key presses, highest priority first.
type Keymap struct {
	bindings []KeyBinding
}

func NewKeymap() *Keymap {
	return &Keymap{}
}

func (k *Keymap) Bind(b KeyBinding) {
	k.bindings = append(k.bindings, b)
	slices.SortStableFunc(k.bindings, func(a, b KeyBinding) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
}

// Dispatch runs the first binding for key in the model's view that
// accepts it.
func (k *Keymap) Dispatch(m BrowseModel, key string) (BrowseModel, tea.Cmd, bool) {
	for _, b := range k.bindings {
		if !b.activeIn(m.viewMode) || !slices.Contains(b.Keys, key) {
			continue
		}
		if next, cmd, ok := b.Action(m, key); ok {
			return next, cmd, true
		}
	}
	return m, nil, false
}

// Help renders the bindings active in view, one section per group:
// "move: ↑/k up  ↓/j down · fold: ...".
func (k *Keymap) Help(view int) string {
	byGroup := make(map[KeyGroup][]string)
	var groups []KeyGroup
	shown := make(map[string]bool)
	for _, b := range k.bindings {
		if b.Help == "" || !b.activeIn(view) {
			continue
		}
		label := keyLabel(b.Keys)
		if label == "" || shown[label] {
			continue
		}
		shown[label] = true
		if _, ok := byGroup[b.Group]; !ok {
			groups = append(groups, b.Group)
		}
		byGroup[b.Group] = append(byGroup[b.Group], label+" "+b.Help)
	}
	slices.Sort(groups)

	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		sections = append(sections, g.String()+": "+strings.Join(byGroup[g], "  "))
	}
	return strings.Join(sections, " · ")
}

var keyGlyphs = map[string]string{
	"up":    "↑",
	"down":  "↓",
	"left":  "←",
	"right": "→",
	" ":     "",
}

func keyLabel(keys []string) string {
	var out []string
	for _, key := range keys {
		if glyph, ok := keyGlyphs[key]; ok {
			key = glyph
		}
		if key != "" {
			out = append(out, key)
		}
	}
	return strings.Join(out, "/")
}

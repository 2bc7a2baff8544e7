package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/akyairhashvil/okrcap/internal/models"
)

type Theme struct {
	Name          string
	Base          lipgloss.Style
	Border        lipgloss.Color
	Header        lipgloss.Style
	Goal          lipgloss.Style
	Objective     lipgloss.Style
	KeyResult     lipgloss.Style
	Task          lipgloss.Style
	Completed     lipgloss.Style
	Late          lipgloss.Style
	Unschedulable lipgloss.Style
	Exception     lipgloss.Style
	OK            lipgloss.Style
	Focused       lipgloss.Style
	Dim           lipgloss.Style
	Highlight     lipgloss.Style
}

var Themes = map[string]Theme{
	"default": {
		Name:          "Default",
		Base:          lipgloss.NewStyle().Margin(1, 2),
		Border:        lipgloss.Color("63"),
		Header:        lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Goal:          lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		Objective:     lipgloss.NewStyle().Foreground(lipgloss.Color("170")),
		KeyResult:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Task:          lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Completed:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true),
		Late:          lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		Unschedulable: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Exception:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		OK:            lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Focused:       lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Dim:           lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	},
	"dracula": {
		Name:          "Dracula",
		Base:          lipgloss.NewStyle().Margin(1, 2),
		Border:        lipgloss.Color("62"),                                             // Purple
		Header:        lipgloss.NewStyle().Foreground(lipgloss.Color("50")).Bold(true),  // Cyan
		Goal:          lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true), // Cyan
		Objective:     lipgloss.NewStyle().Foreground(lipgloss.Color("141")),            // Purple
		KeyResult:     lipgloss.NewStyle().Foreground(lipgloss.Color("215")),            // Orange
		Task:          lipgloss.NewStyle().Foreground(lipgloss.Color("255")),            // White
		Completed:     lipgloss.NewStyle().Foreground(lipgloss.Color("60")).Strikethrough(true),
		Late:          lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true), // Yellow
		Unschedulable: lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true), // Red
		Exception:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")),            // Pink
		OK:            lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Bold(true), // Green
		Focused:       lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Dim:           lipgloss.NewStyle().Foreground(lipgloss.Color("60")),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
	},
}

// CurrentTheme holds the active theme.
var CurrentTheme = Themes["default"]

// SetTheme switches the active theme and reports whether name exists.
func SetTheme(name string) bool {
	t, ok := Themes[name]
	if ok {
		CurrentTheme = t
	}
	return ok
}

// NodeStyle picks the title style for n.
func (t Theme) NodeStyle(n models.OkrNode) lipgloss.Style {
	if n.Status == models.StatusCompleted {
		return t.Completed
	}
	switch n.Type {
	case models.NodeGoal:
		return t.Goal
	case models.NodeObjective:
		return t.Objective
	case models.NodeKeyResult:
		return t.KeyResult
	}
	return t.Task
}

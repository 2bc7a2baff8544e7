package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/akyairhashvil/okrcap/internal/config"
	"github.com/akyairhashvil/okrcap/internal/models"
)

// FormatHours renders hours with at most two decimals (e.g. "2.86h", "10h").
func FormatHours(h float64) string {
	v := math.Round(h*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "h"
}

func FormatPercent(p int) string {
	return fmt.Sprintf("%d%%", p)
}

// FormatDate renders a calendar day, or "-" when unset.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return models.DateKey(*t)
}

// FormatDay renders a day with its weekday (e.g. "Mon 2026-03-02").
func FormatDay(t time.Time) string {
	return t.Format("Mon") + " " + models.DateKey(t)
}

// FormatTaskCount formats completed task counts for display.
func FormatTaskCount(completed, total int) string {
	if total == 0 {
		return "No tasks"
	}
	return fmt.Sprintf("%d/%d tasks", completed, total)
}

// FormatMetric describes a node's measurable value, or "" when it has none.
func FormatMetric(n models.OkrNode) string {
	switch n.MetricType {
	case models.MetricNumber, models.MetricCurrency, models.MetricPercentage:
		s := fmt.Sprintf("%s/%s", formatNumber(n.CurrentValue), formatNumber(n.MetricTarget))
		if n.MetricType == models.MetricPercentage {
			s = fmt.Sprintf("%s%%/%s%%", formatNumber(n.CurrentValue), formatNumber(n.MetricTarget))
		}
		if n.MetricUnit != "" {
			s += " " + n.MetricUnit
		}
		if !n.MetricAsc {
			s += " (lower is better)"
		}
		return s
	case models.MetricChecklist:
		done := 0
		for _, item := range n.Checklist {
			if item.Done {
				done++
			}
		}
		return fmt.Sprintf("%d/%d items", done, len(n.Checklist))
	case models.MetricBoolean:
		if n.CurrentValue >= 1 {
			return "done"
		}
		return "not done"
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// TypeLabel is the short tag shown before a node title.
func TypeLabel(t models.NodeType) string {
	switch t {
	case models.NodeGoal:
		return "G"
	case models.NodeObjective:
		return "O"
	case models.NodeKeyResult:
		return "KR"
	case models.NodeTask:
		return "T"
	}
	return "?"
}

// Truncate shortens s to width terminal cells, escape sequences included.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, config.TruncationSuffix)
}

// PadRight pads s with spaces to width terminal cells.
func PadRight(s string, width int) string {
	gap := width - ansi.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

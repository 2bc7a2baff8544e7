package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/akyairhashvil/okrcap/internal/capacity"
	"github.com/akyairhashvil/okrcap/internal/config"
	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
)

// TerminalWidth reports the width of stdout, or DefaultTerminalWidth when
// stdout is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return config.DefaultTerminalWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return config.DefaultTerminalWidth
	}
	return w
}

// Renderer draws trees, capacity and plans as styled terminal text.
type Renderer struct {
	width int
	theme Theme
	bar   progress.Model
}

// NewRenderer builds a renderer for width columns. Zero or less detects it.
func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = TerminalWidth()
	}
	return &Renderer{
		width: width,
		theme: CurrentTheme,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(config.ProgressBarWidth),
			progress.WithoutPercentage(),
		),
	}
}

func (r *Renderer) Width() int { return r.width }

func (r *Renderer) SetWidth(w int) {
	if w > 0 {
		r.width = w
	}
}

func (r *Renderer) progressBar(pct int) string {
	return r.bar.ViewAs(float64(pct) / 100)
}

// titleWidth is the room left for titles at depth once the fixed columns
// (marker, type tag, bar, percent) are taken.
func (r *Renderer) titleWidth(depth int) int {
	fixed := depth*config.IndentWidth + 2 + 3 + config.ProgressBarWidth + 6
	w := r.width - fixed
	if w > config.TargetTitleWidth {
		w = config.TargetTitleWidth
	}
	if w < config.MinTitleWidth {
		w = config.MinTitleWidth
	}
	return w
}

// RenderTree draws every node of trees in pre-order.
func (r *Renderer) RenderTree(trees []*okr.Subtree) string {
	return r.RenderRows(okr.Flatten(trees, nil, 0), -1, nil)
}

// RenderRows draws pre-flattened rows. The row at cursor is highlighted and
// collapsed parents (absent from expanded) get a closed marker. A nil
// expanded map draws every parent open.
func (r *Renderer) RenderRows(rows []*okr.Subtree, cursor int, expanded map[string]bool) string {
	if len(rows) == 0 {
		return r.theme.Dim.Render("No goals yet.")
	}
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.renderRow(row, i == cursor, expanded))
	}
	return b.String()
}

func (r *Renderer) renderRow(row *okr.Subtree, focused bool, expanded map[string]bool) string {
	n := row.Node
	marker := "  "
	if len(row.Children) > 0 {
		marker = "▾ "
		if expanded != nil && !expanded[n.ID] {
			marker = "▸ "
		}
	}
	cursor := "  "
	if focused {
		cursor = r.theme.Focused.Render("> ")
	}

	titleStyle := r.theme.NodeStyle(n)
	if focused {
		titleStyle = r.theme.Focused
	}
	tw := r.titleWidth(row.Depth)
	title := PadRight(Truncate(n.Title, tw), tw)

	line := cursor +
		strings.Repeat(" ", row.Depth*config.IndentWidth) +
		marker +
		r.theme.Dim.Render(PadRight(TypeLabel(n.Type), 3)) +
		titleStyle.Render(title) + " " +
		r.progressBar(n.Progress) + " " +
		PadRight(FormatPercent(n.Progress), 4)

	if extra := nodeSummary(n); extra != "" {
		line += " " + r.theme.Dim.Render(extra)
	}
	return Truncate(line, r.width)
}

// nodeSummary is the trailing detail shown on a tree row.
func nodeSummary(n models.OkrNode) string {
	var parts []string
	if m := FormatMetric(n); m != "" {
		parts = append(parts, m)
	}
	if n.Type == models.NodeTask {
		parts = append(parts, FormatHours(n.EstimatedHours))
		if n.DueDate != nil {
			parts = append(parts, "due "+FormatDate(n.DueDate))
		}
		if n.AssigneeID != "" {
			parts = append(parts, "@"+n.AssigneeID)
		}
	}
	return strings.Join(parts, "  ")
}

// RenderNode draws the full record of one node inside a border.
func (r *Renderer) RenderNode(n models.OkrNode, children int) string {
	var b strings.Builder
	b.WriteString(r.theme.NodeStyle(n).Render(n.Title))
	b.WriteByte('\n')
	field := func(k, v string) {
		if v == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", r.theme.Dim.Render(PadRight(k+":", 12)), v)
	}
	field("ID", n.ID)
	field("Type", string(n.Type))
	field("Status", string(n.Status))
	field("Progress", r.progressBar(n.Progress)+" "+FormatPercent(n.Progress))
	if n.ParentID != nil {
		field("Parent", *n.ParentID)
	}
	field("Org", n.OrganizationID)
	field("Metric", FormatMetric(n))
	if n.Type == models.NodeTask {
		field("Estimate", FormatHours(n.EstimatedHours))
		field("Due", FormatDate(n.DueDate))
		field("Assignee", n.AssigneeID)
	}
	if children > 0 {
		field("Children", fmt.Sprintf("%d", children))
	}
	field("Description", n.Description)
	field("Updated", n.UpdatedAt.Format("2006-01-02 15:04"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(r.theme.Border).
		Padding(0, 1).
		Render(strings.TrimRight(b.String(), "\n"))
}

// RenderCapacity draws a user's settings followed by the resolved days.
func (r *Renderer) RenderCapacity(s models.CapacitySettings, days []capacity.DayAvailability) string {
	var b strings.Builder
	b.WriteString(r.theme.Header.Render("Capacity for " + s.UserID))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Weekly %s  Daily limit %s  OKR allocation %s\n",
		FormatHours(s.WeeklyCapacity), FormatHours(s.DailyLimit), formatNumber(s.OKRAllocation)+"%")

	if len(s.Exceptions) > 0 {
		b.WriteString(r.theme.Dim.Render("Exceptions:"))
		b.WriteByte('\n')
		for _, ex := range s.Exceptions {
			line := fmt.Sprintf("  %s  %s  %s", ex.Date, PadRight(FormatHours(ex.Hours), 7), ex.ID)
			if ex.Reason != "" {
				line += "  " + ex.Reason
			}
			b.WriteString(r.theme.Exception.Render(line))
			b.WriteByte('\n')
		}
	}

	if len(days) > 0 {
		total := 0.0
		for _, d := range days {
			total += d.Hours
			line := fmt.Sprintf("  %s  %s", FormatDay(d.Date), FormatHours(d.Hours))
			if d.Exception {
				line = r.theme.Exception.Render(line + "  (exception)")
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Total available: %s\n", FormatHours(total))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderPlan draws the feasibility summary, the task outcomes, the day table
// (capped at MaxPlanDaysShown) and any skipped inputs.
func (r *Renderer) RenderPlan(p scheduler.Plan) string {
	var b strings.Builder
	b.WriteString(r.theme.Header.Render(fmt.Sprintf("Plan for %s: %s to %s",
		p.UserID, FormatDate(&p.Range.Start), FormatDate(&p.Range.End))))
	b.WriteByte('\n')

	verdict := r.theme.OK.Render("FEASIBLE")
	if !p.Feasible {
		verdict = r.theme.Unschedulable.Render("NOT FEASIBLE")
	}
	fmt.Fprintf(&b, "%s  available %s  allocated %s  unschedulable %s  late %d\n",
		verdict, FormatHours(p.TotalAvailable), FormatHours(p.TotalAllocated),
		FormatHours(p.UnschedulableHours), len(p.Late()))

	if len(p.Tasks) == 0 {
		b.WriteString(r.theme.Dim.Render("No open tasks."))
		b.WriteByte('\n')
	} else {
		b.WriteByte('\n')
		tw := r.width - 52
		if tw > config.TargetTitleWidth {
			tw = config.TargetTitleWidth
		}
		if tw < config.MinTitleWidth {
			tw = config.MinTitleWidth
		}
		b.WriteString(r.theme.Dim.Render(fmt.Sprintf("%s %-7s %-10s %-10s %-10s %s",
			PadRight("Task", tw), "Hours", "Start", "Done", "Due", "Status")))
		b.WriteByte('\n')
		for _, t := range p.Tasks {
			b.WriteString(fmt.Sprintf("%s %-7s %-10s %-10s %-10s %s",
				PadRight(Truncate(t.Title, tw), tw), FormatHours(t.Hours),
				FormatDate(t.StartDate), FormatDate(t.CompletionDate), FormatDate(t.DueDate),
				r.taskStatus(t)))
			b.WriteByte('\n')
		}
	}

	shown := p.Days
	if len(shown) > config.MaxPlanDaysShown {
		shown = shown[:config.MaxPlanDaysShown]
	}
	if len(shown) > 0 {
		b.WriteByte('\n')
		for _, d := range shown {
			line := fmt.Sprintf("  %s  %s / %s", FormatDay(d.Date), PadRight(FormatHours(d.Allocated), 7), FormatHours(d.Available))
			if len(d.TaskIDs) > 0 {
				line += "  " + r.theme.Dim.Render(strings.Join(d.TaskIDs, ", "))
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if more := len(p.Days) - len(shown); more > 0 {
			b.WriteString(r.theme.Dim.Render(fmt.Sprintf("  ... %d more days", more)))
			b.WriteByte('\n')
		}
	}

	if len(p.Skipped) > 0 {
		b.WriteByte('\n')
		b.WriteString(r.theme.Dim.Render("Skipped:"))
		b.WriteByte('\n')
		for _, s := range p.Skipped {
			fmt.Fprintf(&b, "  %s: %s\n", s.TaskID, s.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) taskStatus(t scheduler.TaskPlan) string {
	switch {
	case t.Unschedulable:
		return r.theme.Unschedulable.Render("UNSCHEDULABLE")
	case t.Late:
		return r.theme.Late.Render("LATE")
	}
	return r.theme.OK.Render("on time")
}

package tui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/akyairhashvil/okrcap/internal/models"
	"github.com/akyairhashvil/okrcap/internal/okr"
	"github.com/akyairhashvil/okrcap/internal/scheduler"
)

// Report is everything printed in a feasibility report.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Forest      []*okr.Subtree
	Plan        scheduler.Plan
	Capacity    models.CapacitySettings
}

// ReportFileName is the default file name for a user's report.
func ReportFileName(userID string, at time.Time) string {
	return fmt.Sprintf("okrcap_plan_%s_%s.pdf", userID, models.DateKey(at))
}

// GeneratePlanReport writes r to path, creating parent directories, and
// returns the absolute path.
func GeneratePlanReport(path string, r Report) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	pdf := buildReport(r)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// WritePlanReport renders r as PDF into w.
func WritePlanReport(w io.Writer, r Report) error {
	pdf := buildReport(r)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func buildReport(r Report) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := r.Title
	if title == "" {
		title = "OKR Feasibility Report"
	}
	if !r.GeneratedAt.IsZero() {
		pdf.SetCreationDate(r.GeneratedAt)
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("okrcap "+VersionLabel(), true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("User %s, %s to %s, generated %s",
		r.Plan.UserID, FormatDate(&r.Plan.Range.Start), FormatDate(&r.Plan.Range.End),
		r.GeneratedAt.Format("2006-01-02 15:04"))))
	pdf.Ln(10)

	reportSummary(pdf, tr, r.Plan)
	reportCapacity(pdf, tr, r.Capacity)
	reportTasks(pdf, tr, r.Plan)
	reportTree(pdf, tr, r.Forest)
	return pdf
}

func section(pdf *fpdf.Fpdf, tr func(string) string, name string) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(name))
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 10)
}

func reportSummary(pdf *fpdf.Fpdf, tr func(string) string, p scheduler.Plan) {
	section(pdf, tr, "Summary")
	verdict := "Feasible"
	if !p.Feasible {
		verdict = "Not feasible"
	}
	rows := [][2]string{
		{"Verdict", verdict},
		{"Available", FormatHours(p.TotalAvailable)},
		{"Allocated", FormatHours(p.TotalAllocated)},
		{"Unschedulable", FormatHours(p.UnschedulableHours)},
		{"Late tasks", fmt.Sprintf("%d", len(p.Late()))},
	}
	for _, row := range rows {
		pdf.CellFormat(40, 6, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
}

func reportCapacity(pdf *fpdf.Fpdf, tr func(string) string, s models.CapacitySettings) {
	if s.UserID == "" {
		return
	}
	section(pdf, tr, "Capacity")
	pdf.Cell(0, 6, tr(fmt.Sprintf("Weekly %s, daily limit %s, OKR allocation %s%%",
		FormatHours(s.WeeklyCapacity), FormatHours(s.DailyLimit), formatNumber(s.OKRAllocation))))
	pdf.Ln(7)
	for _, ex := range s.Exceptions {
		line := fmt.Sprintf("  %s: %s", ex.Date, FormatHours(ex.Hours))
		if ex.Reason != "" {
			line += " (" + ex.Reason + ")"
		}
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
}

func reportTasks(pdf *fpdf.Fpdf, tr func(string) string, p scheduler.Plan) {
	section(pdf, tr, "Tasks")
	if len(p.Tasks) == 0 {
		pdf.Cell(0, 6, "No open tasks.")
		pdf.Ln(6)
		return
	}
	widths := []float64{70, 18, 24, 24, 24, 30}
	headers := []string{"Task", "Hours", "Start", "Done", "Due", "Status"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, t := range p.Tasks {
		status := "On time"
		switch {
		case t.Unschedulable:
			status = "Unschedulable"
		case t.Late:
			status = "Late"
		}
		cells := []string{
			truncateRunes(t.Title, 40), FormatHours(t.Hours), FormatDate(t.StartDate),
			FormatDate(t.CompletionDate), FormatDate(t.DueDate), status,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(p.Skipped) > 0 {
		pdf.Ln(3)
		for _, s := range p.Skipped {
			pdf.Cell(0, 6, tr(fmt.Sprintf("Skipped %s: %s", s.TaskID, s.Reason)))
			pdf.Ln(6)
		}
	}
}

func reportTree(pdf *fpdf.Fpdf, tr func(string) string, forest []*okr.Subtree) {
	section(pdf, tr, "Progress")
	rows := okr.Flatten(forest, nil, 0)
	if len(rows) == 0 {
		pdf.Cell(0, 6, "No goals.")
		pdf.Ln(6)
		return
	}
	const barWidth = 30.0
	for _, row := range rows {
		n := row.Node
		status := "[ ]"
		if n.Status == models.StatusCompleted {
			status = "[x]"
		}
		label := fmt.Sprintf("%s%s %s %s", strings.Repeat("    ", row.Depth), status, TypeLabel(n.Type), n.Title)
		pdf.CellFormat(120, 6, tr(truncateRunes(label, 70)), "", 0, "L", false, 0, "")

		x, y := pdf.GetX(), pdf.GetY()
		pdf.SetFillColor(90, 110, 220)
		if n.Progress > 0 {
			pdf.Rect(x, y+1.5, barWidth*float64(n.Progress)/100, 3, "F")
		}
		pdf.Rect(x, y+1.5, barWidth, 3, "D")
		pdf.SetX(x + barWidth + 3)
		pdf.CellFormat(0, 6, FormatPercent(n.Progress), "", 1, "L", false, 0, "")
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

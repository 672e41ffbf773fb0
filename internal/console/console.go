// Package console prints grading reports for the terminal.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/model"
)

var (
	accent      = lipgloss.Color("#8B5CF6")
	muted       = lipgloss.Color("#6B7280")
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle  = lipgloss.NewStyle().Foreground(muted).Width(18)
	borderStyle = lipgloss.NewStyle().Foreground(muted)
)

// NoStudents is printed in place of a summary or detailed report of an empty
// roster.
const NoStudents = "No students recorded yet."

// Render writes the report of the given type. The class report of an empty
// roster is grading.ErrNoData.
func Render(w io.Writer, typ model.ReportType, rows []model.ReportRow) error {
	var out string
	switch {
	case len(rows) == 0 && typ != model.ReportClass:
		out = NoStudents
	case typ == model.ReportDetailed:
		out = Detailed(grading.RenderDetailed(rows))
	case typ == model.ReportClass:
		cr, err := grading.ClassReportOf(rows)
		if err != nil {
			return err
		}
		out = Class(cr)
	default:
		out = Summary(grading.RenderSummary(rows))
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// Summary renders one table row per student.
func Summary(rows []grading.SummaryRow) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Student", "Class", "Reading Total", "Writing Total").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= 2:
				return numberStyle
			default:
				return cellStyle
			}
		})
	for _, r := range rows {
		t.Row(r.Student, r.Class, strconv.Itoa(r.ReadingTotal), strconv.Itoa(r.WritingTotal))
	}
	return t.String()
}

// Detailed renders a titled block of labelled fields per student.
func Detailed(blocks []grading.DetailBlock) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(titleStyle.Render(b.Student))
		sb.WriteString("\n")
		for _, f := range b.Fields {
			sb.WriteString(labelStyle.Render(f.Label+":") + " " + f.Value + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Class renders roster-wide averages.
func Class(cr grading.ClassReport) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Students", "Average Reading", "Average Writing").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return numberStyle
		}).
		Row(strconv.Itoa(cr.Students), fmt.Sprintf("%.2f", cr.AverageReading), fmt.Sprintf("%.2f", cr.AverageWriting))
	return t.String()
}

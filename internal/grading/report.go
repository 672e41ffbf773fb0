package grading

import (
	"strconv"
	"strings"

	"github.com/pavelanni/grader/internal/model"
)

// MistakeSeparator joins mistake tags into the display string.
const MistakeSeparator = ", "

// BuildReportRows aggregates each student record into a report row. Mistake
// tags are concatenated in question order (rubric order for writing) and
// then selection order; repeats across questions are kept.
func BuildReportRows(exam *model.ExamDefinition, students []model.StudentRecord) ([]model.ReportRow, error) {
	if exam == nil {
		return nil, ErrExamNotConfigured
	}

	rows := make([]model.ReportRow, 0, len(students))
	for _, s := range students {
		row := model.ReportRow{Student: s.Name, Class: s.Class}

		var reading []string
		for _, q := range exam.Questions {
			row.ReadingTotal += s.ReadingMarks[q.Number]
			reading = append(reading, s.ReadingTags[q.Number]...)
		}
		var writing []string
		for _, c := range exam.Rubric {
			row.WritingTotal += s.WritingMarks[c.Skill]
			writing = append(writing, s.WritingTags[c.Skill]...)
		}

		row.ReadingMistakes = strings.Join(reading, MistakeSeparator)
		row.WritingMistakes = strings.Join(writing, MistakeSeparator)
		rows = append(rows, row)
	}
	return rows, nil
}

// SummaryRow is the projection shown by the summary report.
type SummaryRow struct {
	Student      string
	Class        string
	ReadingTotal int
	WritingTotal int
}

// RenderSummary projects rows to student, class and both totals.
func RenderSummary(rows []model.ReportRow) []SummaryRow {
	out := make([]SummaryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, SummaryRow{
			Student:      r.Student,
			Class:        r.Class,
			ReadingTotal: r.ReadingTotal,
			WritingTotal: r.WritingTotal,
		})
	}
	return out
}

// DetailField is one labelled line of a detailed report block.
type DetailField struct {
	Label string
	Value string
}

// DetailBlock is the detailed report for one student.
type DetailBlock struct {
	Student string
	Fields  []DetailField
}

// RenderDetailed emits one block per row with every report field.
func RenderDetailed(rows []model.ReportRow) []DetailBlock {
	out := make([]DetailBlock, 0, len(rows))
	for _, r := range rows {
		out = append(out, DetailBlock{
			Student: r.Student,
			Fields: []DetailField{
				{Label: "Class", Value: r.Class},
				{Label: "Reading Total", Value: strconv.Itoa(r.ReadingTotal)},
				{Label: "Writing Total", Value: strconv.Itoa(r.WritingTotal)},
				{Label: "Reading Mistakes", Value: r.ReadingMistakes},
				{Label: "Writing Mistakes", Value: r.WritingMistakes},
			},
		})
	}
	return out
}

// ClassReport holds roster-wide averages.
type ClassReport struct {
	Students       int
	AverageReading float64
	AverageWriting float64
}

// ClassReportOf averages reading and writing totals over all rows.
// An empty roster yields ErrNoData.
func ClassReportOf(rows []model.ReportRow) (ClassReport, error) {
	if len(rows) == 0 {
		return ClassReport{}, ErrNoData
	}
	var reading, writing int
	for _, r := range rows {
		reading += r.ReadingTotal
		writing += r.WritingTotal
	}
	n := float64(len(rows))
	return ClassReport{
		Students:       len(rows),
		AverageReading: float64(reading) / n,
		AverageWriting: float64(writing) / n,
	}, nil
}

package grading

import (
	"github.com/pavelanni/grader/internal/model"
)

// BuildMasteryTotals sums marks per macro skill over the whole roster.
// Every skill of both domains starts at zero, so skills that no question
// or rubric category uses still appear in the charts.
func BuildMasteryTotals(exam *model.ExamDefinition, students []model.StudentRecord) (model.MasteryTotals, error) {
	if exam == nil {
		return model.MasteryTotals{}, ErrExamNotConfigured
	}

	totals := model.MasteryTotals{
		Reading: seed(model.DomainReading),
		Writing: seed(model.DomainWriting),
	}
	for _, s := range students {
		for _, q := range exam.Questions {
			totals.Reading[q.Skill] += s.ReadingMarks[q.Number]
		}
		for _, c := range exam.Rubric {
			totals.Writing[c.Skill] += s.WritingMarks[c.Skill]
		}
	}
	return totals, nil
}

func seed(d model.Domain) map[model.Skill]int {
	skills := model.Skills(d)
	m := make(map[model.Skill]int, len(skills))
	for _, s := range skills {
		m[s] = 0
	}
	return m
}

package grading

import (
	"strings"

	"github.com/pavelanni/grader/internal/model"
)

// lineBreaks folds CR and CRLF into LF. CSV readers drop a CR that precedes
// LF, so stored text must not carry one.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// MarkInput is one mark and the mistake tags selected for it.
type MarkInput struct {
	Mark int
	Tags []string
}

// StudentInput is the raw grading form for one student. Questions or
// categories without an entry count as a mark of 0 with no tags.
type StudentInput struct {
	Name    string
	Class   string
	Reading map[int]MarkInput
	Writing map[model.Skill]MarkInput
}

// CollectRoster turns grading form input into student records. The exam must
// already be configured. Out-of-range marks and unknown tags are rejected.
func CollectRoster(exam *model.ExamDefinition, inputs []StudentInput) ([]model.StudentRecord, error) {
	if exam == nil {
		return nil, ErrExamNotConfigured
	}

	ve := &ValidationError{}
	if len(inputs) < model.MinStudents || len(inputs) > model.MaxStudents {
		ve.add(StudentCountField, "must be between %d and %d", model.MinStudents, model.MaxStudents)
		return nil, ve
	}

	records := make([]model.StudentRecord, 0, len(inputs))
	for i, in := range inputs {
		records = append(records, collectStudent(exam, i+1, in, ve))
	}
	if err := ve.err(); err != nil {
		return nil, err
	}
	return records, nil
}

func collectStudent(exam *model.ExamDefinition, idx int, in StudentInput, ve *ValidationError) model.StudentRecord {
	rec := model.StudentRecord{
		Name:         lineBreaks.Replace(in.Name),
		Class:        lineBreaks.Replace(in.Class),
		ReadingMarks: make(map[int]int, len(exam.Questions)),
		ReadingTags:  make(map[int][]string, len(exam.Questions)),
		WritingMarks: make(map[model.Skill]int, len(exam.Rubric)),
		WritingTags:  make(map[model.Skill][]string, len(exam.Rubric)),
	}

	for n := range in.Reading {
		if _, ok := exam.Question(n); !ok {
			ve.add(ReadingMarkField(idx, n), "question %d is not part of the exam", n)
		}
	}
	for skill := range in.Writing {
		if _, ok := exam.Category(skill); !ok {
			ve.add(WritingMarkField(idx, skill), "%s is not a rubric category", skill)
		}
	}

	for _, q := range exam.Questions {
		field := ReadingMarkField(idx, q.Number)
		entry := in.Reading[q.Number]
		if entry.Mark < 0 || entry.Mark > model.MaxReadingMark {
			ve.add(field, "mark must be between 0 and %d", model.MaxReadingMark)
		}
		tags, bad := uniqueTags(q.Tags, entry.Tags)
		if bad != "" {
			ve.add(field, "tag %q is not offered for question %d", bad, q.Number)
		}
		rec.ReadingMarks[q.Number] = entry.Mark
		rec.ReadingTags[q.Number] = tags
	}

	for _, c := range exam.Rubric {
		field := WritingMarkField(idx, c.Skill)
		entry := in.Writing[c.Skill]
		if entry.Mark < 0 || entry.Mark > c.MaxMarks {
			ve.add(field, "mark must be between 0 and %d", c.MaxMarks)
		}
		tags, bad := uniqueTags(model.Tags(c.Skill), entry.Tags)
		if bad != "" {
			ve.add(field, "tag %q does not belong to %s", bad, c.Skill)
		}
		rec.WritingMarks[c.Skill] = entry.Mark
		rec.WritingTags[c.Skill] = tags
	}

	return rec
}

// ValidateRecords checks already-built records against the exam, as when a
// gradebook is loaded from a file instead of the grading form.
func ValidateRecords(exam *model.ExamDefinition, students []model.StudentRecord) error {
	if exam == nil {
		return ErrExamNotConfigured
	}
	_, err := CollectRoster(exam, recordInputs(students))
	return err
}

// recordInputs turns records back into form input. Tags recorded for an
// item without a mark are kept so validation still sees them.
func recordInputs(students []model.StudentRecord) []StudentInput {
	inputs := make([]StudentInput, 0, len(students))
	for _, s := range students {
		in := StudentInput{
			Name:    s.Name,
			Class:   s.Class,
			Reading: make(map[int]MarkInput, len(s.ReadingMarks)),
			Writing: make(map[model.Skill]MarkInput, len(s.WritingMarks)),
		}
		for n, mark := range s.ReadingMarks {
			in.Reading[n] = MarkInput{Mark: mark, Tags: s.ReadingTags[n]}
		}
		for n, tags := range s.ReadingTags {
			if _, ok := in.Reading[n]; !ok {
				in.Reading[n] = MarkInput{Tags: tags}
			}
		}
		for skill, mark := range s.WritingMarks {
			in.Writing[skill] = MarkInput{Mark: mark, Tags: s.WritingTags[skill]}
		}
		for skill, tags := range s.WritingTags {
			if _, ok := in.Writing[skill]; !ok {
				in.Writing[skill] = MarkInput{Tags: tags}
			}
		}
		inputs = append(inputs, in)
	}
	return inputs
}

package grading

import "github.com/pavelanni/grader/internal/model"

// LoadGradebook validates a gradebook read from JSON and returns it in the
// same normalised form the setup and grading forms produce. Questions must be
// numbered 1..N without gaps. A gradebook without students is accepted.
func LoadGradebook(gb model.Gradebook) (*model.ExamDefinition, []model.StudentRecord, error) {
	ve := &ValidationError{}
	c := NewConfigurator()
	c.SetQuestionCount(len(gb.Exam.Questions))

	seen := make(map[int]bool, len(gb.Exam.Questions))
	for _, q := range gb.Exam.Questions {
		if q.Number < 1 || q.Number > len(gb.Exam.Questions) || seen[q.Number] {
			ve.add(QuestionField(q.Number), "question numbers must run from 1 to %d without repeats", len(gb.Exam.Questions))
			continue
		}
		seen[q.Number] = true
		c.SetQuestion(q.Number, q.Skill, q.Tags)
	}
	for _, cat := range gb.Exam.Rubric {
		if _, dup := c.categories[cat.Skill]; dup {
			ve.add(CategoryField(cat.Skill), "category listed twice")
		}
		c.SelectCategory(cat.Skill, cat.MaxMarks)
	}
	if err := ve.err(); err != nil {
		return nil, nil, err
	}

	exam, err := c.Build()
	if err != nil {
		return nil, nil, err
	}
	if len(gb.Students) == 0 {
		return exam, []model.StudentRecord{}, nil
	}
	students, err := CollectRoster(exam, recordInputs(gb.Students))
	if err != nil {
		return nil, nil, err
	}
	return exam, students, nil
}

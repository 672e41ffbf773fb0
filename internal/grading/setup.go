package grading

import (
	"slices"

	"github.com/pavelanni/grader/internal/model"
)

type questionChoice struct {
	skill model.Skill
	tags  []string
}

// Configurator accumulates exam setup choices. Every setter overwrites the
// previous choice for the same question number or category; nothing is merged.
// Choices for question numbers above the current count are kept, so lowering
// and raising the count again restores them.
type Configurator struct {
	count      int
	questions  map[int]questionChoice
	categories map[model.Skill]int
}

// NewConfigurator returns a configurator with the default question count and
// no rubric categories.
func NewConfigurator() *Configurator {
	return &Configurator{
		count:      model.DefaultQuestions,
		questions:  make(map[int]questionChoice),
		categories: make(map[model.Skill]int),
	}
}

// SetQuestionCount sets how many reading questions the exam has.
func (c *Configurator) SetQuestionCount(n int) {
	c.count = n
}

// QuestionCount returns the configured number of questions.
func (c *Configurator) QuestionCount() int {
	return c.count
}

// SetQuestion chooses the macro skill and applicable mistake tags of question n.
func (c *Configurator) SetQuestion(n int, skill model.Skill, tags []string) {
	c.questions[n] = questionChoice{skill: skill, tags: append([]string(nil), tags...)}
}

// SelectCategory activates a writing skill as a rubric category.
func (c *Configurator) SelectCategory(skill model.Skill, maxMarks int) {
	c.categories[skill] = maxMarks
}

// DeselectCategory removes a rubric category.
func (c *Configurator) DeselectCategory(skill model.Skill) {
	delete(c.categories, skill)
}

// Build validates the choices and returns the exam definition. Questions that
// were never set default to the first reading skill with no tags.
func (c *Configurator) Build() (*model.ExamDefinition, error) {
	ve := &ValidationError{}
	exam := &model.ExamDefinition{}

	if c.count < model.MinQuestions || c.count > model.MaxQuestions {
		ve.add(QuestionCountField, "must be between %d and %d", model.MinQuestions, model.MaxQuestions)
	} else {
		defaultSkill := model.Skills(model.DomainReading)[0]
		for n := 1; n <= c.count; n++ {
			choice, ok := c.questions[n]
			if !ok {
				choice = questionChoice{skill: defaultSkill}
			}
			if !model.IsSkill(model.DomainReading, choice.skill) {
				ve.add(QuestionField(n), "unknown reading skill %q", choice.skill)
				continue
			}
			tags, bad := uniqueTags(model.Tags(choice.skill), choice.tags)
			if bad != "" {
				ve.add(QuestionField(n), "tag %q does not belong to %s", bad, choice.skill)
				continue
			}
			exam.Questions = append(exam.Questions, model.QuestionSetting{
				Number: n,
				Skill:  choice.skill,
				Tags:   tags,
			})
		}
	}

	for skill := range c.categories {
		if !model.IsSkill(model.DomainWriting, skill) {
			ve.add(CategoryField(skill), "unknown writing skill %q", skill)
		}
	}
	for _, skill := range model.Skills(model.DomainWriting) {
		maxMarks, ok := c.categories[skill]
		if !ok {
			continue
		}
		if maxMarks < model.MinRubricMarks || maxMarks > model.MaxRubricMarks {
			ve.add(CategoryField(skill), "max marks must be between %d and %d", model.MinRubricMarks, model.MaxRubricMarks)
			continue
		}
		exam.Rubric = append(exam.Rubric, model.RubricCategory{Skill: skill, MaxMarks: maxMarks})
	}

	if err := ve.err(); err != nil {
		return nil, err
	}
	return exam, nil
}

// uniqueTags drops repeated tags, keeping selection order. It returns the
// first tag missing from allowed, if any.
func uniqueTags(allowed, tags []string) ([]string, string) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if !slices.Contains(allowed, t) {
			return nil, t
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, ""
}

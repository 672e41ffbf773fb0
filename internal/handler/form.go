package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/handler/views"
	"github.com/pavelanni/grader/internal/model"
)

// formInt reads an integer form or query value. A blank value is 0 and an
// unparsable one is -1, so both fall outside every accepted count range.
func formInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// MaxRequestBytes bounds form posts and gradebook uploads.
const MaxRequestBytes = 10 << 20

// parseForm parses a posted url-encoded or multipart body and answers the
// request itself when that fails: 413 for a body over MaxRequestBytes, 400
// otherwise. A failed parse leaves an empty PostForm that a later ParseForm
// reports as success, so this must run before anything reads the form.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(MaxRequestBytes)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return true
	}

	slog.Warn("parse form", "path", r.URL.Path, "error", err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return false
	}
	http.Error(w, "invalid form", http.StatusBadRequest)
	return false
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

func defaultReadingSkill() model.Skill {
	return model.Skills(model.DomainReading)[0]
}

// pageData loads the session and prepares every section of the page. Form
// sizes may be overridden by the questions and students query parameters.
func (h *Handler) pageData(r *http.Request, typ model.ReportType) (views.PageData, error) {
	exam, err := h.store.Exam()
	if err != nil && !errors.Is(err, grading.ErrExamNotConfigured) {
		return views.PageData{}, err
	}
	students, err := h.store.Students()
	if err != nil {
		return views.PageData{}, err
	}

	q := r.URL.Query()
	data := views.PageData{
		Setup:  setupFormFor(exam, formInt(q.Get(views.QuestionsInput))),
		Roster: rosterFormFor(exam, students, formInt(q.Get(views.StudentsInput))),
		Report: views.ReportView{Type: typ, LLMEnabled: h.llm != nil},
	}
	if exam == nil {
		return data, nil
	}

	rows, err := grading.BuildReportRows(exam, students)
	if err != nil {
		return views.PageData{}, err
	}
	data.Report.Configured = true
	data.Report.Summary = grading.RenderSummary(rows)
	switch typ {
	case model.ReportDetailed:
		data.Report.Detailed = grading.RenderDetailed(rows)
		if h.llm != nil {
			data.Report.Feedback = make(map[int]string, len(rows))
			for i := range rows {
				text, err := h.store.Feedback(i)
				if err != nil {
					return views.PageData{}, err
				}
				data.Report.Feedback[i] = text
			}
		}
	case model.ReportClass:
		if cr, err := grading.ClassReportOf(rows); err == nil {
			data.Report.Class = &cr
		}
	}
	return data, nil
}

// setupFormFor pre-fills the setup form from the saved exam, if any.
func setupFormFor(exam *model.ExamDefinition, count int) views.SetupForm {
	if count <= 0 {
		count = model.DefaultQuestions
		if exam != nil {
			count = len(exam.Questions)
		}
	}
	count = clamp(count, model.MinQuestions, model.MaxQuestions)

	form := views.SetupForm{Count: count}
	for n := 1; n <= count; n++ {
		row := views.QuestionRow{Number: n, Skill: defaultReadingSkill()}
		if exam != nil {
			if q, ok := exam.Question(n); ok {
				row.Skill, row.Tags = q.Skill, q.Tags
			}
		}
		form.Questions = append(form.Questions, row)
	}
	for _, s := range model.Skills(model.DomainWriting) {
		row := views.CategoryRow{Skill: s, MaxMarks: model.DefaultRubricMarks}
		if exam != nil {
			if c, ok := exam.Category(s); ok {
				row.Selected, row.MaxMarks = true, c.MaxMarks
			}
		}
		form.Categories = append(form.Categories, row)
	}
	return form
}

// rosterFormFor pre-fills the grading form from the saved roster, if any.
func rosterFormFor(exam *model.ExamDefinition, students []model.StudentRecord, count int) views.RosterForm {
	if count <= 0 {
		count = model.DefaultStudents
		if len(students) > 0 {
			count = len(students)
		}
	}
	count = clamp(count, model.MinStudents, model.MaxStudents)

	form := views.RosterForm{Exam: exam, Count: count}
	if exam == nil {
		return form
	}
	for i := 1; i <= count; i++ {
		row := views.StudentRow{Index: i}
		if i <= len(students) {
			row = studentRow(i, students[i-1])
		}
		form.Students = append(form.Students, row)
	}
	return form
}

func studentRow(idx int, s model.StudentRecord) views.StudentRow {
	row := views.StudentRow{
		Index:   idx,
		Name:    s.Name,
		Class:   s.Class,
		Reading: make(map[int]grading.MarkInput, len(s.ReadingMarks)),
		Writing: make(map[model.Skill]grading.MarkInput, len(s.WritingMarks)),
	}
	for n, mark := range s.ReadingMarks {
		row.Reading[n] = grading.MarkInput{Mark: mark, Tags: s.ReadingTags[n]}
	}
	for skill, mark := range s.WritingMarks {
		row.Writing[skill] = grading.MarkInput{Mark: mark, Tags: s.WritingTags[skill]}
	}
	return row
}

// parseSetupForm feeds the posted setup form into a Configurator and keeps a
// copy of what was submitted for redisplay. The form must already be parsed.
func parseSetupForm(r *http.Request) (*grading.Configurator, views.SetupForm) {
	f := r.PostForm

	count := formInt(f.Get(views.QuestionsInput))
	c := grading.NewConfigurator()
	c.SetQuestionCount(count)

	form := views.SetupForm{Count: count}
	for n := 1; n <= clamp(count, 0, model.MaxQuestions); n++ {
		skill := model.Skill(f.Get(views.SkillInput(n)))
		tags := f[views.TagsInput(grading.QuestionField(n))]
		// A blank skill is the default the select shows, and its tags are
		// still checked against it.
		if skill == "" {
			skill = defaultReadingSkill()
		}
		c.SetQuestion(n, skill, tags)
		form.Questions = append(form.Questions, views.QuestionRow{Number: n, Skill: skill, Tags: tags})
	}

	selected := f[views.CategoriesInput]
	for _, s := range selected {
		skill := model.Skill(s)
		c.SelectCategory(skill, formInt(f.Get(views.MaxMarksInput(skill))))
	}
	for _, s := range model.Skills(model.DomainWriting) {
		row := views.CategoryRow{Skill: s, Selected: slices.Contains(selected, string(s)), MaxMarks: model.DefaultRubricMarks}
		if v := f.Get(views.MaxMarksInput(s)); v != "" {
			row.MaxMarks = formInt(v)
		}
		form.Categories = append(form.Categories, row)
	}
	return c, form
}

// parseRosterForm reads the posted grading form for exam. The form must
// already be parsed.
func parseRosterForm(r *http.Request, exam *model.ExamDefinition) ([]grading.StudentInput, views.RosterForm) {
	f := r.PostForm

	count := formInt(f.Get(views.StudentsInput))
	form := views.RosterForm{Exam: exam, Count: count}

	// One past the limit is enough for the count check to reject it.
	n := clamp(count, 0, model.MaxStudents+1)
	inputs := make([]grading.StudentInput, 0, n)
	for i := 1; i <= n; i++ {
		in := studentInput(f, exam, i)
		inputs = append(inputs, in)
		if i <= model.MaxStudents {
			form.Students = append(form.Students, views.StudentRow{
				Index:   i,
				Name:    in.Name,
				Class:   in.Class,
				Reading: in.Reading,
				Writing: in.Writing,
			})
		}
	}
	return inputs, form
}

func studentInput(f url.Values, exam *model.ExamDefinition, idx int) grading.StudentInput {
	in := grading.StudentInput{
		Name:    strings.TrimSpace(f.Get(views.NameInput(idx))),
		Class:   strings.TrimSpace(f.Get(views.ClassInput(idx))),
		Reading: make(map[int]grading.MarkInput, len(exam.Questions)),
		Writing: make(map[model.Skill]grading.MarkInput, len(exam.Rubric)),
	}
	for _, q := range exam.Questions {
		field := grading.ReadingMarkField(idx, q.Number)
		in.Reading[q.Number] = grading.MarkInput{Mark: formInt(f.Get(field)), Tags: f[views.TagsInput(field)]}
	}
	for _, c := range exam.Rubric {
		field := grading.WritingMarkField(idx, c.Skill)
		in.Writing[c.Skill] = grading.MarkInput{Mark: formInt(f.Get(field)), Tags: f[views.TagsInput(field)]}
	}
	return in
}

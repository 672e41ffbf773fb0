package views

import (
	"slices"
	"strconv"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/model"
)

func rosterSection(h *html, f RosterForm, questions int) {
	h.raw(`<section id="roster"><h2>`)
	h.t("RosterHeading")
	h.raw("</h2>")

	if f.Exam == nil {
		directive(h)
		h.raw("</section>")
		return
	}

	countForm(h, "StudentCount", StudentsInput, f.Count, model.MinStudents, model.MaxStudents, QuestionsInput, questions)

	h.raw(`<form method="post"`)
	h.attr("action", h.url("/roster"))
	h.raw(">")
	h.csrfField()
	h.raw(`<input type="hidden"`)
	h.attr("name", StudentsInput)
	h.attr("value", strconv.Itoa(f.Count))
	h.raw(">")
	h.errorSummary(f.Errors)
	h.fieldError(f.Errors, grading.StudentCountField)

	for _, s := range f.Students {
		studentFieldset(h, f.Exam, s, f.Errors)
	}

	h.raw(`<button type="submit">`)
	h.t("SaveRoster")
	h.raw("</button></form></section>")
}

func directive(h *html) {
	h.raw(`<p class="directive">`)
	h.t("CompleteSetupFirst")
	h.raw("</p>")
}

func studentFieldset(h *html, exam *model.ExamDefinition, s StudentRow, errs *grading.ValidationError) {
	h.raw("<fieldset><legend>")
	h.td("StudentN", map[string]any{"Number": s.Index})
	h.raw("</legend>")

	textInput(h, "StudentName", NameInput(s.Index), s.Name)
	textInput(h, "StudentClass", ClassInput(s.Index), s.Class)

	h.raw("<table><thead><tr><th>")
	h.t("Item")
	h.raw("</th><th>")
	h.t("Mark")
	h.raw("</th><th>")
	h.t("Mistakes")
	h.raw("</th></tr></thead><tbody>")

	for _, q := range exam.Questions {
		field := grading.ReadingMarkField(s.Index, q.Number)
		entry := s.Reading[q.Number]
		h.raw("<tr><td>")
		h.td("QuestionN", map[string]any{"Number": q.Number})
		h.raw(" (")
		h.text(string(q.Skill))
		h.raw(")</td><td>")
		h.numberInput(field, entry.Mark, 0, model.MaxReadingMark)
		h.raw("</td><td>")
		for _, tag := range q.Tags {
			h.checkbox(TagsInput(field), tag, slices.Contains(entry.Tags, tag))
		}
		h.fieldError(errs, field)
		h.raw("</td></tr>")
	}

	for _, c := range exam.Rubric {
		field := grading.WritingMarkField(s.Index, c.Skill)
		entry := s.Writing[c.Skill]
		h.raw("<tr><td>")
		h.text(string(c.Skill))
		h.textf(" (/%d)", c.MaxMarks)
		h.raw("</td><td>")
		h.numberInput(field, entry.Mark, 0, c.MaxMarks)
		h.raw("</td><td>")
		for _, tag := range model.Tags(c.Skill) {
			h.checkbox(TagsInput(field), tag, slices.Contains(entry.Tags, tag))
		}
		h.fieldError(errs, field)
		h.raw("</td></tr>")
	}

	h.raw("</tbody></table></fieldset>")
}

func textInput(h *html, label, name, value string) {
	h.raw("<label>")
	h.t(label)
	h.raw(` <input type="text"`)
	h.attr("name", name)
	h.attr("value", value)
	h.raw("></label> ")
}

package views

import (
	"context"
	"io"
	"slices"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/model"
)

func setupSection(h *html, f SetupForm, students int) {
	h.raw(`<section id="setup"><h2>`)
	h.t("SetupHeading")
	h.raw("</h2>")

	countForm(h, "QuestionCount", QuestionsInput, f.Count, model.MinQuestions, model.MaxQuestions, StudentsInput, students)

	h.raw(`<form method="post"`)
	h.attr("action", h.url("/setup"))
	h.raw(">")
	h.csrfField()
	h.raw(`<input type="hidden"`)
	h.attr("name", QuestionsInput)
	h.attr("value", strconv.Itoa(f.Count))
	h.raw(">")
	h.errorSummary(f.Errors)
	h.fieldError(f.Errors, grading.QuestionCountField)

	h.raw("<fieldset><legend>")
	h.t("ReadingQuestions")
	h.raw("</legend>")
	for _, q := range f.Questions {
		questionRow(h, q, f.Errors)
	}
	h.raw("</fieldset>")

	h.raw("<fieldset><legend>")
	h.t("WritingRubric")
	h.raw("</legend>")
	for _, c := range f.Categories {
		categoryRow(h, c, f.Errors)
	}
	h.raw("</fieldset>")

	h.raw(`<button type="submit">`)
	h.t("SaveSetup")
	h.raw("</button></form></section>")
}

func questionRow(h *html, q QuestionRow, errs *grading.ValidationError) {
	field := grading.QuestionField(q.Number)
	h.raw(`<div class="question"><label>`)
	h.td("QuestionN", map[string]any{"Number": q.Number})
	h.raw(" <select")
	h.attr("name", SkillInput(q.Number))
	h.attr("hx-get", h.url("/setup/tags/"+strconv.Itoa(q.Number)))
	h.attr("hx-target", "#tags-"+strconv.Itoa(q.Number))
	h.attr("hx-trigger", "change")
	h.raw(">")
	for _, s := range model.Skills(model.DomainReading) {
		h.raw("<option")
		h.attr("value", string(s))
		if s == q.Skill {
			h.raw(" selected")
		}
		h.raw(">")
		h.text(string(s))
		h.raw("</option>")
	}
	h.raw("</select></label>")

	h.raw(`<div`)
	h.attr("id", "tags-"+strconv.Itoa(q.Number))
	h.raw(">")
	tagOptions(h, q.Number, q.Skill, q.Tags)
	h.raw("</div>")
	h.fieldError(errs, field)
	h.raw("</div>")
}

func tagOptions(h *html, number int, skill model.Skill, selected []string) {
	name := TagsInput(grading.QuestionField(number))
	for _, tag := range model.Tags(skill) {
		h.checkbox(name, tag, slices.Contains(selected, tag))
	}
}

// TagOptions is the htmx fragment swapped in when a question's skill changes.
func TagOptions(number int, skill model.Skill, selected []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		tagOptions(h, number, skill, selected)
		return h.err
	})
}

func categoryRow(h *html, c CategoryRow, errs *grading.ValidationError) {
	h.raw(`<div class="category"><label><input type="checkbox"`)
	h.attr("name", CategoriesInput)
	h.attr("value", string(c.Skill))
	if c.Selected {
		h.raw(" checked")
	}
	h.raw("> ")
	h.text(string(c.Skill))
	h.raw("</label> <label>")
	h.t("MaxMarks")
	h.raw(" ")
	h.numberInput(MaxMarksInput(c.Skill), c.MaxMarks, model.MinRubricMarks, model.MaxRubricMarks)
	h.raw("</label>")
	h.fieldError(errs, grading.CategoryField(c.Skill))
	h.raw("</div>")
}

package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/model"
)

// QuestionRow is one question of the setup form.
type QuestionRow struct {
	Number int
	Skill  model.Skill
	Tags   []string // selected tags
}

// CategoryRow is one writing skill of the setup form.
type CategoryRow struct {
	Skill    model.Skill
	Selected bool
	MaxMarks int
}

// SetupForm is the exam setup section.
type SetupForm struct {
	Count      int
	Questions  []QuestionRow
	Categories []CategoryRow // every writing skill, in taxonomy order
	Errors     *grading.ValidationError
}

// StudentRow is one student of the grading form.
type StudentRow struct {
	Index   int // 1-based
	Name    string
	Class   string
	Reading map[int]grading.MarkInput
	Writing map[model.Skill]grading.MarkInput
}

// RosterForm is the grading section. A nil Exam shows the setup directive.
type RosterForm struct {
	Exam     *model.ExamDefinition
	Count    int
	Students []StudentRow
	Errors   *grading.ValidationError
}

// ReportView is the report section.
type ReportView struct {
	Configured bool
	Type       model.ReportType
	Summary    []grading.SummaryRow
	Detailed   []grading.DetailBlock
	Feedback   map[int]string
	Class      *grading.ClassReport
	LLMEnabled bool
}

// Empty reports whether there are no students to show.
func (v ReportView) Empty() bool {
	return len(v.Summary) == 0
}

// PageData is everything the single grading page renders.
type PageData struct {
	Setup  SetupForm
	Roster RosterForm
	Report ReportView

	// ImportErrors explains why an uploaded gradebook was rejected.
	ImportErrors *grading.ValidationError
}

// Page renders the full grading page.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.t("AppTitle")
		h.raw("</title>")
		h.raw(`<script`)
		h.attr("src", htmxScript)
		h.raw("></script>")
		h.raw("<style>" + pageCSS + "</style></head><body>")

		h.raw(`<header><h1>`)
		h.t("AppTitle")
		h.raw("</h1>")
		gradebookPanel(h, data.Report.Configured, data.ImportErrors)
		h.raw("</header><main>")

		setupSection(h, data.Setup, data.Roster.Count)
		rosterSection(h, data.Roster, data.Setup.Count)
		reportSection(h, data.Report)

		h.raw("</main></body></html>")
		return h.err
	})
}

// gradebookPanel saves, loads and clears the whole session.
func gradebookPanel(h *html, configured bool, errs *grading.ValidationError) {
	h.raw(`<div class="session">`)
	h.errorSummary(errs)
	if configured {
		h.raw("<a download")
		h.attr("href", h.url("/gradebook.json"))
		h.raw(">")
		h.t("SaveGradebook")
		h.raw("</a> ")
	}
	h.raw(`<form method="post" enctype="multipart/form-data"`)
	h.attr("action", h.url("/gradebook"))
	h.raw(">")
	h.csrfField()
	h.raw(`<input type="file" accept="application/json,.json" required`)
	h.attr("name", GradebookInput)
	h.raw(`> <button type="submit" class="secondary">`)
	h.t("LoadGradebook")
	h.raw(`</button></form><form method="post"`)
	h.attr("action", h.url("/reset"))
	h.raw(">")
	h.csrfField()
	h.raw(`<button type="submit" class="secondary">`)
	h.t("StartOver")
	h.raw("</button></form></div>")
}

// countForm re-renders the page with different form sizes.
func countForm(h *html, label, name string, value, lo, hi int, otherName string, otherValue int) {
	h.raw(`<form method="get" class="count"`)
	h.attr("action", h.url("/"))
	h.raw("><label>")
	h.t(label)
	h.raw(" ")
	h.numberInput(name, value, lo, hi)
	h.raw(`</label><input type="hidden"`)
	h.attr("name", otherName)
	h.attr("value", strconv.Itoa(otherValue))
	h.raw(`><button type="submit" class="secondary">`)
	h.t("Apply")
	h.raw("</button></form>")
}

const pageCSS = `
body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 1100px; padding: 1rem; }
header { display: flex; justify-content: space-between; align-items: center; }
.session form { display: inline-block; margin-left: 0.5rem; }
section { border-top: 1px solid #ccc; padding: 1rem 0; }
fieldset { margin: 0.5rem 0; }
.tag { margin-right: 0.75rem; white-space: nowrap; }
.error { color: #b00020; margin: 0.25rem 0; }
.directive { background: #fff3cd; padding: 0.75rem; }
.count { margin-bottom: 0.5rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ddd; padding: 0.25rem 0.5rem; text-align: left; vertical-align: top; }
nav a { margin-right: 1rem; }
nav a.active { font-weight: bold; }
.charts img { max-width: 100%; display: block; margin: 0.5rem 0; }
button.secondary { background: #eee; border: 1px solid #aaa; }
`

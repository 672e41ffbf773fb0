package views

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/grader/internal/i18n"
	"github.com/pavelanni/grader/internal/model"
)

var reportTabs = []struct {
	typ   model.ReportType
	label string
}{
	{model.ReportSummary, "ReportSummary"},
	{model.ReportDetailed, "ReportDetailed"},
	{model.ReportClass, "ReportClass"},
}

func reportSection(h *html, v ReportView) {
	h.raw(`<section id="report"><h2>`)
	h.t("ReportHeading")
	h.raw("</h2>")

	if !v.Configured {
		directive(h)
		h.raw("</section>")
		return
	}

	h.raw("<nav>")
	for _, tab := range reportTabs {
		h.raw("<a")
		h.attr("href", h.url("/report?"+ReportTypeInput+"="+string(tab.typ)+"#report"))
		if tab.typ == v.Type {
			h.raw(` class="active"`)
		}
		h.raw(">")
		h.t(tab.label)
		h.raw("</a>")
	}
	h.raw("<a download")
	h.attr("href", h.url("/report/csv"))
	h.raw(">")
	h.t("DownloadCSV")
	h.raw("</a></nav>")

	if v.Empty() {
		h.raw("<p>")
		h.t("NoStudents")
		h.raw("</p></section>")
		return
	}

	switch v.Type {
	case model.ReportDetailed:
		detailedReport(h, v)
	case model.ReportClass:
		classReport(h, v)
	default:
		summaryReport(h, v)
	}

	h.raw(`<div class="charts"><h3>`)
	h.t("MasteryCharts")
	h.raw("</h3>")
	for _, d := range model.Domains {
		h.raw("<img")
		h.attr("src", h.url("/chart/"+strings.ToLower(string(d))+".png"))
		h.attr("alt", string(d)+" Skill Mastery")
		h.raw(">")
	}
	h.raw("</div></section>")
}

func summaryReport(h *html, v ReportView) {
	h.raw("<table><thead><tr>")
	for _, id := range []string{"Student", "Class", "ReadingTotal", "WritingTotal"} {
		h.raw("<th>")
		h.t(id)
		h.raw("</th>")
	}
	h.raw("</tr></thead><tbody>")
	for _, r := range v.Summary {
		h.raw("<tr><td>")
		h.text(r.Student)
		h.raw("</td><td>")
		h.text(r.Class)
		h.raw("</td><td>")
		h.text(strconv.Itoa(r.ReadingTotal))
		h.raw("</td><td>")
		h.text(strconv.Itoa(r.WritingTotal))
		h.raw("</td></tr>")
	}
	h.raw("</tbody></table>")
}

func detailedReport(h *html, v ReportView) {
	for i, b := range v.Detailed {
		h.raw("<article><h3>")
		h.text(b.Student)
		h.raw("</h3><dl>")
		for _, f := range b.Fields {
			h.raw("<dt>")
			h.text(f.Label)
			h.raw("</dt><dd>")
			h.text(f.Value)
			h.raw("</dd>")
		}
		h.raw("</dl>")

		if v.LLMEnabled {
			target := "feedback-" + strconv.Itoa(i)
			h.raw("<form")
			h.attr("hx-post", h.url("/report/feedback/"+strconv.Itoa(i)))
			h.attr("hx-target", "#"+target)
			h.raw(">")
			h.csrfField()
			h.raw(`<button type="submit" class="secondary">`)
			h.t("DraftFeedback")
			h.raw("</button></form>")
			h.raw("<div")
			h.attr("id", target)
			h.raw(">")
			feedback(h, v.Feedback[i], "")
			h.raw("</div>")
		}
		h.raw("</article>")
	}
}

func classReport(h *html, v ReportView) {
	if v.Class == nil {
		return
	}
	h.raw("<p>")
	h.text(appI18n.Tp(h.ctx, "StudentsOnRoster", v.Class.Students))
	h.raw("</p><table><tbody><tr><th>")
	h.t("AverageReading")
	h.raw("</th><td>")
	h.textf("%.2f", v.Class.AverageReading)
	h.raw("</td></tr><tr><th>")
	h.t("AverageWriting")
	h.raw("</th><td>")
	h.textf("%.2f", v.Class.AverageWriting)
	h.raw("</td></tr></tbody></table>")
}

func feedback(h *html, text, errMsg string) {
	if errMsg != "" {
		h.raw(`<p class="error">`)
		h.text(errMsg)
		h.raw("</p>")
		return
	}
	if text != "" {
		h.raw(`<blockquote class="feedback">`)
		h.text(text)
		h.raw("</blockquote>")
	}
}

// Feedback is the htmx fragment holding a drafted comment or the error that
// prevented drafting one.
func Feedback(text, errMsg string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		feedback(h, text, errMsg)
		return h.err
	})
}

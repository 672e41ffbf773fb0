// Package views renders the grading pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/pavelanni/grader/internal/grading"
	appI18n "github.com/pavelanni/grader/internal/i18n"
	"github.com/pavelanni/grader/internal/model"
)

// htmx is loaded from a CDN; every partial update uses hx-get or hx-post.
const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

// html accumulates writes and keeps the first error so components can emit
// markup without checking every call.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newHTML(ctx context.Context, w io.Writer) *html {
	return &html{ctx: ctx, w: w}
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// textf escapes the formatted result.
func (h *html) textf(format string, args ...any) {
	h.text(fmt.Sprintf(format, args...))
}

func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *html) t(msgID string) {
	h.text(appI18n.T(h.ctx, msgID))
}

func (h *html) td(msgID string, data map[string]any) {
	h.text(appI18n.Td(h.ctx, msgID, data))
}

// url prefixes p with the deployment base path.
func (h *html) url(p string) string {
	return model.BasePathFromContext(h.ctx) + p
}

func (h *html) csrfField() {
	h.raw(`<input type="hidden"`)
	h.attr("name", CSRFInput)
	h.attr("value", model.CSRFTokenFromContext(h.ctx))
	h.raw(">")
}

func (h *html) numberInput(name string, value, lo, hi int) {
	h.raw(`<input type="number"`)
	h.attr("name", name)
	h.attr("id", name)
	h.attr("value", strconv.Itoa(value))
	h.attr("min", strconv.Itoa(lo))
	h.attr("max", strconv.Itoa(hi))
	h.raw(" required>")
}

func (h *html) checkbox(name, value string, checked bool) {
	h.raw(`<label class="tag"><input type="checkbox"`)
	h.attr("name", name)
	h.attr("value", value)
	if checked {
		h.raw(" checked")
	}
	h.raw("> ")
	h.text(value)
	h.raw("</label>")
}

// fieldError renders the message for field, if any.
func (h *html) fieldError(errs *grading.ValidationError, field string) {
	if msg := errs.For(field); msg != "" {
		h.raw(`<p class="error">`)
		h.text(msg)
		h.raw("</p>")
	}
}

// errorSummary lists every rejected value above a form.
func (h *html) errorSummary(errs *grading.ValidationError) {
	if errs == nil || len(errs.Fields) == 0 {
		return
	}
	h.raw(`<div class="error" role="alert"><p>`)
	h.t("FixErrors")
	h.raw("</p><ul>")
	for _, f := range errs.Fields {
		h.raw("<li>")
		h.text(f.Field + ": " + f.Message)
		h.raw("</li>")
	}
	h.raw("</ul></div>")
}

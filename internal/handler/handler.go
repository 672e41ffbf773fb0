package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavelanni/grader/internal/chart"
	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/handler/views"
	appI18n "github.com/pavelanni/grader/internal/i18n"
	"github.com/pavelanni/grader/internal/llm"
	"github.com/pavelanni/grader/internal/model"
	"github.com/pavelanni/grader/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	llm    *llm.Client // nil disables feedback drafting
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, l *llm.Client, cfg model.ServerConfig) (*Handler, error) {
	if s == nil {
		return nil, errors.New("handler: nil store")
	}
	return &Handler{store: s, llm: l, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(MaxRequestBytes))
		r.Use(h.csrfMiddleware)

		r.Get("/", h.handleIndex)
		r.Post("/reset", h.handleReset)
		r.Get("/setup/tags/{number}", h.handleTagOptions)
		r.Post("/setup", h.handleSetup)
		r.Post("/roster", h.handleRoster)
		r.Get("/report", h.handleReport)
		r.Get("/report/csv", h.handleCSV)
		r.Get("/chart/{domain}.png", h.handleChart)
		r.Post("/report/feedback/{index}", h.handleFeedback)
		r.Get("/gradebook.json", h.handleExportGradebook)
		r.Post("/gradebook", h.handleImportGradebook)
	})
}

// BasePathMiddleware makes the deployment prefix available to templates.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := h.pageData(r, model.ReportSummary)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(); err != nil {
		h.serverError(w, err)
		return
	}
	slog.Info("session reset")
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) handleTagOptions(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < model.MinQuestions || number > model.MaxQuestions {
		http.Error(w, "invalid question number", http.StatusBadRequest)
		return
	}

	// htmx sends the select under its own name; direct callers use ?skill=.
	skill := model.Skill(r.URL.Query().Get("skill"))
	if skill == "" {
		skill = model.Skill(r.URL.Query().Get(views.SkillInput(number)))
	}
	if !model.IsSkill(model.DomainReading, skill) {
		http.Error(w, appI18n.T(r.Context(), "UnknownSkill"), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.TagOptions(number, skill, nil).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	c, form := parseSetupForm(r)

	exam, err := c.Build()
	if err != nil {
		var ve *grading.ValidationError
		if !errors.As(err, &ve) {
			h.serverError(w, err)
			return
		}
		slog.Info("setup rejected", "errors", len(ve.Fields))
		data, derr := h.pageData(r, model.ReportSummary)
		if derr != nil {
			h.serverError(w, derr)
			return
		}
		form.Errors = ve
		data.Setup = form
		h.renderPage(w, r, grading.MapHTTPStatus(err), data)
		return
	}

	if err := h.store.SaveExam(exam); err != nil {
		h.serverError(w, err)
		return
	}
	http.Redirect(w, r, h.path("/#roster"), http.StatusSeeOther)
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	exam, err := h.store.Exam()
	if errors.Is(err, grading.ErrExamNotConfigured) {
		data, derr := h.pageData(r, model.ReportSummary)
		if derr != nil {
			h.serverError(w, derr)
			return
		}
		h.renderPage(w, r, grading.MapHTTPStatus(err), data)
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}

	if !parseForm(w, r) {
		return
	}
	inputs, form := parseRosterForm(r, exam)
	students, err := grading.CollectRoster(exam, inputs)
	if err != nil {
		var ve *grading.ValidationError
		if !errors.As(err, &ve) {
			h.serverError(w, err)
			return
		}
		slog.Info("roster rejected", "errors", len(ve.Fields))
		data, derr := h.pageData(r, model.ReportSummary)
		if derr != nil {
			h.serverError(w, derr)
			return
		}
		form.Errors = ve
		data.Roster = form
		h.renderPage(w, r, grading.MapHTTPStatus(err), data)
		return
	}

	if err := h.store.SaveRoster(students); err != nil {
		h.serverError(w, err)
		return
	}
	http.Redirect(w, r, h.path("/report#report"), http.StatusSeeOther)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	typ := model.ParseReportType(r.URL.Query().Get(views.ReportTypeInput))
	data, err := h.pageData(r, typ)
	if err != nil {
		h.serverError(w, err)
		return
	}

	status := http.StatusOK
	switch {
	case !data.Report.Configured:
		status = grading.MapHTTPStatus(grading.ErrExamNotConfigured)
	case typ == model.ReportClass && data.Report.Empty():
		status = grading.MapHTTPStatus(grading.ErrNoData)
	}
	h.renderPage(w, r, status, data)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	rows, _, ok := h.reportRows(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", grading.CSVContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+grading.CSVFileName+`"`)
	if err := grading.WriteCSV(w, rows); err != nil {
		slog.Error("write csv", "error", err)
	}
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	domain, ok := parseDomain(chi.URLParam(r, "domain"))
	if !ok {
		http.Error(w, appI18n.T(r.Context(), "UnknownChart"), http.StatusNotFound)
		return
	}

	exam, err := h.store.Exam()
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	students, err := h.store.Students()
	if err != nil {
		h.serverError(w, err)
		return
	}
	totals, err := grading.BuildMasteryTotals(exam, students)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	png, err := chart.MasteryPNG(domain, totals)
	if err != nil {
		h.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		slog.Error("write chart", "domain", domain, "error", err)
	}
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		http.Error(w, appI18n.T(r.Context(), "FeedbackDisabled"), http.StatusNotFound)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid student index", http.StatusBadRequest)
		return
	}

	rows, exam, ok := h.reportRows(w, r)
	if !ok {
		return
	}
	if index < 0 || index >= len(rows) {
		http.Error(w, "student not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// htmx only swaps 2xx responses, so failures are reported in the fragment.
	text, err := h.llm.StudentFeedback(r.Context(), exam, rows[index])
	if err != nil {
		slog.Error("draft feedback failed", "index", index, "error", err)
		if rerr := views.Feedback("", appI18n.T(r.Context(), "FeedbackFailed")).Render(r.Context(), w); rerr != nil {
			slog.Error("render error", "error", rerr)
		}
		return
	}
	if err := h.store.SetFeedback(index, text); err != nil {
		slog.Error("save feedback", "index", index, "error", err)
	}
	if err := views.Feedback(text, "").Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// reportRows loads the session and aggregates it, writing the error response
// itself when that fails.
func (h *Handler) reportRows(w http.ResponseWriter, r *http.Request) ([]model.ReportRow, *model.ExamDefinition, bool) {
	exam, err := h.store.Exam()
	if err != nil {
		h.domainError(w, r, err)
		return nil, nil, false
	}
	students, err := h.store.Students()
	if err != nil {
		h.serverError(w, err)
		return nil, nil, false
	}
	rows, err := grading.BuildReportRows(exam, students)
	if err != nil {
		h.domainError(w, r, err)
		return nil, nil, false
	}
	return rows, exam, true
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data views.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Page(data).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// domainError answers with the status mapped from a grading error. A missing
// exam gets the setup directive as its message.
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, err error) {
	status := grading.MapHTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.serverError(w, err)
		return
	}
	msg := err.Error()
	if errors.Is(err, grading.ErrExamNotConfigured) {
		msg = appI18n.T(r.Context(), "CompleteSetupFirst")
	}
	http.Error(w, msg, status)
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func parseDomain(s string) (model.Domain, bool) {
	for _, d := range model.Domains {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

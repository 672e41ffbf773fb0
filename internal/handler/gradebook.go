package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/handler/views"
	"github.com/pavelanni/grader/internal/model"
)

// GradebookFileName is the download name of the session export.
const GradebookFileName = "gradebook.json"

// handleExportGradebook downloads the exam and roster as one JSON document,
// the same format the report command reads.
func (h *Handler) handleExportGradebook(w http.ResponseWriter, r *http.Request) {
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

	data, err := json.MarshalIndent(model.Gradebook{Exam: *exam, Students: students}, "", "  ")
	if err != nil {
		h.serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+GradebookFileName+`"`)
	if _, err := w.Write(data); err != nil {
		slog.Error("write gradebook", "error", err)
	}
}

// handleImportGradebook replaces the session with an uploaded gradebook.
func (h *Handler) handleImportGradebook(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(views.GradebookInput)
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var gb model.Gradebook
	if err := json.NewDecoder(file).Decode(&gb); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	exam, students, err := grading.LoadGradebook(gb)
	if err != nil {
		var ve *grading.ValidationError
		if !errors.As(err, &ve) {
			h.serverError(w, err)
			return
		}
		slog.Info("gradebook rejected", "filename", header.Filename, "errors", len(ve.Fields))
		data, derr := h.pageData(r, model.ReportSummary)
		if derr != nil {
			h.serverError(w, derr)
			return
		}
		data.ImportErrors = ve
		h.renderPage(w, r, grading.MapHTTPStatus(err), data)
		return
	}

	if err := h.store.SaveExam(exam); err != nil {
		h.serverError(w, err)
		return
	}
	if len(students) > 0 {
		if err := h.store.SaveRoster(students); err != nil {
			h.serverError(w, err)
			return
		}
	}

	slog.Info("imported gradebook", "filename", header.Filename, "questions", len(exam.Questions), "students", len(students))
	http.Redirect(w, r, h.path("/report#report"), http.StatusSeeOther)
}

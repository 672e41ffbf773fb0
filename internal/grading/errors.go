package grading

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pavelanni/grader/internal/model"
)

// Domain errors for grading operations.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrExamNotConfigured = errors.New("exam not configured")
	ErrNoData            = errors.New("no data")
)

// FieldError describes one rejected form value.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every rejected value of a form submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) true for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// For returns the message recorded for a field, or "". It is safe to call
// on a nil receiver.
func (e *ValidationError) For(field string) string {
	if e == nil {
		return ""
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// err returns nil when nothing was recorded.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// MapHTTPStatus maps grading domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrExamNotConfigured) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoData) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Field names used in validation errors. The web forms name their inputs the
// same way so messages can be shown next to the offending input.
const (
	QuestionCountField = "questions"
	StudentCountField  = "students"
)

func QuestionField(n int) string {
	return fmt.Sprintf("q%d", n)
}

func CategoryField(skill model.Skill) string {
	return "cat_" + string(skill)
}

func StudentField(s int) string {
	return fmt.Sprintf("s%d", s)
}

func ReadingMarkField(s, n int) string {
	return fmt.Sprintf("s%d_q%d", s, n)
}

func WritingMarkField(s int, skill model.Skill) string {
	return fmt.Sprintf("s%d_w_%s", s, skill)
}

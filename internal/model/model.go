package model

import "context"

// Input ranges accepted by the setup and grading forms.
const (
	MinQuestions     = 1
	MaxQuestions     = 50
	DefaultQuestions = 5

	MinStudents     = 1
	MaxStudents     = 50
	DefaultStudents = 3

	MaxReadingMark = 5

	MinRubricMarks     = 1
	MaxRubricMarks     = 20
	DefaultRubricMarks = 5
)

// QuestionSetting configures one reading comprehension question.
type QuestionSetting struct {
	Number int      `json:"number"`
	Skill  Skill    `json:"skill"`
	Tags   []string `json:"tags"`
}

// RubricCategory is a writing skill scored on this exam.
type RubricCategory struct {
	Skill    Skill `json:"skill"`
	MaxMarks int   `json:"max_marks"`
}

// ExamDefinition is the output of exam setup. Questions are ordered by
// number, rubric categories by taxonomy order.
type ExamDefinition struct {
	Questions []QuestionSetting `json:"questions"`
	Rubric    []RubricCategory  `json:"rubric"`
}

// Question returns the question with the given number.
func (e *ExamDefinition) Question(number int) (QuestionSetting, bool) {
	for _, q := range e.Questions {
		if q.Number == number {
			return q, true
		}
	}
	return QuestionSetting{}, false
}

// Category returns the rubric category for a writing skill.
func (e *ExamDefinition) Category(skill Skill) (RubricCategory, bool) {
	for _, c := range e.Rubric {
		if c.Skill == skill {
			return c, true
		}
	}
	return RubricCategory{}, false
}

// MaxReadingTotal is the highest reading total a student can reach.
func (e *ExamDefinition) MaxReadingTotal() int {
	return MaxReadingMark * len(e.Questions)
}

// MaxWritingTotal is the highest writing total a student can reach.
func (e *ExamDefinition) MaxWritingTotal() int {
	total := 0
	for _, c := range e.Rubric {
		total += c.MaxMarks
	}
	return total
}

// StudentRecord holds one student's marks and selected mistake tags.
type StudentRecord struct {
	Name         string             `json:"name"`
	Class        string             `json:"class"`
	ReadingMarks map[int]int        `json:"reading_marks"`
	ReadingTags  map[int][]string   `json:"reading_tags"`
	WritingMarks map[Skill]int      `json:"writing_marks"`
	WritingTags  map[Skill][]string `json:"writing_tags"`
}

// ReportRow is the per-student aggregate shown in reports and exported to CSV.
type ReportRow struct {
	Student         string `json:"student"`
	Class           string `json:"class"`
	ReadingTotal    int    `json:"reading_total"`
	WritingTotal    int    `json:"writing_total"`
	ReadingMistakes string `json:"reading_mistakes"`
	WritingMistakes string `json:"writing_mistakes"`
}

// Bar is one labelled value of a mastery chart.
type Bar struct {
	Skill Skill
	Total int
}

// MasteryTotals sums marks per macro skill across the whole roster.
type MasteryTotals struct {
	Reading map[Skill]int `json:"reading"`
	Writing map[Skill]int `json:"writing"`
}

// Bars returns the totals for a domain in taxonomy order.
func (m MasteryTotals) Bars(d Domain) []Bar {
	totals := m.Reading
	if d == DomainWriting {
		totals = m.Writing
	}
	skills := Skills(d)
	bars := make([]Bar, 0, len(skills))
	for _, s := range skills {
		bars = append(bars, Bar{Skill: s, Total: totals[s]})
	}
	return bars
}

// Sum returns the grand total across both domains.
func (m MasteryTotals) Sum() int {
	total := 0
	for _, v := range m.Reading {
		total += v
	}
	for _, v := range m.Writing {
		total += v
	}
	return total
}

// ReportType selects how report rows are displayed.
type ReportType string

const (
	ReportSummary  ReportType = "summary"
	ReportDetailed ReportType = "detailed"
	ReportClass    ReportType = "class"
)

// ParseReportType maps a query or flag value to a ReportType,
// falling back to the summary view.
func ParseReportType(s string) ReportType {
	switch ReportType(s) {
	case ReportDetailed:
		return ReportDetailed
	case ReportClass:
		return ReportClass
	default:
		return ReportSummary
	}
}

// Gradebook is the JSON document read by the report command.
type Gradebook struct {
	Exam     ExamDefinition  `json:"exam"`
	Students []StudentRecord `json:"students"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/grades")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

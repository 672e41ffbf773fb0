package grading

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/grader/internal/model"
)

// anaExam is two reading questions and one writing category.
func anaExam(t *testing.T) *model.ExamDefinition {
	t.Helper()
	c := NewConfigurator()
	c.SetQuestionCount(2)
	c.SetQuestion(1, "R1 Literal", []string{"Misread fact", "Missed detail"})
	c.SetQuestion(2, "R2 Inference", nil)
	c.SelectCategory("W1 Content", 10)
	exam, err := c.Build()
	require.NoError(t, err)
	return exam
}

func anaRoster(t *testing.T, exam *model.ExamDefinition) []model.StudentRecord {
	t.Helper()
	students, err := CollectRoster(exam, []StudentInput{{
		Name:  "Ana",
		Class: "5B",
		Reading: map[int]MarkInput{
			1: {Mark: 3, Tags: []string{"Missed detail"}},
			2: {Mark: 4},
		},
		Writing: map[model.Skill]MarkInput{
			"W1 Content": {Mark: 7, Tags: []string{"Off-topic"}},
		},
	}})
	require.NoError(t, err)
	return students
}

func TestConfigurator_Defaults(t *testing.T) {
	exam, err := NewConfigurator().Build()
	require.NoError(t, err)

	require.Len(t, exam.Questions, model.DefaultQuestions)
	for i, q := range exam.Questions {
		assert.Equal(t, i+1, q.Number)
		assert.Equal(t, model.Skill("R1 Literal"), q.Skill)
		assert.Empty(t, q.Tags)
	}
	assert.Empty(t, exam.Rubric)
	assert.Equal(t, 25, exam.MaxReadingTotal())
	assert.Equal(t, 0, exam.MaxWritingTotal())
}

func TestConfigurator_LastWriteWins(t *testing.T) {
	c := NewConfigurator()
	c.SetQuestionCount(1)
	c.SetQuestion(1, "R1 Literal", []string{"Misread fact"})
	c.SetQuestion(1, "R3 Vocabulary", []string{"Wrong meaning"})
	c.SelectCategory("W3 Grammar", 8)
	c.SelectCategory("W3 Grammar", 12)
	c.SelectCategory("W1 Content", 5)
	c.SelectCategory("W6 Creativity", 4)
	c.DeselectCategory("W6 Creativity")

	exam, err := c.Build()
	require.NoError(t, err)

	require.Len(t, exam.Questions, 1)
	assert.Equal(t, model.Skill("R3 Vocabulary"), exam.Questions[0].Skill)
	assert.Equal(t, []string{"Wrong meaning"}, exam.Questions[0].Tags)

	// Rubric follows taxonomy order, not selection order.
	assert.Equal(t, []model.RubricCategory{
		{Skill: "W1 Content", MaxMarks: 5},
		{Skill: "W3 Grammar", MaxMarks: 12},
	}, exam.Rubric)
	assert.Equal(t, 17, exam.MaxWritingTotal())
}

func TestConfigurator_CountChangeKeepsChoices(t *testing.T) {
	c := NewConfigurator()
	c.SetQuestion(4, "R4 Sequencing", []string{"Wrong order"})
	c.SetQuestionCount(2)
	exam, err := c.Build()
	require.NoError(t, err)
	assert.Len(t, exam.Questions, 2)

	c.SetQuestionCount(4)
	exam, err = c.Build()
	require.NoError(t, err)
	assert.Equal(t, model.Skill("R4 Sequencing"), exam.Questions[3].Skill)
}

func TestConfigurator_DuplicateTagsCollapse(t *testing.T) {
	c := NewConfigurator()
	c.SetQuestionCount(1)
	c.SetQuestion(1, "R1 Literal", []string{"Missed detail", "Misread fact", "Missed detail"})
	exam, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"Missed detail", "Misread fact"}, exam.Questions[0].Tags)
}

func TestConfigurator_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Configurator)
		field string
	}{
		{"zero questions", func(c *Configurator) { c.SetQuestionCount(0) }, QuestionCountField},
		{"too many questions", func(c *Configurator) { c.SetQuestionCount(51) }, QuestionCountField},
		{"writing skill on question", func(c *Configurator) { c.SetQuestion(1, "W1 Content", nil) }, QuestionField(1)},
		{"foreign tag", func(c *Configurator) { c.SetQuestion(2, "R1 Literal", []string{"Wrong order"}) }, QuestionField(2)},
		{"reading skill as category", func(c *Configurator) { c.SelectCategory("R1 Literal", 5) }, CategoryField("R1 Literal")},
		{"max marks zero", func(c *Configurator) { c.SelectCategory("W2 Organisation", 0) }, CategoryField("W2 Organisation")},
		{"max marks too high", func(c *Configurator) { c.SelectCategory("W2 Organisation", 21) }, CategoryField("W2 Organisation")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfigurator()
			tt.setup(c)
			exam, err := c.Build()
			require.Error(t, err)
			assert.Nil(t, exam)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.NotEmpty(t, ve.For(tt.field), "expected message for %s, got %v", tt.field, ve.Fields)
		})
	}
}

func TestCollectRoster_RequiresExam(t *testing.T) {
	_, err := CollectRoster(nil, []StudentInput{{Name: "Ana"}})
	assert.ErrorIs(t, err, ErrExamNotConfigured)
}

func TestCollectRoster_DefaultsMissingEntries(t *testing.T) {
	exam := anaExam(t)
	students, err := CollectRoster(exam, []StudentInput{{Name: "Ben"}})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, map[int]int{1: 0, 2: 0}, students[0].ReadingMarks)
	assert.Equal(t, map[model.Skill]int{"W1 Content": 0}, students[0].WritingMarks)
}

func TestCollectRoster_Rejects(t *testing.T) {
	exam := anaExam(t)
	tests := []struct {
		name  string
		input StudentInput
		field string
	}{
		{"reading mark too high", StudentInput{Reading: map[int]MarkInput{1: {Mark: 6}}}, ReadingMarkField(1, 1)},
		{"reading mark negative", StudentInput{Reading: map[int]MarkInput{2: {Mark: -1}}}, ReadingMarkField(1, 2)},
		{"writing mark above max", StudentInput{Writing: map[model.Skill]MarkInput{"W1 Content": {Mark: 11}}}, WritingMarkField(1, "W1 Content")},
		{"tag not offered on question", StudentInput{Reading: map[int]MarkInput{1: {Tags: []string{"Wrong number/figure"}}}}, ReadingMarkField(1, 1)},
		{"tag from other skill", StudentInput{Writing: map[model.Skill]MarkInput{"W1 Content": {Tags: []string{"Repetition"}}}}, WritingMarkField(1, "W1 Content")},
		{"unknown question", StudentInput{Reading: map[int]MarkInput{9: {Mark: 1}}}, ReadingMarkField(1, 9)},
		{"unselected category", StudentInput{Writing: map[model.Skill]MarkInput{"W3 Grammar": {Mark: 1}}}, WritingMarkField(1, "W3 Grammar")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CollectRoster(exam, []StudentInput{tt.input})
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.NotEmpty(t, ve.For(tt.field), "fields: %v", ve.Fields)
		})
	}
}

func TestCollectRoster_StudentCount(t *testing.T) {
	exam := anaExam(t)
	_, err := CollectRoster(exam, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CollectRoster(exam, make([]StudentInput, model.MaxStudents+1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	students, err := CollectRoster(exam, make([]StudentInput, model.MaxStudents))
	require.NoError(t, err)
	assert.Len(t, students, model.MaxStudents)
}

func TestBuildReportRows_Example(t *testing.T) {
	exam := anaExam(t)
	rows, err := BuildReportRows(exam, anaRoster(t, exam))
	require.NoError(t, err)

	assert.Equal(t, []model.ReportRow{{
		Student:         "Ana",
		Class:           "5B",
		ReadingTotal:    7,
		WritingTotal:    7,
		ReadingMistakes: "Missed detail",
		WritingMistakes: "Off-topic",
	}}, rows)
}

func TestBuildReportRows_ConcatenationOrder(t *testing.T) {
	c := NewConfigurator()
	c.SetQuestionCount(3)
	c.SetQuestion(1, "R1 Literal", []string{"Misread fact", "Missed detail"})
	c.SetQuestion(2, "R2 Inference", []string{"Wrong conclusion"})
	c.SetQuestion(3, "R1 Literal", []string{"Misread fact", "Missed detail"})
	c.SelectCategory("W3 Grammar", 5)
	c.SelectCategory("W1 Content", 5)
	exam, err := c.Build()
	require.NoError(t, err)

	students, err := CollectRoster(exam, []StudentInput{{
		Name: "Cal",
		Reading: map[int]MarkInput{
			3: {Mark: 1, Tags: []string{"Missed detail", "Misread fact"}},
			1: {Mark: 2, Tags: []string{"Misread fact"}},
			2: {Mark: 5, Tags: []string{"Wrong conclusion"}},
		},
		Writing: map[model.Skill]MarkInput{
			"W3 Grammar": {Mark: 2, Tags: []string{"Quotes misuse", "Punctuation error"}},
			"W1 Content": {Mark: 3, Tags: []string{"Off-topic"}},
		},
	}})
	require.NoError(t, err)

	rows, err := BuildReportRows(exam, students)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Misread fact, Wrong conclusion, Missed detail, Misread fact", rows[0].ReadingMistakes)
	assert.Equal(t, "Off-topic, Quotes misuse, Punctuation error", rows[0].WritingMistakes)
	assert.Equal(t, 8, rows[0].ReadingTotal)
	assert.Equal(t, 5, rows[0].WritingTotal)
}

func TestBuildReportRows_Idempotent(t *testing.T) {
	exam := anaExam(t)
	students := anaRoster(t, exam)
	first, err := BuildReportRows(exam, students)
	require.NoError(t, err)
	second, err := BuildReportRows(exam, students)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildReportRows_RequiresExam(t *testing.T) {
	_, err := BuildReportRows(nil, nil)
	assert.ErrorIs(t, err, ErrExamNotConfigured)
}

func TestTotalsNeverExceedMaxima(t *testing.T) {
	c := NewConfigurator()
	c.SetQuestionCount(4)
	c.SelectCategory("W2 Organisation", 3)
	c.SelectCategory("W5 Audience", 20)
	exam, err := c.Build()
	require.NoError(t, err)

	inputs := []StudentInput{{
		Name:    "Top",
		Reading: map[int]MarkInput{1: {Mark: 5}, 2: {Mark: 5}, 3: {Mark: 5}, 4: {Mark: 5}},
		Writing: map[model.Skill]MarkInput{"W2 Organisation": {Mark: 3}, "W5 Audience": {Mark: 20}},
	}, {
		Name:    "Mid",
		Reading: map[int]MarkInput{1: {Mark: 2}, 4: {Mark: 3}},
		Writing: map[model.Skill]MarkInput{"W5 Audience": {Mark: 11}},
	}}
	students, err := CollectRoster(exam, inputs)
	require.NoError(t, err)

	rows, err := BuildReportRows(exam, students)
	require.NoError(t, err)
	for _, r := range rows {
		assert.LessOrEqual(t, r.ReadingTotal, exam.MaxReadingTotal())
		assert.LessOrEqual(t, r.WritingTotal, exam.MaxWritingTotal())
	}
	assert.Equal(t, 20, rows[0].ReadingTotal)
	assert.Equal(t, 23, rows[0].WritingTotal)
}

func TestRenderSummaryAndDetailed(t *testing.T) {
	rows := []model.ReportRow{{
		Student: "Ana", Class: "5B", ReadingTotal: 7, WritingTotal: 7,
		ReadingMistakes: "Missed detail", WritingMistakes: "Off-topic",
	}}

	assert.Equal(t, []SummaryRow{{Student: "Ana", Class: "5B", ReadingTotal: 7, WritingTotal: 7}}, RenderSummary(rows))

	blocks := RenderDetailed(rows)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Ana", blocks[0].Student)
	assert.Equal(t, []DetailField{
		{Label: "Class", Value: "5B"},
		{Label: "Reading Total", Value: "7"},
		{Label: "Writing Total", Value: "7"},
		{Label: "Reading Mistakes", Value: "Missed detail"},
		{Label: "Writing Mistakes", Value: "Off-topic"},
	}, blocks[0].Fields)
}

func TestClassReportOf(t *testing.T) {
	report, err := ClassReportOf([]model.ReportRow{
		{ReadingTotal: 7, WritingTotal: 4},
		{ReadingTotal: 8, WritingTotal: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Students)
	assert.InDelta(t, 7.5, report.AverageReading, 1e-9)
	assert.InDelta(t, 6.5, report.AverageWriting, 1e-9)
}

func TestClassReportOf_EmptyRoster(t *testing.T) {
	_, err := ClassReportOf(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCSVRoundTrip(t *testing.T) {
	rows := []model.ReportRow{
		{Student: "Ana", Class: "5B", ReadingTotal: 7, WritingTotal: 7, ReadingMistakes: "Missed detail", WritingMistakes: "Off-topic"},
		{Student: "O'Neil, Ben", Class: "5\"A\"", ReadingTotal: 0, WritingTotal: 12,
			ReadingMistakes: "Misread fact, Missed detail, Misread fact", WritingMistakes: ""},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Class,Reading Total,Writing Total,Reading Mistakes,Writing Mistakes", lines[0])
	assert.Equal(t, "Ana,5B,7,7,Missed detail,Off-topic", lines[1])
	assert.Equal(t, `"O'Neil, Ben","5""A""",0,12,"Misread fact, Missed detail, Misread fact",`, lines[2])

	parsed, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, parsed)
}

func TestCSVRoundTrip_LineBreaksInNames(t *testing.T) {
	exam := anaExam(t)
	students, err := CollectRoster(exam, []StudentInput{
		{Name: "Ana\r\nMaria", Class: "5B\rnorth"},
		{Name: "Ben\nLee", Class: "5A"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana\nMaria", students[0].Name)
	assert.Equal(t, "5B\nnorth", students[0].Class)

	rows, err := BuildReportRows(exam, students)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	parsed, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, parsed)
}

func TestReadCSV_Rejects(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ReadCSV(strings.NewReader("Name,Class,A,B,C,D\n"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ReadCSV(strings.NewReader(strings.Join(CSVHeader, ",") + "\nAna,5B,x,1,,\n"))
	assert.Error(t, err)
}

func TestBuildMasteryTotals_Example(t *testing.T) {
	exam := anaExam(t)
	totals, err := BuildMasteryTotals(exam, anaRoster(t, exam))
	require.NoError(t, err)

	assert.Len(t, totals.Reading, 6)
	assert.Len(t, totals.Writing, 6)
	assert.Equal(t, 3, totals.Reading["R1 Literal"])
	assert.Equal(t, 4, totals.Reading["R2 Inference"])
	assert.Equal(t, 7, totals.Writing["W1 Content"])
	for _, s := range []model.Skill{"R3 Vocabulary", "R4 Sequencing", "R5 Critical Eval", "R6 Language Analysis"} {
		assert.Equal(t, 0, totals.Reading[s], s)
	}
	for _, s := range []model.Skill{"W2 Organisation", "W3 Grammar", "W4 Vocabulary", "W5 Audience", "W6 Creativity"} {
		v, ok := totals.Writing[s]
		assert.True(t, ok, "%s should be pre-seeded", s)
		assert.Equal(t, 0, v, s)
	}
}

func TestBuildMasteryTotals_Conservation(t *testing.T) {
	c := NewConfigurator()
	c.SetQuestionCount(5)
	c.SetQuestion(2, "R5 Critical Eval", nil)
	c.SetQuestion(3, "R5 Critical Eval", nil)
	c.SetQuestion(5, "R6 Language Analysis", nil)
	c.SelectCategory("W4 Vocabulary", 6)
	c.SelectCategory("W6 Creativity", 9)
	exam, err := c.Build()
	require.NoError(t, err)

	var inputs []StudentInput
	for i := 0; i < 7; i++ {
		in := StudentInput{
			Reading: map[int]MarkInput{},
			Writing: map[model.Skill]MarkInput{
				"W4 Vocabulary": {Mark: i % 7},
				"W6 Creativity": {Mark: (i * 2) % 10},
			},
		}
		for n := 1; n <= 5; n++ {
			in.Reading[n] = MarkInput{Mark: (i + n) % 6}
		}
		inputs = append(inputs, in)
	}
	students, err := CollectRoster(exam, inputs)
	require.NoError(t, err)

	rows, err := BuildReportRows(exam, students)
	require.NoError(t, err)
	totals, err := BuildMasteryTotals(exam, students)
	require.NoError(t, err)

	sum := 0
	for _, r := range rows {
		sum += r.ReadingTotal + r.WritingTotal
	}
	assert.Equal(t, sum, totals.Sum())
}

func TestBuildMasteryTotals_RequiresExam(t *testing.T) {
	_, err := BuildMasteryTotals(nil, nil)
	assert.ErrorIs(t, err, ErrExamNotConfigured)
}

func TestValidateRecords(t *testing.T) {
	exam := anaExam(t)
	require.NoError(t, ValidateRecords(exam, anaRoster(t, exam)))

	bad := []model.StudentRecord{{
		Name:         "Zed",
		ReadingMarks: map[int]int{1: 9},
		ReadingTags:  map[int][]string{2: {"Wrong conclusion"}},
	}}
	err := ValidateRecords(exam, bad)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.For(ReadingMarkField(1, 1)))
	assert.NotEmpty(t, ve.For(ReadingMarkField(1, 2)))

	assert.ErrorIs(t, ValidateRecords(nil, bad), ErrExamNotConfigured)
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ValidationError{Fields: []FieldError{{Field: "q1", Message: "bad"}}}, http.StatusUnprocessableEntity},
		{ErrExamNotConfigured, http.StatusConflict},
		{ErrNoData, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapHTTPStatus(tt.err), tt.err.Error())
	}
}

func TestLoadGradebook(t *testing.T) {
	exam := anaExam(t)
	gb := model.Gradebook{Exam: *exam, Students: anaRoster(t, exam)}

	gotExam, students, err := LoadGradebook(gb)
	require.NoError(t, err)
	assert.Equal(t, exam, gotExam)
	assert.Equal(t, gb.Students, students)

	rows, err := BuildReportRows(gotExam, students)
	require.NoError(t, err)
	assert.Equal(t, 7, rows[0].ReadingTotal)
}

func TestLoadGradebook_NoStudents(t *testing.T) {
	exam := anaExam(t)
	_, students, err := LoadGradebook(model.Gradebook{Exam: *exam})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NotNil(t, students)
}

func TestLoadGradebook_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		exam  model.ExamDefinition
		field string
	}{
		{
			name:  "no questions",
			exam:  model.ExamDefinition{},
			field: QuestionCountField,
		},
		{
			name: "gap in numbering",
			exam: model.ExamDefinition{Questions: []model.QuestionSetting{
				{Number: 1, Skill: "R1 Literal"},
				{Number: 3, Skill: "R1 Literal"},
			}},
			field: QuestionField(3),
		},
		{
			name: "repeated number",
			exam: model.ExamDefinition{Questions: []model.QuestionSetting{
				{Number: 1, Skill: "R1 Literal"},
				{Number: 1, Skill: "R2 Inference"},
			}},
			field: QuestionField(1),
		},
		{
			name: "writing skill as question",
			exam: model.ExamDefinition{Questions: []model.QuestionSetting{
				{Number: 1, Skill: "W1 Content"},
			}},
			field: QuestionField(1),
		},
		{
			name: "category twice",
			exam: model.ExamDefinition{
				Questions: []model.QuestionSetting{{Number: 1, Skill: "R1 Literal"}},
				Rubric: []model.RubricCategory{
					{Skill: "W1 Content", MaxMarks: 5},
					{Skill: "W1 Content", MaxMarks: 8},
				},
			},
			field: CategoryField("W1 Content"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadGradebook(model.Gradebook{Exam: tt.exam})
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.NotEmpty(t, ve.For(tt.field))
		})
	}
}

func TestLoadGradebook_NormalisesLineBreaks(t *testing.T) {
	exam := anaExam(t)
	gb := model.Gradebook{Exam: *exam, Students: []model.StudentRecord{{Name: "Ana\r\nB", Class: "5B"}}}

	_, students, err := LoadGradebook(gb)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ana\nB", students[0].Name)
}

func TestLoadGradebook_BadMarks(t *testing.T) {
	exam := anaExam(t)
	gb := model.Gradebook{Exam: *exam, Students: []model.StudentRecord{{
		Name:         "Ana",
		WritingMarks: map[model.Skill]int{"W1 Content": 11},
	}}}
	_, _, err := LoadGradebook(gb)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

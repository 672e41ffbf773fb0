package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/grader/internal/llm/prompts"
	"github.com/pavelanni/grader/internal/model"
)

func testExam() *model.ExamDefinition {
	return &model.ExamDefinition{
		Questions: []model.QuestionSetting{
			{Number: 1, Skill: "R1 Literal", Tags: []string{"Missed detail"}},
			{Number: 2, Skill: "R2 Inference", Tags: []string{}},
		},
		Rubric: []model.RubricCategory{
			{Skill: "W1 Content", MaxMarks: 10},
			{Skill: "W3 Grammar", MaxMarks: 12},
		},
	}
}

func testRow() model.ReportRow {
	return model.ReportRow{
		Student:         "Ana",
		Class:           "5B",
		ReadingTotal:    7,
		WritingTotal:    16,
		ReadingMistakes: "Missed detail",
		WritingMistakes: "Off-topic",
	}
}

func TestFeedbackData(t *testing.T) {
	data := feedbackData(testExam(), testRow())
	if data.ReadingMax != 10 {
		t.Errorf("ReadingMax = %d, want 10", data.ReadingMax)
	}
	if data.WritingMax != 22 {
		t.Errorf("WritingMax = %d, want 22", data.WritingMax)
	}
	if data.Student != "Ana" || data.ReadingTotal != 7 || data.WritingMistakes != "Off-topic" {
		t.Errorf("unexpected data %+v", data)
	}

	noExam := feedbackData(nil, testRow())
	if noExam.ReadingMax != 0 || noExam.WritingMax != 0 {
		t.Errorf("expected zero maxima without an exam, got %+v", noExam)
	}
}

func TestParseFeedback(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"valid", `{"feedback": "Well done, Ana."}`, "Well done, Ana.", false},
		{"trims", `{"feedback": "  Keep going.\n"}`, "Keep going.", false},
		{"empty", `{"feedback": ""}`, "", true},
		{"missing field", `{}`, "", true},
		{"not json", `Well done`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFeedback(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFeedback() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseFeedback() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := parseFeedback(`{"feedback": " "}`); !errors.Is(err, ErrEmptyFeedback) {
		t.Errorf("expected ErrEmptyFeedback, got %v", err)
	}
}

func TestNew_InvalidTone(t *testing.T) {
	if _, err := New("", "key", "model", "harsh"); err == nil {
		t.Error("expected error for unknown tone")
	}
}

func TestStudentFeedback(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "test",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"feedback": "Ana reads carefully; practise staying on topic."}`,
				},
			}},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/v1", "test-key", "test-model", prompts.ToneConcise)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := c.StudentFeedback(context.Background(), testExam(), testRow())
	if err != nil {
		t.Fatalf("StudentFeedback: %v", err)
	}
	if got != "Ana reads carefully; practise staying on topic." {
		t.Errorf("StudentFeedback() = %q", got)
	}
	if !strings.Contains(gotPrompt, "Writing: 16 out of 22") {
		t.Errorf("prompt should carry totals and maxima, got:\n%s", gotPrompt)
	}
}

func TestStudentFeedback_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/v1", "test-key", "test-model", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.StudentFeedback(context.Background(), testExam(), testRow()); err == nil {
		t.Error("expected error from failing API")
	}
}

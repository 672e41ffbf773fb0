// Package llm drafts per-student report comments through an
// OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/grader/internal/llm/prompts"
	"github.com/pavelanni/grader/internal/model"
)

// ErrEmptyFeedback is returned when the model answers with a blank comment.
var ErrEmptyFeedback = errors.New("LLM returned empty feedback")

// FeedbackResult is the JSON shape the model is asked to produce.
type FeedbackResult struct {
	Feedback string `json:"feedback"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	tone  prompts.Tone
}

// New creates a new LLM client. An empty tone means prompts.ToneStandard.
func New(baseURL, apiKey, modelName string, tone prompts.Tone) (*Client, error) {
	if tone == "" {
		tone = prompts.ToneStandard
	}
	if !prompts.IsValidTone(string(tone)) {
		return nil, fmt.Errorf("invalid feedback tone %q", tone)
	}
	if err := prompts.Load(); err != nil {
		return nil, err
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		tone:  tone,
	}, nil
}

// StudentFeedback asks the model for a short comment on one report row.
func (c *Client) StudentFeedback(ctx context.Context, exam *model.ExamDefinition, row model.ReportRow) (string, error) {
	prompt, err := prompts.BuildFeedbackPrompt(c.tone, feedbackData(exam, row))
	if err != nil {
		return "", fmt.Errorf("build feedback prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "student", row.Student, "raw", raw)
	return parseFeedback(raw)
}

func feedbackData(exam *model.ExamDefinition, row model.ReportRow) prompts.FeedbackData {
	data := prompts.FeedbackData{
		Student:         row.Student,
		Class:           row.Class,
		ReadingTotal:    row.ReadingTotal,
		WritingTotal:    row.WritingTotal,
		ReadingMistakes: row.ReadingMistakes,
		WritingMistakes: row.WritingMistakes,
	}
	if exam != nil {
		data.ReadingMax = exam.MaxReadingTotal()
		data.WritingMax = exam.MaxWritingTotal()
	}
	return data
}

func parseFeedback(raw string) (string, error) {
	var result FeedbackResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	text := strings.TrimSpace(result.Feedback)
	if text == "" {
		return "", ErrEmptyFeedback
	}
	return text, nil
}

package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var templateFS embed.FS

var recordTagRegex = regexp.MustCompile(`(?i)</?\s*student-record\b[^>]*>`)

// maxFieldRunes caps any single free-text field placed in a prompt.
const maxFieldRunes = 2000

// Tone selects the feedback prompt template.
type Tone string

const (
	// ToneEncouraging phrases mistakes as next steps.
	ToneEncouraging Tone = "encouraging"
	// ToneStandard is the default tone.
	ToneStandard Tone = "standard"
	// ToneConcise asks for a single sentence.
	ToneConcise Tone = "concise"
)

var tones = []Tone{ToneEncouraging, ToneStandard, ToneConcise}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Tone]*template.Template
)

// IsValidTone checks if a tone name is known.
func IsValidTone(s string) bool {
	for _, t := range tones {
		if string(t) == s {
			return true
		}
	}
	return false
}

// FeedbackData holds template data for one student's feedback prompt.
type FeedbackData struct {
	Student         string
	Class           string
	ReadingTotal    int
	ReadingMax      int
	WritingTotal    int
	WritingMax      int
	ReadingMistakes string
	WritingMistakes string
}

// Load parses the embedded prompt templates once.
func Load() error {
	loadOnce.Do(func() {
		templates = make(map[Tone]*template.Template, len(tones))
		for _, t := range tones {
			name := "templates/feedback_" + string(t) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(t)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[t] = tmpl
		}
	})
	return loadErr
}

// BuildFeedbackPrompt renders the prompt for tone with data.
func BuildFeedbackPrompt(tone Tone, data FeedbackData) (string, error) {
	if templates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := templates[tone]
	if !ok {
		return "", errors.New("invalid feedback tone: " + string(tone))
	}

	data.Student = sanitize(data.Student, "[unnamed]")
	data.Class = sanitize(data.Class, "[none]")
	data.ReadingMistakes = sanitize(data.ReadingMistakes, "none")
	data.WritingMistakes = sanitize(data.WritingMistakes, "none")

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize removes anything that could close the record block early and
// bounds the field length. Blank values become placeholder.
func sanitize(s, placeholder string) string {
	s = recordTagRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return placeholder
	}
	if utf8.RuneCountInString(s) > maxFieldRunes {
		s = string([]rune(s)[:maxFieldRunes]) + " [truncated]"
	}
	return s
}

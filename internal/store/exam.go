package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/model"
)

// SaveExam replaces the exam definition. The roster is cleared because
// records entered against the previous exam no longer match it.
func (s *Store) SaveExam(exam *model.ExamDefinition) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearRoster(tx); err != nil {
		return err
	}
	if err := clearExam(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO exam (id, saved_at) VALUES (1, ?)`, time.Now()); err != nil {
		return err
	}
	for _, q := range exam.Questions {
		if _, err := tx.Exec(`INSERT INTO questions (number, skill) VALUES (?, ?)`, q.Number, q.Skill); err != nil {
			return fmt.Errorf("insert question %d: %w", q.Number, err)
		}
		for i, tag := range q.Tags {
			if _, err := tx.Exec(
				`INSERT INTO question_tags (number, position, tag) VALUES (?, ?, ?)`,
				q.Number, i, tag,
			); err != nil {
				return fmt.Errorf("insert tag for question %d: %w", q.Number, err)
			}
		}
	}
	for i, c := range exam.Rubric {
		if _, err := tx.Exec(
			`INSERT INTO rubric (position, skill, max_marks) VALUES (?, ?, ?)`,
			i, c.Skill, c.MaxMarks,
		); err != nil {
			return fmt.Errorf("insert rubric category %s: %w", c.Skill, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("saved exam", "questions", len(exam.Questions), "rubric_categories", len(exam.Rubric))
	return nil
}

// Exam returns the saved exam definition, or grading.ErrExamNotConfigured
// if setup has not been completed.
func (s *Store) Exam() (*model.ExamDefinition, error) {
	ok, err := s.HasExam()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, grading.ErrExamNotConfigured
	}

	exam := &model.ExamDefinition{}

	rows, err := s.db.Query(`SELECT number, skill FROM questions ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	index := make(map[int]int)
	for rows.Next() {
		q := model.QuestionSetting{Tags: []string{}}
		if err := rows.Scan(&q.Number, &q.Skill); err != nil {
			return nil, err
		}
		index[q.Number] = len(exam.Questions)
		exam.Questions = append(exam.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := s.db.Query(`SELECT number, tag FROM question_tags ORDER BY number, position`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var number int
		var tag string
		if err := tagRows.Scan(&number, &tag); err != nil {
			return nil, err
		}
		i, ok := index[number]
		if !ok {
			continue
		}
		exam.Questions[i].Tags = append(exam.Questions[i].Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return nil, err
	}

	rubricRows, err := s.db.Query(`SELECT skill, max_marks FROM rubric ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rubricRows.Close()
	for rubricRows.Next() {
		var c model.RubricCategory
		if err := rubricRows.Scan(&c.Skill, &c.MaxMarks); err != nil {
			return nil, err
		}
		exam.Rubric = append(exam.Rubric, c)
	}
	return exam, rubricRows.Err()
}

// HasExam reports whether setup has been completed.
func (s *Store) HasExam() (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exam`).Scan(&count)
	return count > 0, err
}

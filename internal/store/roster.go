package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pavelanni/grader/internal/grading"
	"github.com/pavelanni/grader/internal/model"
)

// SaveRoster replaces the student roster. Setup must have been completed.
func (s *Store) SaveRoster(students []model.StudentRecord) error {
	ok, err := s.HasExam()
	if err != nil {
		return err
	}
	if !ok {
		return grading.ErrExamNotConfigured
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearRoster(tx); err != nil {
		return err
	}
	for i, st := range students {
		if err := insertStudent(tx, i, st); err != nil {
			return fmt.Errorf("insert student %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("saved roster", "students", len(students))
	return nil
}

func insertStudent(tx *sql.Tx, pos int, st model.StudentRecord) error {
	if _, err := tx.Exec(`INSERT INTO students (position, name, class) VALUES (?, ?, ?)`, pos, st.Name, st.Class); err != nil {
		return err
	}
	for number, mark := range st.ReadingMarks {
		if _, err := tx.Exec(
			`INSERT INTO reading_marks (student, number, mark) VALUES (?, ?, ?)`,
			pos, number, mark,
		); err != nil {
			return err
		}
	}
	for number, tags := range st.ReadingTags {
		for i, tag := range tags {
			if _, err := tx.Exec(
				`INSERT INTO reading_tags (student, number, position, tag) VALUES (?, ?, ?, ?)`,
				pos, number, i, tag,
			); err != nil {
				return err
			}
		}
	}
	for skill, mark := range st.WritingMarks {
		if _, err := tx.Exec(
			`INSERT INTO writing_marks (student, skill, mark) VALUES (?, ?, ?)`,
			pos, skill, mark,
		); err != nil {
			return err
		}
	}
	for skill, tags := range st.WritingTags {
		for i, tag := range tags {
			if _, err := tx.Exec(
				`INSERT INTO writing_tags (student, skill, position, tag) VALUES (?, ?, ?, ?)`,
				pos, skill, i, tag,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// Students returns the roster in entry order. It is empty until a roster
// has been saved.
func (s *Store) Students() ([]model.StudentRecord, error) {
	rows, err := s.db.Query(`SELECT position, name, class FROM students ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.StudentRecord
	index := make(map[int]int)
	for rows.Next() {
		var pos int
		st := model.StudentRecord{
			ReadingMarks: map[int]int{},
			ReadingTags:  map[int][]string{},
			WritingMarks: map[model.Skill]int{},
			WritingTags:  map[model.Skill][]string{},
		}
		if err := rows.Scan(&pos, &st.Name, &st.Class); err != nil {
			return nil, err
		}
		index[pos] = len(students)
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.scanReading(students, index); err != nil {
		return nil, fmt.Errorf("load reading marks: %w", err)
	}
	if err := s.scanWriting(students, index); err != nil {
		return nil, fmt.Errorf("load writing marks: %w", err)
	}
	return students, nil
}

func (s *Store) scanReading(students []model.StudentRecord, index map[int]int) error {
	rows, err := s.db.Query(`SELECT student, number, mark FROM reading_marks`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var pos, number, mark int
		if err := rows.Scan(&pos, &number, &mark); err != nil {
			return err
		}
		if i, ok := index[pos]; ok {
			students[i].ReadingMarks[number] = mark
			students[i].ReadingTags[number] = []string{}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := s.db.Query(`SELECT student, number, tag FROM reading_tags ORDER BY student, number, position`)
	if err != nil {
		return err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var pos, number int
		var tag string
		if err := tagRows.Scan(&pos, &number, &tag); err != nil {
			return err
		}
		if i, ok := index[pos]; ok {
			students[i].ReadingTags[number] = append(students[i].ReadingTags[number], tag)
		}
	}
	return tagRows.Err()
}

func (s *Store) scanWriting(students []model.StudentRecord, index map[int]int) error {
	rows, err := s.db.Query(`SELECT student, skill, mark FROM writing_marks`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var pos, mark int
		var skill model.Skill
		if err := rows.Scan(&pos, &skill, &mark); err != nil {
			return err
		}
		if i, ok := index[pos]; ok {
			students[i].WritingMarks[skill] = mark
			students[i].WritingTags[skill] = []string{}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tagRows, err := s.db.Query(`SELECT student, skill, tag FROM writing_tags ORDER BY student, skill, position`)
	if err != nil {
		return err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var pos int
		var skill model.Skill
		var tag string
		if err := tagRows.Scan(&pos, &skill, &tag); err != nil {
			return err
		}
		if i, ok := index[pos]; ok {
			students[i].WritingTags[skill] = append(students[i].WritingTags[skill], tag)
		}
	}
	return tagRows.Err()
}

// StudentCount returns the number of students on the roster.
func (s *Store) StudentCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM students`).Scan(&count)
	return count, err
}

// SetFeedback stores drafted feedback for the student at roster index idx.
func (s *Store) SetFeedback(idx int, text string) error {
	_, err := s.db.Exec(
		`INSERT INTO feedback (student, text) VALUES (?, ?)
		 ON CONFLICT(student) DO UPDATE SET text = ?`,
		idx, text, text,
	)
	return err
}

// Feedback returns drafted feedback for a student, or "" if none exists.
func (s *Store) Feedback(idx int) (string, error) {
	var text string
	err := s.db.QueryRow(`SELECT text FROM feedback WHERE student = ?`, idx).Scan(&text)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return text, err
}

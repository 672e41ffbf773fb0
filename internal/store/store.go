package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is the grading session: the exam definition and the student roster
// for one educator. It lives in an in-memory SQLite database that is
// discarded when the store is closed.
type Store struct {
	db *sql.DB
}

// New opens an empty session.
func New() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exam (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		number INTEGER PRIMARY KEY,
		skill TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS question_tags (
		number INTEGER NOT NULL,
		position INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (number, position),
		FOREIGN KEY (number) REFERENCES questions(number)
	);

	CREATE TABLE IF NOT EXISTS rubric (
		position INTEGER PRIMARY KEY,
		skill TEXT NOT NULL UNIQUE,
		max_marks INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS students (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		class TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS reading_marks (
		student INTEGER NOT NULL,
		number INTEGER NOT NULL,
		mark INTEGER NOT NULL,
		PRIMARY KEY (student, number),
		FOREIGN KEY (student) REFERENCES students(position)
	);

	CREATE TABLE IF NOT EXISTS reading_tags (
		student INTEGER NOT NULL,
		number INTEGER NOT NULL,
		position INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (student, number, position)
	);

	CREATE TABLE IF NOT EXISTS writing_marks (
		student INTEGER NOT NULL,
		skill TEXT NOT NULL,
		mark INTEGER NOT NULL,
		PRIMARY KEY (student, skill),
		FOREIGN KEY (student) REFERENCES students(position)
	);

	CREATE TABLE IF NOT EXISTS writing_tags (
		student INTEGER NOT NULL,
		skill TEXT NOT NULL,
		position INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (student, skill, position)
	);

	CREATE TABLE IF NOT EXISTS feedback (
		student INTEGER PRIMARY KEY,
		text TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset discards the exam, the roster and any drafted feedback.
func (s *Store) Reset() error {
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
	return tx.Commit()
}

func clearExam(tx *sql.Tx) error {
	for _, table := range []string{"question_tags", "questions", "rubric", "exam"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func clearRoster(tx *sql.Tx) error {
	for _, table := range []string{"feedback", "writing_tags", "writing_marks", "reading_tags", "reading_marks", "students"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

package grading

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/pavelanni/grader/internal/model"
)

// CSV export constants.
const (
	CSVFileName    = "grades_all_students.csv"
	CSVContentType = "text/csv"
)

// CSVHeader is the exported column order.
var CSVHeader = []string{"Student", "Class", "Reading Total", "Writing Total", "Reading Mistakes", "Writing Mistakes"}

// WriteCSV writes a header row and one row per student. Fields containing
// commas, quotes or newlines are quoted.
func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Student,
			r.Class,
			strconv.Itoa(r.ReadingTotal),
			strconv.Itoa(r.WritingTotal),
			r.ReadingMistakes,
			r.WritingMistakes,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row for %q: %w", r.Student, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV back into report rows.
func ReadCSV(r io.Reader) ([]model.ReportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, CSVHeader) {
		return nil, fmt.Errorf("unexpected header %v: %w", header, ErrInvalidInput)
	}

	var rows []model.ReportRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		reading, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d reading total: %w", len(rows)+1, err)
		}
		writing, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("row %d writing total: %w", len(rows)+1, err)
		}
		rows = append(rows, model.ReportRow{
			Student:         rec[0],
			Class:           rec[1],
			ReadingTotal:    reading,
			WritingTotal:    writing,
			ReadingMistakes: rec[4],
			WritingMistakes: rec[5],
		})
	}
	return rows, nil
}

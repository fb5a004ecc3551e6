// Package roster loads the class roster and resolves free-text student names
// to roster identities.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// EndOfRecordColumn bounds the structural roster columns. Everything after it
// is grade data managed by gradeflow.
const EndOfRecordColumn = "End-of-Line Indicator"

// Required column headers, in roster order.
const (
	ColumnID        = "OrgDefinedId"
	ColumnUsername  = "Username"
	ColumnFirstName = "First Name"
	ColumnLastName  = "Last Name"
	ColumnEmail     = "Email"
)

// RequiredColumns is the fixed five-column prefix of a roster.
var RequiredColumns = []string{ColumnID, ColumnUsername, ColumnFirstName, ColumnLastName, ColumnEmail}

// ErrMissingColumns is returned when the roster lacks a required column.
var ErrMissingColumns = errors.New("roster is missing required columns")

// Student is one roster row. Row is the zero-based data row index.
type Student struct {
	Row       int
	ID        string
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// FullName joins first and last name as written in the roster.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Roster is a parsed roster file. Header and Records keep the raw cells so
// the grade writer can rewrite the file without losing columns.
type Roster struct {
	Header   []string
	Records  [][]string
	Students []Student
	// Index of each required column and of the end-of-record marker in Header.
	Columns map[string]int
	Marker  int
	// BOM is set when the file started with a UTF-8 byte-order mark.
	BOM bool
	// Rules drive Match and Resolve. Parse sets DefaultRules.
	Rules Rules
}

// Load reads and validates a roster CSV file.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	r, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return r, nil
}

// Parse reads a roster from CSV data.
func Parse(r io.Reader) (*Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMissingColumns)
	}

	header := rows[0]
	bom := len(header) > 0 && strings.HasPrefix(header[0], "\ufeff")
	if bom {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols, marker, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	ros := &Roster{Header: header, Columns: cols, Marker: marker, BOM: bom, Rules: DefaultRules}
	for _, rec := range rows[1:] {
		if isBlank(rec) {
			continue
		}
		ros.Records = append(ros.Records, rec)
		ros.Students = append(ros.Students, Student{
			Row:       len(ros.Records) - 1,
			ID:        cell(rec, cols[ColumnID]),
			Username:  strings.TrimPrefix(cell(rec, cols[ColumnUsername]), "#"),
			FirstName: cell(rec, cols[ColumnFirstName]),
			LastName:  cell(rec, cols[ColumnLastName]),
			Email:     cell(rec, cols[ColumnEmail]),
		})
	}
	return ros, nil
}

func locateColumns(header []string) (map[string]int, int, error) {
	cols := make(map[string]int, len(RequiredColumns))
	marker := -1
	for i, h := range header {
		key := headerKey(h)
		for _, req := range RequiredColumns {
			if _, done := cols[req]; !done && key == headerKey(req) {
				cols[req] = i
			}
		}
		if marker < 0 && key == headerKey(EndOfRecordColumn) {
			marker = i
		}
	}

	var missing []string
	for _, req := range RequiredColumns {
		if _, ok := cols[req]; !ok {
			missing = append(missing, req)
		}
	}
	if marker < 0 {
		missing = append(missing, EndOfRecordColumn)
	}
	if len(missing) > 0 {
		return nil, -1, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, marker, nil
}

func headerKey(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "#"))
	return strings.ToLower(h)
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Names returns the "First Last" name of every student in roster order.
func (r *Roster) Names() []string {
	names := make([]string, len(r.Students))
	for i, s := range r.Students {
		names[i] = s.FullName()
	}
	return names
}

// Match resolves a submitted name with the strategy cascade only: exact
// full-name equality, then the cascade. exact is false for word-overlap
// matches. Unlike Resolve it never falls back to similarity, so it suits
// names typed by the LMS rather than read by OCR.
func (r *Roster) Match(name string) (st *Student, exact bool, ok bool) {
	norm := Normalize(name)
	if norm == "" {
		return nil, false, false
	}
	for i := range r.Students {
		if Normalize(r.Students[i].FullName()) == norm {
			return &r.Students[i], true, true
		}
	}
	if idx, strategy, found := r.Rules.Match(name, r.Students); found {
		return &r.Students[idx], strategy != WordOverlap, true
	}
	return nil, false, false
}

// Resolve maps a recovered name to a student: Match first, then the best
// fuzzy match at or above threshold. exact is false for word-overlap and
// fuzzy matches.
func (r *Roster) Resolve(name string, threshold float64) (st *Student, exact bool, ok bool) {
	if st, exact, ok := r.Match(name); ok {
		return st, exact, true
	}
	if Normalize(name) == "" {
		return nil, false, false
	}
	if idx, _, found := r.Rules.BestMatch(name, r.Names(), threshold); found {
		return &r.Students[idx], false, true
	}
	return nil, false, false
}

// Package gradebook writes grades into the roster CSV under a new, versioned
// grade column.
package gradebook

import (
	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/grade"
	"github.com/gardar/gradeflow/pkg/roster"
)

// Cell values written for students without a usable grade.
const (
	Unreadable   = "unreadable"
	NoSubmission = "0"
	VerifyFlag   = "Verify"
)

// Source tells how a cell value was chosen.
type Source int

const (
	SourceGraded     Source = iota // OCR grade
	SourceDefault                  // default grade for a submitted student
	SourceUnreadable               // submission quarantined as unreadable
	SourceMissing                  // no submission
)

// Assignment is the value for one roster row.
type Assignment struct {
	Student roster.Student
	Value   string
	Verify  bool
	Source  Source
	// Record is the OCR record placed on this row, if any.
	Record *grade.Record
	// Fuzzy is set when the row was reached by a non-exact name match.
	Fuzzy bool
}

// Inputs is everything known about a run's students.
type Inputs struct {
	Records    []grade.Record
	Matches    []roster.MatchResult
	Unreadable []string // raw names of quarantined submissions
}

// Assigner decides the value of every roster row.
type Assigner struct {
	DefaultGrade     string
	CompletionOnly   bool
	VerifyConfidence float64
	NameSimilarity   float64
}

// NewAssigner reads the assignment rules from cfg.
func NewAssigner(cfg config.Config) *Assigner {
	return &Assigner{
		DefaultGrade:     cfg.Gradebook.DefaultGrade,
		CompletionOnly:   cfg.Gradebook.CompletionOnly,
		VerifyConfidence: cfg.Matching.VerifyConfidence,
		NameSimilarity:   cfg.Matching.NameSimilarity,
	}
}

// Assign returns one assignment per roster student in roster order, plus
// the records whose name matched no student. A record reaching a row that
// already holds one is also returned unplaced.
func (a *Assigner) Assign(r *roster.Roster, in Inputs) ([]Assignment, []grade.Record) {
	out := make([]Assignment, len(r.Students))
	for i, s := range r.Students {
		out[i] = Assignment{Student: s, Value: NoSubmission, Source: SourceMissing}
	}
	byRow := make(map[int]int, len(r.Students))
	for i, s := range r.Students {
		byRow[s.Row] = i
	}

	// Unreadable names come from folder names, like submissions, so they
	// get the same cascade and no similarity fallback.
	for _, name := range in.Unreadable {
		if st, exact, ok := r.Match(name); ok {
			as := &out[byRow[st.Row]]
			as.Value, as.Source, as.Fuzzy = Unreadable, SourceUnreadable, !exact
			as.Verify = !exact
		}
	}

	for _, m := range in.Matches {
		if m.Student == nil {
			continue
		}
		as := &out[byRow[m.Student.Row]]
		as.Value, as.Source, as.Fuzzy = a.DefaultGrade, SourceDefault, !m.Exact()
		// Without an OCR record the default is a guess unless grading is
		// completion only.
		as.Verify = !a.CompletionOnly || as.Fuzzy
	}

	var unplaced []grade.Record
	for i := range in.Records {
		rec := in.Records[i]
		st, exact, ok := r.Resolve(rec.StudentName, a.NameSimilarity)
		if !ok {
			unplaced = append(unplaced, rec)
			continue
		}
		as := &out[byRow[st.Row]]
		if as.Record != nil {
			unplaced = append(unplaced, rec)
			continue
		}
		as.Record = &rec
		as.Fuzzy = as.Fuzzy || !exact
		if a.CompletionOnly {
			as.Value, as.Source, as.Verify = a.DefaultGrade, SourceDefault, as.Fuzzy
			continue
		}
		as.Verify = grade.NeedsVerificationAt(rec, a.VerifyConfidence) || as.Fuzzy
		if rec.Found() {
			as.Value, as.Source = rec.Grade, SourceGraded
		} else {
			as.Value, as.Source = a.DefaultGrade, SourceDefault
		}
	}
	return out, unplaced
}

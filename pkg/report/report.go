// Package report collects the per-student problems of a run and prints them,
// grouped by category, when the run ends.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gardar/gradeflow/pkg/roster"
)

// Category groups issues that need the same follow-up.
type Category string

const (
	NoGrade       Category = "no-grade"
	LowConfidence Category = "low-confidence"
	NameMatching  Category = "name-matching"
	NoSubmission  Category = "no-submission"
	Unreadable    Category = "unreadable"
)

// Categories lists every category in print order.
var Categories = []Category{NoGrade, LowConfidence, NameMatching, NoSubmission, Unreadable}

var titles = map[Category]string{
	NoGrade:       "No grade found",
	LowConfidence: "Low OCR confidence, please verify",
	NameMatching:  "Name could not be matched",
	NoSubmission:  "No submission",
	Unreadable:    "Unreadable submission",
}

// Issue is one problem with one student.
type Issue struct {
	Category Category
	Student  string
	Detail   string
}

// Report is the per-run issue list. The zero value is ready to use.
type Report struct {
	issues []Issue
	seen   map[string]bool
}

// Add records an issue unless the same student already has one in the same
// category. Students are compared by normalized name.
func (r *Report) Add(c Category, student, detail string) {
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	key := string(c) + "\x00" + roster.Normalize(student)
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.issues = append(r.issues, Issue{Category: c, Student: student, Detail: detail})
}

// Addf is Add with a formatted detail.
func (r *Report) Addf(c Category, student, format string, args ...any) {
	r.Add(c, student, fmt.Sprintf(format, args...))
}

// Issues returns the issues of category c in the order they were added.
func (r *Report) Issues(c Category) []Issue {
	var out []Issue
	for _, is := range r.issues {
		if is.Category == c {
			out = append(out, is)
		}
	}
	return out
}

// Len returns the number of recorded issues.
func (r *Report) Len() int { return len(r.issues) }

// Print writes every non-empty category with its students.
func (r *Report) Print(w io.Writer) error {
	if len(r.issues) == 0 {
		_, err := fmt.Fprintln(w, "No issues.")
		return err
	}
	var b strings.Builder
	for _, c := range Categories {
		issues := r.Issues(c)
		if len(issues) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s (%d):\n", titles[c], len(issues))
		for _, is := range issues {
			if is.Detail != "" {
				fmt.Fprintf(&b, "  - %s: %s\n", is.Student, is.Detail)
			} else {
				fmt.Fprintf(&b, "  - %s\n", is.Student)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

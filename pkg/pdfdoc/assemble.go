package pdfdoc

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gardar/gradeflow/pkg/watermark"
)

// ErrNoDocuments is returned by Combine when no student has a readable page.
var ErrNoDocuments = errors.New("no student documents to combine")

// StudentDocument is the ordered page list of one student's submission.
type StudentDocument struct {
	Name      string
	LastName  string
	Pages     []PageSource
	PageCount int
}

// BuildStudent loads files in the given order. Unreadable files are skipped
// and returned as soft errors; the document holds the pages of the rest.
func BuildStudent(name, lastName string, files []string) (*StudentDocument, []error) {
	doc := &StudentDocument{Name: name, LastName: lastName}
	var errs []error
	for _, f := range files {
		src, err := LoadSource(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		doc.Pages = append(doc.Pages, src.Pages()...)
	}
	doc.PageCount = len(doc.Pages)
	return doc, errs
}

// WriteStudent writes doc without watermarks, every page fitted to the
// target size.
func WriteStudent(doc *StudentDocument, w io.Writer, opts Options) error {
	if doc.PageCount == 0 {
		return fmt.Errorf("%s: %w", doc.Name, ErrNoDocuments)
	}
	r := newRenderer(opts)
	for _, ps := range doc.Pages {
		if err := r.addFitted(ps); err != nil {
			return err
		}
	}
	data, err := r.bytes()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Entry locates one student in a combined document. FirstPage is 1-based.
type Entry struct {
	Name      string
	FirstPage int
	Pages     int
}

// Combined is the review document handed to the grader.
type Combined struct {
	Data     []byte
	Index    []Entry
	Warnings []error
}

// Combine concatenates docs ordered by last name, then display name, and
// stamps every page with "<Name> (<k> of <N>)". Students without pages are
// left out. A page whose watermark cannot be drawn is kept unmarked and the
// failure recorded in Warnings.
func Combine(docs []*StudentDocument, opts Options) (*Combined, error) {
	var ordered []*StudentDocument
	for _, d := range docs {
		if d != nil && d.PageCount > 0 {
			ordered = append(ordered, d)
		}
	}
	if len(ordered) == 0 {
		return nil, ErrNoDocuments
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := strings.ToLower(ordered[i].LastName), strings.ToLower(ordered[j].LastName)
		if a != b {
			return a < b
		}
		return strings.ToLower(ordered[i].Name) < strings.ToLower(ordered[j].Name)
	})

	r := newRenderer(opts)
	r.pdf.SetDisplayMode("fullpage", "single")

	out := &Combined{}
	page := 1
	for _, d := range ordered {
		out.Index = append(out.Index, Entry{Name: d.Name, FirstPage: page, Pages: d.PageCount})
		name := truncate(d.Name, opts.MaxChars)
		for k, ps := range d.Pages {
			if err := r.addFitted(ps); err != nil {
				return nil, fmt.Errorf("combine %s: %w", d.Name, err)
			}
			if err := r.watermark(watermark.Format(name, k+1, d.PageCount)); err != nil {
				out.Warnings = append(out.Warnings, fmt.Errorf("page %d: %w", page, err))
			}
			page++
		}
	}

	data, err := r.bytes()
	if err != nil {
		return nil, err
	}
	out.Data = data
	return out, nil
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}

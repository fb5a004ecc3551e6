// Package submission turns an unpacked bulk export into one submission per
// student.
//
// Export folders are named "<anything> - <Student Name> - <Mon D, YYYY HMM PM>".
// Folders that do not follow the convention are skipped; repeated submissions
// by the same student collapse to the most recent one.
package submission

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Separator splits the parts of an export folder name.
const Separator = " - "

// Folder is one unpacked submission folder.
type Folder struct {
	Name string
	Path string
}

// Submission is a folder that follows the naming convention.
type Submission struct {
	StudentNameRaw string
	Timestamp      *time.Time
	FolderPath     string
	Files          []string
}

// FolderName is the base name of the submission's folder.
func (s Submission) FolderName() string { return filepath.Base(s.FolderPath) }

var (
	clockPattern = regexp.MustCompile(`(\d{1,2}):?(\d{2})\s*([AaPp][Mm])\s*$`)

	timestampLayouts = []string{
		"Jan 2, 2006 3:04 PM",
		"January 2, 2006 3:04 PM",
		"Jan 2 2006 3:04 PM",
		"January 2 2006 3:04 PM",
	}
)

// ParseFolderName extracts the student name and submission time from a
// folder name. ok is false when the name lacks two separators; a timestamp
// that matches no known layout yields ok with a nil time.
func ParseFolderName(name string) (student string, ts *time.Time, ok bool) {
	first := strings.Index(name, Separator)
	if first < 0 {
		return "", nil, false
	}
	rest := name[first+len(Separator):]
	second := strings.Index(rest, Separator)
	if second < 0 {
		return "", nil, false
	}
	student = strings.TrimSpace(rest[:second])
	if student == "" {
		return "", nil, false
	}
	return student, parseTimestamp(rest[second+len(Separator):]), true
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Exports write the clock as "1205 PM", "12:05 PM" or "1205PM".
	s = clockPattern.ReplaceAllStringFunc(s, func(m string) string {
		parts := clockPattern.FindStringSubmatch(m)
		return fmt.Sprintf("%s:%s %s", parts[1], parts[2], strings.ToUpper(parts[3]))
	})
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Scan lists the sub-directories of dir in name order.
func Scan(dir string) ([]Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read submissions dir: %w", err)
	}
	var folders []Folder
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		folders = append(folders, Folder{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// Outcome reports what Collect did with each folder.
type Outcome struct {
	Skipped    []Folder
	Superseded []Submission
}

// Collect keeps one submission per raw student name. Newer timestamps win; a
// timestamped challenger beats an untimestamped incumbent; otherwise the first
// one seen is kept. The result preserves first-seen order.
func Collect(folders []Folder) ([]Submission, Outcome) {
	var out Outcome
	var order []string
	best := make(map[string]Submission)

	for _, f := range folders {
		name, ts, ok := ParseFolderName(f.Name)
		if !ok {
			out.Skipped = append(out.Skipped, f)
			continue
		}
		challenger := Submission{StudentNameRaw: name, Timestamp: ts, FolderPath: f.Path}
		incumbent, seen := best[name]
		if !seen {
			best[name] = challenger
			order = append(order, name)
			continue
		}
		if supersedes(challenger, incumbent) {
			best[name] = challenger
			out.Superseded = append(out.Superseded, incumbent)
		} else {
			out.Superseded = append(out.Superseded, challenger)
		}
	}

	subs := make([]Submission, 0, len(order))
	for _, name := range order {
		subs = append(subs, best[name])
	}
	return subs, out
}

func supersedes(challenger, incumbent Submission) bool {
	switch {
	case challenger.Timestamp == nil:
		return false
	case incumbent.Timestamp == nil:
		return true
	default:
		return challenger.Timestamp.After(*incumbent.Timestamp)
	}
}

var documentExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".webp": true,
}

// IsDocument reports whether a file name has a supported document extension.
func IsDocument(name string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(name))]
}

// DocumentFiles lists the supported document files directly inside path in
// lexicographic order.
func DocumentFiles(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsDocument(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadFiles fills Files for every submission. Submissions whose folder cannot
// be listed keep a nil list and are reported by PlanQuarantine.
func LoadFiles(subs []Submission) []error {
	var errs []error
	for i := range subs {
		files, err := DocumentFiles(subs[i].FolderPath)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		subs[i].Files = files
	}
	return errs
}

package gradebook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/logging"
	"github.com/gardar/gradeflow/pkg/roster"
)

// ErrRosterLocked is returned when the roster stays unwritable after the
// editor was asked to close.
var ErrRosterLocked = errors.New("roster file is locked: close it in your spreadsheet editor and retry")

// lockRetries is how often a failed roster write is retried.
const lockRetries = 1

// ColumnName is the grade column header for an assignment.
func ColumnName(assignment string, maxPoints int) string {
	return fmt.Sprintf("%s Points Grade <Numeric MaxPoints:%d>", assignment, maxPoints)
}

// VersionedName returns name, or name with the lowest " vN" suffix (N >= 2)
// not present in existing.
func VersionedName(name string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, h := range existing {
		taken[strings.TrimSpace(h)] = true
	}
	if !taken[name] {
		return name
	}
	for v := 2; ; v++ {
		candidate := fmt.Sprintf("%s v%d", name, v)
		if !taken[candidate] {
			return candidate
		}
	}
}

// Writer rewrites a roster file with a new grade column.
type Writer struct {
	Insert     bool
	MaxPoints  int
	RetryDelay time.Duration
	Editor     string
	Log        *logging.Logger

	writeFile   func(path string, data []byte) error
	closeEditor func(process string) error
	sleep       func(time.Duration)
}

// NewWriter reads the writer settings from cfg.
func NewWriter(cfg config.GradebookConfig, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.Discard()
	}
	return &Writer{
		Insert:      cfg.InsertColumn,
		MaxPoints:   cfg.MaxPoints,
		RetryDelay:  cfg.LockRetryDelay,
		Editor:      cfg.EditorProcess,
		Log:         log,
		writeFile:   func(path string, data []byte) error { return os.WriteFile(path, data, 0o644) },
		closeEditor: closeEditor,
		sleep:       time.Sleep,
	}
}

// Table builds the rewritten roster. Replace mode keeps the columns up to
// and including the end-of-record marker and appends the grade and verify
// columns; insert mode keeps every column and puts the new pair right before
// the marker. The chosen column name is returned with the table.
func (w *Writer) Table(r *roster.Roster, assignment string, rows []Assignment) ([][]string, string) {
	byRow := make(map[int]Assignment, len(rows))
	for _, a := range rows {
		byRow[a.Student.Row] = a
	}

	kept := r.Header
	if !w.Insert {
		kept = r.Header[:r.Marker+1]
	}
	column := VersionedName(ColumnName(assignment, w.MaxPoints), kept)

	header := splice(r.Header, r.Marker, w.Insert, column, "")
	table := [][]string{header}
	for i, rec := range r.Records {
		value, flag := NoSubmission, ""
		if a, ok := byRow[i]; ok {
			value = a.Value
			if a.Verify {
				flag = VerifyFlag
			}
		}
		table = append(table, splice(pad(rec, len(r.Header)), r.Marker, w.Insert, value, flag))
	}
	return table, column
}

// splice places value and flag before the marker (insert) or after it with
// everything past the marker dropped (replace).
func splice(rec []string, marker int, insert bool, value, flag string) []string {
	out := make([]string, 0, len(rec)+2)
	if insert {
		out = append(out, rec[:marker]...)
		out = append(out, value, flag)
		return append(out, rec[marker:]...)
	}
	out = append(out, rec[:marker+1]...)
	return append(out, value, flag)
}

func pad(rec []string, n int) []string {
	if len(rec) >= n {
		return rec
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}

// Write rewrites the roster at path and returns the grade column name. A
// failed write is retried once after asking the spreadsheet editor to close.
func (w *Writer) Write(path string, r *roster.Roster, assignment string, rows []Assignment) (string, error) {
	table, column := w.Table(r, assignment, rows)

	var buf bytes.Buffer
	if r.BOM {
		buf.WriteString("\ufeff")
	}
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(table); err != nil {
		return "", fmt.Errorf("encode roster: %w", err)
	}

	err := w.writeFile(path, buf.Bytes())
	for attempt := 1; err != nil && attempt <= lockRetries; attempt++ {
		w.Log.Warn(logging.MsgRosterLocked, "file", path, "attempt", attempt, "error", err)
		if cerr := w.closeEditor(w.editor()); cerr != nil {
			w.Log.Debug(logging.MsgRosterLocked, "close_editor", cerr)
		}
		w.sleep(w.RetryDelay)
		err = w.writeFile(path, buf.Bytes())
	}
	if err != nil {
		return "", fmt.Errorf("%w (%s: %v)", ErrRosterLocked, path, err)
	}
	w.Log.Log(logging.MsgRosterWritten, "file", path, "column", column, "rows", len(r.Records))
	return column, nil
}

func (w *Writer) editor() string {
	if w.Editor != "" {
		return w.Editor
	}
	if runtime.GOOS == "windows" {
		return "EXCEL.EXE"
	}
	return "soffice"
}

func closeEditor(process string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("taskkill", "/IM", process)
	} else {
		cmd = exec.Command("pkill", "-f", process)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", strings.Join(cmd.Args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Package logging writes gradeflow's message-catalog log lines.
//
// Every line carries a message ID and key=value pairs:
//
//	2026-10-19T10:04:05Z INFO run=3f2a... submission.collected count=42
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message IDs used across the pipeline.
const (
	MsgRunStarted         = "run.started"
	MsgRunFinished        = "run.finished"
	MsgFolderSkipped      = "submission.folder_skipped"
	MsgSubmissionsFound   = "submission.collected"
	MsgSuperseded         = "submission.superseded"
	MsgQuarantined        = "submission.quarantined"
	MsgUnmatched          = "roster.unmatched"
	MsgMatched            = "roster.matched"
	MsgSourceFailed       = "assemble.source_failed"
	MsgStudentBuilt       = "assemble.student_built"
	MsgWatermarkFailed    = "assemble.watermark_failed"
	MsgCombinedWritten    = "assemble.combined_written"
	MsgNameFallback       = "extract.name_fallback"
	MsgOCRServiceFailed   = "extract.ocr_service_failed"
	MsgOCRLocalFailed     = "extract.ocr_local_failed"
	MsgGradeExtracted     = "extract.grade"
	MsgSplitPageSkipped   = "split.page_skipped"
	MsgSplitWritten       = "split.written"
	MsgSplitFolderMissing = "split.folder_missing"
	MsgRosterLocked       = "gradebook.locked"
	MsgRosterWritten      = "gradebook.written"
)

// Logger writes one line per message to an io.Writer. It is safe to share.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	run   string
	now   func() time.Time
	debug bool
}

// New returns a logger tagged with a fresh run ID. A nil writer means stdout.
func New(w io.Writer, debug bool) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		w:     w,
		run:   uuid.NewString(),
		now:   time.Now,
		debug: debug,
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return &Logger{w: io.Discard, run: "discard", now: time.Now}
}

// RunID identifies the run in every line.
func (l *Logger) RunID() string { return l.run }

// Log writes an informational message.
func (l *Logger) Log(msgID string, kv ...any) { l.write("INFO", msgID, kv) }

// Warn writes a soft-failure message.
func (l *Logger) Warn(msgID string, kv ...any) { l.write("WARN", msgID, kv) }

// Debug writes only when debug output was requested.
func (l *Logger) Debug(msgID string, kv ...any) {
	if l.debug {
		l.write("DEBUG", msgID, kv)
	}
}

func (l *Logger) write(level, msgID string, kv []any) {
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString(l.now().UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(level)
	b.WriteString(" run=")
	b.WriteString(l.run)
	b.WriteByte(' ')
	b.WriteString(msgID)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		val := "<missing>"
		if i+1 < len(kv) {
			val = formatValue(kv[i+1])
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(val)
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, b.String())
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

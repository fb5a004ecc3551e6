package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gardar/gradeflow/pkg/logging"
	"github.com/gardar/gradeflow/pkg/pdfdoc"
	"github.com/gardar/gradeflow/pkg/report"
)

// Output file names inside the output folder.
const (
	CombinedFile   = "combined.pdf"
	IndexFile      = "index.csv"
	FirstPagesFile = "first_pages.pdf"
	StudentsDir    = "students"
)

// CombineOptions locates the inputs and output of the combine stage.
type CombineOptions struct {
	SubmissionsDir string
	RosterPath     string
	OutputDir      string
	// StudentPDFs also writes one normalized PDF per student.
	StudentPDFs bool
	// DryRun leaves unreadable submissions in place.
	DryRun bool
}

// CombineResult reports what the combine stage wrote.
type CombineResult struct {
	CombinedPath string
	IndexPath    string
	BackupPath   string
	Index        []pdfdoc.Entry
}

// Combine builds the review PDF from a submissions folder.
func (p *Pipeline) Combine(ctx context.Context, opts CombineOptions) (*CombineResult, error) {
	res, err := p.combine(ctx, opts)
	return res, asUserError(err)
}

func (p *Pipeline) combine(ctx context.Context, opts CombineOptions) (*CombineResult, error) {
	ros, err := p.loadRoster(opts.RosterPath)
	if err != nil {
		return nil, err
	}
	c, err := p.collect(opts.SubmissionsDir, ros)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun && len(c.Unreadable.Moves) > 0 {
		n, err := c.Unreadable.Apply()
		if err != nil {
			return nil, fmt.Errorf("quarantine unreadable submissions: %w", err)
		}
		p.Log.Log(logging.MsgQuarantined, "moved", n)
	}
	p.reportMissing(ros, c)

	var docs []*pdfdoc.StudentDocument
	for _, m := range c.Matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := m.Student.FullName()
		doc, errs := pdfdoc.BuildStudent(name, m.Student.LastName, m.Submission.Files)
		for _, err := range errs {
			p.Log.Warn(logging.MsgSourceFailed, "student", name, "error", err)
		}
		if doc.PageCount == 0 {
			p.Report.Add(report.Unreadable, name, "no document could be read")
			continue
		}
		p.Log.Debug(logging.MsgStudentBuilt, "student", name, "pages", doc.PageCount, "files", len(m.Submission.Files))
		docs = append(docs, doc)
	}

	opt := pdfdoc.OptionsFrom(p.Config)
	combined, err := pdfdoc.Combine(docs, opt)
	if err != nil {
		return nil, err
	}
	for _, w := range combined.Warnings {
		p.Log.Warn(logging.MsgWatermarkFailed, "error", w)
	}

	backup, err := BackupExisting(opts.OutputDir, p.Now())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	res := &CombineResult{
		CombinedPath: filepath.Join(opts.OutputDir, CombinedFile),
		IndexPath:    filepath.Join(opts.OutputDir, IndexFile),
		BackupPath:   backup,
		Index:        combined.Index,
	}
	if err := os.WriteFile(res.CombinedPath, combined.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write combined document: %w", err)
	}
	if err := writeIndex(res.IndexPath, combined.Index); err != nil {
		return nil, err
	}
	if opts.StudentPDFs {
		if err := writeStudents(filepath.Join(opts.OutputDir, StudentsDir), docs, opt); err != nil {
			return nil, err
		}
	}
	p.Log.Log(logging.MsgCombinedWritten, "file", res.CombinedPath, "students", len(combined.Index))
	return res, nil
}

func writeIndex(path string, index []pdfdoc.Entry) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Student", "First Page", "Pages"})
	for _, e := range index {
		w.Write([]string{e.Name, strconv.Itoa(e.FirstPage), strconv.Itoa(e.Pages)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func writeStudents(dir string, docs []*pdfdoc.StudentDocument, opt pdfdoc.Options) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create student folder: %w", err)
	}
	for _, d := range docs {
		var buf bytes.Buffer
		if err := pdfdoc.WriteStudent(d, &buf, opt); err != nil {
			return err
		}
		path := filepath.Join(dir, d.Name+".pdf")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gardar/gradeflow/pkg/grade"
	"github.com/gardar/gradeflow/pkg/gradebook"
	"github.com/gardar/gradeflow/pkg/report"
)

// GradeOptions locates the inputs of the grade stage.
type GradeOptions struct {
	CombinedPath string
	RosterPath   string
	Assignment   string
	// SubmissionsDir, when set, tells submitted from missing students and
	// is required for completion-only grading.
	SubmissionsDir string
	// OutputDir receives the first-pages review PDF; empty skips it.
	OutputDir string
}

// GradeResult reports what the grade stage did.
type GradeResult struct {
	Column      string
	Records     []grade.Record
	Assignments []gradebook.Assignment
}

var errCompletionNeedsSubmissions = errors.New("completion-only grading needs the submissions folder")

// Grade reads grades from the combined PDF and writes them into the roster.
func (p *Pipeline) Grade(ctx context.Context, opts GradeOptions) (*GradeResult, error) {
	res, err := p.grade(ctx, opts)
	return res, asUserError(err)
}

func (p *Pipeline) grade(ctx context.Context, opts GradeOptions) (*GradeResult, error) {
	cfg := p.Config
	if opts.Assignment == "" {
		return nil, &UserError{Msg: "An assignment name is required for the grade column."}
	}
	ros, err := p.loadRoster(opts.RosterPath)
	if err != nil {
		return nil, err
	}

	var in gradebook.Inputs
	if opts.SubmissionsDir != "" {
		c, err := p.collect(opts.SubmissionsDir, ros)
		if err != nil {
			return nil, err
		}
		p.reportMissing(ros, c)
		in.Matches = c.Matches
		in.Unreadable = c.Unreadable.Students()
	} else if cfg.Gradebook.CompletionOnly {
		return nil, &UserError{Msg: "Completion-only grading needs the submissions folder.", Err: errCompletionNeedsSubmissions}
	}

	res := &GradeResult{}
	if !cfg.Gradebook.CompletionOnly {
		records, err := p.extract(ctx, opts, ros.Names())
		if err != nil {
			return nil, err
		}
		res.Records = records
		in.Records = records
	}

	rows, unplaced := gradebook.NewAssigner(cfg).Assign(ros, in)
	for _, rec := range unplaced {
		p.Report.Addf(report.NameMatching, rec.StudentName, "grade %q on page %d matches no roster student", rec.Grade, rec.Page)
	}
	p.reportAssignments(rows)
	res.Assignments = rows

	column, err := gradebook.NewWriter(cfg.Gradebook, p.Log).Write(opts.RosterPath, ros, opts.Assignment, rows)
	if err != nil {
		return nil, err
	}
	res.Column = column
	return res, nil
}

func (p *Pipeline) extract(ctx context.Context, opts GradeOptions, names []string) ([]grade.Record, error) {
	pdf, err := os.ReadFile(opts.CombinedPath)
	if err != nil {
		return nil, fmt.Errorf("read combined document: %w", err)
	}
	engine, release := p.engine(ctx)
	defer release()

	ex := grade.NewExtractor(engine, names, p.Config, p.Log)
	if opts.OutputDir != "" {
		var buf bytes.Buffer
		if err := ex.WriteFirstPages(pdf, &buf); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output folder: %w", err)
		}
		if err := os.WriteFile(filepath.Join(opts.OutputDir, FirstPagesFile), buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("write first pages: %w", err)
		}
	}
	return ex.Extract(ctx, pdf)
}

func (p *Pipeline) reportAssignments(rows []gradebook.Assignment) {
	threshold := p.Config.Matching.VerifyConfidence
	for _, a := range rows {
		name := a.Student.FullName()
		if a.Fuzzy {
			p.Report.Add(report.NameMatching, name, "matched by similarity, please verify")
		}
		rec := a.Record
		if rec == nil || p.Config.Gradebook.CompletionOnly {
			continue
		}
		switch {
		case !rec.Found():
			p.Report.Addf(report.NoGrade, name, "page %d, default %q written", rec.Page, a.Value)
		case rec.Confidence < threshold:
			p.Report.Addf(report.LowConfidence, name, "page %d read %q at %.2f", rec.Page, rec.Grade, rec.Confidence)
		}
	}
}

package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/gardar/gradeflow/pkg/report"
	"github.com/gardar/gradeflow/pkg/roster"
	"github.com/gardar/gradeflow/pkg/split"
	"github.com/gardar/gradeflow/pkg/submission"
)

// SplitOptions locates the inputs of the split stage.
type SplitOptions struct {
	CombinedPath   string
	SubmissionsDir string
	// RosterPath is optional; without it pages are grouped by watermark
	// name alone.
	RosterPath string
	DryRun     bool
}

// Split writes each student's pages of the graded PDF back into their
// submission folder.
func (p *Pipeline) Split(ctx context.Context, opts SplitOptions) (*split.Result, error) {
	res, err := p.split(ctx, opts)
	return res, asUserError(err)
}

func (p *Pipeline) split(ctx context.Context, opts SplitOptions) (*split.Result, error) {
	pdf, err := os.ReadFile(opts.CombinedPath)
	if err != nil {
		return nil, fmt.Errorf("read combined document: %w", err)
	}
	var ros *roster.Roster
	if opts.RosterPath != "" {
		if ros, err = p.loadRoster(opts.RosterPath); err != nil {
			return nil, err
		}
	}

	scanned, err := submission.Scan(opts.SubmissionsDir)
	if err != nil {
		return nil, err
	}
	winners, _ := submission.Collect(scanned)
	folders := make([]submission.Folder, len(winners))
	for i, w := range winners {
		folders[i] = submission.Folder{Name: w.FolderName(), Path: w.FolderPath}
	}

	s := &split.Splitter{
		Roster:  ros,
		Folders: folders,
		Config:  p.Config,
		Log:     p.Log,
		DryRun:  opts.DryRun,
	}
	res, err := s.Split(ctx, pdf)
	if err != nil {
		return res, err
	}
	for _, g := range res.Groups {
		switch {
		case ros != nil && g.Student == nil:
			p.Report.Addf(report.NameMatching, g.Name, "pages %v match no roster student", g.Pages)
		case ros != nil && !g.Exact:
			p.Report.Addf(report.NameMatching, g.DisplayName(), "read as %q, please verify", g.Name)
		}
		if g.Folder == "" {
			p.Report.Addf(report.NoSubmission, g.DisplayName(), "no submission folder for pages %v", g.Pages)
		}
	}
	return res, nil
}

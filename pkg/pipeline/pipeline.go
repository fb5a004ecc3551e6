// Package pipeline runs the gradeflow stages in order: collect and match
// submissions, combine them into one review PDF, then either read grades
// back into the roster or split the graded PDF into per-student files.
package pipeline

import (
	"context"
	"time"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/gdocai"
	"github.com/gardar/gradeflow/pkg/logging"
	"github.com/gardar/gradeflow/pkg/ocr"
	"github.com/gardar/gradeflow/pkg/report"
	"github.com/gardar/gradeflow/pkg/roster"
	"github.com/gardar/gradeflow/pkg/submission"
)

// Pipeline holds the state shared by the stages of one run.
type Pipeline struct {
	Config config.Config
	Log    *logging.Logger
	Report *report.Report

	// OCR overrides the engine built from Config.
	OCR ocr.Engine
	// Now stamps backups.
	Now func() time.Time
}

// New returns a pipeline with an empty report.
func New(cfg config.Config, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	return &Pipeline{Config: cfg, Log: log, Report: &report.Report{}, Now: time.Now}
}

// collected is the outcome of scanning and matching a submissions folder.
type collected struct {
	Matches    []roster.MatchResult
	Unreadable submission.Plan
}

// collect scans dir, keeps the newest submission per student, sets aside
// the unreadable ones and matches the rest against ros.
func (p *Pipeline) collect(dir string, ros *roster.Roster) (*collected, error) {
	folders, err := submission.Scan(dir)
	if err != nil {
		return nil, err
	}
	subs, outcome := submission.Collect(folders)
	for _, f := range outcome.Skipped {
		p.Log.Debug(logging.MsgFolderSkipped, "folder", f.Name)
	}
	for _, s := range outcome.Superseded {
		p.Log.Log(logging.MsgSuperseded, "student", s.StudentNameRaw, "folder", s.FolderName())
	}
	for _, err := range submission.LoadFiles(subs) {
		p.Log.Warn(logging.MsgSourceFailed, "error", err)
	}
	p.Log.Log(logging.MsgSubmissionsFound, "folders", len(folders), "submissions", len(subs))

	readable, plan := submission.PlanQuarantine(subs, p.Config.Quarantine.Dir)
	for _, name := range plan.Students() {
		p.Report.Add(report.Unreadable, name, "no readable document in the submission")
	}

	matcher := roster.NewMatcher(ros, p.Config.Matching)
	matches, unmatched := matcher.MatchAll(readable)
	for _, s := range unmatched {
		p.Log.Warn(logging.MsgUnmatched, "student", s.StudentNameRaw)
		p.Report.Add(report.NameMatching, s.StudentNameRaw, "submission matches no roster student")
	}
	for _, m := range matches {
		p.Log.Debug(logging.MsgMatched, "student", m.Submission.StudentNameRaw,
			"row", m.Student.Row, "strategy", m.Strategy, "confidence", m.Confidence)
	}
	if err := matcher.CheckMatchRate(len(matches), len(readable)); err != nil {
		return nil, err
	}
	return &collected{Matches: matches, Unreadable: plan}, nil
}

// loadRoster reads the roster at path and applies the configured matching
// rules.
func (p *Pipeline) loadRoster(path string) (*roster.Roster, error) {
	ros, err := roster.Load(path)
	if err != nil {
		return nil, err
	}
	ros.Rules = roster.RulesFrom(p.Config.Matching)
	return ros, nil
}

// reportMissing records every roster student without a matched submission.
func (p *Pipeline) reportMissing(ros *roster.Roster, c *collected) {
	got := make(map[int]bool, len(c.Matches))
	for _, m := range c.Matches {
		got[m.Student.Row] = true
	}
	unreadable := make(map[int]bool)
	for _, name := range c.Unreadable.Students() {
		if st, _, ok := ros.Match(name); ok {
			unreadable[st.Row] = true
		}
	}
	for _, s := range ros.Students {
		if !got[s.Row] && !unreadable[s.Row] {
			p.Report.Add(report.NoSubmission, s.FullName(), "")
		}
	}
}

// engine returns the OCR engine for the run and a function releasing it.
// The external service is used when configured and reachable; the local
// engine is always the fallback.
func (p *Pipeline) engine(ctx context.Context) (ocr.Engine, func()) {
	if p.OCR != nil {
		return p.OCR, func() {}
	}
	cfg := p.Config
	chain := &ocr.Chain{
		Fallback: ocr.NewTesseract(cfg.OCR.Whitelist, cfg.OCR.Languages, cfg.OCR.LocalConfidence),
		Timeout:  cfg.OCR.Timeout,
		Log:      p.Log,
	}
	if !cfg.DocAI.Enabled() {
		return chain, func() {}
	}
	cli, err := gdocai.NewClient(ctx, cfg.DocAI)
	if err != nil {
		p.Log.Warn(logging.MsgOCRServiceFailed, "engine", "docai", "error", err)
		return chain, func() {}
	}
	chain.Primary = ocr.NewService("docai", cli)
	return chain, func() { cli.Close() }
}

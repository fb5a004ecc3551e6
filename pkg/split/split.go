// Package split cuts an annotated combined document back into one PDF per
// student and writes each into the student's submission folder.
package split

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/logging"
	"github.com/gardar/gradeflow/pkg/pdfdoc"
	"github.com/gardar/gradeflow/pkg/roster"
	"github.com/gardar/gradeflow/pkg/submission"
	"github.com/gardar/gradeflow/pkg/watermark"
)

// ErrWrongDocument is returned when not a single page carries a
// recognizable watermark.
var ErrWrongDocument = errors.New("no page of the document carries a student watermark")

// Group is a run of contiguous pages belonging to one student.
type Group struct {
	Name    string          // cleaned watermark name
	Student *roster.Student // nil when the name matched no roster row
	Exact   bool
	Pages   []int  // 1-based pages of the combined document
	Folder  string // submission folder, empty when none matched
	Written string // file written, empty when nothing was written
}

// DisplayName is the roster name when resolved, the watermark name otherwise.
func (g Group) DisplayName() string {
	if g.Student != nil {
		return g.Student.FullName()
	}
	return g.Name
}

// Result lists the recovered groups and the pages that carried no name.
type Result struct {
	Groups  []Group
	Skipped []int
}

// Splitter holds what a split run needs to place documents. Roster may be
// nil, in which case groups are keyed by watermark name alone.
type Splitter struct {
	Roster  *roster.Roster
	Folders []submission.Folder
	Config  config.Config
	Log     *logging.Logger
	// DryRun skips writing files.
	DryRun bool
}

// Split groups the pages of pdf by student and writes each group into its
// submission folder.
func (s *Splitter) Split(ctx context.Context, pdf []byte) (*Result, error) {
	log := s.Log
	if log == nil {
		log = logging.Discard()
	}
	pages, err := pdfdoc.ReadText(pdf)
	if err != nil {
		return nil, fmt.Errorf("read text layer: %w", err)
	}

	res := &Result{}
	lastKey := ""
	for _, p := range pages {
		name, ok := PageName(p.Text, s.Config.Matching.DuplicateSimilarity)
		if !ok {
			log.Log(logging.MsgSplitPageSkipped, "page", p.Page)
			res.Skipped = append(res.Skipped, p.Page)
			continue
		}
		g := Group{Name: name}
		if s.Roster != nil {
			g.Student, g.Exact, _ = s.Roster.Resolve(name, s.Config.Matching.NameSimilarity)
		}
		key := identity(g)
		if n := len(res.Groups); n > 0 && key == lastKey {
			res.Groups[n-1].Pages = append(res.Groups[n-1].Pages, p.Page)
			continue
		}
		g.Pages = []int{p.Page}
		res.Groups = append(res.Groups, g)
		lastKey = key
	}
	if len(res.Groups) == 0 {
		return nil, ErrWrongDocument
	}

	for i := range res.Groups {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.place(pdf, &res.Groups[i], log); err != nil {
			return res, err
		}
	}
	return res, nil
}

// place finds the group's folder and writes its pages there.
func (s *Splitter) place(pdf []byte, g *Group, log *logging.Logger) error {
	folder, ok := BestFolder(g.DisplayName(), s.Folders, s.Config.Matching)
	if !ok {
		log.Warn(logging.MsgSplitFolderMissing, "student", g.DisplayName(), "pages", len(g.Pages))
		return nil
	}
	g.Folder = folder.Path

	target, err := TargetFile(folder)
	if err != nil {
		return err
	}
	if s.DryRun {
		return nil
	}
	data, err := pdfdoc.ExtractPages(pdf, g.Pages)
	if err != nil {
		return fmt.Errorf("extract pages of %s: %w", g.DisplayName(), err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	g.Written = target
	log.Log(logging.MsgSplitWritten, "student", g.DisplayName(), "pages", len(g.Pages), "file", target)
	return nil
}

func identity(g Group) string {
	if g.Student != nil {
		return "row:" + strconv.Itoa(g.Student.Row)
	}
	return "name:" + roster.Normalize(g.Name)
}

// PageName recovers the cleaned student name from a page's text layer. The
// watermark is searched anywhere in the text first, then line by line.
func PageName(text string, dupThreshold float64) (string, bool) {
	m, ok := watermark.Find(text)
	if !ok {
		m, _, ok = watermark.FindLine(text)
	}
	if !ok {
		return "", false
	}
	name := watermark.CleanName(m.Name, dupThreshold)
	if len(roster.Words(name)) == 0 {
		return "", false
	}
	return name, true
}

// BestFolder returns the submission folder whose embedded student name is
// most similar to name. A folder qualifies at FolderSimilarity, or at
// FolderRelaxed when first and last names agree.
func BestFolder(name string, folders []submission.Folder, cfg config.MatchingConfig) (submission.Folder, bool) {
	rules := roster.RulesFrom(cfg)
	best, bestScore := -1, 0.0
	for i, f := range folders {
		student, _, ok := submission.ParseFolderName(f.Name)
		if !ok {
			continue
		}
		score := rules.Similarity(name, student)
		qualifies := score >= cfg.FolderSimilarity ||
			(score >= cfg.FolderRelaxed && roster.FirstLastMatch(name, student))
		if qualifies && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return submission.Folder{}, false
	}
	return folders[best], true
}

// TargetFile picks the file a student's pages are written to: the folder's
// only PDF when it holds exactly one, otherwise "<folder name>.pdf".
func TargetFile(folder submission.Folder) (string, error) {
	files, err := submission.DocumentFiles(folder.Path)
	if err != nil {
		return "", err
	}
	var pdfs []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".pdf") {
			pdfs = append(pdfs, f)
		}
	}
	if len(pdfs) == 1 {
		return pdfs[0], nil
	}
	return filepath.Join(folder.Path, folder.Name+".pdf"), nil
}

package grade

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/logging"
	"github.com/gardar/gradeflow/pkg/ocr"
	"github.com/gardar/gradeflow/pkg/pdfdoc"
	"github.com/gardar/gradeflow/pkg/roster"
	"github.com/gardar/gradeflow/pkg/watermark"
)

// ErrNoFirstPages is returned when a document carries no "(1 of N)"
// watermark, which means it is not a combined document.
var ErrNoFirstPages = errors.New("no watermarked first pages found")

// Extractor reads one grade per student from a combined document.
type Extractor struct {
	OCR ocr.Engine
	// Names are the roster names used to recover unreadable watermarks.
	Names  []string
	Config config.Config
	Log    *logging.Logger

	rules watermark.Rules
}

// NewExtractor returns an extractor using engine for recognition.
func NewExtractor(engine ocr.Engine, names []string, cfg config.Config, log *logging.Logger) *Extractor {
	if log == nil {
		log = logging.Discard()
	}
	return &Extractor{
		OCR:    engine,
		Names:  names,
		Config: cfg,
		Log:    log,
		rules:  watermark.RulesFrom(cfg.Matching),
	}
}

// FirstPage is a page watermarked "(1 of N)" and the line carrying the mark.
type FirstPage struct {
	Page int
	Mark watermark.Mark
	Line string
}

// FirstPages returns the pages watermarked "(1 of N)" in page order.
func FirstPages(pages []pdfdoc.PageText) []FirstPage {
	var firsts []FirstPage
	for _, p := range pages {
		if m, line, ok := watermark.FindFirstLine(p.Text); ok {
			firsts = append(firsts, FirstPage{Page: p.Page, Mark: m, Line: line})
		}
	}
	return firsts
}

// Extract returns a record for every page watermarked "(1 of N)". OCR
// failures never fail the call; they yield NoGradeFound.
func (e *Extractor) Extract(ctx context.Context, pdf []byte) ([]Record, error) {
	pages, err := pdfdoc.ReadText(pdf)
	if err != nil {
		return nil, fmt.Errorf("read text layer: %w", err)
	}
	firsts := FirstPages(pages)
	if len(firsts) == 0 {
		return nil, ErrNoFirstPages
	}

	raster, err := pdfdoc.OpenRaster(pdf)
	if err != nil {
		return nil, err
	}
	defer raster.Close()

	var records []Record
	for _, fp := range firsts {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		n := fp.Page
		rec := Record{Page: n}
		rec.StudentName, rec.Fuzzy = e.studentName(fp.Line, n)
		e.readGrade(ctx, raster, &rec)
		e.Log.Log(logging.MsgGradeExtracted,
			"page", n, "student", rec.StudentName, "grade", rec.Grade,
			"confidence", rec.Confidence, "engine", rec.Engine)
		records = append(records, rec)
	}
	return records, nil
}

// studentName turns a watermark line into a display name.
func (e *Extractor) studentName(line string, page int) (string, bool) {
	if name, ok := e.rules.CandidateName(line); ok {
		return name, false
	}
	if idx, score, ok := roster.BestMatch(line, e.Names, e.Config.Matching.NameSimilarity); ok {
		e.Log.Log(logging.MsgNameFallback, "page", page, "line", line, "name", e.Names[idx], "score", score)
		return e.Names[idx], true
	}
	e.Log.Warn(logging.MsgNameFallback, "page", page, "line", line, "name", "unknown")
	return fmt.Sprintf("Unknown Student (Page %d)", page), true
}

func (e *Extractor) readGrade(ctx context.Context, raster *pdfdoc.Raster, rec *Record) {
	rec.Grade = NoGradeFound
	in, err := e.prepare(raster, rec.Page)
	if err != nil {
		e.Log.Warn(logging.MsgOCRLocalFailed, "page", rec.Page, "error", err)
		return
	}
	if e.OCR == nil {
		return
	}
	res, err := e.OCR.Recognize(ctx, in)
	if err != nil {
		e.Log.Warn(logging.MsgOCRLocalFailed, "page", rec.Page, "engine", e.OCR.Name(), "error", err)
		return
	}
	rec.Engine = res.Engine
	rec.RawOCRText = res.Text
	rec.Confidence = res.Confidence
	rec.Grade = ExtractGradeFromText(res.Text)
}

// prepare renders the page and cuts out the grade region as OCR input.
func (e *Extractor) prepare(raster *pdfdoc.Raster, page int) (ocr.Input, error) {
	cfg := e.Config
	img, err := raster.Page(page, cfg.OCR.DPI)
	if err != nil {
		return ocr.Input{}, err
	}
	ink, _ := IsolateInk(Crop(img, cfg.Region), cfg.Ink)
	scaled := Upscale(ink, cfg.OCR.UpscaleFactor)

	dpi := int(cfg.OCR.DPI)
	if cfg.OCR.UpscaleFactor > 1 {
		dpi *= cfg.OCR.UpscaleFactor
	}
	return ocr.PNGInput(scaled, dpi)
}

// WriteFirstPages writes the first page of every student to w as a review
// index.
func (e *Extractor) WriteFirstPages(pdf []byte, w io.Writer) error {
	pages, err := pdfdoc.ReadText(pdf)
	if err != nil {
		return fmt.Errorf("read text layer: %w", err)
	}
	firsts := FirstPages(pages)
	if len(firsts) == 0 {
		return ErrNoFirstPages
	}
	nums := make([]int, len(firsts))
	for i, fp := range firsts {
		nums[i] = fp.Page
	}
	out, err := pdfdoc.ExtractPages(pdf, nums)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

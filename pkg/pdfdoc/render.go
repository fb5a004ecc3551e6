package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"codeberg.org/go-pdf/fpdf/contrib/tiff"
	"golang.org/x/text/encoding/charmap"
)

// documentDate is stamped on every output in place of the current time.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// renderer writes pages from any number of sources into one fpdf document.
type renderer struct {
	pdf  *fpdf.Fpdf
	imp  *gofpdi.Importer
	opts Options

	// gofpdi keys imported sources by stream pointer, so each source keeps
	// one stream for the life of the document.
	streams map[*Source]*io.ReadSeeker
	images  map[*Source]string
}

func newRenderer(opts Options) *renderer {
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetProducer("gradeflow", false)
	return &renderer{
		pdf:     pdf,
		imp:     gofpdi.NewImporter(),
		opts:    opts,
		streams: make(map[*Source]*io.ReadSeeker),
		images:  make(map[*Source]string),
	}
}

// addFitted adds a page of the target size with ps scaled into it.
func (r *renderer) addFitted(ps PageSource) error {
	dst := r.opts.Size()
	r.pdf.AddPageFormat("P", fpdf.SizeType{Wd: dst.Width, Ht: dst.Height})
	return r.draw(ps, FitRect(ps.Size, dst))
}

// addNative adds a page the size of ps.
func (r *renderer) addNative(ps PageSource) error {
	r.pdf.AddPageFormat("P", fpdf.SizeType{Wd: ps.Size.Width, Ht: ps.Size.Height})
	return r.draw(ps, Rect{W: ps.Size.Width, H: ps.Size.Height})
}

func (r *renderer) draw(ps PageSource, at Rect) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s page %d: %v", ps.Source.Name, ps.Page, p)
		}
	}()

	switch ps.Source.Kind {
	case SourcePDF:
		rs, ok := r.streams[ps.Source]
		if !ok {
			s := io.ReadSeeker(bytes.NewReader(ps.Source.Data))
			rs = &s
			r.streams[ps.Source] = rs
		}
		tpl := r.imp.ImportPageFromStream(r.pdf, rs, ps.Page, "/MediaBox")
		r.imp.UseImportedTemplate(r.pdf, tpl, at.X, at.Y, at.W, at.H)
	default:
		name, ok := r.images[ps.Source]
		if !ok {
			name = fmt.Sprintf("img%d", len(r.images))
			registerImage(r.pdf, name, ps.Source)
			r.images[ps.Source] = name
		}
		opts := fpdf.ImageOptions{ImageType: imageOptionType(ps.Source)}
		r.pdf.ImageOptions(name, at.X, at.Y, at.W, at.H, false, opts, 0, "")
	}
	if !r.pdf.Ok() {
		return fmt.Errorf("%s page %d: %w", ps.Source.Name, ps.Page, r.pdf.Error())
	}
	return nil
}

// registerImage adds an image source to pdf under name.
func registerImage(pdf *fpdf.Fpdf, name string, src *Source) {
	opts := fpdf.ImageOptions{ImageType: src.imageType}
	if src.imageType == "tiff" {
		tiff.RegisterReader(pdf, name, opts, bytes.NewReader(src.Data))
		return
	}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(src.Data))
}

// imageOptionType is the type to place a registered image with. TIFF images
// are registered as PNG.
func imageOptionType(src *Source) string {
	if src.imageType == "tiff" {
		return "PNG"
	}
	return src.imageType
}

// watermark draws text in the top-left corner of the current page over a
// white box. Text that does not encode to Latin-1 is not drawn.
func (r *renderer) watermark(text string) error {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		return fmt.Errorf("encode watermark %q: %w", text, err)
	}

	font := r.opts.Font
	r.pdf.SetFont(font.Name, font.Style, font.Size)
	width := r.pdf.GetStringWidth(encoded)

	r.pdf.SetFillColor(255, 255, 255)
	r.pdf.Rect(r.opts.MarginX-2, r.opts.MarginY-font.Size, width+4, font.Size+3, "F")
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.Text(r.opts.MarginX, r.opts.MarginY, encoded)

	if !r.pdf.Ok() {
		return r.pdf.Error()
	}
	return nil
}

func (r *renderer) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

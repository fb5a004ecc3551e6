package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SourceKind tells PDF sources from image sources.
type SourceKind int

const (
	SourceImage SourceKind = iota
	SourcePDF
)

// Size is a page size in points.
type Size struct {
	Width  float64
	Height float64
}

// Source is one readable document file held in memory.
type Source struct {
	Name string
	Kind SourceKind
	Data []byte

	// imageType is the fpdf image type for image sources.
	imageType string
	sizes     []Size
}

// PageSource is one page of a Source. Page is 1-based.
type PageSource struct {
	Source *Source
	Page   int
	Size   Size
}

// Pages lists every page of the source in order.
func (s *Source) Pages() []PageSource {
	pages := make([]PageSource, len(s.sizes))
	for i, sz := range s.sizes {
		pages[i] = PageSource{Source: s, Page: i + 1, Size: sz}
	}
	return pages
}

// PageCount returns the number of pages in the source.
func (s *Source) PageCount() int { return len(s.sizes) }

// LoadSource reads a PDF or image file. The file is probed fully, so a
// Source that loads without error can be rendered.
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(name, data)
	}
	return NewImageSource(name, data)
}

// NewPDFSource probes data as a PDF document.
func NewPDFSource(name string, data []byte) (*Source, error) {
	sizes, err := probePDF(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Source{Name: name, Kind: SourcePDF, Data: data, sizes: sizes}, nil
}

// NewImageSource probes data as a single-page image. Formats fpdf cannot
// embed directly, such as BMP, WebP or 16-bit PNG, are converted to PNG.
func NewImageSource(name string, data []byte) (*Source, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decode image config: %w", name, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%s: empty image", name)
	}

	src := &Source{
		Name:  name,
		Kind:  SourceImage,
		Data:  data,
		sizes: []Size{{Width: float64(cfg.Width), Height: float64(cfg.Height)}},
	}
	switch format {
	case "jpeg":
		src.imageType = "JPG"
	case "gif":
		src.imageType = "GIF"
	case "png":
		src.imageType = "PNG"
	case "tiff":
		src.imageType = "tiff"
	}
	if src.imageType != "" && probeImage(src) == nil {
		return src, nil
	}

	converted, err := toPNG(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	src.Data = converted
	src.imageType = "PNG"
	if err := probeImage(src); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return src, nil
}

// toPNG re-encodes any decodable image as an 8-bit NRGBA PNG.
func toPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// probeImage registers the image in a throwaway document.
func probeImage(src *Source) error {
	pdf := fpdf.New("P", "pt", "", "")
	registerImage(pdf, "probe", src)
	if !pdf.Ok() {
		return pdf.Error()
	}
	return nil
}

var errNoPages = errors.New("document has no pages")

// probePDF imports every page of data into a throwaway document and returns
// the media box sizes.
func probePDF(data []byte) (sizes []Size, err error) {
	defer func() {
		if r := recover(); r != nil {
			sizes, err = nil, fmt.Errorf("unreadable pdf: %v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))

	imp.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")
	if !pdf.Ok() {
		return nil, pdf.Error()
	}
	boxes := imp.GetPageSizes()
	if len(boxes) == 0 {
		return nil, errNoPages
	}
	sizes = make([]Size, len(boxes))
	for i := range sizes {
		box := boxes[i+1]["/MediaBox"]
		if box["w"] <= 0 || box["h"] <= 0 {
			return nil, fmt.Errorf("page %d has no media box", i+1)
		}
		sizes[i] = Size{Width: box["w"], Height: box["h"]}
		if i > 0 {
			imp.ImportPageFromStream(pdf, &rs, i+1, "/MediaBox")
		}
	}
	if !pdf.Ok() {
		return nil, pdf.Error()
	}
	return sizes, nil
}

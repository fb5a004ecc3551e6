package pdfdoc

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Raster renders pages of one PDF through MuPDF. Close releases it.
type Raster struct {
	doc *fitz.Document
}

// OpenRaster parses pdf for rendering.
func OpenRaster(pdf []byte) (*Raster, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rendering: %w", err)
	}
	return &Raster{doc: doc}, nil
}

// NumPage returns the page count.
func (r *Raster) NumPage() int { return r.doc.NumPage() }

// Page renders the 1-based page at dpi.
func (r *Raster) Page(page int, dpi float64) (image.Image, error) {
	if page < 1 || page > r.doc.NumPage() {
		return nil, fmt.Errorf("render: page %d out of range 1-%d", page, r.doc.NumPage())
	}
	img, err := r.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return img, nil
}

func (r *Raster) Close() error { return r.doc.Close() }

// Rasterize renders a single 1-based page of pdf at dpi.
func Rasterize(pdf []byte, page int, dpi float64) (image.Image, error) {
	r, err := OpenRaster(pdf)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Page(page, dpi)
}

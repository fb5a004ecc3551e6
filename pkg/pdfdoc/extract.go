package pdfdoc

import "fmt"

// PageCount returns the number of pages in a PDF.
func PageCount(pdf []byte) (int, error) {
	sizes, err := probePDF(pdf)
	if err != nil {
		return 0, err
	}
	return len(sizes), nil
}

// ExtractPages copies the given 1-based pages of pdf, in the given order,
// into a new document at their original size.
func ExtractPages(pdf []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("extract: no pages requested")
	}
	src, err := NewPDFSource("input", pdf)
	if err != nil {
		return nil, err
	}
	all := src.Pages()

	r := newRenderer(DefaultOptions())
	for _, p := range pages {
		if p < 1 || p > len(all) {
			return nil, fmt.Errorf("extract: page %d out of range 1-%d", p, len(all))
		}
		if err := r.addNative(all[p-1]); err != nil {
			return nil, err
		}
	}
	return r.bytes()
}

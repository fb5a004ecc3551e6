package pdfdoc

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// PageText is the embedded text of one page. Page is 1-based.
type PageText struct {
	Page  int
	Text  string
	Lines []string
}

// ReadText returns the embedded text layer of every page. Pages are read
// from their content streams; a page yielding nothing there is read again
// through MuPDF, which also descends into imported page templates.
func ReadText(data []byte) ([]PageText, error) {
	n, reader := openTextReader(data)

	var (
		doc   *fitz.Document
		tried bool
	)
	mupdf := func() *fitz.Document {
		if !tried {
			tried = true
			doc, _ = fitz.NewFromMemory(data)
		}
		return doc
	}
	defer func() {
		if doc != nil {
			doc.Close()
		}
	}()

	if reader == nil {
		if mupdf() == nil {
			return nil, fmt.Errorf("read text: unreadable pdf")
		}
		n = doc.NumPage()
	}

	pages := make([]PageText, n)
	for i := range pages {
		var lines []string
		if reader != nil {
			lines = contentLines(reader, i+1)
		}
		if len(lines) == 0 && mupdf() != nil {
			lines = fitzLines(doc, i)
		}
		pages[i] = PageText{Page: i + 1, Text: strings.Join(lines, "\n"), Lines: lines}
	}
	return pages, nil
}

func openTextReader(data []byte) (n int, r *pdf.Reader) {
	defer func() {
		if recover() != nil {
			n, r = 0, nil
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, nil
	}
	return r.NumPage(), r
}

// contentLines groups the glyphs of a page into lines, top to bottom.
func contentLines(r *pdf.Reader, page int) (lines []string) {
	defer func() {
		if recover() != nil {
			lines = nil
		}
	}()

	p := r.Page(page)
	if p.V.IsNull() {
		return nil
	}
	glyphs := p.Content().Text

	rows := make(map[float64][]pdf.Text)
	var keys []float64
	for _, g := range glyphs {
		if g.S == "\n" || g.S == "\r" {
			continue
		}
		y := math.Round(g.Y)
		if _, ok := rows[y]; !ok {
			keys = append(keys, y)
		}
		rows[y] = append(rows[y], g)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(keys)))

	for _, y := range keys {
		row := rows[y]
		// Glyphs of one show operator share X when the font carries no
		// widths, so the sort must keep stream order.
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var b strings.Builder
		for i, g := range row {
			if i > 0 {
				prev := row[i-1]
				gap := g.X - (prev.X + prev.W)
				if gap > 0.3*g.FontSize && g.S != " " && prev.S != " " {
					b.WriteByte(' ')
				}
			}
			b.WriteString(g.S)
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func fitzLines(doc *fitz.Document, index int) []string {
	text, err := doc.Text(index)
	if err != nil {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

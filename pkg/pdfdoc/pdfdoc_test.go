package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/gradeflow/pkg/watermark"
)

// samplePDF builds a document with one line of text on each page.
func samplePDF(t *testing.T, pages int, w, h float64) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		pdf.Text(72, 100, fmt.Sprintf("essay page %d", i))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build sample pdf: %v", err)
	}
	return buf.Bytes()
}

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFitRect(t *testing.T) {
	letter := Size{Width: 612, Height: 792}
	tests := []struct {
		name string
		src  Size
		want Rect
	}{
		{"same size", letter, Rect{0, 0, 612, 792}},
		{"a4 portrait", Size{595, 842}, Rect{X: (612 - 595*792.0/842) / 2, Y: 0, W: 595 * 792.0 / 842, H: 792}},
		{"landscape photo", Size{4000, 3000}, Rect{X: 0, Y: 166.5, W: 612, H: 459}},
		{"tiny image", Size{100, 100}, Rect{X: 0, Y: 90, W: 612, H: 612}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitRect(tt.src, letter)
			for _, d := range []float64{got.X - tt.want.X, got.Y - tt.want.Y, got.W - tt.want.W, got.H - tt.want.H} {
				if math.Abs(d) > 1e-6 {
					t.Fatalf("FitRect(%v) = %+v, want %+v", tt.src, got, tt.want)
				}
			}
			if got.X < 0 || got.Y < 0 || got.X+got.W > letter.Width+1e-9 || got.Y+got.H > letter.Height+1e-9 {
				t.Fatalf("FitRect(%v) = %+v crops the page", tt.src, got)
			}
		})
	}
}

func TestBuildStudentSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.pdf", samplePDF(t, 2, 595, 842)),
		writeFile(t, dir, "b.png", samplePNG(t, 40, 30)),
		writeFile(t, dir, "c.pdf", []byte("not a pdf")),
	}
	doc, errs := BuildStudent("John Smith", "Smith", files)
	if len(errs) != 1 {
		t.Fatalf("expected one soft error, got %v", errs)
	}
	if doc.PageCount != 3 || len(doc.Pages) != 3 {
		t.Fatalf("page count = %d, want 3", doc.PageCount)
	}
	if doc.Pages[0].Size.Width != 595 || doc.Pages[2].Size.Width != 40 {
		t.Fatalf("unexpected page sizes: %+v", doc.Pages)
	}
}

func TestCombineWatermarksAndOrders(t *testing.T) {
	dir := t.TempDir()
	smith, errs := BuildStudent("John Smith", "Smith", []string{writeFile(t, dir, "s.pdf", samplePDF(t, 2, 612, 792))})
	if len(errs) > 0 {
		t.Fatalf("BuildStudent() errors = %v", errs)
	}
	adams, errs := BuildStudent("Mary Adams", "Adams", []string{writeFile(t, dir, "a.png", samplePNG(t, 64, 48))})
	if len(errs) > 0 {
		t.Fatalf("BuildStudent() errors = %v", errs)
	}
	empty := &StudentDocument{Name: "No Pages", LastName: "Aaron"}

	combined, err := Combine([]*StudentDocument{smith, empty, adams}, DefaultOptions())
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	wantIndex := []Entry{{"Mary Adams", 1, 1}, {"John Smith", 2, 2}}
	if len(combined.Index) != len(wantIndex) {
		t.Fatalf("index = %+v", combined.Index)
	}
	for i, e := range wantIndex {
		if combined.Index[i] != e {
			t.Fatalf("index[%d] = %+v, want %+v", i, combined.Index[i], e)
		}
	}

	pages, err := ReadText(combined.Data)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	want := []watermark.Mark{{"Mary Adams", 1, 1}, {"John Smith", 1, 2}, {"John Smith", 2, 2}}
	if len(pages) != len(want) {
		t.Fatalf("combined has %d pages, want %d", len(pages), len(want))
	}
	for i, p := range pages {
		m, ok := watermark.Find(p.Text)
		if !ok || m != want[i] {
			t.Fatalf("page %d watermark = %+v (%v) in %q, want %+v", i+1, m, ok, p.Text, want[i])
		}
	}

	// Reversed input gives the same page order.
	again, err := Combine([]*StudentDocument{adams, smith}, DefaultOptions())
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	pagesAgain, err := ReadText(again.Data)
	if err != nil {
		t.Fatalf("ReadText() error = %v", err)
	}
	for i := range pages {
		if pages[i].Text != pagesAgain[i].Text {
			t.Fatalf("page %d differs between runs: %q vs %q", i+1, pages[i].Text, pagesAgain[i].Text)
		}
	}
}

func TestCombineImagesIsByteStable(t *testing.T) {
	dir := t.TempDir()
	doc, _ := BuildStudent("Ana Cruz", "Cruz", []string{writeFile(t, dir, "c.png", samplePNG(t, 50, 70))})
	a, err := Combine([]*StudentDocument{doc}, DefaultOptions())
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	b, err := Combine([]*StudentDocument{doc}, DefaultOptions())
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Fatalf("combining the same images twice gave different bytes")
	}
}

func TestCombineWatermarkFailureIsSoft(t *testing.T) {
	dir := t.TempDir()
	doc, _ := BuildStudent("Łukasz Nowak", "Nowak", []string{writeFile(t, dir, "n.png", samplePNG(t, 20, 20))})
	combined, err := Combine([]*StudentDocument{doc}, DefaultOptions())
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	if len(combined.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one", combined.Warnings)
	}
	if n, err := PageCount(combined.Data); err != nil || n != 1 {
		t.Fatalf("PageCount() = %d, %v; want 1 page kept", n, err)
	}
}

func TestCombineNoDocuments(t *testing.T) {
	_, err := Combine([]*StudentDocument{{Name: "Empty"}}, DefaultOptions())
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("Combine() error = %v, want ErrNoDocuments", err)
	}
}

func TestExtractPagesKeepsOriginalSize(t *testing.T) {
	src := samplePDF(t, 3, 595, 842)
	out, err := ExtractPages(src, []int{3, 1})
	if err != nil {
		t.Fatalf("ExtractPages() error = %v", err)
	}
	s, err := NewPDFSource("out", out)
	if err != nil {
		t.Fatalf("reload extracted pdf: %v", err)
	}
	if s.PageCount() != 2 {
		t.Fatalf("extracted %d pages, want 2", s.PageCount())
	}
	for _, p := range s.Pages() {
		if math.Abs(p.Size.Width-595) > 0.01 || math.Abs(p.Size.Height-842) > 0.01 {
			t.Fatalf("page %d size = %+v, want 595x842", p.Page, p.Size)
		}
	}
	if _, err := ExtractPages(src, []int{4}); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestWriteStudent(t *testing.T) {
	dir := t.TempDir()
	doc, _ := BuildStudent("John Smith", "Smith", []string{writeFile(t, dir, "s.png", samplePNG(t, 30, 60))})
	var buf bytes.Buffer
	if err := WriteStudent(doc, &buf, DefaultOptions()); err != nil {
		t.Fatalf("WriteStudent() error = %v", err)
	}
	s, err := NewPDFSource("student", buf.Bytes())
	if err != nil {
		t.Fatalf("reload student pdf: %v", err)
	}
	if p := s.Pages()[0]; p.Size != (Size{612, 792}) {
		t.Fatalf("page size = %+v, want letter", p.Size)
	}
}

func TestImageSourceConvertsBMP(t *testing.T) {
	// 2x1 24-bit BMP.
	bmp := []byte{
		'B', 'M', 62, 0, 0, 0, 0, 0, 0, 0, 54, 0, 0, 0,
		40, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 1, 0, 24, 0, 0, 0, 0, 0, 8, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 255, 255, 255, 255, 0, 0,
	}
	src, err := NewImageSource("scan.bmp", bmp)
	if err != nil {
		t.Fatalf("NewImageSource() error = %v", err)
	}
	if src.imageType != "PNG" || src.PageCount() != 1 {
		t.Fatalf("unexpected source %+v", src)
	}
}

package hocr

// HOCR is a recognized document.
type HOCR struct {
	System string // value of the ocr-system meta tag
	Pages  []Page
}

// Page corresponds to an element with class 'ocr_page'. Areas and
// paragraphs are flattened away; lines keep document order.
type Page struct {
	ID    string
	BBox  BoundingBox
	Lines []Line
}

// Line corresponds to an element with class 'ocr_line' (or Tesseract's
// 'ocrx_line', 'ocr_caption', 'ocr_textfloat', 'ocr_header').
type Line struct {
	ID    string
	BBox  BoundingBox
	Words []Word
}

// Word corresponds to an element with class 'ocrx_word'.
type Word struct {
	ID         string
	Text       string
	BBox       BoundingBox
	Confidence float64 // x_wconf, 0-100
}

// BoundingBox is an hOCR 'bbox' property: top-left and bottom-right corners.
type BoundingBox struct {
	X1, Y1, X2, Y2 float64
}

// Width of the box.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height of the box.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

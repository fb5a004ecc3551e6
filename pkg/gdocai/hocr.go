package gdocai

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/gradeflow/pkg/hocr"
)

// ToHOCR converts a Document AI response into the hocr model. Tokens are
// grouped under the line whose text anchor contains them; token confidences
// (0-1) become word confidences (0-100).
func ToHOCR(doc *documentaipb.Document) (*hocr.HOCR, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	result := &hocr.HOCR{System: "Document AI OCR"}
	for pidx, page := range doc.Pages {
		pageNum := int(page.PageNumber)
		if pageNum == 0 {
			pageNum = pidx + 1
		}
		ocrPage := hocr.Page{
			ID:   fmt.Sprintf("page_%d", pageNum),
			BBox: boundingBox(page.Layout, page.Dimension),
		}
		if page.Dimension != nil && ocrPage.BBox == (hocr.BoundingBox{}) {
			ocrPage.BBox = hocr.BoundingBox{X2: float64(page.Dimension.Width), Y2: float64(page.Dimension.Height)}
		}

		assigned := make(map[int]bool)
		for lidx, line := range page.Lines {
			ocrLine := hocr.Line{
				ID:   fmt.Sprintf("line_%d_%d", pageNum, lidx),
				BBox: boundingBox(line.Layout, page.Dimension),
			}
			for tidx, token := range page.Tokens {
				if assigned[tidx] || !isElementInParent(token.Layout, line.Layout) {
					continue
				}
				assigned[tidx] = true
				ocrLine.Words = append(ocrLine.Words, convertToken(token, page, doc.Text, pageNum, tidx))
			}
			ocrPage.Lines = append(ocrPage.Lines, ocrLine)
		}

		// Tokens outside every line still count.
		var loose hocr.Line
		for tidx, token := range page.Tokens {
			if !assigned[tidx] {
				loose.Words = append(loose.Words, convertToken(token, page, doc.Text, pageNum, tidx))
			}
		}
		if len(loose.Words) > 0 {
			loose.ID = fmt.Sprintf("line_%d_loose", pageNum)
			ocrPage.Lines = append(ocrPage.Lines, loose)
		}
		result.Pages = append(result.Pages, ocrPage)
	}

	// A response without page structure still carries its text.
	if len(result.Pages) == 0 && strings.TrimSpace(doc.Text) != "" {
		result.Pages = []hocr.Page{{ID: "page_1", Lines: []hocr.Line{{
			ID:    "line_1_0",
			Words: []hocr.Word{{ID: "word_1_0", Text: strings.TrimSpace(doc.Text)}},
		}}}}
	}
	return result, nil
}

func convertToken(token *documentaipb.Document_Page_Token, page *documentaipb.Document_Page, fullText string, pageNum, tidx int) hocr.Word {
	text := strings.TrimSpace(textFromLayout(token.Layout, fullText))
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	w := hocr.Word{
		ID:   fmt.Sprintf("word_%d_%d", pageNum, tidx),
		Text: text,
		BBox: boundingBox(token.Layout, page.Dimension),
	}
	if token.Layout != nil {
		w.Confidence = float64(token.Layout.Confidence) * 100
	}
	return w
}

// boundingBox scales normalized vertices (0-1) to page pixels.
func boundingBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) hocr.BoundingBox {
	if layout == nil || layout.BoundingPoly == nil || dim == nil || len(layout.BoundingPoly.NormalizedVertices) < 4 {
		return hocr.BoundingBox{}
	}
	v := layout.BoundingPoly.NormalizedVertices
	w, h := float64(dim.Width), float64(dim.Height)
	return hocr.BoundingBox{
		X1: float64(int(float64(v[0].X)*w + 0.5)),
		Y1: float64(int(float64(v[0].Y)*h + 0.5)),
		X2: float64(int(float64(v[2].X)*w + 0.5)),
		Y2: float64(int(float64(v[2].Y)*h + 0.5)),
	}
}

// isElementInParent compares the first text segment of both layouts.
func isElementInParent(element, parent *documentaipb.Document_Page_Layout) bool {
	if element == nil || parent == nil ||
		element.TextAnchor == nil || parent.TextAnchor == nil ||
		len(element.TextAnchor.TextSegments) == 0 || len(parent.TextAnchor.TextSegments) == 0 {
		return false
	}
	e := element.TextAnchor.TextSegments[0]
	p := parent.TextAnchor.TextSegments[0]
	return e.StartIndex >= p.StartIndex && e.EndIndex <= p.EndIndex
}

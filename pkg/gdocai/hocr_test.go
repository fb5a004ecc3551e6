package gdocai

import (
	"math"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

func layout(start, end int64, conf float32, x1, y1, x2, y2 float32) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
		},
		Confidence: conf,
		BoundingPoly: &documentaipb.BoundingPoly{
			NormalizedVertices: []*documentaipb.NormalizedVertex{
				{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
			},
		},
	}
}

func TestToHOCRGroupsTokensByLine(t *testing.T) {
	// "85/100\nnice\n"
	doc := &documentaipb.Document{
		Text: "85/100\nnice\n",
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			Dimension:  &documentaipb.Document_Page_Dimension{Width: 400, Height: 200},
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: layout(0, 7, 0.9, 0, 0, 0.5, 0.5)},
				{Layout: layout(7, 12, 0.6, 0, 0.5, 0.5, 1)},
			},
			Tokens: []*documentaipb.Document_Page_Token{
				{Layout: layout(0, 7, 0.9, 0, 0, 0.5, 0.5)},
				{Layout: layout(7, 12, 0.5, 0, 0.5, 0.5, 1)},
			},
		}},
	}

	h, err := ToHOCR(doc)
	if err != nil {
		t.Fatalf("ToHOCR() error = %v", err)
	}
	if got := h.Text(); got != "85/100\nnice" {
		t.Fatalf("Text() = %q", got)
	}
	first := h.Pages[0].Lines[0].Words[0]
	if first.BBox.X2 != 200 || first.BBox.Y2 != 100 {
		t.Fatalf("bbox not scaled to page pixels: %+v", first.BBox)
	}
	conf, ok := h.MeanConfidence()
	if !ok || math.Abs(conf-0.7) > 1e-6 {
		t.Fatalf("MeanConfidence() = %.4f, %v; want 0.7", conf, ok)
	}
}

func TestToHOCRTextOnlyResponse(t *testing.T) {
	h, err := ToHOCR(&documentaipb.Document{Text: " 92 \n"})
	if err != nil {
		t.Fatalf("ToHOCR() error = %v", err)
	}
	if h.Text() != "92" {
		t.Fatalf("Text() = %q", h.Text())
	}
	if _, ok := h.MeanConfidence(); ok {
		t.Fatalf("text-only response has no confidence")
	}
	if _, err := ToHOCR(nil); err == nil {
		t.Fatalf("nil document should fail")
	}
}

func TestTextFromLayoutClampsSegments(t *testing.T) {
	if got := textFromLayout(layout(2, 99, 0, 0, 0, 1, 1), "héllo"); got != "llo" {
		t.Fatalf("textFromLayout() = %q", got)
	}
	if got := textFromLayout(nil, "x"); got != "" {
		t.Fatalf("nil layout = %q", got)
	}
}

func TestToJSON(t *testing.T) {
	s, err := ToJSON(&documentaipb.Document{Text: "85"})
	if err != nil || !strings.Contains(s, `"text"`) {
		t.Fatalf("ToJSON(proto) = %q, %v", s, err)
	}
	s, err = ToJSON(map[string]int{"pages": 2})
	if err != nil || !strings.Contains(s, `"pages": 2`) {
		t.Fatalf("ToJSON(map) = %q, %v", s, err)
	}
}

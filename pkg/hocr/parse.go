package hocr

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

var (
	charsetRe = regexp.MustCompile(`(?i)charset=["']?([A-Za-z0-9_\-]+)`)

	lineClasses = []string{"ocr_line", "ocrx_line", "ocr_caption", "ocr_textfloat", "ocr_header"}
)

// ParseHOCR converts raw hOCR markup into an HOCR value. Latin-1 documents
// are decoded to UTF-8 first.
func ParseHOCR(data []byte) (*HOCR, error) {
	if m := charsetRe.FindSubmatch(data); m != nil {
		enc := strings.ToLower(string(m[1]))
		if enc == "iso-8859-1" || enc == "latin1" || enc == "windows-1252" {
			decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
			}
			data = decoded
		}
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}

	result := &HOCR{}
	var walk func(*html.Node, *Page, *Line)
	walk = func(n *html.Node, page *Page, line *Line) {
		if n.Type == html.ElementNode {
			class := attr(n, "class")
			switch {
			case n.Data == "meta" && attr(n, "name") == "ocr-system":
				result.System = attr(n, "content")
			case hasClass(class, "ocr_page"):
				result.Pages = append(result.Pages, Page{
					ID:   attr(n, "id"),
					BBox: ParseBoundingBoxFromTitle(attr(n, "title")),
				})
				page = &result.Pages[len(result.Pages)-1]
				line = nil
			case page != nil && isLine(class):
				page.Lines = append(page.Lines, Line{
					ID:   attr(n, "id"),
					BBox: ParseBoundingBoxFromTitle(attr(n, "title")),
				})
				line = &page.Lines[len(page.Lines)-1]
			case page != nil && hasClass(class, "ocrx_word"):
				if line == nil {
					// A word outside any line gets a line of its own.
					page.Lines = append(page.Lines, Line{})
					line = &page.Lines[len(page.Lines)-1]
				}
				line.Words = append(line.Words, parseWord(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, page, line)
		}
	}
	walk(doc, nil, nil)

	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return result, nil
}

func parseWord(n *html.Node) Word {
	title := attr(n, "title")
	w := Word{
		ID:   attr(n, "id"),
		Text: strings.TrimSpace(textContent(n)),
		BBox: ParseBoundingBoxFromTitle(title),
	}
	if conf, ok := ParseTitle(title)["x_wconf"]; ok && len(conf) > 0 {
		w.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}
	return w
}

// ParseTitle breaks an hOCR title attribute into its properties.
// "bbox 100 200 300 400; x_wconf 95" yields {"bbox": [...], "x_wconf": ["95"]}.
func ParseTitle(title string) map[string][]string {
	props := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			props[items[0]] = items[1:]
		}
	}
	return props
}

// ParseBoundingBoxFromTitle returns the bbox property of a title attribute,
// or a zero box.
func ParseBoundingBoxFromTitle(title string) BoundingBox {
	v, ok := ParseTitle(title)["bbox"]
	if !ok || len(v) < 4 {
		return BoundingBox{}
	}
	var c [4]float64
	for i := range c {
		c[i], _ = strconv.ParseFloat(v[i], 64)
	}
	return BoundingBox{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}
}

func isLine(class string) bool {
	for _, lc := range lineClasses {
		if hasClass(class, lc) {
			return true
		}
	}
	return false
}

func hasClass(class, want string) bool {
	for _, c := range strings.Fields(class) {
		if c == want {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

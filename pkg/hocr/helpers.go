package hocr

import "strings"

// Text flattens the document: words joined by spaces, one line per hOCR line
// and a blank line between pages.
func (h *HOCR) Text() string {
	var pages []string
	for _, p := range h.Pages {
		var lines []string
		for _, l := range p.Lines {
			if s := l.Text(); s != "" {
				lines = append(lines, s)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n"))
}

// Text of one line.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Words returns every non-empty word in document order.
func (h *HOCR) Words() []Word {
	var words []Word
	for _, p := range h.Pages {
		for _, l := range p.Lines {
			for _, w := range l.Words {
				if w.Text != "" {
					words = append(words, w)
				}
			}
		}
	}
	return words
}

// MeanConfidence averages word confidences and scales the result to [0,1].
// ok is false when there are no words or no word carries a confidence.
func (h *HOCR) MeanConfidence() (conf float64, ok bool) {
	var sum float64
	n := 0
	for _, w := range h.Words() {
		if w.Confidence <= 0 {
			continue
		}
		sum += w.Confidence
		n++
	}
	if n == 0 {
		return 0, false
	}
	conf = sum / float64(n) / 100
	if conf > 1 {
		conf = 1
	}
	return conf, true
}

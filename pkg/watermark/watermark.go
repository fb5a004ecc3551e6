// Package watermark formats and recognizes the per-page provenance text
// "<Name> (<k> of <N>)" burned into combined documents.
package watermark

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/roster"
)

// Mark is a decoded watermark.
type Mark struct {
	Name  string
	Page  int
	Total int
}

// String renders the mark the way it is burned into a page.
func (m Mark) String() string { return Format(m.Name, m.Page, m.Total) }

// First reports whether the mark labels the first page of a student.
func (m Mark) First() bool { return m.Page == 1 }

var (
	lineRe   = regexp.MustCompile(`^\s*(.*?\S)\s*\((\d+)\s+of\s+(\d+)\)\s*$`)
	anyRe    = regexp.MustCompile(`([^\n()]*?\S)\s*\((\d+)\s+of\s+(\d+)\)`)
	parenRe  = regexp.MustCompile(`\([^)]*\)`)
	scanRe   = regexp.MustCompile(`(?i)^\s*(?:scanned\s+with\s+\S+|camscanner|adobe\s+scan|genius\s+scan)[\s:\-|]*`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// Format renders "<name> (<k> of <n>)".
func Format(name string, k, n int) string {
	return fmt.Sprintf("%s (%d of %d)", name, k, n)
}

// Parse decodes a single line that consists of a watermark.
func Parse(line string) (Mark, bool) {
	return decode(lineRe.FindStringSubmatch(line))
}

// Find looks for a watermark anywhere in text, ignoring line structure.
func Find(text string) (Mark, bool) {
	return decode(anyRe.FindStringSubmatch(text))
}

func decode(m []string) (Mark, bool) {
	if m == nil {
		return Mark{}, false
	}
	page, err1 := strconv.Atoi(m[2])
	total, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || page < 1 || total < page {
		return Mark{}, false
	}
	return Mark{Name: strings.TrimSpace(m[1]), Page: page, Total: total}, true
}

// FindLine returns the first line of text that parses as a watermark,
// together with the line itself.
func FindLine(text string) (Mark, string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if m, ok := Parse(line); ok {
			return m, line, true
		}
	}
	return Mark{}, "", false
}

// FindFirstLine returns the "(1 of N)" watermark on a page together with the
// line it was read from. Later-page marks on the same page are skipped. When
// no single line holds the mark, the whole text is searched and the line is
// rebuilt from the mark.
func FindFirstLine(text string) (Mark, string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if m, ok := Parse(line); ok && m.First() {
			return m, line, true
		}
	}
	for _, sub := range anyRe.FindAllStringSubmatch(text, -1) {
		if m, ok := decode(sub); ok && m.First() {
			return m, m.String(), true
		}
	}
	return Mark{}, "", false
}

// FindFirstPage reports the "(1 of N)" watermark on a page, if any.
func FindFirstPage(text string) (Mark, bool) {
	m, _, ok := FindFirstLine(text)
	return m, ok
}

// denylist holds words that show up in instructional boilerplate but never in
// a student name.
var denylist = map[string]bool{
	"submit":       true,
	"points":       true,
	"please":       true,
	"assignment":   true,
	"homework":     true,
	"name":         true,
	"date":         true,
	"total":        true,
	"score":        true,
	"page":         true,
	"due":          true,
	"question":     true,
	"instructions": true,
	"grade":        true,
	"class":        true,
}

// Rules bound what a plausible student name looks like.
type Rules struct {
	MinTokens   int
	MaxTokens   int
	MaxChars    int
	ShortLength int
}

// DefaultRules mirrors config.DefaultConfig.
var DefaultRules = RulesFrom(config.DefaultConfig().Matching)

// RulesFrom extracts candidate-name rules from the matching config.
func RulesFrom(cfg config.MatchingConfig) Rules {
	return Rules{
		MinTokens:   cfg.CandidateMinTokens,
		MaxTokens:   cfg.CandidateMaxTokens,
		MaxChars:    cfg.CandidateMaxChars,
		ShortLength: cfg.CandidateShortLength,
	}
}

// CandidateName applies DefaultRules.
func CandidateName(line string) (string, bool) {
	return DefaultRules.CandidateName(line)
}

// CandidateName strips the parenthetical and every non-letter from a
// watermark line and returns what is left when it looks like a name. The
// whole line counts, so extra words sharing the line with the watermark push
// longer names past MaxTokens.
func (r Rules) CandidateName(line string) (string, bool) {
	s := parenRe.ReplaceAllString(line, " ")
	s = strings.Map(func(c rune) rune {
		if unicode.IsLetter(c) || c == '-' || c == '\'' {
			return c
		}
		return ' '
	}, s)
	name := strings.Join(strings.Fields(s), " ")
	if name == "" || len(name) > r.MaxChars {
		return "", false
	}

	tokens := strings.Fields(name)
	if len(tokens) < r.MinTokens || len(tokens) > r.MaxTokens {
		return "", false
	}
	short := 0
	for _, tok := range tokens {
		if denylist[strings.ToLower(strings.Trim(tok, "-'"))] {
			return "", false
		}
		if len([]rune(tok)) <= r.ShortLength {
			short++
		}
	}
	if short*2 > len(tokens) {
		return "", false
	}
	return name, true
}

// CleanName undoes the usual damage to a recovered watermark name: scanner
// app banners in front of it, the "(k of N)" suffix and a name repeated
// twice. Halves are collapsed when their similarity reaches dupThreshold.
func CleanName(raw string, dupThreshold float64) string {
	s := raw
	for {
		stripped := scanRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = parenRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))

	tokens := strings.Fields(s)
	if n := len(tokens); n >= 2 && n%2 == 0 {
		first := strings.Join(tokens[:n/2], " ")
		second := strings.Join(tokens[n/2:], " ")
		if roster.Similarity(first, second) >= dupThreshold {
			return first
		}
	}
	return s
}

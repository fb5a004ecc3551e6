package roster

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/submission"
)

// Strategy identifies one step of the name-matching cascade.
type Strategy int

const (
	// FirstRest: first token is the first name, the rest is the last name.
	FirstRest Strategy = iota + 1
	// LeadingLast: all but the last token are the first name (3+ tokens).
	LeadingLast
	// Compound: first token is the first name and the remaining tokens form a
	// space- or hyphen-joined compound surname.
	Compound
	// WordOverlap: most shared words, at least MinSharedWords.
	WordOverlap
)

func (s Strategy) String() string {
	switch s {
	case FirstRest:
		return "first-rest"
	case LeadingLast:
		return "leading-last"
	case Compound:
		return "compound"
	case WordOverlap:
		return "word-overlap"
	default:
		return "none"
	}
}

// MinSharedWords is how many words the WordOverlap strategy needs in common
// by default.
const MinSharedWords = 2

// FirstLastBoost is the default similarity assigned to names whose first and
// last tokens agree while middle tokens differ.
const FirstLastBoost = 0.95

// Rules are the tunable parts of name matching.
type Rules struct {
	MinSharedWords int
	FirstLastBoost float64
}

// DefaultRules mirrors config.DefaultConfig.
var DefaultRules = Rules{MinSharedWords: MinSharedWords, FirstLastBoost: FirstLastBoost}

// RulesFrom reads the matching rules from cfg. Unset values keep the defaults.
func RulesFrom(cfg config.MatchingConfig) Rules {
	r := DefaultRules
	if cfg.MinSharedWords > 0 {
		r.MinSharedWords = cfg.MinSharedWords
	}
	if cfg.FirstLastSimilarity > 0 {
		r.FirstLastBoost = cfg.FirstLastSimilarity
	}
	return r
}

type strategyFunc func(r Rules, parts []string, students []Student) (int, bool)

// cascade is tried in order; the first strategy producing exactly one row wins.
var cascade = []struct {
	kind Strategy
	fn   strategyFunc
}{
	{FirstRest, matchFirstRest},
	{LeadingLast, matchLeadingLast},
	{Compound, matchCompound},
	{WordOverlap, matchWordOverlap},
}

// Normalize lower-cases a name and collapses runs of whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Match resolves a raw submission name with DefaultRules.
func Match(name string, students []Student) (int, Strategy, bool) {
	return DefaultRules.Match(name, students)
}

// Match resolves a raw submission name against the roster. Names with fewer
// than two tokens never match.
func (r Rules) Match(name string, students []Student) (int, Strategy, bool) {
	parts := strings.Fields(Normalize(name))
	if len(parts) < 2 {
		return -1, 0, false
	}
	for _, step := range cascade {
		if idx, ok := step.fn(r, parts, students); ok {
			return idx, step.kind, true
		}
	}
	return -1, 0, false
}

// unique returns the only index satisfying pred.
func unique(students []Student, pred func(first, last string) bool) (int, bool) {
	found := -1
	for i, s := range students {
		if pred(Normalize(s.FirstName), Normalize(s.LastName)) {
			if found >= 0 {
				return -1, false
			}
			found = i
		}
	}
	return found, found >= 0
}

func matchFirstRest(_ Rules, parts []string, students []Student) (int, bool) {
	first, last := parts[0], strings.Join(parts[1:], " ")
	return unique(students, func(f, l string) bool { return f == first && l == last })
}

func matchLeadingLast(_ Rules, parts []string, students []Student) (int, bool) {
	if len(parts) < 3 {
		return -1, false
	}
	first, last := strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	return unique(students, func(f, l string) bool { return f == first && l == last })
}

func matchCompound(_ Rules, parts []string, students []Student) (int, bool) {
	first := parts[0]
	spaced := strings.Join(parts[1:], " ")
	hyphenated := strings.Join(parts[1:], "-")
	return unique(students, func(f, l string) bool {
		return f == first && (l == spaced || l == hyphenated)
	})
}

func matchWordOverlap(r Rules, parts []string, students []Student) (int, bool) {
	submitted := wordSet(strings.Join(parts, " "))
	best, bestShared := -1, 0
	for i, s := range students {
		shared := countShared(submitted, wordSet(s.FirstName+" "+s.LastName))
		if shared >= r.MinSharedWords && shared > bestShared {
			best, bestShared = i, shared
		}
	}
	return best, best >= 0
}

// Words splits a name into lower-case letter-only tokens; hyphens and other
// punctuation separate words.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range Words(s) {
		set[w] = true
	}
	return set
}

func countShared(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

// FirstLastMatch reports whether both names have at least two words and agree
// on their first and last words, ignoring anything in between.
func FirstLastMatch(a, b string) bool {
	wa, wb := Words(a), Words(b)
	if len(wa) < 2 || len(wb) < 2 {
		return false
	}
	return wa[0] == wb[0] && wa[len(wa)-1] == wb[len(wb)-1]
}

// Similarity compares two names with DefaultRules.
func Similarity(a, b string) float64 { return DefaultRules.Similarity(a, b) }

// Similarity is the word-overlap ratio of two names: shared distinct words over
// the larger distinct word count, raised to FirstLastBoost when first and last
// words agree. It is symmetric.
func (r Rules) Similarity(a, b string) float64 {
	sa, sb := wordSet(a), wordSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	denom := len(sa)
	if len(sb) > denom {
		denom = len(sb)
	}
	ratio := float64(countShared(sa, sb)) / float64(denom)
	if ratio < r.FirstLastBoost && FirstLastMatch(a, b) {
		return r.FirstLastBoost
	}
	return ratio
}

// BestMatch applies DefaultRules.
func BestMatch(name string, candidates []string, threshold float64) (int, float64, bool) {
	return DefaultRules.BestMatch(name, candidates, threshold)
}

// BestMatch returns the candidate most similar to name when that similarity
// reaches threshold. Ties go to the lower index.
func (r Rules) BestMatch(name string, candidates []string, threshold float64) (int, float64, bool) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		score := r.Similarity(name, c)
		if score >= threshold && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore, best >= 0
}

// MatchResult ties a submission to the roster row it resolved to.
type MatchResult struct {
	Submission submission.Submission
	Student    *Student
	Strategy   Strategy
	Confidence float64
}

// Exact reports whether the match came from one of the exact strategies.
func (m MatchResult) Exact() bool { return m.Strategy != WordOverlap }

// Matcher pairs submissions with roster rows and sanity-checks the outcome.
type Matcher struct {
	Roster       *Roster
	Rules        Rules
	MinRate      float64
	MaxUnmatched int
}

// NewMatcher returns a matcher using the rules and match-rate thresholds of
// cfg.
func NewMatcher(r *Roster, cfg config.MatchingConfig) *Matcher {
	return &Matcher{Roster: r, Rules: RulesFrom(cfg), MinRate: cfg.MinMatchRate, MaxUnmatched: cfg.MaxUnmatched}
}

// MatchAll resolves every submission. Each roster row accepts one submission;
// later submissions resolving to a taken row are returned as unmatched.
func (m *Matcher) MatchAll(subs []submission.Submission) ([]MatchResult, []submission.Submission) {
	var matched []MatchResult
	var unmatched []submission.Submission
	taken := make(map[int]bool)
	students := m.Roster.Students

	for _, sub := range subs {
		idx, strategy, ok := m.Rules.Match(sub.StudentNameRaw, students)
		if !ok || taken[idx] {
			unmatched = append(unmatched, sub)
			continue
		}
		taken[idx] = true
		st := &students[idx]
		confidence := 1.0
		if strategy == WordOverlap {
			confidence = m.Rules.Similarity(sub.StudentNameRaw, st.FullName())
		}
		matched = append(matched, MatchResult{
			Submission: sub,
			Student:    st,
			Strategy:   strategy,
			Confidence: confidence,
		})
	}
	return matched, unmatched
}

// ErrWrongClass signals that the inputs almost certainly belong to a different
// class or assignment than the roster.
var ErrWrongClass = errors.New("wrong file or class selected")

// CheckMatchRate fails with ErrWrongClass when nothing matched, or when the
// match rate is below MinRate while more than MaxUnmatched submissions are
// unmatched.
func (m *Matcher) CheckMatchRate(matched, total int) error {
	if total == 0 {
		return nil
	}
	if matched == 0 {
		return fmt.Errorf("%w: none of %d submissions matched the roster", ErrWrongClass, total)
	}
	unmatched := total - matched
	rate := float64(matched) / float64(total)
	if rate < m.MinRate && unmatched > m.MaxUnmatched {
		return fmt.Errorf("%w: only %d of %d submissions matched the roster", ErrWrongClass, matched, total)
	}
	return nil
}

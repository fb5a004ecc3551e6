package roster

import (
	"errors"
	"strings"
	"testing"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/submission"
)

const sampleRoster = "\ufeffOrgDefinedId,#Username,Last Name,First Name,Email,End-of-Line Indicator\n" +
	"#1001,#jsmith,Smith,John,jsmith@example.edu,#\n" +
	"#1002,#jgarcia,Garcia Lopez,Jose,jgarcia@example.edu,#\n" +
	"#1003,#mjones,Jones,Mary Ann,mjones@example.edu,#\n" +
	",,,,,\n" +
	"#1004,#acruz,Maria-Cruz,Ana,acruz@example.edu,#\n"

func loadSample(t *testing.T) *Roster {
	t.Helper()
	r, err := Parse(strings.NewReader(sampleRoster))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return r
}

func TestParseRoster(t *testing.T) {
	r := loadSample(t)
	if len(r.Students) != 4 {
		t.Fatalf("got %d students, want 4 (blank row skipped)", len(r.Students))
	}
	if r.Columns[ColumnID] != 0 || r.Columns[ColumnFirstName] != 3 || r.Marker != 5 {
		t.Fatalf("unexpected column layout: %v marker=%d", r.Columns, r.Marker)
	}
	if got := r.Students[0]; got.FullName() != "John Smith" || got.Username != "jsmith" {
		t.Fatalf("unexpected first student: %+v", got)
	}
	if r.Students[3].Row != 3 {
		t.Fatalf("row index = %d, want 3", r.Students[3].Row)
	}
}

func TestParseRejectsMissingColumns(t *testing.T) {
	cases := []string{
		"OrgDefinedId,Username,First Name,Last Name,End-of-Line Indicator\n",
		"OrgDefinedId,Username,First Name,Last Name,Email\n",
		"",
	}
	for _, data := range cases {
		if _, err := Parse(strings.NewReader(data)); !errors.Is(err, ErrMissingColumns) {
			t.Fatalf("Parse(%q) error = %v, want ErrMissingColumns", data, err)
		}
	}
}

func TestMatchCascade(t *testing.T) {
	r := loadSample(t)
	cases := []struct {
		name     string
		row      int
		strategy Strategy
	}{
		{"JOHN SMITH", 0, FirstRest},
		{"  john   smith ", 0, FirstRest},
		{"Mary Ann Jones", 2, LeadingLast},
		{"Ana Maria Cruz", 3, Compound},
		{"Jose Garcia", 1, WordOverlap},
	}
	for _, tc := range cases {
		idx, strategy, ok := Match(tc.name, r.Students)
		if !ok || idx != tc.row || strategy != tc.strategy {
			t.Fatalf("Match(%q) = %d, %v, %v; want %d, %v", tc.name, idx, strategy, ok, tc.row, tc.strategy)
		}
	}
	if _, _, ok := Match("Madonna", r.Students); ok {
		t.Fatalf("single-token names must not match")
	}
	if _, _, ok := Match("Pat Kim", r.Students); ok {
		t.Fatalf("unknown student matched")
	}
}

func TestMatchAllIsOneToOne(t *testing.T) {
	r := loadSample(t)
	m := &Matcher{Roster: r, Rules: DefaultRules, MinRate: 0.3, MaxUnmatched: 3}
	subs := []submission.Submission{
		{StudentNameRaw: "John Smith", FolderPath: "/a"},
		{StudentNameRaw: "john  smith", FolderPath: "/b"},
		{StudentNameRaw: "Jose Garcia", FolderPath: "/c"},
		{StudentNameRaw: "Nobody Here", FolderPath: "/d"},
	}
	matched, unmatched := m.MatchAll(subs)
	if len(matched) != 2 || len(unmatched) != 2 {
		t.Fatalf("matched=%d unmatched=%d, want 2 and 2", len(matched), len(unmatched))
	}
	if matched[0].Submission.FolderPath != "/a" || !matched[0].Exact() || matched[0].Confidence != 1 {
		t.Fatalf("first match should win exactly: %+v", matched[0])
	}
	jose := matched[1]
	if jose.Exact() || jose.Strategy != WordOverlap {
		t.Fatalf("word overlap should be a non-exact match: %+v", jose)
	}
	if jose.Confidence <= 0.6 || jose.Confidence >= 0.7 {
		t.Fatalf("overlap confidence = %.3f, want 2/3", jose.Confidence)
	}
}

func TestCheckMatchRate(t *testing.T) {
	m := &Matcher{MinRate: 0.3, MaxUnmatched: 3}
	cases := []struct {
		matched, total int
		wrong          bool
	}{
		{0, 0, false},
		{0, 5, true},
		{1, 10, true},
		{1, 4, false},
		{3, 10, false},
		{2, 10, true},
	}
	for _, tc := range cases {
		err := m.CheckMatchRate(tc.matched, tc.total)
		if errors.Is(err, ErrWrongClass) != tc.wrong {
			t.Fatalf("CheckMatchRate(%d, %d) = %v, want wrong class %v", tc.matched, tc.total, err, tc.wrong)
		}
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Ana Maria Lopez", "Ana Lopez"},
		{"John Smith", "Smith John"},
		{"Jose Garcia", "Jose Garcia Lopez"},
		{"Kim", "Kim Park"},
	}
	for _, p := range pairs {
		if a, b := Similarity(p[0], p[1]), Similarity(p[1], p[0]); a != b {
			t.Fatalf("Similarity not symmetric for %q/%q: %.3f vs %.3f", p[0], p[1], a, b)
		}
	}
	if got := Similarity("Ana Maria Lopez", "ana lopez"); got != FirstLastBoost {
		t.Fatalf("first/last boost = %.3f, want %.2f", got, FirstLastBoost)
	}
	if !FirstLastMatch("Ana Lopez", "Ana Maria Lopez") || !FirstLastMatch("Ana Maria Lopez", "Ana Lopez") {
		t.Fatalf("FirstLastMatch must be commutative")
	}
	if Similarity("", "John") != 0 {
		t.Fatalf("empty name should have zero similarity")
	}
}

func TestBestMatch(t *testing.T) {
	idx, score, ok := BestMatch("Ana Maria Lopez", []string{"Bob Stone", "Ana Lopez", "Ana Lopez"}, 0.5)
	if !ok || idx != 1 || score != FirstLastBoost {
		t.Fatalf("BestMatch = %d, %.2f, %v", idx, score, ok)
	}
	if _, _, ok := BestMatch("Zed", []string{"Bob Stone"}, 0.5); ok {
		t.Fatalf("no candidate should pass the threshold")
	}
}

func TestResolve(t *testing.T) {
	r := loadSample(t)
	cases := []struct {
		name  string
		row   int
		exact bool
		ok    bool
	}{
		{"john smith", 0, true, true},
		{"Mary Ann Jones", 2, true, true},
		{"Jose Garcia", 1, false, true},
		{"Jon Smith", 0, false, true},
		{"Zed", 0, false, false},
	}
	for _, tc := range cases {
		st, exact, ok := r.Resolve(tc.name, 0.5)
		if ok != tc.ok {
			t.Fatalf("Resolve(%q) ok = %v, want %v", tc.name, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if st.Row != tc.row || exact != tc.exact {
			t.Fatalf("Resolve(%q) = row %d exact %v, want row %d exact %v", tc.name, st.Row, exact, tc.row, tc.exact)
		}
	}
}

func TestRosterMatchHasNoSimilarityFallback(t *testing.T) {
	r := loadSample(t)
	if st, exact, ok := r.Match("Mary Ann Jones"); !ok || !exact || st.Row != 2 {
		t.Fatalf("Match(Mary Ann Jones) = %v, %v, %v", st, exact, ok)
	}
	if st, exact, ok := r.Match("Jose Garcia"); !ok || exact || st.Row != 1 {
		t.Fatalf("Match(Jose Garcia) = %v, %v, %v; want word overlap on row 1", st, exact, ok)
	}
	// Sharing only a first name reaches 0.5 similarity but no cascade
	// strategy.
	if _, _, ok := r.Match("John Doe"); ok {
		t.Fatalf("Match(John Doe) must not resolve to John Smith")
	}
	if _, _, ok := r.Resolve("John Doe", 0.5); !ok {
		t.Fatalf("Resolve(John Doe, 0.5) should still fall back to similarity")
	}
	if _, _, ok := r.Match("   "); ok {
		t.Fatalf("blank name matched")
	}
}

func TestRulesFromConfig(t *testing.T) {
	if got := RulesFrom(config.MatchingConfig{}); got != DefaultRules {
		t.Fatalf("RulesFrom(zero) = %+v, want defaults %+v", got, DefaultRules)
	}
	strict := RulesFrom(config.MatchingConfig{MinSharedWords: 3, FirstLastSimilarity: 0.8})
	if strict.MinSharedWords != 3 || strict.FirstLastBoost != 0.8 {
		t.Fatalf("RulesFrom = %+v", strict)
	}

	r := loadSample(t)
	if _, _, ok := strict.Match("Jose Garcia", r.Students); ok {
		t.Fatalf("two shared words must not satisfy min_shared_words 3")
	}
	if got := strict.Similarity("Ana Maria Lopez", "Ana Lopez"); got != 0.8 {
		t.Fatalf("first/last similarity = %.2f, want 0.8", got)
	}

	r.Rules = strict
	if _, _, ok := r.Match("Jose Garcia"); ok {
		t.Fatalf("Roster.Match ignored its rules")
	}
	m := NewMatcher(r, config.MatchingConfig{MinSharedWords: 3})
	matched, _ := m.MatchAll([]submission.Submission{{StudentNameRaw: "Jose Garcia", FolderPath: "/c"}})
	if len(matched) != 0 {
		t.Fatalf("NewMatcher ignored min_shared_words: %+v", matched)
	}
}

package watermark

import "testing"

func TestFormatParseRoundTrip(t *testing.T) {
	line := Format("Ana Maria Lopez", 2, 5)
	if line != "Ana Maria Lopez (2 of 5)" {
		t.Fatalf("Format() = %q", line)
	}
	m, ok := Parse(line)
	if !ok || m.Name != "Ana Maria Lopez" || m.Page != 2 || m.Total != 5 {
		t.Fatalf("Parse(%q) = %+v, %v", line, m, ok)
	}
	if m.String() != line {
		t.Fatalf("String() = %q, want %q", m.String(), line)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"John Smith",
		"John Smith (3 of 2)",
		"John Smith (0 of 2)",
		"(1 of 2)",
		"John Smith (1 of 2) see back",
	} {
		if m, ok := Parse(line); ok {
			t.Fatalf("Parse(%q) = %+v, want rejection", line, m)
		}
	}
}

func TestFindAnywhereAndFirstPage(t *testing.T) {
	text := "Quiz 4\nShow all work\nJohn Smith (1 of 3)\n7 + 5 = 12"
	m, line, ok := FindLine(text)
	if !ok || line != "John Smith (1 of 3)" || m.Name != "John Smith" {
		t.Fatalf("FindLine() = %+v, %q, %v", m, line, ok)
	}
	if _, ok := FindFirstPage(text); !ok {
		t.Fatalf("first page not detected")
	}
	if _, ok := FindFirstPage("John Smith (2 of 3)"); ok {
		t.Fatalf("page 2 reported as a first page")
	}

	// Annotation tools may glue the watermark to other text on one line.
	m, ok = Find("graded John Smith (2 of 3) nice work")
	if !ok || m.Page != 2 || m.Total != 3 {
		t.Fatalf("Find() = %+v, %v", m, ok)
	}
}

func TestFindFirstLineSkipsLaterPageMarks(t *testing.T) {
	// A quoted mark from another page sits above the page's own mark.
	text := "see John Smith (2 of 3)\nJohn Smith (2 of 3)\nAna Lopez (1 of 2)\nQ1"
	m, line, ok := FindFirstLine(text)
	if !ok || line != "Ana Lopez (1 of 2)" || m.Name != "Ana Lopez" || m.Total != 2 {
		t.Fatalf("FindFirstLine() = %+v, %q, %v", m, line, ok)
	}

	// Without a clean line the mark is found in running text and the line is
	// rebuilt from it.
	m, line, ok = FindFirstLine("graded Ana Lopez (2 of 2) ok\nkeep Ana Lopez (1 of 2) ok")
	if !ok || m.Page != 1 || line != m.String() {
		t.Fatalf("FindFirstLine() fallback = %+v, %q, %v", m, line, ok)
	}

	if _, _, ok := FindFirstLine("John Smith (2 of 3)\nJohn Smith (3 of 3)"); ok {
		t.Fatalf("later-page marks reported as a first page")
	}
}

func TestCandidateName(t *testing.T) {
	cases := []struct {
		line string
		want string
		ok   bool
	}{
		{"John Smith (1 of 2)", "John Smith", true},
		{"Ana Maria Lopez (1 of 1)", "Ana Maria Lopez", true},
		{"Mary-Kate O'Neil (1 of 3)", "Mary-Kate O'Neil", true},
		{"Madonna (1 of 1)", "", false},
		{"Please submit here (1 of 1)", "", false},
		{"Total Points (1 of 1)", "", false},
		{"Jo Li Wu Al (1 of 2)", "", false},
		{"Ab Cd Efgh (1 of 2)", "", false},
		{"Bartholomew Maximilian Featherstonehaugh Worthington (1 of 1)", "", false},
		// Extra words sharing the line push a three-part name past four tokens.
		{"Lab Report Ana Maria Lopez (1 of 2)", "", false},
		{"Lab Report John Smith (1 of 2)", "Lab Report John Smith", true},
		{"J0hn Sm1th (1 of 2)", "J hn Sm th", false},
	}
	for _, tc := range cases {
		got, ok := CandidateName(tc.line)
		if ok != tc.ok {
			t.Fatalf("CandidateName(%q) ok = %v, want %v (got %q)", tc.line, ok, tc.ok, got)
		}
		if ok && got != tc.want {
			t.Fatalf("CandidateName(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"John Smith", "John Smith"},
		{"John Smith (1 of 2)", "John Smith"},
		{"CamScanner John Smith", "John Smith"},
		{"Scanned with CamScanner John Smith", "John Smith"},
		{"Adobe Scan - Ana Lopez", "Ana Lopez"},
		{"John Smith John Smith", "John Smith"},
		{"John Smith (1 of 2) John Smith (1 of 2)", "John Smith"},
		{"Ana Maria Lopez Garcia", "Ana Maria Lopez Garcia"},
	}
	for _, tc := range cases {
		if got := CleanName(tc.raw, 0.9); got != tc.want {
			t.Fatalf("CleanName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

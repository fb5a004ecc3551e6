package submission

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseFolderName(t *testing.T) {
	cases := []struct {
		in      string
		student string
		want    time.Time
		hasTime bool
		ok      bool
	}{
		{"81234-5678 - John Smith - Jan 5, 2024 1205 PM", "John Smith", time.Date(2024, 1, 5, 12, 5, 0, 0, time.UTC), true, true},
		{"81234-5678 - Jane Doe - September 12, 2023 9:41 AM", "Jane Doe", time.Date(2023, 9, 12, 9, 41, 0, 0, time.UTC), true, true},
		{"81234-5678 - Ana Maria Lopez - Mar 3, 2024 905PM", "Ana Maria Lopez", time.Date(2024, 3, 3, 21, 5, 0, 0, time.UTC), true, true},
		{"81234-5678 - Bob Stone - sometime last week", "Bob Stone", time.Time{}, false, true},
		{"index.html", "", time.Time{}, false, false},
		{"only - one separator", "", time.Time{}, false, false},
	}
	for _, tc := range cases {
		student, ts, ok := ParseFolderName(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if student != tc.student {
			t.Fatalf("%q: student = %q, want %q", tc.in, student, tc.student)
		}
		if (ts != nil) != tc.hasTime {
			t.Fatalf("%q: timestamp presence = %v, want %v", tc.in, ts != nil, tc.hasTime)
		}
		if ts != nil && !ts.Equal(tc.want) {
			t.Fatalf("%q: timestamp = %v, want %v", tc.in, ts, tc.want)
		}
	}
}

func TestCollectKeepsNewestPerStudent(t *testing.T) {
	folders := []Folder{
		{Name: "1 - John Smith - Jan 5, 2024 1205 PM", Path: "/x/a"},
		{Name: "2 - Jane Doe - Jan 5, 2024 1000 AM", Path: "/x/b"},
		{Name: "3 - John Smith - Jan 6, 2024 0800 AM", Path: "/x/c"},
		{Name: "4 - Ann Lee - Jan 4, 2024 1100 AM", Path: "/x/d"},
		{Name: "5 - John Smith - Jan 5, 2024 1100 PM", Path: "/x/e"},
		{Name: "notes", Path: "/x/f"},
	}

	subs, outcome := Collect(folders)
	if len(subs) != 3 {
		t.Fatalf("got %d submissions, want 3", len(subs))
	}
	if subs[0].StudentNameRaw != "John Smith" || subs[0].FolderPath != "/x/c" {
		t.Fatalf("John Smith resolved to %+v, want folder /x/c", subs[0])
	}
	if subs[1].StudentNameRaw != "Jane Doe" || subs[2].StudentNameRaw != "Ann Lee" {
		t.Fatalf("first-seen order lost: %+v", subs)
	}
	if len(outcome.Superseded) != 2 {
		t.Fatalf("superseded = %d, want 2", len(outcome.Superseded))
	}
	if len(outcome.Skipped) != 1 || outcome.Skipped[0].Name != "notes" {
		t.Fatalf("unexpected skipped list: %+v", outcome.Skipped)
	}
}

func TestCollectTimestampPrecedence(t *testing.T) {
	// Untimestamped incumbent loses to a timestamped challenger.
	subs, _ := Collect([]Folder{
		{Name: "1 - Kim Park - unknown", Path: "/x/old"},
		{Name: "2 - Kim Park - Feb 1, 2024 100 PM", Path: "/x/new"},
	})
	if subs[0].FolderPath != "/x/new" {
		t.Fatalf("timestamped challenger should win, got %s", subs[0].FolderPath)
	}

	// Equal timestamps keep the first seen.
	subs, _ = Collect([]Folder{
		{Name: "1 - Kim Park - Feb 1, 2024 100 PM", Path: "/x/first"},
		{Name: "2 - Kim Park - Feb 1, 2024 1:00 PM", Path: "/x/second"},
		{Name: "3 - Kim Park - garbage", Path: "/x/third"},
	})
	if subs[0].FolderPath != "/x/first" {
		t.Fatalf("tie should keep the incumbent, got %s", subs[0].FolderPath)
	}
}

func TestCollectSelectsMaximumTimestamp(t *testing.T) {
	stamps := []string{"Mar 3, 2024 900 AM", "Mar 1, 2024 900 AM", "Mar 9, 2024 1159 PM", "Mar 9, 2024 1158 PM"}
	var folders []Folder
	for i, s := range stamps {
		folders = append(folders, Folder{Name: "x - Pat Kim - " + s, Path: string(rune('a' + i))})
	}
	subs, _ := Collect(folders)
	if len(subs) != 1 || subs[0].FolderPath != "c" {
		t.Fatalf("expected only the Mar 9 11:59 PM folder, got %+v", subs)
	}
}

func TestDocumentFilesAndQuarantinePlan(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "1 - Ann Lee - Jan 4, 2024 1100 AM")
	empty := filepath.Join(root, "2 - Bo Chan - Jan 4, 2024 1100 AM")
	for _, d := range []string{good, empty} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"b.pdf", "a.JPG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(good, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(empty, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	folders, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	subs, _ := Collect(folders)
	if errs := LoadFiles(subs); len(errs) != 0 {
		t.Fatalf("LoadFiles() errors = %v", errs)
	}
	if len(subs[0].Files) != 2 || filepath.Base(subs[0].Files[0]) != "a.JPG" {
		t.Fatalf("unexpected files: %v", subs[0].Files)
	}

	keep, plan := PlanQuarantine(subs, "_unreadable")
	if len(keep) != 1 || keep[0].StudentNameRaw != "Ann Lee" {
		t.Fatalf("unexpected readable set: %+v", keep)
	}
	if len(plan.Moves) != 1 || plan.Students()[0] != "Bo Chan" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if _, err := os.Stat(empty); err != nil {
		t.Fatalf("planning must not move anything: %v", err)
	}

	n, err := plan.Apply()
	if err != nil || n != 1 {
		t.Fatalf("Apply() = %d, %v", n, err)
	}
	if _, err := os.Stat(filepath.Join(root, "_unreadable", filepath.Base(empty))); err != nil {
		t.Fatalf("folder not quarantined: %v", err)
	}
}

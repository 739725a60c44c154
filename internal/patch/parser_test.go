package patch

import "testing"

func TestParseUnifiedDiffAddOneLine(t *testing.T) {
	text := "--- a/test.txt\n+++ b/test.txt\n@@ -1,3 +1,4 @@\n line one\n line two\n+new line\n line three\n"

	changes, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 file change, got %d", len(changes))
	}
	c := changes[0]
	if c.TargetPath() != "test.txt" {
		t.Fatalf("expected path test.txt, got %q", c.TargetPath())
	}
	if len(c.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(c.Hunks))
	}
	h := c.Hunks[0]
	if h.OldStart != 1 || h.OldCount != 3 || h.NewStart != 1 || h.NewCount != 4 {
		t.Fatalf("unexpected hunk header: %+v", h)
	}
	if h.LinesAdded() != 1 {
		t.Fatalf("expected 1 added line, got %d", h.LinesAdded())
	}
	if h.LinesRemoved() != 0 {
		t.Fatalf("expected 0 removed lines, got %d", h.LinesRemoved())
	}
}

func TestParseNewFilePatch(t *testing.T) {
	text := "--- /dev/null\n+++ b/new_file.txt\n@@ -0,0 +1,2 @@\n+line 1\n+line 2\n"

	changes, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 file change, got %d", len(changes))
	}
	c := changes[0]
	if !c.IsNew {
		t.Fatalf("expected IsNew=true")
	}
	if c.NewPath != "new_file.txt" {
		t.Fatalf("expected new_file.txt, got %q", c.NewPath)
	}
	want := []HunkLine{{Kind: Add, Text: "line 1"}, {Kind: Add, Text: "line 2"}}
	got := c.Hunks[0].Lines
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestDetectFormatGitDiffWinsOverUnified(t *testing.T) {
	text := "diff --git a/x b/x\n--- a/x\n+++ b/x\n"
	if DetectFormat(text) != FormatGitDiff {
		t.Fatalf("expected FormatGitDiff")
	}
}

func TestParseGitDiffRenameAndModeMetadata(t *testing.T) {
	text := "diff --git a/old.txt b/new.txt\n" +
		"similarity index 100%\n" +
		"rename from old.txt\n" +
		"rename to new.txt\n"

	changes, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	// A pure rename with no content hunks and no new/deleted/binary flag
	// carries no hunks to apply, so it is dropped — matching the parser's
	// "only keep file changes with hunks or new/deleted/binary" rule.
	if len(changes) != 0 {
		t.Fatalf("expected a hunk-less pure rename to be dropped, got %d changes", len(changes))
	}
}

func TestParseSearchReplace(t *testing.T) {
	text := "path/to/file.go\n<<<<<<< SEARCH\nold text\n=======\nnew text\n>>>>>>> REPLACE\n"
	changes, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	c := changes[0]
	if c.TargetPath() != "path/to/file.go" {
		t.Fatalf("unexpected path %q", c.TargetPath())
	}
	if len(c.Hunks) != 1 {
		t.Fatalf("expected single synthetic hunk")
	}
	h := c.Hunks[0]
	if h.LinesRemoved() != 1 || h.LinesAdded() != 1 {
		t.Fatalf("expected 1 removed + 1 added line, got %+v", h)
	}
}

func TestParseEmptyInputIsNoChanges(t *testing.T) {
	changes, err := Parse("   \n  ")
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes for blank input, got %d", len(changes))
	}
}

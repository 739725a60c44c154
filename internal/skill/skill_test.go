package skill

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSkill(t *testing.T, root, name, manifest, prompt string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skill.md"), []byte(prompt), 0o644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}
}

func TestScanLoadsValidSkill(t *testing.T) {
	project := t.TempDir()
	home := t.TempDir()
	writeSkill(t, filepath.Join(project, ".cortex", "skills"), "Code-Review",
		"name = \"code-review\"\ndescription = \"reviews diffs\"\nversion = \"1.0\"\ntags = [\"review\"]\n",
		"# Code Review\nReview the diff for bugs.\n")

	reg := NewRegistry(project, home)
	if err := reg.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	e, ok := reg.Get("code-review")
	if !ok {
		t.Fatalf("expected entry %q, got %+v", "code-review", reg.List())
	}
	if e.Manifest.Description != "reviews diffs" {
		t.Fatalf("unexpected manifest: %+v", e.Manifest)
	}
	if e.Prompt == "" {
		t.Fatalf("expected non-empty prompt")
	}
}

func TestScanRejectsMissingName(t *testing.T) {
	project := t.TempDir()
	writeSkill(t, filepath.Join(project, ".cortex", "skills"), "broken",
		"description = \"no name field\"\n", "body")

	reg := NewRegistry(project, t.TempDir())
	if err := reg.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, ok := reg.Get("broken"); ok {
		t.Fatalf("expected invalid skill to be rejected")
	}
	if len(reg.Rejected()) != 1 {
		t.Fatalf("expected one rejected entry, got %+v", reg.Rejected())
	}
}

func TestScanRejectsOversizedPrompt(t *testing.T) {
	project := t.TempDir()
	big := make([]byte, maxPromptBytes+1)
	writeSkill(t, filepath.Join(project, ".cortex", "skills"), "huge",
		"name = \"huge\"\n", string(big))

	reg := NewRegistry(project, t.TempDir())
	_ = reg.Scan()
	if _, ok := reg.Get("huge"); ok {
		t.Fatalf("expected oversized prompt to be rejected")
	}
}

func TestProjectLocalShadowsUserGlobal(t *testing.T) {
	project := t.TempDir()
	home := t.TempDir()
	writeSkill(t, filepath.Join(project, ".cortex", "skills"), "writer",
		"name = \"writer\"\ndescription = \"project version\"\n", "project prompt")
	writeSkill(t, filepath.Join(home, "skills"), "writer",
		"name = \"writer\"\ndescription = \"user version\"\n", "user prompt")

	reg := NewRegistry(project, home)
	_ = reg.Scan()

	e, ok := reg.Get("writer")
	if !ok {
		t.Fatalf("expected writer entry")
	}
	if e.Manifest.Description != "project version" {
		t.Fatalf("expected project-local entry to shadow user-global, got %+v", e.Manifest)
	}
}

func TestMatchGlobPatterns(t *testing.T) {
	project := t.TempDir()
	root := filepath.Join(project, ".cortex", "skills")
	writeSkill(t, root, "code-review", "name = \"code-review\"\n", "p")
	writeSkill(t, root, "code-gen", "name = \"code-gen\"\n", "p")
	writeSkill(t, root, "doc-writer", "name = \"doc-writer\"\n", "p")

	reg := NewRegistry(project, t.TempDir())
	_ = reg.Scan()

	if got := reg.Match("code-*"); len(got) != 2 {
		t.Fatalf("expected 2 matches for code-*, got %+v", got)
	}
	if got := reg.Match("*-writer"); len(got) != 1 {
		t.Fatalf("expected 1 match for *-writer, got %+v", got)
	}
	if got := reg.Match("*"); len(got) != 3 {
		t.Fatalf("expected 3 matches for *, got %+v", got)
	}
}

func TestIDIsLowerCasedDirectoryName(t *testing.T) {
	project := t.TempDir()
	writeSkill(t, filepath.Join(project, ".cortex", "agents"), "Architect",
		"name = \"Architect\"\n", "persona prompt")

	reg := NewRegistry(project, t.TempDir())
	_ = reg.Scan()

	if _, ok := reg.Get("architect"); !ok {
		t.Fatalf("expected id lower-cased to %q, got %+v", "architect", reg.List())
	}
}

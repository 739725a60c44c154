package snapshot

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git not usable in this environment: %v: %s", err, out)
		}
	}
	run("init", "-q")
	run("config", "user.email", "t@t.com")
	run("config", "user.name", "t")
}

func TestCaptureAndRestore(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)

	stateDir := filepath.Join(dir, ".cortex-state")
	svc := NewService(dir, stateDir)
	ctx := context.Background()

	if !IsGitRepo(ctx, dir) {
		t.Skip("git repo init unavailable")
	}

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v1\n"), 0o644)
	hash1, err := svc.Capture(ctx)
	if err != nil {
		t.Fatal(err)
	}

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v2\n"), 0o644)
	if _, err := svc.Capture(ctx); err != nil {
		t.Fatal(err)
	}

	if err := svc.Restore(ctx, hash1); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1\n" {
		t.Fatalf("expected restored content v1, got %q", data)
	}
}

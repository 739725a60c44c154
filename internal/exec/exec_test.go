package exec

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cortexagent/cortex/internal/sandbox"
)

func cfg(argv ...string) Config {
	return Config{Argv: argv, Sandbox: sandbox.Config{Policy: sandbox.DangerFullAccess}}
}

func TestRunCapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), cfg("echo", "hello"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Fatalf("expected stdout 'hello', got %q", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
}

func TestRunNonZeroExitNotTreatedAsGoError(t *testing.T) {
	res, err := Run(context.Background(), cfg("sh", "-c", "exit 3"))
	if err != nil {
		t.Fatalf("unexpected error for a clean non-zero exit: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
}

func TestRunTimeoutIsReported(t *testing.T) {
	c := cfg("sleep", "5")
	c.Timeout = 50 * time.Millisecond
	res, err := Run(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut {
		t.Fatalf("expected TimedOut true")
	}
}

func TestShellWrapsCommandLine(t *testing.T) {
	c := Config{Argv: []string{"echo hi | cat"}, Shell: true}
	wrapped := shellWrap(c)
	if len(wrapped) != 3 || wrapped[0] != "sh" {
		t.Fatalf("expected sh -c wrapping, got %v", wrapped)
	}
}

func TestPipelineStopsAtFirstNonZero(t *testing.T) {
	stages := []Config{
		cfg("sh", "-c", "exit 1"),
		cfg("echo", "should not run"),
	}
	results, err := Pipeline(context.Background(), stages)
	if err == nil {
		t.Fatalf("expected pipeline error on first failing stage")
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result before stopping, got %d", len(results))
	}
}

// Package exec runs tool subprocesses: stdin is never connected to the
// parent's stdin, stdout/stderr are read concurrently line-by-line,
// timeouts kill the whole process group cross-platform, and callers may
// choose streaming, interactive, shell, or pipeline mode.
package exec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cortexagent/cortex/internal/cerr"
	"github.com/cortexagent/cortex/internal/sandbox"
)

// StreamKind distinguishes which pipe an OutputLine came from.
type StreamKind int

const (
	Stdout StreamKind = iota
	Stderr
)

// OutputLine is one line of subprocess output, delivered as it arrives.
type OutputLine struct {
	Stream StreamKind
	Text   string
}

// Config describes one command invocation.
type Config struct {
	Argv    []string
	Dir     string
	Env     []string // the child's full environment; nil means inherit the parent's
	Timeout time.Duration

	// Shell, when true, wraps Argv[0] (a raw command line) in the
	// platform shell ("sh -c" / "cmd /C").
	Shell bool

	Sandbox sandbox.Config
}

// Result is a completed command's exit status and captured streams.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

func shellWrap(cfg Config) []string {
	if !cfg.Shell || len(cfg.Argv) == 0 {
		return cfg.Argv
	}
	line := strings.Join(cfg.Argv, " ")
	if isWindows {
		return []string{"cmd", "/C", line}
	}
	return []string{"sh", "-c", line}
}

func build(ctx context.Context, cfg Config) (*exec.Cmd, error) {
	argv := shellWrap(cfg)
	if len(argv) == 0 {
		return nil, cerr.New(cerr.KindInvalidInput, "exec.build", fmt.Errorf("empty command"))
	}

	prep := sandbox.NewPreparer()
	wrapped, err := prep.Prepare(cfg.Sandbox, argv)
	if err != nil {
		return nil, cerr.New(cerr.KindPolicy, "exec.build", err)
	}

	cmd := exec.CommandContext(ctx, wrapped[0], wrapped[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Env
	cmd.Stdin = nil
	setProcessGroup(cmd)
	// On timeout or cancellation, kill the child's whole process group,
	// then the child itself.
	cmd.Cancel = func() error {
		_ = killTree(cmd, syscall.SIGKILL)
		return cmd.Process.Kill()
	}
	return cmd, nil
}

// Run executes cfg to completion, buffering all output, and honoring
// Timeout if set.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd, err := build(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	var outBuf, errBuf strings.Builder
	var wg sync.WaitGroup
	lines := make(chan OutputLine, 64)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for l := range lines {
			if l.Stream == Stdout {
				outBuf.WriteString(l.Text)
				outBuf.WriteByte('\n')
			} else {
				errBuf.WriteString(l.Text)
				errBuf.WriteByte('\n')
			}
		}
	}()

	exitCode, runErr := streamTo(cmd, lines)
	close(lines)
	wg.Wait()

	timedOut := ctx.Err() == context.DeadlineExceeded
	if runErr != nil && !timedOut {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return Result{}, cerr.New(cerr.KindToolExecution, "exec.Run", runErr)
		}
	}

	return Result{
		ExitCode: exitCode,
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		TimedOut: timedOut,
	}, nil
}

// Stream executes cfg and delivers output lines to the returned channel
// as they arrive, closing it when the process exits. The returned func
// blocks until the process has exited and returns its Result.
func Stream(ctx context.Context, cfg Config) (<-chan OutputLine, func() (Result, error), error) {
	cancel := func() {}
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	}

	cmd, err := build(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	lines := make(chan OutputLine, 64)
	var outBuf, errBuf strings.Builder
	var mu sync.Mutex
	tee := make(chan OutputLine, 64)

	go func() {
		for l := range tee {
			mu.Lock()
			if l.Stream == Stdout {
				outBuf.WriteString(l.Text)
				outBuf.WriteByte('\n')
			} else {
				errBuf.WriteString(l.Text)
				errBuf.WriteByte('\n')
			}
			mu.Unlock()
			lines <- l
		}
		close(lines)
	}()

	exitCodeCh := make(chan int, 1)
	errCh := make(chan error, 1)
	go func() {
		code, err := streamTo(cmd, tee)
		close(tee)
		exitCodeCh <- code
		errCh <- err
	}()

	wait := func() (Result, error) {
		code := <-exitCodeCh
		runErr := <-errCh
		defer cancel()
		timedOut := ctx.Err() == context.DeadlineExceeded
		if runErr != nil && !timedOut {
			if _, ok := runErr.(*exec.ExitError); !ok {
				return Result{}, cerr.New(cerr.KindToolExecution, "exec.Stream", runErr)
			}
		}
		mu.Lock()
		defer mu.Unlock()
		return Result{ExitCode: code, Stdout: outBuf.String(), Stderr: errBuf.String(), TimedOut: timedOut}, nil
	}

	return lines, wait, nil
}

// streamTo starts cmd, reads stdout/stderr concurrently line-by-line into
// out, and waits for exit, returning the exit code.
func streamTo(cmd *exec.Cmd, out chan<- OutputLine) (int, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, err
	}

	if err := cmd.Start(); err != nil {
		return -1, err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); readLines(stdout, Stdout, out) }()
	go func() { defer wg.Done(); readLines(stderr, Stderr, out) }()
	wg.Wait()

	err = cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), exitErr
	}
	return -1, err
}

func readLines(r io.Reader, kind StreamKind, out chan<- OutputLine) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		out <- OutputLine{Stream: kind, Text: scanner.Text()}
	}
}

// Pipeline runs each Config in sequence, feeding the Trim'd stdout of
// stage N as the trailing argument to stage N+1 (the spec's
// trailing-arg convention for shell-free pipelines). It stops at the
// first non-zero exit.
func Pipeline(ctx context.Context, stages []Config) ([]Result, error) {
	results := make([]Result, 0, len(stages))
	var prevStdout string
	for i, cfg := range stages {
		if i > 0 && prevStdout != "" {
			cfg.Argv = append(append([]string{}, cfg.Argv...), strings.TrimRight(prevStdout, "\n"))
		}
		res, err := Run(ctx, cfg)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if res.ExitCode != 0 {
			return results, cerr.Newf(cerr.KindToolExecution, "exec.Pipeline", "stage %d exited %d", i, res.ExitCode)
		}
		prevStdout = res.Stdout
	}
	return results, nil
}

package exec

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/cortexagent/cortex/internal/cerr"
	"github.com/cortexagent/cortex/internal/sandbox"
)

// Interactive is a running subprocess with an open stdin the caller can
// write to and an output channel it can read from, for tools (an
// interpreter REPL, an SSH session) that need a persistent back-and-forth
// rather than a single request/response.
type Interactive struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	Output <-chan OutputLine

	mu     sync.Mutex
	closed bool
}

// StartInteractive spawns cfg.Argv with stdin connected for writing and
// stdout/stderr streamed line-by-line on Output.
func StartInteractive(ctx context.Context, cfg Config) (*Interactive, error) {
	argv := shellWrap(cfg)
	if len(argv) == 0 {
		return nil, cerr.New(cerr.KindInvalidInput, "exec.StartInteractive", io.ErrUnexpectedEOF)
	}
	prep := sandbox.NewPreparer()
	wrapped, err := prep.Prepare(cfg.Sandbox, argv)
	if err != nil {
		return nil, cerr.New(cerr.KindPolicy, "exec.StartInteractive", err)
	}

	cmd := exec.CommandContext(ctx, wrapped[0], wrapped[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Env
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, cerr.New(cerr.KindToolExecution, "exec.StartInteractive", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, cerr.New(cerr.KindToolExecution, "exec.StartInteractive", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, cerr.New(cerr.KindToolExecution, "exec.StartInteractive", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, cerr.New(cerr.KindToolExecution, "exec.StartInteractive", err)
	}

	out := make(chan OutputLine, 64)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); readLines(stdout, Stdout, out) }()
	go func() { defer wg.Done(); readLines(stderr, Stderr, out) }()
	go func() { wg.Wait(); close(out) }()

	return &Interactive{cmd: cmd, stdin: stdin, Output: out}, nil
}

// Send writes text followed by a newline to the subprocess's stdin.
func (i *Interactive) Send(text string) error {
	w := bufio.NewWriter(i.stdin)
	if _, err := w.WriteString(text); err != nil {
		return err
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}
	return w.Flush()
}

// Close closes stdin and waits for the subprocess to exit.
func (i *Interactive) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	i.mu.Unlock()

	_ = i.stdin.Close()
	return i.cmd.Wait()
}

// Package lock provides advisory file locking and the write-to-temp-and-
// rename atomic write idiom used by every file-mutating tool handler.
//
// The OS-level lock is github.com/gofrs/flock, which already wraps
// POSIX flock(2) and Windows LockFileEx behind one API — exactly the
// cross-platform guarantee the design calls for, so there is no hand-
// rolled syscall shim here (see DESIGN.md).
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Mode selects shared (read) or exclusive (write) locking.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

// Config controls how Acquire waits for a contended lock.
type Config struct {
	// Timeout bounds how long Acquire polls before giving up. Zero means
	// try once and fail immediately if Blocking is false, or wait
	// forever if Blocking is true.
	Timeout time.Duration
	// RetryInterval is the poll interval while waiting for the lock.
	RetryInterval time.Duration
	// Blocking, when true and Timeout is zero, waits indefinitely.
	Blocking bool
}

// DefaultConfig matches the teacher's lock-file defaults: a short poll
// interval and a generous but finite timeout.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second, RetryInterval: 50 * time.Millisecond}
}

// Guard represents a held lock. Release must be called exactly once.
type Guard struct {
	fl      *flock.Flock
	release func()
}

// Release drops the lock and closes the underlying file handle.
func (g *Guard) Release() {
	if g.release != nil {
		g.release()
	}
}

// ErrWouldBlock is returned by a non-blocking Acquire attempt that found
// the lock already held — distinct from a permanent failure.
var ErrWouldBlock = fmt.Errorf("lock: would block")

// Registry coordinates in-process callers via a per-path mutex, layered
// underneath the OS advisory lock. This closes the common race where two
// goroutines in the *same* process both hold the OS lock sequentially
// (a single process only contends with itself at the syscall level) but
// still interleave a read-modify-write against each other.
type Registry struct {
	mu    chan struct{} // guards the map itself
	paths map[string]chan struct{}
}

// NewRegistry creates an empty per-path mutex registry.
func NewRegistry() *Registry {
	r := &Registry{mu: make(chan struct{}, 1), paths: make(map[string]chan struct{})}
	r.mu <- struct{}{}
	return r
}

func (r *Registry) pathMutex(path string) chan struct{} {
	<-r.mu
	defer func() { r.mu <- struct{}{} }()
	m, ok := r.paths[path]
	if !ok {
		m = make(chan struct{}, 1)
		r.paths[path] = m
	}
	return m
}

// acquireProcessLocal blocks until the in-process mutex for path is free.
func (r *Registry) acquireProcessLocal(ctx context.Context, path string) (func(), error) {
	m := r.pathMutex(path)
	select {
	case m <- struct{}{}:
		return func() { <-m }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Acquire takes the named lock file in the given mode, first serializing
// against other goroutines in this process on the same path, then taking
// the OS advisory lock. Returns ErrWouldBlock if cfg.Blocking is false and
// cfg.Timeout is zero and the lock is already held.
func (r *Registry) Acquire(path string, mode Mode, cfg Config) (*Guard, error) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	releaseLocal, err := r.acquireProcessLocal(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("lock: acquiring process-local mutex for %s: %w", path, err)
	}

	fl := flock.New(path)
	retry := cfg.RetryInterval
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}

	deadline, hasDeadline := ctx.Deadline()
	for {
		var ok bool
		var lockErr error
		if mode == Exclusive {
			ok, lockErr = fl.TryLock()
		} else {
			ok, lockErr = fl.TryRLock()
		}
		if lockErr != nil {
			releaseLocal()
			return nil, fmt.Errorf("lock: acquiring %s: %w", path, lockErr)
		}
		if ok {
			return &Guard{fl: fl, release: func() {
				fl.Unlock()
				releaseLocal()
			}}, nil
		}
		if !cfg.Blocking && cfg.Timeout == 0 {
			releaseLocal()
			return nil, ErrWouldBlock
		}
		if hasDeadline && time.Now().Add(retry).After(deadline) {
			releaseLocal()
			return nil, fmt.Errorf("lock: timed out acquiring %s", path)
		}
		select {
		case <-time.After(retry):
		case <-ctx.Done():
			releaseLocal()
			return nil, fmt.Errorf("lock: timed out acquiring %s: %w", path, ctx.Err())
		}
	}
}

// AtomicWrite writes data into a sibling temp file (pid-suffixed for
// uniqueness), fsyncs it, then renames it over path. Parent directories
// are created if missing; the temp file is removed on any failure so a
// reader never observes a partial write.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("atomic_write: creating parent dir %s: %w", dir, err)
		}
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("atomic_write: creating temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("atomic_write: writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("atomic_write: fsyncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomic_write: closing temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomic_write: renaming into place: %w", err)
	}
	return nil
}

// LockedReadModifyWrite acquires an exclusive lock on path, reads its
// current text (empty string if the file does not exist), invokes f to
// compute the new content and a caller-defined result, atomically writes
// the new content, releases the lock, and returns f's result.
func LockedReadModifyWrite[T any](r *Registry, path string, cfg Config, f func(current string) (newText string, result T, err error)) (T, error) {
	var zero T
	guard, err := r.Acquire(path+".lock", Exclusive, cfg)
	if err != nil {
		return zero, err
	}
	defer guard.Release()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return zero, fmt.Errorf("locked_rmw: reading %s: %w", path, err)
	}

	newText, result, err := f(string(data))
	if err != nil {
		return zero, err
	}

	if err := AtomicWrite(path, []byte(newText), 0o644); err != nil {
		return zero, err
	}
	return result, nil
}

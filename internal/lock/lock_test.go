package lock

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAtomicWriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x")

	if err := AtomicWrite(p, []byte("Original"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(p, []byte("Updated"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Updated" {
		t.Fatalf("expected Updated, got %q", got)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.Name() != "x" {
			t.Fatalf("unexpected leftover file: %s", e.Name())
		}
	}
}

func TestAtomicWriteCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "deep", "file.txt")
	if err := AtomicWrite(p, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatal(err)
	}
}

func TestExclusiveLockExcludesConcurrentAcquirers(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "lockfile")
	r := NewRegistry()

	var active int32
	var maxActive int32
	var wg sync.WaitGroup
	cfg := Config{Timeout: 2 * time.Second, RetryInterval: 5 * time.Millisecond}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := r.Acquire(p, Exclusive, cfg)
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&maxActive)
				if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			g.Release()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most 1 concurrent holder, saw %d", maxActive)
	}
}

func TestLockedReadModifyWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "state.txt")
	r := NewRegistry()

	result, err := LockedReadModifyWrite(r, p, DefaultConfig(), func(current string) (string, int, error) {
		return current + "a", len(current) + 1, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if result != 1 {
		t.Fatalf("expected result 1, got %d", result)
	}

	data, _ := os.ReadFile(p)
	if string(data) != "a" {
		t.Fatalf("expected file content 'a', got %q", data)
	}
}

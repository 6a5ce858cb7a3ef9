package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcherCoalescesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layouts.db")
	if err := os.WriteFile(path, []byte("v0"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int64
	w, err := New(path, 50*time.Millisecond, func() { fires.Add(1) })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("burst"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !waitFor(t, 2*time.Second, func() bool { return fires.Load() >= 1 }) {
		t.Fatal("no change notification")
	}
	// Let any straggler timers run out before counting.
	time.Sleep(150 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Errorf("fires = %d, want 1", got)
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layouts.db")
	if err := os.WriteFile(path, []byte("v0"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int64
	w, err := New(path, 30*time.Millisecond, func() { fires.Add(1) })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Errorf("fires = %d, want 0", got)
	}
}

func TestWatcherCloseSuppressesPendingFire(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layouts.db")
	if err := os.WriteFile(path, []byte("v0"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int64
	w, err := New(path, 200*time.Millisecond, func() { fires.Add(1) })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Errorf("fires after close = %d, want 0", got)
	}
	// Close twice is safe.
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

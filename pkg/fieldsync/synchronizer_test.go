package fieldsync

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// commitRecorder captures commits for assertions.
type commitRecorder struct {
	mu      sync.Mutex
	commits []commitCall
}

type commitCall struct {
	key   string
	value string
	seq   uint64
}

func (r *commitRecorder) commit(key, value string, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, commitCall{key, value, seq})
}

func (r *commitRecorder) calls() []commitCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]commitCall, len(r.commits))
	copy(out, r.commits)
	return out
}

const testDelay = 20 * time.Millisecond

// settle waits long enough for any armed debounce timer to fire.
func settle() { time.Sleep(testDelay * 4) }

func TestDebounceIdempotence_OneCommitLastValue(t *testing.T) {
	rec := &commitRecorder{}
	s := NewSynchronizer(testDelay, rec.commit)

	// Rapid-fire edits well inside the debounce window.
	for _, v := range []string{"F", "Fl", "Fla", "Flan", "Flange"} {
		s.Edit("part/1/name", v)
		time.Sleep(time.Millisecond)
	}
	settle()

	calls := rec.calls()
	if len(calls) != 1 {
		t.Fatalf("Expected exactly one commit, got %d: %v", len(calls), calls)
	}
	if calls[0].value != "Flange" {
		t.Errorf("Expected last typed value, got %q", calls[0].value)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	rec := &commitRecorder{}
	s := NewSynchronizer(testDelay, rec.commit)

	s.Edit("k", "first")
	settle()
	s.Edit("k", "second")
	settle()

	calls := rec.calls()
	if len(calls) != 2 {
		t.Fatalf("Expected two commits, got %d", len(calls))
	}

	// Response for the first request arrives after the second was issued:
	// it must be discarded; the second must apply.
	if s.Resolve("k", calls[0].seq, nil) {
		t.Error("Stale response was not discarded")
	}
	if !s.Resolve("k", calls[1].seq, nil) {
		t.Error("Current response was discarded")
	}
}

func TestFlushOnTeardown_ExactlyOneCommit(t *testing.T) {
	rec := &commitRecorder{}
	s := NewSynchronizer(time.Hour, rec.commit) // timer can never fire on its own

	s.Edit("k", "draft")
	s.Flush()

	calls := rec.calls()
	if len(calls) != 1 || calls[0].value != "draft" {
		t.Fatalf("Expected one flushed commit of the draft, got %v", calls)
	}

	// Nothing further may trickle out afterwards.
	settle()
	if len(rec.calls()) != 1 {
		t.Errorf("Flush left a live timer behind: %v", rec.calls())
	}
}

func TestFlush_NothingPendingIsNoop(t *testing.T) {
	rec := &commitRecorder{}
	s := NewSynchronizer(testDelay, rec.commit)

	s.Edit("k", "v")
	settle() // committed by the timer
	s.Flush()

	if len(rec.calls()) != 1 {
		t.Errorf("Flush re-issued an already committed value: %v", rec.calls())
	}
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	rec := &commitRecorder{}
	s := NewSynchronizer(testDelay, rec.commit)

	s.Edit("part/1/name", "a")
	s.Edit("part/1/material", "b")
	s.Edit("part/2/name", "c")
	settle()

	calls := rec.calls()
	if len(calls) != 3 {
		t.Fatalf("Expected one commit per key, got %d: %v", len(calls), calls)
	}
	seen := make(map[string]string)
	for _, c := range calls {
		seen[c.key] = c.value
	}
	if seen["part/1/name"] != "a" || seen["part/1/material"] != "b" || seen["part/2/name"] != "c" {
		t.Errorf("Cross-key interference: %v", seen)
	}
}

func TestSequencesAreByKey(t *testing.T) {
	rec := &commitRecorder{}
	s := NewSynchronizer(testDelay, rec.commit)

	s.Edit("a", "1")
	settle()
	s.Edit("b", "1")
	settle()

	for _, c := range rec.calls() {
		if c.seq != 1 {
			t.Errorf("Key %q started at seq %d; sequences must be per key", c.key, c.seq)
		}
	}
}

func TestFailedCommitMarksUnsavedAndRetries(t *testing.T) {
	rec := &commitRecorder{}
	s := NewSynchronizer(testDelay, rec.commit)

	s.Edit("k", "v")
	settle()
	seq := rec.calls()[0].seq

	if !s.Resolve("k", seq, errors.New("boom")) {
		t.Fatal("Current failed response must still resolve")
	}
	if !s.Unsaved("k") {
		t.Fatal("Failed commit did not mark the key unsaved")
	}

	s.Retry("k")
	calls := rec.calls()
	if len(calls) != 2 || calls[1].value != "v" || calls[1].seq != seq+1 {
		t.Fatalf("Retry did not reissue the value: %v", calls)
	}
	if !s.Resolve("k", calls[1].seq, nil) {
		t.Error("Retry response discarded")
	}
	if s.Unsaved("k") {
		t.Error("Key still unsaved after successful retry")
	}
}

func TestResolveUnknownKey(t *testing.T) {
	s := NewSynchronizer(testDelay, func(string, string, uint64) {})
	if s.Resolve("ghost", 1, nil) {
		t.Error("Resolve for an unknown key must report stale")
	}
}

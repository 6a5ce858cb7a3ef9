package fieldsync

import (
	"sync"
	"time"
)

// CommitFunc issues the actual write for a field. seq is the request
// sequence captured when the commit was issued; the caller hands it back to
// Resolve together with the outcome so stale responses can be discarded.
type CommitFunc func(key, value string, seq uint64)

// fieldState tracks one editable field (or entity, depending on the caller's
// key granularity). Fields never block each other.
type fieldState struct {
	debouncer *Debouncer
	pending   string
	dirty     bool
	seq       uint64 // highest issued commit sequence for this key
	unsaved   bool   // last commit failed; local value stays visible
}

// Synchronizer buffers keystrokes per key and commits after a quiet period.
// Responses apply only when their sequence is still the highest issued for
// the key, which guards against a slow earlier response overwriting a value
// the user has since changed again.
type Synchronizer struct {
	mu     sync.Mutex
	delay  time.Duration
	commit CommitFunc
	fields map[string]*fieldState
}

// NewSynchronizer creates a synchronizer with the given commit delay
// (0 means DefaultCommitDelay).
func NewSynchronizer(delay time.Duration, commit CommitFunc) *Synchronizer {
	if delay == 0 {
		delay = DefaultCommitDelay
	}
	return &Synchronizer{
		delay:  delay,
		commit: commit,
		fields: make(map[string]*fieldState),
	}
}

func (s *Synchronizer) field(key string) *fieldState {
	st := s.fields[key]
	if st == nil {
		st = &fieldState{debouncer: NewDebouncer(s.delay)}
		s.fields[key] = st
	}
	return st
}

// Edit buffers a new value for the key and restarts its commit timer.
func (s *Synchronizer) Edit(key, value string) {
	s.mu.Lock()
	st := s.field(key)
	st.pending = value
	st.dirty = true
	d := st.debouncer
	s.mu.Unlock()

	d.Trigger(func() { s.fire(key) })
}

// fire issues the commit for whatever is buffered under key. It increments
// and captures the sequence inside the lock, then calls commit outside it.
func (s *Synchronizer) fire(key string) {
	s.mu.Lock()
	st := s.fields[key]
	if st == nil || !st.dirty {
		s.mu.Unlock()
		return
	}
	st.dirty = false
	st.seq++
	seq := st.seq
	value := st.pending
	s.mu.Unlock()

	s.commit(key, value, seq)
}

// Resolve reports a commit outcome. It returns true when the response is
// current (seq still the highest issued for the key) and should be applied
// to UI state; a false return means the response is stale and must be
// discarded, not merged. A failed current commit marks the key unsaved so a
// later edit or explicit retry resubmits it.
func (s *Synchronizer) Resolve(key string, seq uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.fields[key]
	if st == nil || seq != st.seq {
		return false
	}
	st.unsaved = err != nil
	return true
}

// Unsaved reports whether the key's last commit failed.
func (s *Synchronizer) Unsaved(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.fields[key]
	return st != nil && st.unsaved
}

// Dirty reports whether the key has an uncommitted buffered edit.
func (s *Synchronizer) Dirty(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.fields[key]
	return st != nil && st.dirty
}

// Retry reissues the last buffered value for an unsaved key immediately.
func (s *Synchronizer) Retry(key string) {
	s.mu.Lock()
	st := s.fields[key]
	if st == nil || !st.unsaved {
		s.mu.Unlock()
		return
	}
	st.dirty = true
	s.mu.Unlock()
	s.fire(key)
}

// Flush fires every pending timer synchronously. Called at panel teardown:
// each dirty key issues exactly one commit before teardown completes, so no
// edited-but-uncommitted value is silently lost.
func (s *Synchronizer) Flush() {
	s.mu.Lock()
	debouncers := make(map[string]*Debouncer, len(s.fields))
	for key, st := range s.fields {
		if st.dirty {
			debouncers[key] = st.debouncer
		} else {
			st.debouncer.Cancel()
		}
	}
	s.mu.Unlock()

	for key, d := range debouncers {
		// The debouncer's own pending closure points at fire(key); flushing
		// through the debouncer also neutralizes its armed timer.
		d.Flush()
		// A Trigger that already fired leaves no pending closure; make sure
		// the dirty value still goes out.
		s.fire(key)
	}
}

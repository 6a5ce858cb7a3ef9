// Package linking propagates a single "current entity" selection from a
// master window to its child windows through colored linking groups.
package linking

import (
	"sync"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// Entry is the current selection for one linking group. GroupVersion is a
// monotonically increasing counter bumped on every publish; consumers use it
// to drop reordered updates.
type Entry struct {
	EntityID      int64
	DisplayFields map[string]string
	GroupVersion  int
}

type subscriber struct {
	cb   func(Entry)
	last int // highest GroupVersion delivered; stale updates are dropped
}

// Store is the in-memory context pub/sub, keyed by linking color. Only the
// group's master publishes; children subscribe. The store is an injectable
// instance, never a package-level singleton, so tests isolate freely. No
// persistence: context is meaningless across process restarts.
type Store struct {
	mu      sync.Mutex
	entries map[model.LinkingColor]Entry
	subs    map[model.LinkingColor]map[int]*subscriber
	nextSub int
}

// NewStore creates an empty context store.
func NewStore() *Store {
	return &Store{
		entries: make(map[model.LinkingColor]Entry),
		subs:    make(map[model.LinkingColor]map[int]*subscriber),
	}
}

// SetContext publishes a new selection for the group, bumping GroupVersion,
// and delivers it synchronously to every subscriber still behind it.
func (s *Store) SetContext(group model.LinkingColor, entityID int64, displayFields map[string]string) {
	if !group.IsValid() {
		return
	}
	s.mu.Lock()
	entry := Entry{
		EntityID:      entityID,
		DisplayFields: displayFields,
		GroupVersion:  s.entries[group].GroupVersion + 1,
	}
	s.entries[group] = entry
	targets := s.eligible(group, entry.GroupVersion)
	s.mu.Unlock()

	for _, cb := range targets {
		cb(entry)
	}
}

// eligible marks subscribers as caught up to version and returns their
// callbacks. Marking before delivery is what makes a late replay of an
// older version a no-op even if callbacks re-enter the store.
func (s *Store) eligible(group model.LinkingColor, version int) []func(Entry) {
	var out []func(Entry)
	for _, sub := range s.subs[group] {
		if version > sub.last {
			sub.last = version
			out = append(out, sub.cb)
		}
	}
	return out
}

// Current returns the group's entry; GroupVersion 0 means never published.
func (s *Store) Current(group model.LinkingColor) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[group]
}

// Subscribe registers a callback for the group. The current entry, when one
// exists, is delivered immediately; afterwards the callback sees every
// publish in strictly increasing GroupVersion order. The returned function
// unsubscribes and is safe to call more than once.
func (s *Store) Subscribe(group model.LinkingColor, cb func(Entry)) func() {
	if !group.IsValid() {
		return func() {}
	}
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	sub := &subscriber{cb: cb}
	if s.subs[group] == nil {
		s.subs[group] = make(map[int]*subscriber)
	}
	s.subs[group][id] = sub

	entry, have := s.entries[group], s.entries[group].GroupVersion > 0
	if have {
		sub.last = entry.GroupVersion
	}
	s.mu.Unlock()

	if have {
		cb(entry)
	}

	return func() {
		s.mu.Lock()
		delete(s.subs[group], id)
		s.mu.Unlock()
	}
}

// Clear resets a group's entry once the group is unreferenced. Version
// restarts from zero and any leftover subscriptions are dropped, so the
// color's next lineage begins a fresh history.
func (s *Store) Clear(group model.LinkingColor) {
	s.mu.Lock()
	delete(s.entries, group)
	delete(s.subs, group)
	s.mu.Unlock()
}

// Package feed supplies windowed views over large server-backed lists with
// infinite-scroll batching and debounced, seq-guarded search. Fetches are
// emitted as Requests through a sink so the caller decides how to run them
// (a goroutine feeding a UI message loop, or inline in tests); results come
// back through Apply, which discards anything superseded in the meantime.
package feed

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/fieldsync"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// Default tuning.
const (
	DefaultPageSize    = 50
	DefaultOverscan    = 5
	DefaultThreshold   = 10 // load more when fewer unloaded-ahead rows remain
	DefaultSearchDelay = 300 * time.Millisecond
)

// Request is one fetch the feed wants executed. Seq identifies the request;
// responses for superseded sequences are discarded on Apply. Reset marks a
// fresh load (replaces rows) as opposed to an append page.
type Request struct {
	Seq   uint64
	Query api.Query
	Reset bool
}

// Sink receives fetch requests for execution.
type Sink func(Request)

// Options tunes a Feed; zero values use the defaults.
type Options struct {
	PageSize    int
	Overscan    int
	Threshold   int
	SearchDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Overscan <= 0 {
		o.Overscan = DefaultOverscan
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.SearchDelay <= 0 {
		o.SearchDelay = DefaultSearchDelay
	}
	return o
}

// Feed is the windowed list state for one entity collection.
type Feed struct {
	mu   sync.Mutex
	opts Options
	sink Sink

	rows     []model.Entity
	total    int
	loaded   bool
	inFlight bool
	paused   bool // a batch failed; pagination stops until Retry

	search  string
	filters map[string]string
	seq     uint64

	clientFilter  string
	filteredCache []model.Entity
	cacheValid    bool

	searchDebounce *fieldsync.Debouncer

	selectedID int64
}

// New creates a feed emitting fetch requests into sink.
func New(sink Sink, opts Options) *Feed {
	o := opts.withDefaults()
	return &Feed{
		opts:           o,
		sink:           sink,
		filters:        make(map[string]string),
		searchDebounce: fieldsync.NewDebouncer(o.SearchDelay),
	}
}

// LoadInitial resets the loaded set and requests the first batch.
func (f *Feed) LoadInitial() {
	f.mu.Lock()
	req := f.resetLocked()
	f.mu.Unlock()
	f.sink(req)
}

// resetLocked clears rows/total and builds the fresh first-page request.
func (f *Feed) resetLocked() Request {
	f.rows = nil
	f.total = 0
	f.loaded = false
	f.paused = false
	f.cacheValid = false
	f.inFlight = true
	f.seq++
	return Request{Seq: f.seq, Reset: true, Query: f.queryLocked(0)}
}

func (f *Feed) queryLocked(offset int) api.Query {
	filters := make(map[string]string, len(f.filters))
	for k, v := range f.filters {
		filters[k] = v
	}
	return api.Query{
		Limit:   f.opts.PageSize,
		Offset:  offset,
		Search:  f.search,
		Filters: filters,
	}
}

// LoadMore requests the next batch. No-op while a fetch is in flight, after
// a failed batch (until Retry), or once every row is loaded.
func (f *Feed) LoadMore() {
	f.mu.Lock()
	if f.inFlight || f.paused || !f.loaded || f.exhaustedLocked() {
		f.mu.Unlock()
		return
	}
	f.inFlight = true
	f.seq++
	req := Request{Seq: f.seq, Query: f.queryLocked(len(f.rows))}
	f.mu.Unlock()
	f.sink(req)
}

// MaybeLoadMore triggers LoadMore when the remaining unscrolled distance
// (loaded rows below bottomIndex) drops under the threshold.
func (f *Feed) MaybeLoadMore(bottomIndex int) {
	f.mu.Lock()
	remaining := len(f.rows) - bottomIndex
	trigger := remaining <= f.opts.Threshold
	f.mu.Unlock()
	if trigger {
		f.LoadMore()
	}
}

// Apply delivers a fetch result. Responses whose sequence is not the latest
// issued are discarded outright: a slow early response can never overwrite
// the effect of a newer request. A failed batch pauses pagination instead of
// surfacing a blocking error.
func (f *Feed) Apply(req Request, page api.Page, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Seq != f.seq {
		return false
	}
	f.inFlight = false
	if err != nil {
		f.paused = true
		return false
	}
	if req.Reset {
		f.rows = page.Items
	} else {
		f.rows = append(f.rows, page.Items...)
	}
	f.total = page.Total
	f.loaded = true
	f.cacheValid = false
	return true
}

// Retry clears the paused state after a failed batch and reissues the
// interrupted fetch.
func (f *Feed) Retry() {
	f.mu.Lock()
	if !f.paused {
		f.mu.Unlock()
		return
	}
	f.paused = false
	f.inFlight = true
	f.seq++
	var req Request
	if f.loaded {
		req = Request{Seq: f.seq, Query: f.queryLocked(len(f.rows))}
	} else {
		req = Request{Seq: f.seq, Reset: true, Query: f.queryLocked(0)}
	}
	f.mu.Unlock()
	f.sink(req)
}

// SetSearch debounces the server-side search term; when the quiet period
// elapses the loaded set resets and a fresh first page is requested. A
// superseded in-flight search is discarded by the seq guard in Apply.
func (f *Feed) SetSearch(term string) {
	f.mu.Lock()
	f.search = term
	f.mu.Unlock()
	f.searchDebounce.Trigger(f.LoadInitial)
}

// SetServerFilter changes a server-side filter (status, has_drawing, ...):
// the loaded set and total reset before a fresh LoadInitial.
func (f *Feed) SetServerFilter(key, value string) {
	f.mu.Lock()
	if value == "" {
		delete(f.filters, key)
	} else {
		f.filters[key] = value
	}
	req := f.resetLocked()
	f.mu.Unlock()
	f.sink(req)
}

// SetClientFilter narrows the already-loaded rows by fuzzy match. Never
// triggers a refetch.
func (f *Feed) SetClientFilter(term string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clientFilter = strings.TrimSpace(term)
	f.cacheValid = false
}

// Rows returns the loaded rows after client-side filtering.
func (f *Feed) Rows() []model.Entity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rowsLocked()
}

func (f *Feed) rowsLocked() []model.Entity {
	if f.cacheValid {
		return f.filteredCache
	}
	if f.clientFilter == "" {
		f.filteredCache = f.rows
	} else {
		haystack := make([]string, len(f.rows))
		for i, e := range f.rows {
			haystack[i] = e.SearchText()
		}
		matches := fuzzy.Find(f.clientFilter, haystack)
		sort.Stable(matches)
		filtered := make([]model.Entity, 0, len(matches))
		for _, m := range matches {
			filtered = append(filtered, f.rows[m.Index])
		}
		f.filteredCache = filtered
	}
	f.cacheValid = true
	return f.filteredCache
}

// Visible returns the filtered rows intersecting [offset, offset+height)
// plus overscan, and the index of the first returned row.
func (f *Feed) Visible(offset, height int) ([]model.Entity, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.rowsLocked()
	start := offset - f.opts.Overscan
	if start < 0 {
		start = 0
	}
	end := offset + height + f.opts.Overscan
	if end > len(rows) {
		end = len(rows)
	}
	if start >= end {
		return nil, 0
	}
	return rows[start:end], start
}

// Select tracks the selection as an entity id, so a selected row stays
// selected even while unloaded or scrolled out of the rendered window.
func (f *Feed) Select(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedID = id
}

// SelectedID returns the selected entity id (0 = none).
func (f *Feed) SelectedID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectedID
}

// SelectedRow returns the selected entity when it is among loaded rows.
func (f *Feed) SelectedRow() (model.Entity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.ID == f.selectedID {
			return e, true
		}
	}
	return model.Entity{}, false
}

// Total is the server-reported row count for the active server filters.
func (f *Feed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// Len is the number of loaded rows (before client filtering).
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// InFlight reports whether a fetch is outstanding.
func (f *Feed) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Paused reports whether pagination stopped after a failed batch.
func (f *Feed) Paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// Exhausted reports whether the server has no more rows to hand out.
func (f *Feed) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exhaustedLocked()
}

func (f *Feed) exhaustedLocked() bool {
	return f.loaded && len(f.rows) >= f.total
}

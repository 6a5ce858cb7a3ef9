// Package watcher notifies the workspace when the layout database changes
// on disk, so layouts saved by another process show up in the picker.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/fieldsync"
)

// DefaultDebounce coalesces the bursts of writes sqlite makes per commit.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches a single file and invokes a callback after writes settle.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	debounce *fieldsync.Debouncer
	onChange func()

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New watches path and calls onChange after changes stop arriving for the
// given debounce interval. Watching the parent directory instead of the file
// itself survives the rename/replace cycle sqlite journaling produces.
func New(path string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		fs:       fs,
		debounce: fieldsync.NewDebouncer(debounce),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.debounce.Trigger(w.fire)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Watch errors are transient on some platforms; the next
			// event still reaches us, so there is nothing to do here.
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed || w.onChange == nil {
		return
	}
	w.onChange()
}

// Close stops watching. Pending debounced callbacks are cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.debounce.Cancel()
	err := w.fs.Close()
	<-w.done
	return err
}

package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/fieldsync"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// Technology record fields. Times are minutes, stored as decimal strings.
const (
	fieldWorkcenter = "workcenter"
	fieldSetupTime  = "setup_time"
	fieldRunTime    = "run_time"
	fieldBatchSize  = "batch_size"
	fieldPartID     = "part_id"
)

var technologyFields = []struct {
	key   string
	label string
}{
	{fieldWorkcenter, "Workcenter"},
	{fieldSetupTime, "Setup min"},
	{fieldRunTime, "Run min"},
	{fieldBatchSize, "Batch"},
}

// technology is a linked child panel editing the machining record of the
// group's current part. It follows the master's selection, flushing pending
// edits before switching parts.
type technology struct {
	win   model.WindowID
	deps  Deps
	group model.LinkingColor
	unsub func()

	partID     int64
	partFields map[string]string
	lastVer    int
	loadSeq    int // current load request; older responses are dropped

	record  model.Entity
	loaded  bool
	loadErr error

	inputs   []textinput.Model
	focusIdx int

	sync *fieldsync.Synchronizer
	snap entitySnap
}

func newTechnology(win model.Window, deps Deps) *technology {
	t := &technology{
		win:      win.ID,
		deps:     deps,
		group:    win.LinkingGroup,
		focusIdx: -1,
	}
	t.inputs = make([]textinput.Model, len(technologyFields))
	for i, f := range technologyFields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = f.label
		in.CharLimit = 60
		t.inputs[i] = in
	}
	t.resetSync()

	if win.LinkingGroup.IsValid() {
		winID := win.ID
		send := deps.Send
		t.unsub = deps.Context.Subscribe(win.LinkingGroup, func(e linking.Entry) {
			send(contextMsg{win: winID, entry: e})
		})
	}
	return t
}

func (t *technology) resetSync() {
	win := t.win
	deps := t.deps
	snap := &t.snap
	t.sync = fieldsync.NewSynchronizer(deps.Cfg.CommitDelay(), func(key, value string, seq uint64) {
		ent := snap.get()
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		updated, err := deps.Technologies.Update(ctx, ent, map[string]string{key: value})
		if err == nil {
			snap.set(updated)
		}
		deps.Send(commitResultMsg{win: win, key: key, seq: seq, updated: updated, err: err})
	})
}

func (t *technology) Init() tea.Cmd { return nil }

func (t *technology) Teardown() {
	if t.unsub != nil {
		t.unsub()
		t.unsub = nil
	}
	t.sync.Flush()
}

func (t *technology) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case contextMsg:
		if msg.entry.GroupVersion <= t.lastVer {
			return t, nil
		}
		t.lastVer = msg.entry.GroupVersion
		if msg.entry.EntityID == 0 || msg.entry.EntityID == t.partID {
			return t, nil
		}
		// Part switch: push pending edits for the old record first.
		t.sync.Flush()
		t.partID = msg.entry.EntityID
		t.partFields = msg.entry.DisplayFields
		t.loaded = false
		return t, t.load(msg.entry.EntityID)

	case feedResultMsg:
		return t, t.applyRecord(msg)

	case commitResultMsg:
		current := t.sync.Resolve(msg.key, msg.seq, msg.err)
		if msg.err == nil {
			if current {
				t.record = msg.updated
			} else {
				t.record.Version = msg.updated.Version
			}
			return t, nil
		}
		var conflict *api.ConflictError
		if errors.As(msg.err, &conflict) && current {
			// Child edits lose to concurrent server changes: take the
			// server record, the master drives what we show anyway.
			t.resetSync()
			t.setRecord(conflict.Current)
			return t, status("technology reloaded at v%d, edit to %q dropped", conflict.CurrentVersion, msg.key)
		}
		return t, status("save %s: %v", msg.key, msg.err)

	case tea.KeyMsg:
		return t.handleKey(msg)
	}
	return t, nil
}

// load fetches the machining record for a part.
func (t *technology) load(partID int64) tea.Cmd {
	t.loadSeq++
	seq := t.loadSeq
	client := t.deps.Technologies
	win := t.win
	q := api.Query{Limit: 1, Filters: map[string]string{fieldPartID: fmt.Sprint(partID)}}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		page, err := client.List(ctx, q)
		return feedResultMsg{win: win, seq: seq, page: page, err: err}
	}
}

func (t *technology) applyRecord(msg feedResultMsg) tea.Cmd {
	if msg.seq != t.loadSeq {
		return nil
	}
	if msg.err != nil {
		t.loadErr = msg.err
		return status("technology load: %v", msg.err)
	}
	t.loadErr = nil
	if len(msg.page.Items) == 0 {
		t.loaded = false
		return status("no technology record for part %d", t.partID)
	}
	t.setRecord(msg.page.Items[0])
	return nil
}

func (t *technology) setRecord(ent model.Entity) {
	t.record = ent
	t.snap.set(ent)
	t.loaded = true
	for i, f := range technologyFields {
		t.inputs[i].SetValue(ent.Field(f.key))
	}
}

func (t *technology) handleKey(msg tea.KeyMsg) (Panel, tea.Cmd) {
	if !t.loaded {
		return t, nil
	}
	switch msg.String() {
	case "down":
		t.focusField(t.focusIdx + 1)
		return t, nil
	case "up":
		t.focusField(t.focusIdx - 1)
		return t, nil
	case "esc":
		t.blurAll()
		return t, nil
	}
	if t.focusIdx >= 0 {
		var cmd tea.Cmd
		t.inputs[t.focusIdx], cmd = t.inputs[t.focusIdx].Update(msg)
		key := technologyFields[t.focusIdx].key
		value := t.inputs[t.focusIdx].Value()
		if value != t.record.Field(key) || t.sync.Dirty(key) {
			t.sync.Edit(key, value)
		}
		return t, cmd
	}
	switch msg.String() {
	case "enter", "e":
		t.focusField(0)
	case "r":
		if t.partID != 0 {
			return t, t.load(t.partID)
		}
	}
	return t, nil
}

func (t *technology) focusField(idx int) {
	if idx < 0 {
		idx = len(t.inputs) - 1
	}
	if idx >= len(t.inputs) {
		idx = 0
	}
	t.blurAll()
	t.focusIdx = idx
	t.inputs[idx].Focus()
}

func (t *technology) editing() bool { return t.focusIdx >= 0 }

func (t *technology) blurAll() {
	for i := range t.inputs {
		t.inputs[i].Blur()
	}
	t.focusIdx = -1
}

func (t *technology) View(width, height int) string {
	var b strings.Builder

	if t.partID == 0 {
		b.WriteString(FooterStyle.Render("waiting for a part from the linked list…"))
		return b.String()
	}

	b.WriteString(TitleStyle.Render(t.partFields[model.FieldNumber]))
	b.WriteString(" ")
	b.WriteString(TitleDimStyle.Render(t.partFields[model.FieldName]))
	b.WriteString("\n\n")

	if !t.loaded {
		if t.loadErr != nil {
			b.WriteString(ErrorStyle.Render(t.loadErr.Error()))
		} else {
			b.WriteString(FooterStyle.Render("loading technology…"))
		}
		return b.String()
	}

	for i, f := range technologyFields {
		b.WriteString(LabelStyle.Render(f.label))
		b.WriteString(t.inputs[i].View())
		if t.sync.Unsaved(f.key) {
			b.WriteString(UnsavedStyle.Render(" ●unsaved"))
		} else if t.sync.Dirty(f.key) {
			b.WriteString(FooterStyle.Render(" …"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(fmt.Sprintf("v%d  ↑/↓ fields  r reload", t.record.Version)))
	return b.String()
}

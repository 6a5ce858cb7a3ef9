package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/fieldsync"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// detailFields are the editable part fields, in display order. The part
// number is server-assigned and read-only.
var detailFields = []struct {
	key   string
	label string
}{
	{model.FieldName, "Name"},
	{model.FieldMaterial, "Material"},
	{model.FieldStatus, "Status"},
	{model.FieldDrawing, "Drawing"},
	{model.FieldNotes, "Notes"},
}

// entitySnap is the entity copy the commit goroutine reads. The update loop
// owns the panel; commits run on debounce timers, so this is the one piece
// of shared state and it carries its own lock.
type entitySnap struct {
	mu  sync.Mutex
	ent model.Entity
}

func (s *entitySnap) get() model.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ent.Clone()
}

func (s *entitySnap) set(ent model.Entity) {
	s.mu.Lock()
	s.ent = ent.Clone()
	s.mu.Unlock()
}

// partDetail edits one part's fields with debounced, versioned commits.
// As a linked child it follows the group's current part; standalone it
// prompts for a part id.
type partDetail struct {
	win   model.WindowID
	deps  Deps
	group model.LinkingColor
	unsub func()

	entity  model.Entity
	loaded  bool
	loadErr error
	lastVer int // highest context version seen, late deliveries are dropped
	loadSeq int // current load request; older responses are dropped

	idInput  textinput.Model
	inputs   []textinput.Model
	focusIdx int // -1 when no field is focused

	sync *fieldsync.Synchronizer
	snap entitySnap

	conflictKey string
}

func newPartDetail(win model.Window, deps Deps) *partDetail {
	p := &partDetail{
		win:      win.ID,
		deps:     deps,
		group:    win.LinkingGroup,
		focusIdx: -1,
	}
	p.idInput = textinput.New()
	p.idInput.Placeholder = "part id"
	p.idInput.Prompt = "# "
	p.idInput.CharLimit = 10

	p.inputs = make([]textinput.Model, len(detailFields))
	for i, f := range detailFields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = f.label
		in.CharLimit = 200
		p.inputs[i] = in
	}
	p.resetSync()

	if win.LinkingGroup.IsValid() {
		winID := win.ID
		send := deps.Send
		p.unsub = deps.Context.Subscribe(win.LinkingGroup, func(e linking.Entry) {
			send(contextMsg{win: winID, entry: e})
		})
	}
	return p
}

// resetSync replaces the synchronizer, discarding any buffered edits.
func (p *partDetail) resetSync() {
	win := p.win
	deps := p.deps
	snap := &p.snap
	p.sync = fieldsync.NewSynchronizer(deps.Cfg.CommitDelay(), func(key, value string, seq uint64) {
		ent := snap.get()
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		updated, err := deps.Parts.Update(ctx, ent, map[string]string{key: value})
		if err == nil {
			// Later commits in the same flush must carry the new version.
			snap.set(updated)
		}
		deps.Send(commitResultMsg{win: win, key: key, seq: seq, updated: updated, err: err})
	})
}

func (p *partDetail) Init() tea.Cmd { return nil }

func (p *partDetail) Teardown() {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
	// Runs pending commits synchronously so the last edit reaches the
	// server even when the whole workspace is quitting.
	p.sync.Flush()
}

// CurrentSelection implements Publisher so a standalone detail window can
// become a master for technology and quote children.
func (p *partDetail) CurrentSelection() (int64, map[string]string, bool) {
	if !p.loaded {
		return 0, nil, false
	}
	return p.entity.ID, p.entity.DisplayFields(), true
}

func (p *partDetail) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case contextMsg:
		if msg.entry.GroupVersion <= p.lastVer {
			return p, nil
		}
		p.lastVer = msg.entry.GroupVersion
		if msg.entry.EntityID == 0 || (p.loaded && msg.entry.EntityID == p.entity.ID) {
			return p, nil
		}
		return p, p.load(msg.entry.EntityID)

	case entityLoadedMsg:
		if msg.seq != p.loadSeq {
			return p, nil
		}
		if msg.err != nil {
			p.loadErr = msg.err
			return p, status("part load: %v", msg.err)
		}
		p.loadErr = nil
		p.setEntity(msg.entity)
		return p, nil

	case commitResultMsg:
		return p, p.resolveCommit(msg)

	case dialogResultMsg:
		return p, p.resolveConflict(msg)

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

// setEntity loads server state into the editors, replacing local buffers.
func (p *partDetail) setEntity(ent model.Entity) {
	p.entity = ent
	p.snap.set(ent)
	p.loaded = true
	for i, f := range detailFields {
		p.inputs[i].SetValue(ent.Field(f.key))
	}
}

func (p *partDetail) resolveCommit(msg commitResultMsg) tea.Cmd {
	current := p.sync.Resolve(msg.key, msg.seq, msg.err)
	if msg.err == nil {
		if current {
			p.entity = msg.updated
		} else {
			// A newer edit is pending; keep only the version bump.
			p.entity.Version = msg.updated.Version
		}
		return nil
	}

	var conflict *api.ConflictError
	if errors.As(msg.err, &conflict) && current {
		p.conflictKey = msg.key
		win := p.win
		body := fmt.Sprintf(
			"Part %s changed on the server (now v%d, you had v%d).\nReload and discard your edit to %q?",
			p.entity.Field(model.FieldNumber), conflict.CurrentVersion, p.entity.Version, msg.key)
		return func() tea.Msg {
			return dialogRequestMsg{
				win:      win,
				tag:      "conflict",
				kind:     dialogConfirm,
				title:    "Edit conflict",
				body:     body,
				affirm:   "Reload",
				negative: "Keep mine",
			}
		}
	}

	var invalid *api.ValidationError
	if errors.As(msg.err, &invalid) {
		return status("%s: %s", msg.key, invalid.Message)
	}
	return status("save %s: %v", msg.key, msg.err)
}

func (p *partDetail) resolveConflict(msg dialogResultMsg) tea.Cmd {
	if msg.tag != "conflict" || p.conflictKey == "" {
		return nil
	}
	key := p.conflictKey
	p.conflictKey = ""
	if !msg.accepted {
		return status("kept local edit to %q, unsaved", key)
	}
	// Reload discards every buffered edit, not just the conflicted field:
	// the local buffers were written against a stale version.
	p.resetSync()
	return p.load(p.entity.ID)
}

func (p *partDetail) handleKey(msg tea.KeyMsg) (Panel, tea.Cmd) {
	if !p.loaded {
		return p.handleIDPrompt(msg)
	}

	switch msg.String() {
	case "down":
		p.focusField(p.focusIdx + 1)
		return p, nil
	case "up":
		p.focusField(p.focusIdx - 1)
		return p, nil
	case "esc":
		p.blurAll()
		return p, nil
	}

	if p.focusIdx >= 0 {
		var cmd tea.Cmd
		p.inputs[p.focusIdx], cmd = p.inputs[p.focusIdx].Update(msg)
		key := detailFields[p.focusIdx].key
		value := p.inputs[p.focusIdx].Value()
		if value != p.entity.Field(key) || p.sync.Dirty(key) {
			p.sync.Edit(key, value)
		}
		return p, cmd
	}

	switch msg.String() {
	case "enter", "e":
		p.focusField(0)
		return p, nil
	case "r":
		return p, p.load(p.entity.ID)
	case "R":
		retried := 0
		for _, f := range detailFields {
			if p.sync.Unsaved(f.key) {
				p.sync.Retry(f.key)
				retried++
			}
		}
		if retried > 0 {
			return p, status("retrying %d field(s)", retried)
		}
		return p, nil
	case "l":
		return p, p.openLinked(model.ModuleTechnology)
	case "o":
		return p, p.openLinked(model.ModuleQuote)
	}
	return p, nil
}

func (p *partDetail) handleIDPrompt(msg tea.KeyMsg) (Panel, tea.Cmd) {
	if !p.idInput.Focused() {
		p.idInput.Focus()
	}
	if msg.String() == "enter" {
		id, err := strconv.ParseInt(strings.TrimSpace(p.idInput.Value()), 10, 64)
		if err != nil || id <= 0 {
			return p, status("enter a numeric part id")
		}
		return p, p.load(id)
	}
	var cmd tea.Cmd
	p.idInput, cmd = p.idInput.Update(msg)
	return p, cmd
}

func (p *partDetail) focusField(idx int) {
	if idx < 0 {
		idx = len(p.inputs) - 1
	}
	if idx >= len(p.inputs) {
		idx = 0
	}
	p.blurAll()
	p.focusIdx = idx
	p.inputs[idx].Focus()
}

// editing reports whether keystrokes are being captured by a text input.
func (p *partDetail) editing() bool {
	return p.focusIdx >= 0 || !p.loaded
}

func (p *partDetail) blurAll() {
	for i := range p.inputs {
		p.inputs[i].Blur()
	}
	p.focusIdx = -1
}

func (p *partDetail) openLinked(module model.ModuleKey) tea.Cmd {
	if !p.loaded {
		return nil
	}
	win := p.win
	title := moduleTitle(module) + " " + p.entity.Field(model.FieldNumber)
	return func() tea.Msg {
		return openLinkedMsg{win: win, module: module, title: title}
	}
}

func (p *partDetail) load(id int64) tea.Cmd {
	p.loadSeq++
	seq := p.loadSeq
	client := p.deps.Parts
	win := p.win
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		ent, err := client.Get(ctx, id)
		return entityLoadedMsg{win: win, seq: seq, entity: ent, err: err}
	}
}

func (p *partDetail) View(width, height int) string {
	var b strings.Builder

	if !p.loaded {
		if p.group.IsValid() {
			b.WriteString(FooterStyle.Render("waiting for a part from the linked list…"))
		} else {
			b.WriteString(p.idInput.View())
			b.WriteString("\n")
			b.WriteString(FooterStyle.Render("enter to load"))
		}
		if p.loadErr != nil {
			b.WriteString("\n")
			b.WriteString(ErrorStyle.Render(p.loadErr.Error()))
		}
		return b.String()
	}

	b.WriteString(TitleStyle.Render(p.entity.Field(model.FieldNumber)))
	b.WriteString("  ")
	b.WriteString(VersionStyle.Render(fmt.Sprintf("v%d", p.entity.Version)))
	b.WriteString("\n\n")

	for i, f := range detailFields {
		b.WriteString(LabelStyle.Render(f.label))
		b.WriteString(p.inputs[i].View())
		if p.sync.Unsaved(f.key) {
			b.WriteString(UnsavedStyle.Render(" ●unsaved"))
		} else if p.sync.Dirty(f.key) {
			b.WriteString(FooterStyle.Render(" …"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("↑/↓ fields  esc done  r reload  R retry unsaved"))
	return b.String()
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/feed"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// partStatuses are the server-side status filter values 'f' cycles through.
// The empty string means no filter.
var partStatuses = []string{"", "draft", "active", "obsolete"}

// partList is the master panel: a virtualized, searchable part list whose
// selection drives the window's linking group.
type partList struct {
	win  model.WindowID
	deps Deps

	feed   *feed.Feed
	search textinput.Model
	spin   spinner.Model

	searching  bool
	statusIdx  int
	offset     int // index of the first visible row
	lastHeight int
}

func newPartList(win model.Window, deps Deps) *partList {
	search := textinput.New()
	search.Placeholder = "search parts"
	search.Prompt = "/"
	search.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	p := &partList{win: win.ID, deps: deps, search: search, spin: sp}
	sink := func(req feed.Request) {
		deps.Send(fetchRequestMsg{win: win.ID, req: req})
	}
	p.feed = feed.New(sink, feed.Options{
		PageSize:    deps.Cfg.PageSize,
		SearchDelay: deps.Cfg.SearchDelay(),
	})
	return p
}

func (p *partList) Init() tea.Cmd {
	return tea.Batch(
		p.spin.Tick,
		func() tea.Msg {
			p.feed.LoadInitial()
			return nil
		},
	)
}

func (p *partList) Teardown() {}

// editing reports whether the search box is capturing keystrokes.
func (p *partList) editing() bool { return p.searching }

// CurrentSelection implements Publisher.
func (p *partList) CurrentSelection() (int64, map[string]string, bool) {
	row, ok := p.feed.SelectedRow()
	if !ok {
		return 0, nil, false
	}
	return row.ID, row.DisplayFields(), true
}

func (p *partList) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd

	case fetchRequestMsg:
		return p, p.fetch(msg.req)

	case feedResultMsg:
		applied := p.feed.Apply(msg.req, msg.page, msg.err)
		if msg.err != nil && applied {
			return p, status("parts: %v", msg.err)
		}
		if msg.req.Reset {
			p.offset = 0
		}
		// Select the first row of a fresh list so child windows have
		// a context the moment the group forms.
		if applied && p.feed.SelectedID() == 0 {
			if rows := p.feed.Rows(); len(rows) > 0 {
				p.feed.Select(rows[0].ID)
				return p, p.publishSelection()
			}
		}
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *partList) handleKey(msg tea.KeyMsg) (Panel, tea.Cmd) {
	if p.searching {
		switch msg.String() {
		case "esc", "enter":
			p.searching = false
			p.search.Blur()
			return p, nil
		}
		var cmd tea.Cmd
		p.search, cmd = p.search.Update(msg)
		term := p.search.Value()
		// Fuzzy-narrow the loaded rows immediately; the authoritative
		// server query follows once typing settles.
		p.feed.SetClientFilter(term)
		p.feed.SetSearch(term)
		p.offset = 0
		return p, cmd
	}

	switch msg.String() {
	case "/":
		p.searching = true
		return p, p.search.Focus()
	case "j", "down":
		return p, p.moveSelection(1)
	case "k", "up":
		return p, p.moveSelection(-1)
	case "pgdown":
		return p, p.moveSelection(p.pageSize())
	case "pgup":
		return p, p.moveSelection(-p.pageSize())
	case "g":
		return p, p.moveSelection(-p.feed.Len())
	case "G":
		return p, p.moveSelection(p.feed.Len())
	case "f":
		p.statusIdx = (p.statusIdx + 1) % len(partStatuses)
		v := partStatuses[p.statusIdx]
		p.feed.SetServerFilter("status", v)
		p.offset = 0
		if v == "" {
			return p, status("status filter off")
		}
		return p, status("status: %s", v)
	case "r":
		if p.feed.Paused() {
			p.feed.Retry()
		}
		return p, nil
	case "y":
		if row, ok := p.feed.SelectedRow(); ok {
			if err := clipboard.WriteAll(row.Field(model.FieldNumber)); err != nil {
				return p, status("clipboard: %v", err)
			}
			return p, status("copied %s", row.Field(model.FieldNumber))
		}
		return p, nil
	case "enter":
		return p, p.openLinked(model.ModulePartDetail)
	case "l":
		return p, p.openLinked(model.ModuleTechnology)
	case "o":
		return p, p.openLinked(model.ModuleQuote)
	}
	return p, nil
}

func (p *partList) openLinked(module model.ModuleKey) tea.Cmd {
	row, ok := p.feed.SelectedRow()
	if !ok {
		return status("no part selected")
	}
	title := moduleTitle(module) + " " + row.Field(model.FieldNumber)
	win := p.win
	return func() tea.Msg {
		return openLinkedMsg{win: win, module: module, title: title}
	}
}

func (p *partList) fetch(req feed.Request) tea.Cmd {
	client := p.deps.Parts
	win := p.win
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		page, err := client.List(ctx, req.Query)
		return feedResultMsg{win: win, req: req, page: page, err: err}
	}
}

func (p *partList) pageSize() int {
	if p.lastHeight > 4 {
		return p.lastHeight - 4
	}
	return 10
}

// moveSelection shifts the selection by delta rows, keeps it visible, and
// asks the feed for the next page when the view nears the loaded tail.
func (p *partList) moveSelection(delta int) tea.Cmd {
	rows := p.feed.Rows()
	if len(rows) == 0 {
		return nil
	}
	idx := 0
	for i, r := range rows {
		if r.ID == p.feed.SelectedID() {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(rows) {
		idx = len(rows) - 1
	}
	p.feed.Select(rows[idx].ID)

	visible := p.pageSize()
	if idx < p.offset {
		p.offset = idx
	}
	if idx >= p.offset+visible {
		p.offset = idx - visible + 1
	}
	p.feed.MaybeLoadMore(p.offset + visible - 1)
	return p.publishSelection()
}

func (p *partList) publishSelection() tea.Cmd {
	row, ok := p.feed.SelectedRow()
	if !ok {
		return nil
	}
	win := p.win
	fields := row.DisplayFields()
	id := row.ID
	return func() tea.Msg {
		return selectionMsg{win: win, entityID: id, fields: fields}
	}
}

func (p *partList) View(width, height int) string {
	p.lastHeight = height
	var b strings.Builder

	header := p.search.View()
	if !p.searching && p.search.Value() == "" {
		header = FooterStyle.Render("/ search  f filter  enter detail  l tech  o quote")
	}
	if v := partStatuses[p.statusIdx]; v != "" {
		header += "  " + UnsavedStyle.Render("["+v+"]")
	}
	b.WriteString(header)
	b.WriteString("\n")

	listH := height - 3
	if listH < 1 {
		listH = 1
	}
	rows, start := p.feed.Visible(p.offset, listH)
	selected := p.feed.SelectedID()
	shown := 0
	for i, row := range rows {
		if start+i < p.offset {
			continue
		}
		if shown >= listH {
			break
		}
		line := fmt.Sprintf("%-12s %-24s %-10s %s",
			row.Field(model.FieldNumber),
			row.Field(model.FieldName),
			row.Field(model.FieldMaterial),
			row.Field(model.FieldStatus))
		if row.ID == selected {
			b.WriteString(SelectedRowStyle.Render("▸ " + line))
		} else {
			b.WriteString(RowStyle.Render("  " + line))
		}
		b.WriteString("\n")
		shown++
	}
	for ; shown < listH; shown++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.footer())
	return b.String()
}

func (p *partList) footer() string {
	switch {
	case p.feed.Paused():
		return ErrorStyle.Render("load failed") + FooterStyle.Render("  r retry")
	case p.feed.InFlight():
		return p.spin.View() + FooterStyle.Render(" loading…")
	default:
		note := ""
		if p.feed.Exhausted() {
			note = "  all loaded"
		}
		return FooterStyle.Render(fmt.Sprintf("%d of %d%s", p.feed.Len(), p.feed.Total(), note))
	}
}

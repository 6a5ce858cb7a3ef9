package ui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/layoutstore"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/wm"
)

const (
	statusBarRows = 1
	logCap        = 100

	sidebarKey = "sidebar"
	sidebarDef = 34
	sidebarMin = 24
	sidebarMax = 70
)

type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragResize
	dragSidebar
)

type dragState struct {
	mode         dragMode
	win          model.WindowID
	lastX, lastY int
	startX       int
}

// panelLink records the linking metadata a panel was mounted with. Panels
// subscribe at construction, so a window relinked by a layout load needs a
// fresh mount.
type panelLink struct {
	group model.LinkingColor
	role  model.WindowRole
}

// editor is implemented by panels whose focused text input should win plain
// keystrokes over workspace shortcuts.
type editor interface {
	editing() bool
}

// App is the workspace root: it owns the window manager, mounts a panel per
// window, routes messages, and composites everything into one frame.
type App struct {
	deps    Deps
	windows *wm.Manager
	orch    *linking.Orchestrator
	layouts *layoutstore.Store

	panels map[model.WindowID]Panel
	links  map[model.WindowID]panelLink

	width, height int
	ready         bool

	help     helpOverlay
	dlg      *dialog
	dlgQueue []dialogRequestMsg

	sidebar     *RegionResize
	sidebarOpen bool
	log         []string
	flash       string

	drag        dragState
	startLayout string
}

// NewApp wires the workspace together. deps.Send may be set after program
// construction via SetSend.
func NewApp(deps Deps, windows *wm.Manager, layouts *layoutstore.Store) *App {
	a := &App{
		deps:    deps,
		windows: windows,
		layouts: layouts,
		panels:  make(map[model.WindowID]Panel),
		links:   make(map[model.WindowID]panelLink),
	}
	a.orch = linking.NewOrchestrator(windows, deps.Context, func(s string) { a.note(s) })
	a.sidebar = NewRegionResize(sidebarKey, sidebarDef, sidebarMin, sidebarMax, layouts)
	return a
}

// SetSend installs the program's message injector on the shared deps.
func (a *App) SetSend(send func(tea.Msg)) {
	a.deps.Send = send
}

// ApplyLayoutOnStart applies a saved layout instead of the default window
// once the first terminal size arrives.
func (a *App) ApplyLayoutOnStart(name string) {
	a.startLayout = name
}

func (a *App) Init() tea.Cmd { return nil }

// note records a line in the activity log and flashes it in the status bar.
func (a *App) note(s string) {
	a.flash = s
	a.log = append(a.log, s)
	if len(a.log) > logCap {
		a.log = a.log[len(a.log)-logCap:]
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.windows.SetViewport(msg.Width, msg.Height-statusBarRows)
		if !a.ready {
			a.ready = true
			if a.startLayout != "" {
				return a, a.applyLayout(a.startLayout)
			}
			a.windows.OpenWindow(model.ModulePartList, wm.OpenOptions{Title: moduleTitle(model.ModulePartList)})
			return a, tea.Batch(a.reconcilePanels()...)
		}
		return a, nil

	case StatusMsg:
		a.note(string(msg))
		return a, nil

	case LayoutsChangedMsg:
		a.note("layout database changed on disk")
		return a, nil

	case selectionMsg:
		if win, ok := a.windows.Get(msg.win); ok && win.Role == model.RoleMaster && win.LinkingGroup.IsValid() {
			a.deps.Context.SetContext(win.LinkingGroup, msg.entityID, msg.fields)
		}
		return a, nil

	case openLinkedMsg:
		if _, ok := a.orch.OpenLinked(msg.win, msg.module, msg.title); ok {
			return a, tea.Batch(a.reconcilePanels()...)
		}
		return a, nil

	case dialogRequestMsg:
		if a.dlg != nil {
			// One modal at a time; later requests wait their turn.
			a.dlgQueue = append(a.dlgQueue, msg)
			return a, nil
		}
		a.dlg = newConfirmDialog(msg)
		return a, a.dlg.Init()

	case dialogResultMsg:
		return a, a.handleDialogResult(msg)
	}

	// Window-addressed messages reach their panel even while a dialog or
	// the help overlay is up; fetches and commits must keep resolving.
	if wmsg, ok := msg.(windowMsg); ok {
		return a, a.routeToPanel(wmsg.windowID(), msg)
	}

	if a.dlg != nil {
		done, result, cmd := a.dlg.Update(msg)
		if done {
			a.dlg = nil
			cmds := []tea.Cmd{cmd, a.openQueuedDialog()}
			if result != nil {
				cmds = append(cmds, func() tea.Msg { return result })
			}
			return a, tea.Batch(cmds...)
		}
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.help.Visible() {
			a.help.Hide()
			return a, nil
		}
		return a, a.handleKey(msg)
	case tea.MouseMsg:
		return a, a.handleMouse(msg)
	}

	// Everything else (spinner ticks, input blinks) is broadcast; bubbles
	// components ignore messages that are not theirs.
	return a, a.broadcast(msg)
}

// openQueuedDialog promotes the next held dialog request, if any.
func (a *App) openQueuedDialog() tea.Cmd {
	if len(a.dlgQueue) == 0 {
		return nil
	}
	next := a.dlgQueue[0]
	a.dlgQueue = a.dlgQueue[1:]
	a.dlg = newConfirmDialog(next)
	return a.dlg.Init()
}

func (a *App) routeToPanel(id model.WindowID, msg tea.Msg) tea.Cmd {
	p, ok := a.panels[id]
	if !ok {
		return nil
	}
	next, cmd := p.Update(msg)
	a.panels[id] = next
	return cmd
}

func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for id, p := range a.panels {
		next, cmd := p.Update(msg)
		a.panels[id] = next
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// reconcilePanels aligns mounted panels with the window manager after any
// open, close, or layout change. New windows get panels (and, for
// publishers, a group hook that republishes the selection the moment a color
// is assigned); windows whose linking metadata changed under a reused panel
// are remounted; orphaned panels are torn down.
func (a *App) reconcilePanels() []tea.Cmd {
	var cmds []tea.Cmd
	seen := make(map[model.WindowID]bool)
	for _, win := range a.windows.Windows() {
		seen[win.ID] = true
		if _, ok := a.panels[win.ID]; ok {
			link := a.links[win.ID]
			if link.group == win.LinkingGroup && link.role == win.Role {
				continue
			}
			// A layout load relinked this window; the mounted panel still
			// holds the old group's subscription.
			a.unmount(win.ID)
		}
		p := newPanel(win, a.deps)
		a.panels[win.ID] = p
		a.links[win.ID] = panelLink{group: win.LinkingGroup, role: win.Role}
		if cmd := p.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if pub, ok := p.(Publisher); ok {
			store := a.deps.Context
			a.orch.SetGroupAssignedHook(win.ID, func(color model.LinkingColor) {
				if id, fields, ok := pub.CurrentSelection(); ok {
					store.SetContext(color, id, fields)
				}
			})
		}
	}
	for id := range a.panels {
		if !seen[id] {
			a.unmount(id)
		}
	}
	return cmds
}

// unmount tears a panel down and forgets its mount metadata.
func (a *App) unmount(id model.WindowID) {
	if p, ok := a.panels[id]; ok {
		p.Teardown()
	}
	a.orch.SetGroupAssignedHook(id, nil)
	delete(a.panels, id)
	delete(a.links, id)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	focused := a.windows.Topmost()

	// A panel in text entry owns plain keys; workspace chords still apply.
	capturing := false
	if p, ok := a.panels[focused]; ok {
		if e, ok := p.(editor); ok {
			capturing = e.editing()
		}
	}

	switch msg.String() {
	case "ctrl+c":
		return a.quit()
	case "ctrl+n":
		a.windows.OpenWindow(model.ModulePartList, wm.OpenOptions{Title: moduleTitle(model.ModulePartList)})
		return tea.Batch(a.reconcilePanels()...)
	case "ctrl+w":
		if focused != 0 {
			a.windows.CloseWindow(focused)
			return tea.Batch(a.reconcilePanels()...)
		}
		return nil
	case "tab":
		if !capturing {
			a.cycleFocus()
			return nil
		}
	case "ctrl+b":
		a.windows.Minimize(focused)
		return nil
	case "ctrl+f":
		if win, ok := a.windows.Get(focused); ok {
			if win.Maximized {
				a.windows.Restore(focused)
			} else {
				a.windows.Maximize(focused)
			}
		}
		return nil
	case "alt+up":
		a.windows.Move(focused, 0, -1)
		return nil
	case "alt+down":
		a.windows.Move(focused, 0, 1)
		return nil
	case "alt+left":
		a.windows.Move(focused, -2, 0)
		return nil
	case "alt+right":
		a.windows.Move(focused, 2, 0)
		return nil
	case "ctrl+up":
		a.windows.Resize(focused, 0, -1)
		return nil
	case "ctrl+down":
		a.windows.Resize(focused, 0, 1)
		return nil
	case "ctrl+left":
		a.windows.Resize(focused, -2, 0)
		return nil
	case "ctrl+right":
		a.windows.Resize(focused, 2, 0)
		return nil
	case "ctrl+s":
		a.dlg = newInputDialog("savelayout", "Save layout as", "name")
		return a.dlg.Init()
	case "ctrl+o":
		names, err := a.layouts.ListLayouts()
		if err != nil {
			a.note(fmt.Sprintf("layouts: %v", err))
			return nil
		}
		if len(names) == 0 {
			a.note("no saved layouts")
			return nil
		}
		a.dlg = newSelectDialog("openlayout", "Open layout", names)
		return a.dlg.Init()
	case "ctrl+e":
		a.sidebarOpen = !a.sidebarOpen
		return nil
	case "?":
		if !capturing {
			a.help.Toggle()
			return nil
		}
	}

	return a.routeToPanel(focused, msg)
}

// quit flushes every panel's pending work before stopping the program.
func (a *App) quit() tea.Cmd {
	for _, p := range a.panels {
		p.Teardown()
	}
	return tea.Quit
}

func (a *App) cycleFocus() {
	wins := a.windows.Windows()
	visible := wins[:0]
	for _, w := range wins {
		if !w.Minimized {
			visible = append(visible, w)
		}
	}
	if len(visible) < 2 {
		return
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].ZIndex < visible[j].ZIndex })
	// The bottom window comes to the top.
	a.windows.FocusWindow(visible[0].ID)
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return a.routeToPanel(a.windowAt(msg.X, msg.Y), tea.KeyMsg{Type: tea.KeyUp})
		case tea.MouseButtonWheelDown:
			return a.routeToPanel(a.windowAt(msg.X, msg.Y), tea.KeyMsg{Type: tea.KeyDown})
		case tea.MouseButtonLeft:
			return a.mouseDown(msg.X, msg.Y)
		}
	case tea.MouseActionMotion:
		a.mouseDrag(msg.X, msg.Y)
	case tea.MouseActionRelease:
		a.mouseUp()
	}
	return nil
}

func (a *App) mouseDown(x, y int) tea.Cmd {
	if a.sidebarOpen {
		divider := a.width - a.sidebar.Size() - 1
		if x == divider || x == divider+1 {
			a.drag = dragState{mode: dragSidebar, startX: x}
			a.sidebar.Start(x)
			return nil
		}
	}

	id := a.windowAt(x, y)
	if id == 0 {
		return a.restoreMinimizedAt(x, y)
	}
	win, _ := a.windows.Get(id)
	a.windows.FocusWindow(id)

	switch {
	case x >= win.Geom.X+win.Geom.W-2 && y >= win.Geom.Y+win.Geom.H-1:
		a.drag = dragState{mode: dragResize, win: id, lastX: x, lastY: y}
	case y <= win.Geom.Y+1:
		a.drag = dragState{mode: dragMove, win: id, lastX: x, lastY: y}
	}
	return nil
}

func (a *App) mouseDrag(x, y int) {
	switch a.drag.mode {
	case dragMove:
		a.windows.Move(a.drag.win, x-a.drag.lastX, y-a.drag.lastY)
		a.drag.lastX, a.drag.lastY = x, y
	case dragResize:
		a.windows.Resize(a.drag.win, x-a.drag.lastX, y-a.drag.lastY)
		a.drag.lastX, a.drag.lastY = x, y
	case dragSidebar:
		// Dragging left grows the right-hand sidebar.
		a.sidebar.Move(a.drag.startX + (a.drag.startX - x))
	}
}

func (a *App) mouseUp() {
	switch a.drag.mode {
	case dragMove:
		a.windows.EndMove(a.drag.win)
	case dragResize:
		a.windows.EndResize(a.drag.win)
	case dragSidebar:
		if err := a.sidebar.End(); err != nil {
			a.note(fmt.Sprintf("sidebar size: %v", err))
		}
		if a.width > 0 {
			a.windows.SetProportion(sidebarKey, float64(a.sidebar.Size())/float64(a.width)*100)
		}
	}
	a.drag = dragState{}
}

// windowAt hit-tests the visible windows top-down.
func (a *App) windowAt(x, y int) model.WindowID {
	wins := a.windows.Windows()
	sort.Slice(wins, func(i, j int) bool { return wins[i].ZIndex > wins[j].ZIndex })
	for _, w := range wins {
		if w.Minimized {
			continue
		}
		g := w.Geom
		if x >= g.X && x < g.X+g.W && y >= g.Y && y < g.Y+g.H {
			return w.ID
		}
	}
	return 0
}

// restoreMinimizedAt restores a minimized window when its status bar chip is
// clicked. Chips sit on the status bar row, left to right.
func (a *App) restoreMinimizedAt(x, y int) tea.Cmd {
	if y != a.height-1 {
		return nil
	}
	col := 0
	for _, w := range a.windows.Windows() {
		if !w.Minimized {
			continue
		}
		chipW := lipgloss.Width(MinimizedChipStyle.Render(w.Title))
		if x >= col && x < col+chipW {
			a.windows.Restore(w.ID)
			return nil
		}
		col += chipW + 1
	}
	return nil
}

func (a *App) handleDialogResult(msg dialogResultMsg) tea.Cmd {
	if msg.win != 0 {
		return a.routeToPanel(msg.win, msg)
	}
	switch msg.tag {
	case "savelayout":
		if !msg.accepted || strings.TrimSpace(msg.value) == "" {
			return nil
		}
		name := strings.TrimSpace(msg.value)
		layout := a.windows.SnapshotLayout(name)
		if err := a.layouts.SaveLayout(layout); err != nil {
			a.note(fmt.Sprintf("save layout: %v", err))
			return nil
		}
		a.windows.ClearLayoutDirty()
		a.note(fmt.Sprintf("layout %q saved", name))
	case "openlayout":
		if !msg.accepted || msg.value == "" {
			return nil
		}
		return a.applyLayout(msg.value)
	}
	return nil
}

func (a *App) applyLayout(name string) tea.Cmd {
	layout, err := a.layouts.LoadLayout(name)
	switch {
	case errors.Is(err, layoutstore.ErrNotFound):
		a.note(fmt.Sprintf("layout %q no longer exists", name))
		return nil
	case errors.Is(err, layoutstore.ErrCorrupt):
		// Unreadable document: fall back to an empty workspace instead of
		// failing the whole apply.
		a.windows.ApplyLayout(model.Layout{Name: name})
		a.note(fmt.Sprintf("layout %q is unreadable, starting empty", name))
		return tea.Batch(a.reconcilePanels()...)
	case err != nil:
		a.note(fmt.Sprintf("open layout: %v", err))
		return nil
	}
	a.windows.ApplyLayout(layout)
	if pct, ok := a.windows.Proportion(sidebarKey); ok && a.width > 0 {
		a.sidebar.Restore(int(pct * float64(a.width) / 100))
	}
	a.note(fmt.Sprintf("layout %q applied", name))
	return tea.Batch(a.reconcilePanels()...)
}

func (a *App) View() string {
	if !a.ready {
		return "starting…"
	}
	workspaceH := a.height - statusBarRows

	wins := a.windows.Windows()
	sort.Slice(wins, func(i, j int) bool { return wins[i].ZIndex < wins[j].ZIndex })
	focused := a.windows.Topmost()

	var layers []layer
	for _, win := range wins {
		if win.Minimized {
			continue
		}
		p, ok := a.panels[win.ID]
		if !ok {
			continue
		}
		innerW, innerH := innerSize(win.Geom)
		body := p.View(innerW, innerH)
		layers = append(layers, layer{
			x:       win.Geom.X,
			y:       win.Geom.Y,
			content: renderWindow(win, body, win.ID == focused),
		})
	}

	if a.sidebarOpen {
		layers = append(layers, layer{
			x:       a.width - a.sidebar.Size(),
			y:       0,
			content: a.renderSidebar(workspaceH),
		})
	}

	if a.dlg != nil {
		layers = append(layers, a.centered(a.dlg.View(), workspaceH))
	}
	if a.help.Visible() {
		layers = append(layers, a.centered(a.help.View(a.width), workspaceH))
	}

	return compose(a.width, workspaceH, layers) + "\n" + a.statusBar()
}

func (a *App) centered(content string, workspaceH int) layer {
	w := lipgloss.Width(content)
	h := lipgloss.Height(content)
	return layer{x: (a.width - w) / 2, y: (workspaceH - h) / 2, content: content}
}

func (a *App) renderSidebar(height int) string {
	w := a.sidebar.Size() - 1
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Activity"))
	b.WriteString("\n")
	lines := a.log
	if max := height - 2; len(lines) > max && max > 0 {
		lines = lines[len(lines)-max:]
	}
	for _, l := range lines {
		b.WriteString(FooterStyle.Render(l))
		b.WriteString("\n")
	}
	return SidebarStyle.Render(fitBlock(b.String(), w, height))
}

func (a *App) statusBar() string {
	var left strings.Builder
	for _, w := range a.windows.Windows() {
		if w.Minimized {
			left.WriteString(MinimizedChipStyle.Render(w.Title))
			left.WriteString(" ")
		}
	}
	if left.Len() == 0 {
		left.WriteString(StatusKeyStyle.Render(" gw "))
		for color := range a.windows.LiveColors() {
			left.WriteString(lipgloss.NewStyle().Foreground(LinkColor(color)).Render(" ●"))
		}
	}

	right := a.flash
	if right == "" {
		right = "? help  ctrl+n new list  ctrl+c quit"
	}
	if a.windows.LayoutDirty() {
		right += "  [layout*]"
	}

	gap := a.width - lipgloss.Width(left.String()) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	bar := left.String() + strings.Repeat(" ", gap) + right + " "
	return StatusBarStyle.Width(a.width).Render(bar)
}

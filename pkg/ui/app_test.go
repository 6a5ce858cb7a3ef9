package ui

import (
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/config"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/layoutstore"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/wm"
)

// sentRecorder captures messages panels inject from callbacks so tests can
// assert on them without a running program.
type sentRecorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *sentRecorder) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *sentRecorder) contextMsgs() []contextMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []contextMsg
	for _, m := range r.msgs {
		if cm, ok := m.(contextMsg); ok {
			out = append(out, cm)
		}
	}
	return out
}

func newTestApp(t *testing.T) (*App, *sentRecorder) {
	t.Helper()
	layouts, err := layoutstore.Open(filepath.Join(t.TempDir(), "layouts.db"))
	if err != nil {
		t.Fatalf("layoutstore: %v", err)
	}
	t.Cleanup(func() { layouts.Close() })

	rec := &sentRecorder{}
	deps := Deps{
		Parts:        api.NewClient("http://127.0.0.1:1", "parts"),
		Technologies: api.NewClient("http://127.0.0.1:1", "technologies"),
		Quotes:       api.NewClient("http://127.0.0.1:1", "quotes"),
		Context:      linking.NewStore(),
		Cfg:          config.Default(),
		Send:         rec.send,
	}
	windows := wm.NewManager(120, 40, wm.Options{
		MinWidth: 30, MinHeight: 8, SnapThreshold: 2, CascadeStep: 3,
	})
	a := NewApp(deps, windows, layouts)
	a.SetSend(rec.send)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a, rec
}

func TestApp_FirstSizeOpensPartList(t *testing.T) {
	a, _ := newTestApp(t)

	wins := a.windows.Windows()
	if len(wins) != 1 {
		t.Fatalf("windows = %d, want 1", len(wins))
	}
	if wins[0].Module != model.ModulePartList {
		t.Errorf("module = %q", wins[0].Module)
	}
	if _, ok := a.panels[wins[0].ID]; !ok {
		t.Error("no panel mounted for the initial window")
	}
}

func TestApp_SelectionPublishesOnlyForMasters(t *testing.T) {
	a, _ := newTestApp(t)
	master := a.windows.Windows()[0].ID

	// Standalone window: selection must not reach any group.
	a.Update(selectionMsg{win: master, entityID: 7, fields: map[string]string{"number": "PRT-7"}})
	for _, c := range model.LinkingColors {
		if e := a.deps.Context.Current(c); e.EntityID != 0 {
			t.Fatalf("context on %v before any group exists", c)
		}
	}

	a.Update(openLinkedMsg{win: master, module: model.ModuleQuote, title: "Quote"})
	win, _ := a.windows.Get(master)
	if win.Role != model.RoleMaster || !win.LinkingGroup.IsValid() {
		t.Fatalf("master not promoted: role=%q group=%v", win.Role, win.LinkingGroup)
	}

	a.Update(selectionMsg{win: master, entityID: 7, fields: map[string]string{"number": "PRT-7"}})
	if e := a.deps.Context.Current(win.LinkingGroup); e.EntityID != 7 {
		t.Errorf("context entity = %d, want 7", e.EntityID)
	}
}

func TestApp_LinkedChildReceivesContext(t *testing.T) {
	a, rec := newTestApp(t)
	master := a.windows.Windows()[0].ID

	a.Update(openLinkedMsg{win: master, module: model.ModuleQuote, title: "Quote"})
	if len(a.windows.Windows()) != 2 {
		t.Fatalf("windows = %d, want 2", len(a.windows.Windows()))
	}
	win, _ := a.windows.Get(master)

	a.deps.Context.SetContext(win.LinkingGroup, 42, map[string]string{"number": "PRT-42"})
	msgs := rec.contextMsgs()
	if len(msgs) == 0 {
		t.Fatal("child subscription delivered nothing")
	}
	last := msgs[len(msgs)-1]
	if last.entry.EntityID != 42 {
		t.Errorf("entity = %d, want 42", last.entry.EntityID)
	}
}

func TestApp_ClosedChildStopsReceivingContext(t *testing.T) {
	a, rec := newTestApp(t)
	master := a.windows.Windows()[0].ID

	a.Update(openLinkedMsg{win: master, module: model.ModuleQuote, title: "Quote"})
	win, _ := a.windows.Get(master)

	var child model.WindowID
	for _, w := range a.windows.Windows() {
		if w.ID != master {
			child = w.ID
		}
	}
	a.windows.CloseWindow(child)
	a.reconcilePanels()
	if _, ok := a.panels[child]; ok {
		t.Fatal("closed window still has a panel")
	}

	before := len(rec.contextMsgs())
	a.deps.Context.SetContext(win.LinkingGroup, 9, map[string]string{"number": "PRT-9"})
	if got := len(rec.contextMsgs()); got != before {
		t.Errorf("context msgs = %d after close, want %d", got, before)
	}
}

func TestApp_SecondDialogWaitsForFirst(t *testing.T) {
	a, _ := newTestApp(t)

	req := dialogRequestMsg{
		win: 1, tag: "conflict", kind: dialogConfirm,
		title: "Edit conflict", body: "x", affirm: "Reload", negative: "Keep mine",
	}
	a.Update(req)
	if a.dlg == nil {
		t.Fatal("first dialog not opened")
	}
	first := a.dlg

	a.Update(dialogRequestMsg{win: 2, tag: "conflict", kind: dialogConfirm, title: "t"})
	if a.dlg != first {
		t.Fatal("second dialog replaced the pending one")
	}
	if len(a.dlgQueue) != 1 || a.dlgQueue[0].win != 2 {
		t.Fatalf("held requests = %+v", a.dlgQueue)
	}

	// Dismissing the first prompt must surface the held one, not drop it.
	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.dlg == nil || a.dlg == first {
		t.Fatal("held dialog did not open after the first resolved")
	}
	if a.dlg.win != 2 {
		t.Errorf("opened dialog win = %d, want 2", a.dlg.win)
	}
	if len(a.dlgQueue) != 0 {
		t.Errorf("queue not drained: %d left", len(a.dlgQueue))
	}
}

func TestApp_RelinkedWindowRemountsItsPanel(t *testing.T) {
	a, rec := newTestApp(t)
	for _, w := range a.windows.Windows() {
		a.windows.CloseWindow(w.ID)
	}
	a.reconcilePanels()

	// A standalone technology window carries no subscription.
	tech := a.windows.OpenWindow(model.ModuleTechnology, wm.OpenOptions{Title: "Technology"})
	a.reconcilePanels()

	layout := model.Layout{Name: "bench", Windows: []model.LayoutWindow{
		{
			Module: model.ModulePartList, Title: "Parts",
			LinkingGroup: model.ColorRed, Role: model.RoleMaster,
			Geometry: model.GeometryRatio{X: 0, Y: 0, W: 0.5, H: 0.9},
		},
		{
			Module: model.ModuleTechnology, Title: "Technology",
			LinkingGroup: model.ColorRed, Role: model.RoleChild,
			Geometry: model.GeometryRatio{X: 0.5, Y: 0, W: 0.5, H: 0.9},
		},
	}}
	a.windows.ApplyLayout(layout)
	a.reconcilePanels()

	win, _ := a.windows.Get(tech)
	if win.LinkingGroup != model.ColorRed {
		t.Fatalf("layout did not relink the reused window: %v", win.LinkingGroup)
	}

	before := len(rec.contextMsgs())
	a.deps.Context.SetContext(model.ColorRed, 42, map[string]string{"number": "PRT-42"})
	msgs := rec.contextMsgs()
	if len(msgs) <= before {
		t.Fatal("relinked technology window received no context update")
	}
	last := msgs[len(msgs)-1]
	if last.win != tech || last.entry.EntityID != 42 {
		t.Errorf("context delivery = win %d entity %d, want win %d entity 42",
			last.win, last.entry.EntityID, tech)
	}
}

func TestApp_SaveAndApplyLayoutRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)
	master := a.windows.Windows()[0].ID
	a.Update(openLinkedMsg{win: master, module: model.ModuleTechnology, title: "Technology"})

	a.handleDialogResult(dialogResultMsg{tag: "savelayout", accepted: true, value: "bench"})
	if names, _ := a.layouts.ListLayouts(); len(names) != 1 || names[0] != "bench" {
		t.Fatalf("saved layouts = %v", names)
	}

	for _, w := range a.windows.Windows() {
		a.windows.CloseWindow(w.ID)
	}
	a.reconcilePanels()
	if len(a.panels) != 0 {
		t.Fatalf("panels = %d after closing all", len(a.panels))
	}

	a.applyLayout("bench")
	wins := a.windows.Windows()
	if len(wins) != 2 {
		t.Fatalf("windows after apply = %d, want 2", len(wins))
	}
	if len(a.panels) != 2 {
		t.Errorf("panels after apply = %d, want 2", len(a.panels))
	}

	// A vanished layout fails soft.
	a.applyLayout("gone")
	if a.flash != `layout "gone" no longer exists` {
		t.Errorf("flash = %q", a.flash)
	}
}

func TestApp_WindowAtHitsTopmost(t *testing.T) {
	a, _ := newTestApp(t)
	master := a.windows.Windows()[0].ID
	a.Update(openLinkedMsg{win: master, module: model.ModuleQuote, title: "Quote"})

	var child model.WindowID
	for _, w := range a.windows.Windows() {
		if w.ID != master {
			child = w.ID
		}
	}
	cw, _ := a.windows.Get(child)
	// The child cascades over the master and is topmost; a point inside it
	// must resolve to the child even where the master is underneath.
	if got := a.windowAt(cw.Geom.X+1, cw.Geom.Y+1); got != child {
		t.Errorf("windowAt = %d, want child %d", got, child)
	}
	if got := a.windowAt(3000, 3000); got != 0 {
		t.Errorf("windowAt outside = %d, want 0", got)
	}
}

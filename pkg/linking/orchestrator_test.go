package linking

import (
	"testing"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/wm"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *wm.Manager, *Store, *[]string) {
	t.Helper()
	windows := wm.NewManager(1600, 1000, wm.Options{})
	store := NewStore()
	var warnings []string
	o := NewOrchestrator(windows, store, func(msg string) { warnings = append(warnings, msg) })
	return o, windows, store, &warnings
}

func TestOpenLinked_PromotesStandaloneToMaster(t *testing.T) {
	o, windows, _, _ := newTestOrchestrator(t)

	masterID := windows.OpenWindow(model.ModulePartList, wm.OpenOptions{})
	childID, ok := o.OpenLinked(masterID, model.ModuleTechnology, "Technology")
	if !ok {
		t.Fatal("OpenLinked failed")
	}

	master, _ := windows.Get(masterID)
	child, _ := windows.Get(childID)

	if master.Role != model.RoleMaster {
		t.Errorf("Expected master role, got %q", master.Role)
	}
	if master.LinkingGroup != model.ColorRed {
		t.Errorf("Expected lowest color (red), got %s", master.LinkingGroup)
	}
	if child.Role != model.RoleChild || child.LinkingGroup != master.LinkingGroup {
		t.Errorf("Child not linked to master group: %+v", child)
	}
	if err := master.Validate(); err != nil {
		t.Errorf("Master invariant broken: %v", err)
	}
	if err := child.Validate(); err != nil {
		t.Errorf("Child invariant broken: %v", err)
	}
}

func TestOpenLinked_RepublishRunsBeforeChildOpens(t *testing.T) {
	o, windows, store, _ := newTestOrchestrator(t)

	masterID := windows.OpenWindow(model.ModulePartList, wm.OpenOptions{})
	o.SetGroupAssignedHook(masterID, func(color model.LinkingColor) {
		// The master republishes its current selection the moment the group
		// is assigned, before the child window exists.
		if len(windows.GroupWindows(color)) != 1 {
			t.Errorf("Hook ran after the child was opened")
		}
		store.SetContext(color, 42, map[string]string{"number": "P-42"})
	})

	childID, ok := o.OpenLinked(masterID, model.ModuleTechnology, "Technology")
	if !ok {
		t.Fatal("OpenLinked failed")
	}

	// The child's initial subscription read is never stale.
	child, _ := windows.Get(childID)
	entry := store.Current(child.LinkingGroup)
	if entry.EntityID != 42 || entry.GroupVersion != 1 {
		t.Errorf("Child sees stale context: %+v", entry)
	}
}

func TestOpenLinked_SecondChildInheritsColor(t *testing.T) {
	o, windows, _, _ := newTestOrchestrator(t)

	masterID := windows.OpenWindow(model.ModulePartList, wm.OpenOptions{})
	first, _ := o.OpenLinked(masterID, model.ModuleTechnology, "Technology")
	second, _ := o.OpenLinked(masterID, model.ModuleQuote, "Quote")

	master, _ := windows.Get(masterID)
	w1, _ := windows.Get(first)
	w2, _ := windows.Get(second)
	if w1.LinkingGroup != master.LinkingGroup || w2.LinkingGroup != master.LinkingGroup {
		t.Errorf("Children did not inherit the master color")
	}
	if len(windows.GroupWindows(master.LinkingGroup)) != 3 {
		t.Errorf("Expected 3 windows in the group")
	}
}

func TestOpenLinked_ColorUniquenessAcrossLineages(t *testing.T) {
	o, windows, _, _ := newTestOrchestrator(t)

	seen := make(map[model.LinkingColor]model.WindowID)
	for i := 0; i < len(model.LinkingColors); i++ {
		masterID := windows.OpenWindow(model.ModulePartList, wm.OpenOptions{})
		_, ok := o.OpenLinked(masterID, model.ModuleTechnology, "t")
		if !ok {
			t.Fatalf("Lineage %d failed to link", i)
		}
		master, _ := windows.Get(masterID)
		if prev, dup := seen[master.LinkingGroup]; dup {
			t.Fatalf("Color %s assigned to masters %d and %d simultaneously",
				master.LinkingGroup, prev, masterID)
		}
		seen[master.LinkingGroup] = masterID
	}
}

func TestOpenLinked_AllColorsBusyFailsSoft(t *testing.T) {
	o, windows, _, warnings := newTestOrchestrator(t)

	for i := 0; i < len(model.LinkingColors); i++ {
		masterID := windows.OpenWindow(model.ModulePartList, wm.OpenOptions{})
		o.OpenLinked(masterID, model.ModuleTechnology, "t")
	}

	masterID := windows.OpenWindow(model.ModulePartList, wm.OpenOptions{})
	before := len(windows.Windows())
	id, ok := o.OpenLinked(masterID, model.ModuleTechnology, "t")

	if ok || id != 0 {
		t.Errorf("Expected soft failure, got id=%d ok=%v", id, ok)
	}
	if len(*warnings) != 1 {
		t.Errorf("Expected exactly one surfaced warning, got %d", len(*warnings))
	}
	if len(windows.Windows()) != before {
		t.Errorf("Soft failure must not open a window")
	}
	master, _ := windows.Get(masterID)
	if master.LinkingGroup != model.ColorNone || master.Role != model.RoleNone {
		t.Errorf("Soft failure must leave the caller standalone: %+v", master)
	}
}

func TestOpenLinked_ColorReusableAfterLineageCloses(t *testing.T) {
	o, windows, store, _ := newTestOrchestrator(t)

	masterID := windows.OpenWindow(model.ModulePartList, wm.OpenOptions{})
	childID, _ := o.OpenLinked(masterID, model.ModuleTechnology, "t")
	master, _ := windows.Get(masterID)
	color := master.LinkingGroup
	store.SetContext(color, 42, nil)

	// Master closes first: children are not promoted, the group stays alive.
	windows.CloseWindow(masterID)
	if store.Current(color).EntityID != 42 {
		t.Errorf("Context cleared while a child still references the color")
	}
	if live := windows.LiveColors(); !live[color] {
		t.Errorf("Color must stay live while the child is open")
	}

	// Last member closes: context clears and the color becomes allocatable.
	windows.CloseWindow(childID)
	if store.Current(color).GroupVersion != 0 {
		t.Errorf("Context not cleared after the lineage fully closed")
	}
	got, ok := AllocateColor(windows.LiveColors())
	if !ok || got != color {
		t.Errorf("Expected %s reusable after lineage closed, got %s ok=%v", color, got, ok)
	}
}

func TestOpenLinked_UnknownMasterIsNoop(t *testing.T) {
	o, windows, _, warnings := newTestOrchestrator(t)

	id, ok := o.OpenLinked(999, model.ModuleTechnology, "t")
	if ok || id != 0 {
		t.Errorf("Expected no-op for unknown master")
	}
	if len(windows.Windows()) != 0 || len(*warnings) != 0 {
		t.Errorf("Unknown master must not open windows or warn")
	}
}

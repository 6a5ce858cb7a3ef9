package linking

import (
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/wm"
)

// AllocateColor returns the lowest-numbered color not referenced by any open
// window, or ok=false when every color is held by a live lineage. A color is
// reusable only once its previous lineage fully closed; reusing a live color
// would cross-contaminate two unrelated selections.
func AllocateColor(live map[model.LinkingColor]bool) (model.LinkingColor, bool) {
	for _, c := range model.LinkingColors {
		if !live[c] {
			return c, true
		}
	}
	return model.ColorNone, false
}

// GroupAssignedFunc is the caller-supplied hook invoked synchronously when a
// standalone window becomes a group master. The master republishes its
// current selection into the store here, in the same call stack turn, so the
// child's initial subscription read is never stale.
type GroupAssignedFunc func(model.LinkingColor)

// Orchestrator assigns linking groups to window pairs on demand and opens
// child windows through the window manager. Window role lifecycle: a
// standalone window becomes a master when it first opens a linked child and
// stays master; children never leave their group short of closing.
type Orchestrator struct {
	windows *wm.Manager
	store   *Store
	hooks   map[model.WindowID]GroupAssignedFunc
	onWarn  func(string)
}

// NewOrchestrator wires the orchestrator to a window manager and context
// store. Group release (last window of a color closing) clears the group's
// context automatically.
func NewOrchestrator(windows *wm.Manager, store *Store, onWarn func(string)) *Orchestrator {
	o := &Orchestrator{
		windows: windows,
		store:   store,
		hooks:   make(map[model.WindowID]GroupAssignedFunc),
		onWarn:  onWarn,
	}
	windows.OnGroupReleased(store.Clear)
	return o
}

// SetGroupAssignedHook registers a window's republish hook. Panels that can
// act as masters register at mount and deregister at teardown.
func (o *Orchestrator) SetGroupAssignedHook(id model.WindowID, fn GroupAssignedFunc) {
	if fn == nil {
		delete(o.hooks, id)
		return
	}
	o.hooks[id] = fn
}

// OpenLinked opens a child window linked to the calling master. When the
// caller is standalone it is promoted to master of a freshly allocated
// color; its republish hook runs before the child exists. All colors busy is
// a soft failure: one surfaced warning, ok=false, nothing opened.
func (o *Orchestrator) OpenLinked(masterID model.WindowID, module model.ModuleKey, title string) (model.WindowID, bool) {
	master, found := o.windows.Get(masterID)
	if !found {
		return 0, false
	}

	color := master.LinkingGroup
	if color == model.ColorNone {
		var ok bool
		color, ok = AllocateColor(o.windows.LiveColors())
		if !ok {
			if o.onWarn != nil {
				o.onWarn("all linking colors are in use; close a linked group first")
			}
			return 0, false
		}
		o.windows.AssignGroup(masterID, color, model.RoleMaster)
		if hook := o.hooks[masterID]; hook != nil {
			hook(color)
		}
	}

	childID := o.windows.OpenWindow(module, wm.OpenOptions{
		Title: title,
		Group: color,
		Role:  model.RoleChild,
	})
	return childID, true
}

package wm

import (
	"testing"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

func newTestManager() *Manager {
	return NewManager(1600, 1000, Options{})
}

func TestOpenWindow_CascadeAvoidsExactOverlap(t *testing.T) {
	m := newTestManager()

	a := m.OpenWindow(model.ModulePartList, OpenOptions{})
	b := m.OpenWindow(model.ModulePartList, OpenOptions{})
	c := m.OpenWindow(model.ModulePartList, OpenOptions{})

	wa, _ := m.Get(a)
	wb, _ := m.Get(b)
	wc, _ := m.Get(c)
	if wa.Geom.X == wb.Geom.X && wa.Geom.Y == wb.Geom.Y {
		t.Errorf("Windows a and b share an origin: %+v", wa.Geom)
	}
	if wb.Geom.X == wc.Geom.X && wb.Geom.Y == wc.Geom.Y {
		t.Errorf("Windows b and c share an origin: %+v", wb.Geom)
	}
}

func TestOpenWindow_NewWindowOnTop(t *testing.T) {
	m := newTestManager()

	a := m.OpenWindow(model.ModulePartList, OpenOptions{})
	b := m.OpenWindow(model.ModulePartDetail, OpenOptions{})

	wa, _ := m.Get(a)
	wb, _ := m.Get(b)
	if wb.ZIndex <= wa.ZIndex {
		t.Errorf("New window not on top: a.Z=%d b.Z=%d", wa.ZIndex, wb.ZIndex)
	}
	if m.Topmost() != b {
		t.Errorf("Expected %d topmost, got %d", b, m.Topmost())
	}
}

func TestFocusWindow_NoopWhenTopmost(t *testing.T) {
	m := newTestManager()

	m.OpenWindow(model.ModulePartList, OpenOptions{})
	b := m.OpenWindow(model.ModulePartDetail, OpenOptions{})

	before, _ := m.Get(b)
	m.FocusWindow(b)
	after, _ := m.Get(b)
	if before.ZIndex != after.ZIndex {
		t.Errorf("Focusing the topmost window changed z %d -> %d", before.ZIndex, after.ZIndex)
	}
}

func TestFocusWindow_RaisesAboveAll(t *testing.T) {
	m := newTestManager()

	a := m.OpenWindow(model.ModulePartList, OpenOptions{})
	m.OpenWindow(model.ModulePartDetail, OpenOptions{})
	m.FocusWindow(a)

	if m.Topmost() != a {
		t.Errorf("Expected %d topmost after focus, got %d", a, m.Topmost())
	}
}

func TestResize_ClampsToMinimumFloor(t *testing.T) {
	m := newTestManager()
	geom := model.Geometry{X: 100, Y: 100, W: 400, H: 300}
	id := m.OpenWindow(model.ModulePartList, OpenOptions{Geom: &geom})

	m.Resize(id, -10000, -10000)

	w, _ := m.Get(id)
	if w.Geom.W != DefaultMinWidth || w.Geom.H != DefaultMinHeight {
		t.Errorf("Expected clamp to %dx%d, got %dx%d",
			DefaultMinWidth, DefaultMinHeight, w.Geom.W, w.Geom.H)
	}
}

func TestResize_SnapsToNeighborEdge(t *testing.T) {
	m := newTestManager()
	left := model.Geometry{X: 0, Y: 0, W: 400, H: 400}
	right := model.Geometry{X: 500, Y: 0, W: 400, H: 400}
	a := m.OpenWindow(model.ModulePartList, OpenOptions{Geom: &left})
	m.OpenWindow(model.ModulePartDetail, OpenOptions{Geom: &right})

	// Grow the left window's right edge to 490: within 15 of the neighbor's
	// left edge at 500, so drag-end must snap it exactly there.
	m.Resize(a, 90, 0)
	m.EndResize(a)

	w, _ := m.Get(a)
	if got := w.Geom.X + w.Geom.W; got != 500 {
		t.Errorf("Expected right edge snapped to 500, got %d", got)
	}
}

func TestMove_SnapsToViewportEdgeAtDragEnd(t *testing.T) {
	m := newTestManager()
	geom := model.Geometry{X: 200, Y: 200, W: 400, H: 300}
	id := m.OpenWindow(model.ModulePartList, OpenOptions{Geom: &geom})

	// Land at x=12, inside the 15-unit threshold of the viewport's left edge.
	m.Move(id, -188, 0)

	w, _ := m.Get(id)
	if w.Geom.X != 12 {
		t.Fatalf("Move itself snapped: x=%d, want raw 12", w.Geom.X)
	}

	m.EndMove(id)
	w, _ = m.Get(id)
	if w.Geom.X != 0 {
		t.Errorf("Expected snap to viewport edge 0, got x=%d", w.Geom.X)
	}
}

func TestMove_BeyondThresholdDoesNotSnap(t *testing.T) {
	m := newTestManager()
	geom := model.Geometry{X: 200, Y: 200, W: 400, H: 300}
	id := m.OpenWindow(model.ModulePartList, OpenOptions{Geom: &geom})

	m.Move(id, -150, 7) // x=50, clear of every edge
	m.EndMove(id)

	w, _ := m.Get(id)
	if w.Geom.X != 50 {
		t.Errorf("Unexpected snap: x=%d", w.Geom.X)
	}
}

func TestMove_IncrementalStepsLeaveAnEdge(t *testing.T) {
	m := newTestManager()
	geom := model.Geometry{X: 0, Y: 200, W: 400, H: 300}
	id := m.OpenWindow(model.ModulePartList, OpenOptions{Geom: &geom})

	// Steps smaller than the threshold must accumulate, not get recaptured
	// by the edge on every call.
	for i := 0; i < 10; i++ {
		m.Move(id, 10, 0)
	}

	w, _ := m.Get(id)
	if w.Geom.X != 100 {
		t.Errorf("Window glued to the left edge: x=%d, want 100", w.Geom.X)
	}
}

func TestMaximizeRestore_ExactGeometry(t *testing.T) {
	m := newTestManager()
	geom := model.Geometry{X: 123, Y: 77, W: 456, H: 321}
	id := m.OpenWindow(model.ModulePartList, OpenOptions{Geom: &geom})

	m.Maximize(id)
	w, _ := m.Get(id)
	if !w.Maximized || w.Geom.W != 1600 || w.Geom.H != 1000 {
		t.Fatalf("Maximize did not fill the viewport: %+v", w.Geom)
	}

	m.Restore(id)
	w, _ = m.Get(id)
	if w.Maximized || w.Geom != geom {
		t.Errorf("Restore not exact: got %+v want %+v", w.Geom, geom)
	}
}

func TestMinimizeRestore(t *testing.T) {
	m := newTestManager()
	id := m.OpenWindow(model.ModulePartList, OpenOptions{})

	m.Minimize(id)
	if w, _ := m.Get(id); !w.Minimized {
		t.Fatal("Window not minimized")
	}
	m.Restore(id)
	if w, _ := m.Get(id); w.Minimized {
		t.Error("Window still minimized after restore")
	}
}

func TestInvalidIDsAreNoops(t *testing.T) {
	m := newTestManager()
	id := m.OpenWindow(model.ModulePartList, OpenOptions{})
	before, _ := m.Get(id)

	// None of these may panic or disturb existing state.
	m.CloseWindow(999)
	m.FocusWindow(999)
	m.Move(999, 10, 10)
	m.EndMove(999)
	m.Resize(999, 10, 10)
	m.EndResize(999)
	m.Minimize(999)
	m.Maximize(999)
	m.Restore(999)
	m.AssignGroup(999, model.ColorRed, model.RoleMaster)

	after, _ := m.Get(id)
	if before != after {
		t.Errorf("No-op calls disturbed window state: %+v -> %+v", before, after)
	}
	if len(m.Windows()) != 1 {
		t.Errorf("Window count changed: %d", len(m.Windows()))
	}
}

func TestCloseWindow_ReleasesGroupOnlyWhenLastMemberCloses(t *testing.T) {
	m := newTestManager()
	var released []model.LinkingColor
	m.OnGroupReleased(func(c model.LinkingColor) { released = append(released, c) })

	a := m.OpenWindow(model.ModulePartList, OpenOptions{Group: model.ColorBlue, Role: model.RoleMaster})
	b := m.OpenWindow(model.ModuleTechnology, OpenOptions{Group: model.ColorBlue, Role: model.RoleChild})

	m.CloseWindow(a)
	if len(released) != 0 {
		t.Fatalf("Group released while a member remains open")
	}
	m.CloseWindow(b)
	if len(released) != 1 || released[0] != model.ColorBlue {
		t.Errorf("Expected single blue release, got %v", released)
	}
}

func TestLayoutDirtyTracking(t *testing.T) {
	m := newTestManager()
	if m.LayoutDirty() {
		t.Fatal("Fresh manager should not be dirty")
	}
	id := m.OpenWindow(model.ModulePartList, OpenOptions{})
	if !m.LayoutDirty() {
		t.Fatal("Open did not schedule persistence")
	}
	m.ClearLayoutDirty()
	m.Move(id, 5, 5)
	if !m.LayoutDirty() {
		t.Error("Move did not schedule persistence")
	}
}

// Package wm owns the set of open windows: placement, z-order, geometry,
// minimize/maximize state, linking metadata, and named layouts. All
// operations are synchronous and in-memory; invalid window ids are silent
// no-ops so callers never have to guard workspace plumbing. The manager is
// single-writer: every mutation happens on the UI update goroutine.
package wm

import (
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// Default geometry constraints, in workspace units.
const (
	DefaultMinWidth      = 300
	DefaultMinHeight     = 200
	DefaultSnapThreshold = 15
	DefaultCascadeStep   = 24
)

// Options configures a Manager. Zero values fall back to the defaults above,
// so a terminal frontend can scale the floor and snap threshold to cells
// while the contract stays the same.
type Options struct {
	MinWidth      int
	MinHeight     int
	SnapThreshold int
	CascadeStep   int
}

func (o Options) withDefaults() Options {
	if o.MinWidth <= 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.MinHeight <= 0 {
		o.MinHeight = DefaultMinHeight
	}
	if o.SnapThreshold <= 0 {
		o.SnapThreshold = DefaultSnapThreshold
	}
	if o.CascadeStep <= 0 {
		o.CascadeStep = DefaultCascadeStep
	}
	return o
}

// OpenOptions tweaks window creation.
type OpenOptions struct {
	Title string
	Geom  *model.Geometry // explicit placement; nil means cascade
	Group model.LinkingColor
	Role  model.WindowRole
}

// Manager is the injectable window list container. Tests instantiate
// isolated managers; nothing here is process-global.
type Manager struct {
	opts      Options
	windows   []*model.Window
	nextID    model.WindowID
	viewportW int
	viewportH int

	proportions map[string]float64

	layoutDirty bool

	// onGroupReleased fires when the last window referencing a color closes.
	// The linking orchestrator uses it to clear the group's context.
	onGroupReleased func(model.LinkingColor)
}

// NewManager creates a manager for the given viewport size.
func NewManager(viewportW, viewportH int, opts Options) *Manager {
	return &Manager{
		opts:        opts.withDefaults(),
		viewportW:   viewportW,
		viewportH:   viewportH,
		proportions: make(map[string]float64),
	}
}

// OnGroupReleased registers the group-release hook.
func (m *Manager) OnGroupReleased(fn func(model.LinkingColor)) {
	m.onGroupReleased = fn
}

// SetViewport records a viewport change and re-fits maximized windows.
func (m *Manager) SetViewport(w, h int) {
	m.viewportW, m.viewportH = w, h
	for _, win := range m.windows {
		if win.Maximized {
			win.Geom = model.Geometry{X: 0, Y: 0, W: w, H: h}
		}
	}
}

// Viewport returns the current viewport size.
func (m *Manager) Viewport() (int, int) {
	return m.viewportW, m.viewportH
}

// Windows returns the open windows in creation order. The returned slice is
// a copy; mutation goes through the manager API only.
func (m *Manager) Windows() []model.Window {
	out := make([]model.Window, len(m.windows))
	for i, w := range m.windows {
		out[i] = *w
	}
	return out
}

// Get returns a window snapshot by id.
func (m *Manager) Get(id model.WindowID) (model.Window, bool) {
	if w := m.find(id); w != nil {
		return *w, true
	}
	return model.Window{}, false
}

func (m *Manager) find(id model.WindowID) *model.Window {
	for _, w := range m.windows {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (m *Manager) maxZ() int {
	max := 0
	for _, w := range m.windows {
		if w.ZIndex > max {
			max = w.ZIndex
		}
	}
	return max
}

// OpenWindow creates a window and returns its id. Default placement cascades
// from the last window so no two windows ever overlap exactly; the new
// window lands on top.
func (m *Manager) OpenWindow(module model.ModuleKey, opts OpenOptions) model.WindowID {
	m.nextID++
	win := &model.Window{
		ID:           m.nextID,
		Module:       module,
		Title:        opts.Title,
		ZIndex:       m.maxZ() + 1,
		LinkingGroup: opts.Group,
		Role:         opts.Role,
	}
	if opts.Title == "" {
		win.Title = string(module)
	}
	if opts.Geom != nil {
		win.Geom = m.clampSize(*opts.Geom)
	} else {
		win.Geom = m.cascadePlacement()
	}
	m.windows = append(m.windows, win)
	m.layoutDirty = true
	return win.ID
}

// cascadePlacement picks a default geometry offset from existing windows.
func (m *Manager) cascadePlacement() model.Geometry {
	w := m.viewportW / 2
	h := m.viewportH / 2
	geom := m.clampSize(model.Geometry{X: 0, Y: 0, W: w, H: h})

	step := m.opts.CascadeStep
	for m.occupied(geom.X, geom.Y) {
		geom.X += step
		geom.Y += step / 2
		if geom.X+geom.W > m.viewportW || geom.Y+geom.H > m.viewportH {
			// Wrapped off the viewport; restart the cascade slightly inset.
			geom.X = step / 2
			geom.Y = step / 4
			if m.occupied(geom.X, geom.Y) {
				break
			}
		}
	}
	return geom
}

func (m *Manager) occupied(x, y int) bool {
	for _, w := range m.windows {
		if w.Geom.X == x && w.Geom.Y == y {
			return true
		}
	}
	return false
}

// CloseWindow removes a window. The last window of a linking group releases
// the group (children are never promoted when a master closes; the group
// simply lives until its last member is gone).
func (m *Manager) CloseWindow(id model.WindowID) {
	idx := -1
	for i, w := range m.windows {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	color := m.windows[idx].LinkingGroup
	m.windows = append(m.windows[:idx], m.windows[idx+1:]...)
	m.layoutDirty = true

	if color != model.ColorNone && !m.colorLive(color) && m.onGroupReleased != nil {
		m.onGroupReleased(color)
	}
}

// FocusWindow raises a window to the top of the z-order. No-op when the
// window is already topmost or unknown.
func (m *Manager) FocusWindow(id model.WindowID) {
	win := m.find(id)
	if win == nil {
		return
	}
	if win.ZIndex == m.maxZ() {
		return
	}
	win.ZIndex = m.maxZ() + 1
}

// Topmost returns the id of the highest window, or 0 when none are open.
func (m *Manager) Topmost() model.WindowID {
	var top *model.Window
	for _, w := range m.windows {
		if top == nil || w.ZIndex > top.ZIndex {
			top = w
		}
	}
	if top == nil {
		return 0
	}
	return top.ID
}

// Move shifts a window by a raw delta. Edge snapping happens only at
// EndMove, never on the incremental steps of a gesture, so a window resting
// on an edge can always be nudged off it.
func (m *Manager) Move(id model.WindowID, dx, dy int) {
	win := m.find(id)
	if win == nil || win.Maximized {
		return
	}
	win.Geom.X += dx
	win.Geom.Y += dy
	m.layoutDirty = true
}

// EndMove finishes a positional drag, snapping the window to window and
// viewport edges within the snap threshold.
func (m *Manager) EndMove(id model.WindowID) {
	win := m.find(id)
	if win == nil || win.Maximized {
		return
	}
	m.snapPosition(win)
	m.layoutDirty = true
}

// Resize grows or shrinks a window by a raw delta, clamped to the minimum
// floor. Edge snapping happens only at EndResize.
func (m *Manager) Resize(id model.WindowID, dw, dh int) {
	win := m.find(id)
	if win == nil || win.Maximized {
		return
	}
	win.Geom.W += dw
	win.Geom.H += dh
	win.Geom = m.clampSize(win.Geom)
	m.layoutDirty = true
}

// EndResize finishes a size drag, snapping the moving right and bottom edges.
func (m *Manager) EndResize(id model.WindowID) {
	win := m.find(id)
	if win == nil || win.Maximized {
		return
	}
	m.snapSize(win)
	m.layoutDirty = true
}

func (m *Manager) clampSize(g model.Geometry) model.Geometry {
	if g.W < m.opts.MinWidth {
		g.W = m.opts.MinWidth
	}
	if g.H < m.opts.MinHeight {
		g.H = m.opts.MinHeight
	}
	return g
}

// snapTo returns the candidate edge when v is within the snap threshold of
// it, otherwise v unchanged.
func (m *Manager) snapTo(v int, edges ...int) int {
	for _, e := range edges {
		d := v - e
		if d < 0 {
			d = -d
		}
		if d <= m.opts.SnapThreshold {
			return e
		}
	}
	return v
}

func (m *Manager) snapPosition(win *model.Window) {
	xEdges := []int{0, m.viewportW - win.Geom.W}
	yEdges := []int{0, m.viewportH - win.Geom.H}
	for _, other := range m.windows {
		if other.ID == win.ID || other.Minimized {
			continue
		}
		// Left edge against the other's left and right edges.
		xEdges = append(xEdges, other.Geom.X, other.Geom.X+other.Geom.W, other.Geom.X-win.Geom.W)
		yEdges = append(yEdges, other.Geom.Y, other.Geom.Y+other.Geom.H, other.Geom.Y-win.Geom.H)
	}
	win.Geom.X = m.snapTo(win.Geom.X, xEdges...)
	win.Geom.Y = m.snapTo(win.Geom.Y, yEdges...)
}

func (m *Manager) snapSize(win *model.Window) {
	right := win.Geom.X + win.Geom.W
	bottom := win.Geom.Y + win.Geom.H
	rEdges := []int{m.viewportW}
	bEdges := []int{m.viewportH}
	for _, other := range m.windows {
		if other.ID == win.ID || other.Minimized {
			continue
		}
		rEdges = append(rEdges, other.Geom.X, other.Geom.X+other.Geom.W)
		bEdges = append(bEdges, other.Geom.Y, other.Geom.Y+other.Geom.H)
	}
	right = m.snapTo(right, rEdges...)
	bottom = m.snapTo(bottom, bEdges...)
	win.Geom.W = right - win.Geom.X
	win.Geom.H = bottom - win.Geom.Y
	win.Geom = m.clampSize(win.Geom)
}

// Minimize hides a window from the workspace surface.
func (m *Manager) Minimize(id model.WindowID) {
	if win := m.find(id); win != nil {
		win.Minimized = true
		m.layoutDirty = true
	}
}

// Maximize records the current geometry and fills the viewport.
func (m *Manager) Maximize(id model.WindowID) {
	win := m.find(id)
	if win == nil || win.Maximized {
		return
	}
	win.PreMax = win.Geom
	win.Maximized = true
	win.Minimized = false
	win.Geom = model.Geometry{X: 0, Y: 0, W: m.viewportW, H: m.viewportH}
	m.layoutDirty = true
}

// Restore undoes minimize and maximize; a maximized window returns to its
// exact pre-maximize geometry.
func (m *Manager) Restore(id model.WindowID) {
	win := m.find(id)
	if win == nil {
		return
	}
	if win.Maximized {
		win.Geom = win.PreMax
		win.Maximized = false
	}
	win.Minimized = false
	m.layoutDirty = true
}

// AssignGroup sets a window's linking color and role. Used by the linking
// orchestrator when a group is created or inherited.
func (m *Manager) AssignGroup(id model.WindowID, color model.LinkingColor, role model.WindowRole) {
	win := m.find(id)
	if win == nil {
		return
	}
	win.LinkingGroup = color
	win.Role = role
	m.layoutDirty = true
}

func (m *Manager) colorLive(color model.LinkingColor) bool {
	for _, w := range m.windows {
		if w.LinkingGroup == color {
			return true
		}
	}
	return false
}

// LiveColors reports which linking colors are referenced by open windows.
// The allocator's liveness check before reusing a color.
func (m *Manager) LiveColors() map[model.LinkingColor]bool {
	live := make(map[model.LinkingColor]bool)
	for _, w := range m.windows {
		if w.LinkingGroup != model.ColorNone {
			live[w.LinkingGroup] = true
		}
	}
	return live
}

// GroupWindows returns ids of all windows in a linking group.
func (m *Manager) GroupWindows(color model.LinkingColor) []model.WindowID {
	var ids []model.WindowID
	for _, w := range m.windows {
		if w.LinkingGroup == color {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

// SetProportion records a named area's resize proportion (a percentage)
// for inclusion in saved layouts.
func (m *Manager) SetProportion(area string, pct float64) {
	m.proportions[area] = pct
	m.layoutDirty = true
}

// Proportion returns a stored proportion and whether it exists.
func (m *Manager) Proportion(area string) (float64, bool) {
	v, ok := m.proportions[area]
	return v, ok
}

// LayoutDirty reports whether window state changed since the last
// persistence flush.
func (m *Manager) LayoutDirty() bool { return m.layoutDirty }

// ClearLayoutDirty acknowledges a persistence flush.
func (m *Manager) ClearLayoutDirty() { m.layoutDirty = false }

package wm

import (
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// SnapshotLayout captures the open window set as a named layout. Geometry is
// stored as viewport fractions so a layout survives viewport changes.
func (m *Manager) SnapshotLayout(name string) model.Layout {
	layout := model.Layout{Name: name}
	if len(m.proportions) > 0 {
		layout.Proportions = make(map[string]float64, len(m.proportions))
		for k, v := range m.proportions {
			layout.Proportions[k] = v
		}
	}
	if m.viewportW <= 0 || m.viewportH <= 0 {
		return layout
	}
	for _, w := range m.windows {
		geom := w.Geom
		if w.Maximized {
			geom = w.PreMax
		}
		layout.Windows = append(layout.Windows, model.LayoutWindow{
			Module:       w.Module,
			Title:        w.Title,
			LinkingGroup: w.LinkingGroup,
			Role:         w.Role,
			Minimized:    w.Minimized,
			Geometry: model.GeometryRatio{
				X: float64(geom.X) / float64(m.viewportW),
				Y: float64(geom.Y) / float64(m.viewportH),
				W: float64(geom.W) / float64(m.viewportW),
				H: float64(geom.H) / float64(m.viewportH),
			},
		})
	}
	return layout
}

// ApplyLayout makes the open window set match the layout: windows whose
// module appears in the layout are repositioned (reused in order), extra
// windows are closed, missing ones are opened. Fractions are projected onto
// the current viewport and clamped to the size floor, so a layout saved on a
// large viewport degrades gracefully on a small one.
func (m *Manager) ApplyLayout(layout model.Layout) {
	claimed := make(map[model.WindowID]bool)
	liveBefore := m.LiveColors()

	for _, lw := range layout.Windows {
		geom := m.clampSize(model.Geometry{
			X: int(lw.Geometry.X * float64(m.viewportW)),
			Y: int(lw.Geometry.Y * float64(m.viewportH)),
			W: int(lw.Geometry.W * float64(m.viewportW)),
			H: int(lw.Geometry.H * float64(m.viewportH)),
		})

		if win := m.findUnclaimed(lw.Module, claimed); win != nil {
			win.Geom = geom
			win.Title = lw.Title
			win.LinkingGroup = lw.LinkingGroup
			win.Role = lw.Role
			win.Minimized = lw.Minimized
			win.Maximized = false
			claimed[win.ID] = true
			continue
		}

		id := m.OpenWindow(lw.Module, OpenOptions{
			Title: lw.Title,
			Geom:  &geom,
			Group: lw.LinkingGroup,
			Role:  lw.Role,
		})
		if lw.Minimized {
			m.Minimize(id)
		}
		claimed[id] = true
	}

	// Close everything the layout does not mention.
	for _, w := range m.Windows() {
		if !claimed[w.ID] {
			m.CloseWindow(w.ID)
		}
	}

	// Reused windows may have shed a color without closing; release any
	// group that lost its last reference during the load.
	liveAfter := m.LiveColors()
	for color := range liveBefore {
		if !liveAfter[color] && m.onGroupReleased != nil {
			m.onGroupReleased(color)
		}
	}

	if layout.Proportions != nil {
		m.proportions = make(map[string]float64, len(layout.Proportions))
		for k, v := range layout.Proportions {
			m.proportions[k] = v
		}
	}
	m.layoutDirty = true
}

func (m *Manager) findUnclaimed(module model.ModuleKey, claimed map[model.WindowID]bool) *model.Window {
	for _, w := range m.windows {
		if w.Module == module && !claimed[w.ID] {
			return w
		}
	}
	return nil
}

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// chromeRows is the vertical overhead of a window: border (2) + title bar.
const chromeRows = 3

// innerSize returns the content area available to a panel inside its chrome.
func innerSize(g model.Geometry) (int, int) {
	w := g.W - 2
	h := g.H - chromeRows
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// renderWindow draws one window's chrome around already-rendered panel
// content, sized exactly to the window geometry so the compositor can place
// it without measuring.
func renderWindow(win model.Window, body string, focused bool) string {
	innerW, innerH := innerSize(win.Geom)

	dot := lipgloss.NewStyle().Foreground(LinkColor(win.LinkingGroup)).Render("●")
	if win.LinkingGroup == model.ColorNone {
		dot = TitleDimStyle.Render("○")
	}
	role := ""
	if win.Role == model.RoleMaster {
		role = RoleBadgeStyle.Background(LinkColor(win.LinkingGroup)).Render(" M ")
	} else if win.Role == model.RoleChild {
		role = RoleBadgeStyle.Background(LinkColor(win.LinkingGroup)).Render(" C ")
	}

	titleStyle := TitleDimStyle
	if focused {
		titleStyle = TitleStyle
	}
	roleW := lipgloss.Width(role)
	title := runewidth.Truncate(win.Title, innerW-roleW-3, "…")
	left := dot + " " + titleStyle.Render(title)
	gap := innerW - lipgloss.Width(left) - roleW
	if gap < 0 {
		gap = 0
	}
	titleBar := left + strings.Repeat(" ", gap) + role

	content := titleBar + "\n" + fitBlock(body, innerW, innerH)

	style := WindowStyle
	if focused {
		style = FocusedWindowStyle
	}
	return style.Width(innerW).Render(content)
}

// fitBlock pads or clips s to exactly w cells by h lines.
func fitBlock(s string, w, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	for i, line := range lines {
		line = ansi.Truncate(line, w, "")
		if pad := w - ansi.StringWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

package ui

import "github.com/charmbracelet/glamour"

const helpMarkdown = `# Workspace

| Key | Action |
|-----|--------|
| ctrl+n | new part list window |
| tab | focus next window |
| ctrl+w | close focused window |
| ctrl+b | minimize focused window |
| ctrl+f | maximize / restore |
| alt+arrows | move window |
| ctrl+arrows | resize window |
| ctrl+s | save layout |
| ctrl+o | open layout |
| ctrl+e | toggle activity log |
| ? | this help |
| ctrl+c | quit |

## Part list

/ search, f status filter, j/k move, enter detail,
l linked technology, o linked quote, y copy number.

## Editors

tab between fields, esc to stop editing. Edits save on their
own shortly after you stop typing; ● marks a field the server
has not accepted yet (R retries).
`

// helpOverlay renders the key reference centered over the workspace.
type helpOverlay struct {
	visible  bool
	width    int
	rendered string
}

func (h *helpOverlay) Toggle() { h.visible = !h.visible }

func (h *helpOverlay) Hide() { h.visible = false }

func (h *helpOverlay) Visible() bool { return h.visible }

// View renders the markdown at the given width, caching per width since
// glamour rendering is not cheap enough for every frame.
func (h *helpOverlay) View(width int) string {
	if !h.visible {
		return ""
	}
	if width > 70 {
		width = 70
	}
	if width != h.width || h.rendered == "" {
		h.width = width
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-6),
		)
		if err != nil {
			h.rendered = helpMarkdown
		} else if out, err := r.Render(helpMarkdown); err == nil {
			h.rendered = out
		} else {
			h.rendered = helpMarkdown
		}
	}
	return OverlayStyle.Render(h.rendered)
}
